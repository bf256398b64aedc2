// Package noexit defines an analyzer that reports direct calls to os.Exit
// inside the main function of package main. Exiting there skips deferred
// cleanup such as logger flushing and storage close.
package noexit

import (
	"go/ast"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer reports direct os.Exit calls in main.main.
var Analyzer = &analysis.Analyzer{
	Name: "noexit",
	Doc:  "forbids direct os.Exit calls in main.main",
	Run:  run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}

	for _, file := range pass.Files {
		// Generated files under the build cache are not ours to lint.
		filename := pass.Fset.File(file.Pos()).Name()
		if strings.Contains(filepath.ToSlash(filename), "/go-build/") {
			continue
		}

		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv != nil || fn.Name.Name != "main" {
				continue
			}

			ast.Inspect(fn.Body, func(node ast.Node) bool {
				call, ok := node.(*ast.CallExpr)
				if !ok {
					return true
				}

				selector, ok := call.Fun.(*ast.SelectorExpr)
				if !ok || selector.Sel.Name != "Exit" {
					return true
				}

				if ident, ok := selector.X.(*ast.Ident); ok && ident.Name == "os" {
					pass.Reportf(call.Pos(), "do not call os.Exit directly in main.main")
				}

				return true
			})
		}
	}

	return nil, nil
}
