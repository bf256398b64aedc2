// Package app initializes and runs the backend service. It loads
// configuration, sets up logging, the credential store, the TTL cache, the
// token manager and the HTTP routing, and handles graceful shutdown.
package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/mkravets/urlbox/internal/auth"
	"github.com/mkravets/urlbox/internal/config"
	"github.com/mkravets/urlbox/internal/db/memorycache"
	"github.com/mkravets/urlbox/internal/db/memorystorage"
	"github.com/mkravets/urlbox/internal/db/postgresdb"
	"github.com/mkravets/urlbox/internal/db/rediscache"
	"github.com/mkravets/urlbox/internal/db/storage"
	"github.com/mkravets/urlbox/internal/logger"
	"github.com/mkravets/urlbox/internal/metrics"
	"github.com/mkravets/urlbox/internal/ratelimit"
	"github.com/mkravets/urlbox/internal/router"
	"github.com/mkravets/urlbox/internal/service"
	"github.com/mkravets/urlbox/internal/session"
	"github.com/mkravets/urlbox/internal/shortener"
	"github.com/mkravets/urlbox/internal/token"
	"github.com/mkravets/urlbox/internal/urlcache"
)

// Credential endpoints budget: 10 requests per minute per client.
const (
	credentialsRateLimit = rate.Limit(10.0 / 60.0)
	credentialsBurst     = 10
)

// App encapsulates the configuration, storage backends and HTTP handler
// needed to run the service.
type App struct {
	cfg                *config.Config
	db                 storage.Storage
	cache              storage.KeyValueCache
	credentialsLimiter *ratelimit.Limiter
	httpHandler        http.Handler
}

// New initializes a new App instance:
//   - loading configuration
//   - initializing the logger
//   - selecting and setting up the credential store and the cache
//   - wiring the token manager, session policy, URL cache and service
//   - setting up the router and middleware
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	if err = logger.Init(app.cfg.LogLevel); err != nil {
		return nil, err
	}

	app.db, err = getStorageByConfig(app.cfg)
	if err != nil {
		return nil, err
	}

	app.cache, err = getCacheByConfig(app.cfg)
	if err != nil {
		return nil, err
	}

	signingSecretKey, err := base64.URLEncoding.DecodeString(app.cfg.TokenSigningSecretKey)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	tokens := token.New(signingSecretKey, app.cfg.TokenTTL)
	sessions := session.New(app.cache, app.cfg.SessionTTL)
	urls := urlcache.New(app.cache, app.cfg.URLCacheTTL)
	upstream := shortener.New(app.cfg.ShortenerBaseURL, app.cfg.ShortenerTimeout)

	svc := service.New(app.db, sessions, urls, upstream, tokens, app.cache)

	app.credentialsLimiter = ratelimit.New(credentialsRateLimit, credentialsBurst)

	appMetrics := metrics.New()

	app.httpHandler = router.New(
		svc,
		auth.New(tokens, sessions),
		app.credentialsLimiter,
		appMetrics.CountRequestsMiddleware,
		appMetrics.Handler(),
	)

	return app, nil
}

// Run starts the HTTP server with graceful shutdown support. It listens for
// system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Closing stores and exiting...")
		a.credentialsLimiter.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		if err := a.cache.Close(); err != nil {
			logger.Log.Errorln("cache close error:", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getStorageByConfig(cfg *config.Config) (storage.Storage, error) {
	if cfg.DatabaseDSN != "" {
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
		)
	}

	logger.Log.Warnln("no database DSN configured, using in-memory storage")

	return memorystorage.New(), nil
}

func getCacheByConfig(cfg *config.Config) (storage.KeyValueCache, error) {
	if cfg.RedisAddr != "" {
		return rediscache.New(
			context.Background(),
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
		)
	}

	logger.Log.Warnln("no redis address configured, using in-memory cache")

	return memorycache.New(), nil
}
