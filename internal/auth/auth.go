// Package auth provides the authentication gate: it combines token
// verification with a session-cache lookup, so that a cryptographically
// valid token is rejected once its session was logged out or superseded by
// a newer login.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mkravets/urlbox/internal/logger"
	"github.com/mkravets/urlbox/internal/models"
)

var (
	// ErrNoToken means the request carried no bearer credential.
	ErrNoToken = errors.New("token missing")

	// ErrSessionRevoked means the token verified but is not the user's
	// currently live session: it was logged out, superseded by a newer
	// login, or the session expired in the cache.
	ErrSessionRevoked = errors.New("invalid session")
)

type tokenVerifier interface {
	Verify(tokenString string) (int64, error)
}

type sessionKeeper interface {
	Get(ctx context.Context, userID int64) (string, bool, error)
}

// Auth authenticates incoming requests.
type Auth struct {
	tokens   tokenVerifier
	sessions sessionKeeper
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserIDKey is the context key under which the authenticated user's id is stored.
const UserIDKey ContextKey = "userID"

// New creates an Auth gate over the given token verifier and session store.
func New(tokens tokenVerifier, sessions sessionKeeper) *Auth {
	return &Auth{
		tokens:   tokens,
		sessions: sessions,
	}
}

// Authenticate validates a bearer credential string and returns the
// authenticated user id. The credential must verify as a token AND match
// the user's currently live session.
func (a *Auth) Authenticate(ctx context.Context, credential string) (int64, error) {
	if credential == "" {
		return 0, ErrNoToken
	}

	userID, err := a.tokens.Verify(credential)
	if err != nil {
		return 0, err
	}

	cachedToken, found, err := a.sessions.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !found || cachedToken != credential {
		return 0, ErrSessionRevoked
	}

	return userID, nil
}

// AuthenticateUser is an HTTP middleware that authenticates requests via
// the Authorization header and stores the user id in the request context.
// Every failure is answered with 401; token-layer details stay in the logs.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		credential := tokenFromAuthorizationHeader(request)

		userID, err := a.Authenticate(request.Context(), credential)
		if err != nil {
			logger.Log.Debugln("authentication rejected:", zap.Error(err))
			writeUnauthorized(response, err)

			return
		}

		ctx := context.WithValue(request.Context(), UserIDKey, userID)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// UserIDFromContext extracts the authenticated user id set by the middleware.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)

	return userID, ok
}

func tokenFromAuthorizationHeader(request *http.Request) string {
	header := request.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	return strings.TrimPrefix(header, "Bearer ")
}

func writeUnauthorized(response http.ResponseWriter, err error) {
	message := "authentication failed"
	switch {
	case errors.Is(err, ErrNoToken):
		message = ErrNoToken.Error()
	case errors.Is(err, ErrSessionRevoked):
		message = ErrSessionRevoked.Error()
	}

	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(response).Encode(models.ErrorResponse{Error: message})
}
