// Package service implements the business logic of the backend: account
// registration and login, the revocable session model, the cache-aside URL
// directory and the orchestration of short-link creation.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/thoas/go-funk"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkravets/urlbox/internal/logger"
	"github.com/mkravets/urlbox/internal/models"
	"github.com/mkravets/urlbox/internal/user"
)

type userKeeper interface {
	CreateUser(ctx context.Context, username, passwordHash string) (int64, error)
	FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error)
}

type userURLsKeeper interface {
	GetUserURLs(ctx context.Context, userID int64) (models.UserURLs, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	userKeeper
	userURLsKeeper
	pinger
}

type sessionKeeper interface {
	Save(ctx context.Context, userID int64, token string) error
	Drop(ctx context.Context, userID int64) error
}

type urlsCache interface {
	Get(ctx context.Context, userID int64) (models.UserURLs, bool, error)
	Save(ctx context.Context, userID int64, urls models.UserURLs) error
}

type shortenerClient interface {
	Shorten(ctx context.Context, originalURL string, userID int64) (string, error)
	Resolve(ctx context.Context, short string) (string, error)
}

type tokenIssuer interface {
	Issue(userID int64) (string, error)
}

// Service wires the credential store, the session and URL caches, the token
// issuer and the external shortening service together.
type Service struct {
	db          storage
	sessions    sessionKeeper
	urls        urlsCache
	upstream    shortenerClient
	tokens      tokenIssuer
	cachePinger pinger
}

// New creates a Service over its collaborators.
func New(
	db storage,
	sessions sessionKeeper,
	urls urlsCache,
	upstream shortenerClient,
	tokens tokenIssuer,
	cachePinger pinger,
) *Service {
	return &Service{
		db:          db,
		sessions:    sessions,
		urls:        urls,
		upstream:    upstream,
		tokens:      tokens,
		cachePinger: cachePinger,
	}
}

// Register creates a new account with a bcrypt-hashed password and returns
// the new user id. Registering an existing username fails with
// models.ErrUsernameTaken.
func (s *Service) Register(ctx context.Context, username, password string) (int64, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	return s.db.CreateUser(ctx, username, string(passwordHash))
}

// Login verifies the credentials, issues a token and stores it as the
// user's only live session. A prior session of the same user is silently
// revoked by the overwrite.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	usr, found, err := s.db.FindUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if !found {
		return "", models.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password)); err != nil {
		return "", models.ErrInvalidCredentials
	}

	authToken, err := s.tokens.Issue(usr.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	if err := s.sessions.Save(ctx, usr.ID, authToken); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	return authToken, nil
}

// Logout destroys the user's session. It is idempotent.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.sessions.Drop(ctx, userID)
}

// GetUserURLs returns the user's URL directory, cache-aside: a cache hit is
// served without touching the credential store; a miss falls through to the
// store and repopulates the cache. Cache failures degrade to a miss so that
// read availability is not bounded by cache availability.
func (s *Service) GetUserURLs(ctx context.Context, userID int64) (models.UserURLs, error) {
	cached, found, err := s.urls.Get(ctx, userID)
	if err != nil {
		logger.Log.Warnln("url cache read failed, falling through to storage:", zap.Error(err))
	}
	if found && err == nil {
		return cached, nil
	}

	urls, err := s.db.GetUserURLs(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.urls.Save(ctx, userID, urls); err != nil {
		logger.Log.Warnln("url cache population failed:", zap.Error(err))
	}

	return urls, nil
}

// CreateShortLink submits the URL to the external shortening service and
// refreshes the user's cached URL directory from the credential store.
//
// The duplicate check runs against the currently cached or just-fetched
// list, not against a store-level uniqueness constraint; concurrent
// submissions of the same URL by one user can race past it.
func (s *Service) CreateShortLink(ctx context.Context, userID int64, originalURL string) (models.UserURL, error) {
	known, err := s.GetUserURLs(ctx, userID)
	if err != nil {
		return models.UserURL{}, err
	}

	lowered := funk.Map(known, func(item models.UserURL) string {
		return strings.ToLower(item.OriginalURL)
	}).([]string)
	if funk.ContainsString(lowered, strings.ToLower(originalURL)) {
		return models.UserURL{}, models.ErrDuplicateURL
	}

	shortURL, err := s.upstream.Shorten(ctx, originalURL, userID)
	if err != nil {
		return models.UserURL{}, err
	}

	// Invalidate-and-repopulate: re-read the full list from the store,
	// bypassing the cache, and overwrite the entry with a fresh TTL.
	refreshed, err := s.db.GetUserURLs(ctx, userID)
	if err != nil {
		return models.UserURL{}, err
	}

	if err := s.urls.Save(ctx, userID, refreshed); err != nil {
		logger.Log.Warnln("url cache refresh failed after shortening:", zap.Error(err))
	}

	return models.UserURL{
		OriginalURL: originalURL,
		ShortURL:    shortURL,
	}, nil
}

// ResolveShortURL looks up the original URL behind a short code via the
// shortening service.
func (s *Service) ResolveShortURL(ctx context.Context, short string) (string, error) {
	return s.upstream.Resolve(ctx, short)
}

// Ping checks the health of the credential store and the cache.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("storage ping: %w", err)
	}

	if err := s.cachePinger.Ping(ctx); err != nil {
		return fmt.Errorf("cache ping: %w", err)
	}

	return nil
}
