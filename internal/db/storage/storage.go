// Package storage declares the interfaces implemented by the durable
// credential store backends and by the TTL key-value cache backends.
package storage

import (
	"context"
	"time"

	"github.com/mkravets/urlbox/internal/models"
	"github.com/mkravets/urlbox/internal/user"
)

// Storage is the durable credential store: the source of truth for users
// and their shortened URLs.
type Storage interface {
	// CreateUser inserts a new user and returns its id. It returns
	// models.ErrUsernameTaken when the username is already registered.
	CreateUser(ctx context.Context, username, passwordHash string) (int64, error)

	// FindUserByUsername returns the user with the given username.
	// The boolean reports whether such a user exists.
	FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error)

	// GetUserURLs returns every URL pair of the user in creation order.
	GetUserURLs(ctx context.Context, userID int64) (models.UserURLs, error)

	Ping(ctx context.Context) error

	Close() error
}

// KeyValueCache is a key-value store with per-key TTL. It backs both the
// session slots and the URL directory cache.
type KeyValueCache interface {
	// Get returns the value at key. The boolean reports whether the key
	// exists; an expired or absent key is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value at key with the given TTL, overwriting any prior value.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error

	Close() error
}
