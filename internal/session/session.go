// Package session owns the single-slot session policy: at most one live
// session per user, stored in the TTL cache under session:{user_id}. A new
// login overwrites the slot and thereby revokes the previous session even
// though the old token would still verify cryptographically.
package session

import (
	"context"
	"fmt"
	"time"
)

type cacheKeeper interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Sessions manages the per-user session slots.
type Sessions struct {
	cache cacheKeeper
	ttl   time.Duration
}

// New creates a Sessions policy over the given cache with the given TTL.
func New(cache cacheKeeper, ttl time.Duration) *Sessions {
	return &Sessions{
		cache: cache,
		ttl:   ttl,
	}
}

// Key returns the cache key of the user's session slot.
func Key(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}

// Save stores the token as the user's only live session, overwriting and
// thereby revoking any prior one, and resets the TTL.
func (s *Sessions) Save(ctx context.Context, userID int64, token string) error {
	return s.cache.Set(ctx, Key(userID), token, s.ttl)
}

// Get returns the currently live session token for the user, if any.
func (s *Sessions) Get(ctx context.Context, userID int64) (string, bool, error) {
	return s.cache.Get(ctx, Key(userID))
}

// Drop destroys the user's session. It is idempotent: dropping an absent
// session is not an error.
func (s *Sessions) Drop(ctx context.Context, userID int64) error {
	return s.cache.Delete(ctx, Key(userID))
}
