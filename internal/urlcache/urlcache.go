// Package urlcache stores a user's URL directory in the TTL cache under
// urls:{user_id} as a JSON-serialized ordered list. Entries are refreshed
// by whole-list overwrite, never patched in place.
package urlcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mkravets/urlbox/internal/models"
)

type cacheKeeper interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// URLCache is the cache side of the cache-aside URL directory.
type URLCache struct {
	cache cacheKeeper
	ttl   time.Duration
}

// New creates a URLCache over the given cache with the given TTL.
func New(cache cacheKeeper, ttl time.Duration) *URLCache {
	return &URLCache{
		cache: cache,
		ttl:   ttl,
	}
}

// Key returns the cache key of the user's URL directory entry.
func Key(userID int64) string {
	return fmt.Sprintf("urls:%d", userID)
}

// Get returns the cached URL list for the user. The boolean reports a cache
// hit; a deserialization failure is returned as an error so that callers
// can degrade to a miss.
func (c *URLCache) Get(ctx context.Context, userID int64) (models.UserURLs, bool, error) {
	raw, found, err := c.cache.Get(ctx, Key(userID))
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	var urls models.UserURLs
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry %q: %w", Key(userID), err)
	}

	return urls, true, nil
}

// Save overwrites the user's cached URL list and resets the TTL.
func (c *URLCache) Save(ctx context.Context, userID int64, urls models.UserURLs) error {
	raw, err := json.Marshal(urls)
	if err != nil {
		return err
	}

	return c.cache.Set(ctx, Key(userID), string(raw), c.ttl)
}
