// Package mockstorage provides testify-based mocks of the credential store
// and cache interfaces. They are used to simulate storage failures that the
// in-memory implementations cannot produce.
package mockstorage

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/mkravets/urlbox/internal/models"
	"github.com/mkravets/urlbox/internal/user"
)

// StorageMock is a testify mock of the credential store interface.
type StorageMock struct {
	mock.Mock
}

// CreateUser mocks inserting a user.
func (m *StorageMock) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	args := m.Called(ctx, username, passwordHash)
	return args.Get(0).(int64), args.Error(1)
}

// FindUserByUsername mocks the user lookup.
func (m *StorageMock) FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error) {
	args := m.Called(ctx, username)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// GetUserURLs mocks fetching a user's URL directory.
func (m *StorageMock) GetUserURLs(ctx context.Context, userID int64) (models.UserURLs, error) {
	args := m.Called(ctx, userID)
	urls, _ := args.Get(0).(models.UserURLs)
	return urls, args.Error(1)
}

// Ping mocks the health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks releasing the store.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// CacheMock is a testify mock of the key-value cache interface.
type CacheMock struct {
	mock.Mock
}

// Get mocks a cache read.
func (m *CacheMock) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

// Set mocks a cache write.
func (m *CacheMock) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// Delete mocks a cache delete.
func (m *CacheMock) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Ping mocks the cache health check.
func (m *CacheMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks releasing the cache.
func (m *CacheMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
