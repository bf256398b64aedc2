// Package memorystorage provides an in-memory implementation of the
// credential store. It backs development runs without a database and the
// unit tests, where its query counter makes cache-aside behavior observable.
package memorystorage

import (
	"context"
	"sync"
	"time"

	"github.com/mkravets/urlbox/internal/models"
	"github.com/mkravets/urlbox/internal/user"
)

// MemoryStorage is a credential store held entirely in process memory.
type MemoryStorage struct {
	mu              sync.RWMutex
	usersByName     map[string]*user.User
	urlsByUserID    map[int64]models.UserURLs
	nextUserID      int64
	userURLsQueries int
}

func New() *MemoryStorage {
	return &MemoryStorage{
		usersByName:  map[string]*user.User{},
		urlsByUserID: map[int64]models.UserURLs{},
		nextUserID:   1,
	}
}

// CreateUser inserts a new user, enforcing username uniqueness.
func (s *MemoryStorage) CreateUser(_ context.Context, username, passwordHash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByName[username]; exists {
		return 0, models.ErrUsernameTaken
	}

	usr := &user.User{
		ID:           s.nextUserID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	s.usersByName[username] = usr
	s.nextUserID++

	return usr.ID, nil
}

// FindUserByUsername returns the user with the given username, if any.
func (s *MemoryStorage) FindUserByUsername(_ context.Context, username string) (*user.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usr, found := s.usersByName[username]
	if !found {
		return nil, false, nil
	}

	copied := *usr

	return &copied, true, nil
}

// GetUserURLs returns the user's URL pairs in insertion order.
func (s *MemoryStorage) GetUserURLs(_ context.Context, userID int64) (models.UserURLs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userURLsQueries++

	result := make(models.UserURLs, len(s.urlsByUserID[userID]))
	copy(result, s.urlsByUserID[userID])

	return result, nil
}

// AppendUserURL records a new URL pair for the user. The external shortening
// service writes the row in production; tests use this to mirror that write.
func (s *MemoryStorage) AppendUserURL(userID int64, item models.UserURL) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.urlsByUserID[userID] = append(s.urlsByUserID[userID], item)
}

// UserURLsQueryCount reports how many times GetUserURLs hit this store.
func (s *MemoryStorage) UserURLsQueryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.userURLsQueries
}

func (s *MemoryStorage) Ping(_ context.Context) error {
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}
