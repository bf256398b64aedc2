package memorystorage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/urlbox/internal/models"
)

func TestCreateUserEnforcesUniqueUsername(t *testing.T) {
	ctx := context.Background()
	store := New()

	firstID, err := store.CreateUser(ctx, "alice", "hash-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), firstID)

	_, err = store.CreateUser(ctx, "alice", "hash-2")
	assert.ErrorIs(t, err, models.ErrUsernameTaken)

	secondID, err := store.CreateUser(ctx, "bob", "hash-3")
	require.NoError(t, err)
	assert.Equal(t, int64(2), secondID)
}

func TestFindUserByUsername(t *testing.T) {
	ctx := context.Background()
	store := New()

	_, err := store.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)

	usr, found, err := store.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "alice", usr.Username)
	assert.Equal(t, "hash", usr.PasswordHash)

	_, found, err = store.FindUserByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetUserURLsKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := New()

	store.AppendUserURL(1, models.UserURL{OriginalURL: "http://a.com", ShortURL: "aaa"})
	store.AppendUserURL(1, models.UserURL{OriginalURL: "http://b.com", ShortURL: "bbb"})
	store.AppendUserURL(2, models.UserURL{OriginalURL: "http://c.com", ShortURL: "ccc"})

	urls, err := store.GetUserURLs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.UserURLs{
		{OriginalURL: "http://a.com", ShortURL: "aaa"},
		{OriginalURL: "http://b.com", ShortURL: "bbb"},
	}, urls)

	assert.Equal(t, 1, store.UserURLsQueryCount())
}
