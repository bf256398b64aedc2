package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/urlbox/internal/db/memorycache"
)

func TestSaveOverwritesPriorSession(t *testing.T) {
	ctx := context.Background()
	sessions := New(memorycache.New(), time.Hour)

	require.NoError(t, sessions.Save(ctx, 1, "first-token"))
	require.NoError(t, sessions.Save(ctx, 1, "second-token"))

	value, found, err := sessions.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "second-token", value)
}

func TestDropIsIdempotent(t *testing.T) {
	ctx := context.Background()
	sessions := New(memorycache.New(), time.Hour)

	require.NoError(t, sessions.Save(ctx, 1, "token"))
	require.NoError(t, sessions.Drop(ctx, 1))
	require.NoError(t, sessions.Drop(ctx, 1))
	require.NoError(t, sessions.Drop(ctx, 99))

	_, found, err := sessions.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSessionsAreKeyedPerUser(t *testing.T) {
	ctx := context.Background()
	sessions := New(memorycache.New(), time.Hour)

	require.NoError(t, sessions.Save(ctx, 1, "token-of-1"))
	require.NoError(t, sessions.Save(ctx, 2, "token-of-2"))
	require.NoError(t, sessions.Drop(ctx, 1))

	_, found, err := sessions.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)

	value, found, err := sessions.Get(ctx, 2)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "token-of-2", value)
}
