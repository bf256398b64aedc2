package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/urlbox/internal/auth"
	"github.com/mkravets/urlbox/internal/db/memorycache"
	"github.com/mkravets/urlbox/internal/db/memorystorage"
	"github.com/mkravets/urlbox/internal/mockstorage"
	"github.com/mkravets/urlbox/internal/models"
	"github.com/mkravets/urlbox/internal/session"
	"github.com/mkravets/urlbox/internal/shortener"
	"github.com/mkravets/urlbox/internal/token"
	"github.com/mkravets/urlbox/internal/urlcache"
)

type testEnv struct {
	store         *memorystorage.MemoryStorage
	cache         *memorycache.MemoryCache
	tokens        *token.Manager
	sessions      *session.Sessions
	svc           *Service
	upstreamCalls *int64
}

// newTestEnv builds a Service over in-memory backends and a stub shortening
// service. The stub appends the created pair to the store, mirroring the
// real service's write to the urls table.
func newTestEnv(t *testing.T, shortCode string) *testEnv {
	t.Helper()

	store := memorystorage.New()
	cache := memorycache.New()
	tokens := token.New([]byte("test-secret"), time.Hour)
	sessions := session.New(cache, time.Hour)
	urls := urlcache.New(cache, time.Hour)

	var upstreamCalls int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&upstreamCalls, 1)

		var body struct {
			URL    string `json:"url"`
			UserID int64  `json:"user_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		store.AppendUserURL(body.UserID, models.UserURL{
			OriginalURL: body.URL,
			ShortURL:    shortCode,
		})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"short_url":%q}`, shortCode)
	}))
	t.Cleanup(upstream.Close)

	client := shortener.New(upstream.URL, time.Second)

	return &testEnv{
		store:         store,
		cache:         cache,
		tokens:        tokens,
		sessions:      sessions,
		svc:           New(store, sessions, urls, client, tokens, cache),
		upstreamCalls: &upstreamCalls,
	}
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "abc123")

	userID, err := env.svc.Register(ctx, "alice", "password1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), userID)

	tokenString, err := env.svc.Login(ctx, "alice", "password1")
	require.NoError(t, err)

	verifiedID, err := env.tokens.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, userID, verifiedID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "abc123")

	_, err := env.svc.Register(ctx, "alice", "password1")
	require.NoError(t, err)

	_, err = env.svc.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = env.svc.Login(ctx, "nobody", "password1")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestSecondLoginRevokesFirstSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "abc123")

	userID, err := env.svc.Register(ctx, "alice", "password1")
	require.NoError(t, err)

	firstToken, err := env.svc.Login(ctx, "alice", "password1")
	require.NoError(t, err)

	// The issuer embeds issued-at with second resolution; both logins land
	// in the same second, so make the tokens distinguishable by waiting.
	time.Sleep(1100 * time.Millisecond)

	secondToken, err := env.svc.Login(ctx, "alice", "password1")
	require.NoError(t, err)
	require.NotEqual(t, firstToken, secondToken)

	gate := auth.New(env.tokens, env.sessions)

	_, err = gate.Authenticate(ctx, firstToken)
	assert.ErrorIs(t, err, auth.ErrSessionRevoked)

	authenticatedID, err := gate.Authenticate(ctx, secondToken)
	require.NoError(t, err)
	assert.Equal(t, userID, authenticatedID)
}

func TestLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "abc123")

	userID, err := env.svc.Register(ctx, "alice", "password1")
	require.NoError(t, err)

	_, err = env.svc.Login(ctx, "alice", "password1")
	require.NoError(t, err)

	require.NoError(t, env.svc.Logout(ctx, userID))
	require.NoError(t, env.svc.Logout(ctx, userID))
	require.NoError(t, env.svc.Logout(ctx, 999))
}

func TestGetUserURLsIsCacheAside(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "abc123")

	env.store.AppendUserURL(1, models.UserURL{OriginalURL: "http://foo.com", ShortURL: "abc123"})

	first, err := env.svc.GetUserURLs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, env.store.UserURLsQueryCount())

	// Within the TTL window the second read is served from the cache.
	second, err := env.svc.GetUserURLs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, env.store.UserURLsQueryCount())
}

func TestCreateShortLinkRefreshesCache(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "new456")

	env.store.AppendUserURL(1, models.UserURL{OriginalURL: "http://old.com", ShortURL: "old123"})

	// Prime the cache with the current list.
	_, err := env.svc.GetUserURLs(ctx, 1)
	require.NoError(t, err)
	queriesBefore := env.store.UserURLsQueryCount()

	created, err := env.svc.CreateShortLink(ctx, 1, "http://new.com")
	require.NoError(t, err)
	assert.Equal(t, models.UserURL{OriginalURL: "http://new.com", ShortURL: "new456"}, created)

	// The very next read must reflect the new entry, served from the
	// repopulated cache without another store query.
	queriesAfterCreate := env.store.UserURLsQueryCount()
	urls, err := env.svc.GetUserURLs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.UserURLs{
		{OriginalURL: "http://old.com", ShortURL: "old123"},
		{OriginalURL: "http://new.com", ShortURL: "new456"},
	}, urls)
	assert.Equal(t, queriesAfterCreate, env.store.UserURLsQueryCount())
	assert.Greater(t, queriesAfterCreate, queriesBefore)
}

func TestCreateShortLinkRejectsDuplicateCaseInsensitively(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "abc123")

	_, err := env.svc.CreateShortLink(ctx, 1, "http://EXAMPLE.com")
	require.NoError(t, err)

	_, err = env.svc.CreateShortLink(ctx, 1, "http://example.com")
	assert.ErrorIs(t, err, models.ErrDuplicateURL)

	assert.Equal(t, int64(1), atomic.LoadInt64(env.upstreamCalls))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "abc123")

	_, err := env.svc.Register(ctx, "alice", "password1")
	require.NoError(t, err)

	_, err = env.svc.Register(ctx, "alice", "password2")
	assert.ErrorIs(t, err, models.ErrUsernameTaken)

	// The original credentials still log in: no second row was created.
	_, err = env.svc.Login(ctx, "alice", "password1")
	assert.NoError(t, err)
}

func TestEndToEndExample(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "abc123")

	userID, err := env.svc.Register(ctx, "bob", "pw1")
	require.NoError(t, err)
	require.Equal(t, int64(1), userID)

	tokenString, err := env.svc.Login(ctx, "bob", "pw1")
	require.NoError(t, err)
	verifiedID, err := env.tokens.Verify(tokenString)
	require.NoError(t, err)
	require.Equal(t, userID, verifiedID)

	created, err := env.svc.CreateShortLink(ctx, userID, "http://foo.com")
	require.NoError(t, err)
	assert.Equal(t, models.UserURL{OriginalURL: "http://foo.com", ShortURL: "abc123"}, created)

	urls, err := env.svc.GetUserURLs(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.UserURLs{{OriginalURL: "http://foo.com", ShortURL: "abc123"}}, urls)
}

func TestCreateShortLinkUpstreamError(t *testing.T) {
	ctx := context.Background()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"generator exhausted"}`)
	}))
	defer upstream.Close()

	store := memorystorage.New()
	cache := memorycache.New()
	tokens := token.New([]byte("test-secret"), time.Hour)
	svc := New(
		store,
		session.New(cache, time.Hour),
		urlcache.New(cache, time.Hour),
		shortener.New(upstream.URL, time.Second),
		tokens,
		cache,
	)

	_, err := svc.CreateShortLink(ctx, 1, "http://foo.com")
	require.ErrorIs(t, err, shortener.ErrUpstream)
	assert.Contains(t, err.Error(), "generator exhausted")
}

func TestGetUserURLsDegradesOnCacheFailure(t *testing.T) {
	ctx := context.Background()

	store := memorystorage.New()
	store.AppendUserURL(1, models.UserURL{OriginalURL: "http://foo.com", ShortURL: "abc123"})

	brokenCache := &mockstorage.CacheMock{}
	brokenCache.On("Get", mock.Anything, mock.Anything).
		Return("", false, errors.New("connection refused"))
	brokenCache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("connection refused"))

	svc := New(
		store,
		session.New(memorycache.New(), time.Hour),
		urlcache.New(brokenCache, time.Hour),
		shortener.New("http://localhost:1", time.Second),
		token.New([]byte("test-secret"), time.Hour),
		memorycache.New(),
	)

	// A dead cache degrades to a miss: the store still serves the read.
	urls, err := svc.GetUserURLs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.UserURLs{{OriginalURL: "http://foo.com", ShortURL: "abc123"}}, urls)
}

func TestGetUserURLsStoreError(t *testing.T) {
	ctx := context.Background()

	brokenStore := &mockstorage.StorageMock{}
	brokenStore.On("GetUserURLs", mock.Anything, int64(1)).
		Return(nil, errors.New("connection reset"))

	cache := memorycache.New()
	svc := New(
		brokenStore,
		session.New(cache, time.Hour),
		urlcache.New(cache, time.Hour),
		shortener.New("http://localhost:1", time.Second),
		token.New([]byte("test-secret"), time.Hour),
		cache,
	)

	_, err := svc.GetUserURLs(ctx, 1)
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	env := newTestEnv(t, "abc123")

	assert.NoError(t, env.svc.Ping(context.Background()))
}
