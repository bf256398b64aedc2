package shortener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/urlbox/internal/models"
)

func TestShortenSuccess(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/shorten", r.URL.Path)

		var body struct {
			URL    string `json:"url"`
			UserID int64  `json:"user_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "http://foo.com", body.URL)
		assert.Equal(t, int64(7), body.UserID)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"short_url":"abc123"}`)
	}))
	defer upstream.Close()

	client := New(upstream.URL, time.Second)

	short, err := client.Shorten(context.Background(), "http://foo.com", 7)
	require.NoError(t, err)
	assert.Equal(t, "abc123", short)
}

func TestShortenUpstreamErrorSurfacesMessage(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"Missing URL or user_id"}`)
	}))
	defer upstream.Close()

	client := New(upstream.URL, time.Second)

	_, err := client.Shorten(context.Background(), "http://foo.com", 7)
	require.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "Missing URL or user_id")
}

func TestShortenUnreachableUpstream(t *testing.T) {
	client := New("http://localhost:1", 100*time.Millisecond)

	_, err := client.Shorten(context.Background(), "http://foo.com", 7)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestResolveSuccess(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/abc123", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"original_url":"http://foo.com"}`)
	}))
	defer upstream.Close()

	client := New(upstream.URL, time.Second)

	original, err := client.Resolve(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "http://foo.com", original)
}

func TestResolveNotFound(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"URL not found"}`)
	}))
	defer upstream.Close()

	client := New(upstream.URL, time.Second)

	_, err := client.Resolve(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrShortURLNotFound)
}
