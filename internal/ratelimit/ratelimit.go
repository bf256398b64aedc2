// Package ratelimit provides a per-client token-bucket rate limiter used on
// the credential endpoints to slow down brute-force attempts. Clients are
// keyed by remote address.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Limiter manages one token bucket per client address.
type Limiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*clientLimiter

	stopCh chan struct{}
}

// New creates a Limiter allowing `limit` requests per second with the given
// burst, and starts a background cleanup of idle client entries.
func New(limit rate.Limit, burst int) *Limiter {
	l := &Limiter{
		limit:    limit,
		burst:    burst,
		limiters: map[string]*clientLimiter{},
		stopCh:   make(chan struct{}),
	}

	go l.cleanupLoop()

	return l
}

// Stop terminates the background cleanup goroutine.
func (l *Limiter) Stop() {
	close(l.stopCh)
}

// Middleware rejects requests exceeding the client's budget with 429.
func (l *Limiter) Middleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientKey(r)) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)

			return
		}

		h.ServeHTTP(w, r)
	})
}

func (l *Limiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	client, found := l.limiters[key]
	if !found {
		client = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = client
	}
	client.lastAccess = time.Now()

	return client.limiter.Allow()
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.mu.Lock()
			for key, client := range l.limiters {
				if time.Since(client.lastAccess) > 10*time.Minute {
					delete(l.limiters, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
