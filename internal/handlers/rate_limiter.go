package handlers

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/august-web/dev-quoteX/internal/platform/httpx"
)

// windowLimiter admits at most limit hits per key in each fixed window.
type windowLimiter struct {
	limit  int
	window time.Duration
	clock  func() time.Time

	mu      sync.Mutex
	buckets map[string]window
}

type window struct {
	hits  int
	reset time.Time
}

// newWindowLimiter returns nil when limit or window is not positive; a nil limiter admits everything.
func newWindowLimiter(limit int, every time.Duration, clock func() time.Time) *windowLimiter {
	if limit <= 0 || every <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &windowLimiter{limit: limit, window: every, clock: clock, buckets: make(map[string]window)}
}

// Allow records a hit for key and reports whether it fits the window, along with the time the window resets.
func (l *windowLimiter) Allow(key string) (bool, time.Time) {
	if l == nil {
		return true, time.Time{}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "anonymous"
	}
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[key]
	if !ok || !now.Before(bucket.reset) {
		l.pruneLocked(now)
		bucket = window{hits: 1, reset: now.Add(l.window)}
		l.buckets[key] = bucket
		return true, bucket.reset
	}
	if bucket.hits >= l.limit {
		return false, bucket.reset
	}
	bucket.hits++
	l.buckets[key] = bucket
	return true, bucket.reset
}

func (l *windowLimiter) pruneLocked(now time.Time) {
	for key, bucket := range l.buckets {
		if !now.Before(bucket.reset) {
			delete(l.buckets, key)
		}
	}
}

// rateLimit answers 429 with Retry-After once a client address exhausts its window.
func rateLimit(l *windowLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, reset := l.Allow(clientAddress(r))
			if !ok {
				wait := int(math.Ceil(reset.Sub(l.clock()).Seconds()))
				if wait < 1 {
					wait = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(wait))
				httpx.WriteError(r.Context(), w, httpx.NewError("rate_limited", "too many requests", http.StatusTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
