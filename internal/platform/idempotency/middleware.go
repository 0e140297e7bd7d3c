package idempotency

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/august-web/dev-quoteX/internal/platform/httpx"
	"github.com/august-web/dev-quoteX/internal/platform/requestctx"
)

const (
	// DefaultHeader carries the client supplied key.
	DefaultHeader = "Idempotency-Key"
	// ReplayHeader is set on responses served from a stored entry.
	ReplayHeader = "X-Idempotent-Replay"

	maxKeyLength = 255
)

// Logger matches the structured event logger used by services.
type Logger func(ctx context.Context, event string, fields map[string]any)

type settings struct {
	header     string
	ttl        time.Duration
	bodyLimit  int64
	requireKey bool
	now        func() time.Time
	logger     Logger
}

// Option customises Middleware.
type Option func(*settings)

// WithHeader changes the request header holding the key.
func WithHeader(name string) Option {
	return func(s *settings) {
		if name = strings.TrimSpace(name); name != "" {
			s.header = name
		}
	}
}

// WithTTL sets how long completed responses are replayed.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithBodyLimit caps the request body read for fingerprinting.
func WithBodyLimit(limit int64) Option {
	return func(s *settings) {
		if limit > 0 {
			s.bodyLimit = limit
		}
	}
}

// RequireKey rejects guarded requests that carry no key.
func RequireKey() Option {
	return func(s *settings) { s.requireKey = true }
}

// WithLogger reports store failures.
func WithLogger(logger Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// Middleware deduplicates retried requests that carry the same key. The first
// request runs the handler and its response is captured; later requests with the
// same key and body replay it. Requests without a key pass through unless RequireKey is set.
// Keys are scoped to the method and route path.
func Middleware(store Store, opts ...Option) func(http.Handler) http.Handler {
	s := settings{
		header:    DefaultHeader,
		ttl:       DefaultTTL,
		bodyLimit: httpx.DefaultBodyLimit,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}

	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := strings.TrimSpace(r.Header.Get(s.header))
			if key == "" {
				if s.requireKey {
					httpx.WriteError(ctx, w, httpx.NewError("idempotency_key_required", s.header+" header is required", http.StatusBadRequest))
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxKeyLength {
				httpx.WriteError(ctx, w, httpx.NewError("invalid_idempotency_key", s.header+" header is too long", http.StatusBadRequest))
				return
			}

			body, err := httpx.ReadBody(r, s.bodyLimit)
			if err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
				httpx.WriteError(ctx, w, httpx.BodyError(err))
				return
			}
			r.Body = readCloser{bytes.NewReader(body)}

			scoped := r.Method + " " + r.URL.Path + " " + key
			fingerprint := fingerprintOf(r, body)

			claim, err := store.Claim(ctx, scoped, fingerprint, s.now().UTC(), s.ttl)
			switch {
			case errors.Is(err, ErrKeyReused):
				httpx.WriteError(ctx, w, httpx.NewError("idempotency_key_reused", "key was already used for a different request", http.StatusUnprocessableEntity))
				return
			case err != nil:
				s.log(ctx, "idempotency_claim_failed", key, err)
				httpx.WriteError(ctx, w, httpx.NewError("idempotency_unavailable", "unable to process idempotency key", http.StatusServiceUnavailable))
				return
			}

			switch claim.Outcome {
			case ClaimReplay:
				replay(w, claim.Entry)
				return
			case ClaimBusy:
				w.Header().Set("Retry-After", "1")
				httpx.WriteError(ctx, w, httpx.NewError("idempotency_in_progress", "a request with this key is still being processed", http.StatusConflict))
				return
			}

			capture := &capturingWriter{header: make(http.Header)}
			next.ServeHTTP(capture, r.WithContext(requestctx.WithIdempotencyKey(ctx, key)))

			if capture.statusCode() >= http.StatusInternalServerError {
				// Server failures are not cached so the client can retry.
				if err := store.Abandon(ctx, scoped); err != nil {
					s.log(ctx, "idempotency_abandon_failed", key, err)
				}
			} else if err := store.Complete(ctx, scoped, fingerprint, capture.response(), s.now().UTC(), s.ttl); err != nil {
				s.log(ctx, "idempotency_complete_failed", key, err)
				if err := store.Abandon(ctx, scoped); err != nil {
					s.log(ctx, "idempotency_abandon_failed", key, err)
				}
			}
			capture.flushTo(w)
		})
	}
}

func (s settings) log(ctx context.Context, event, key string, err error) {
	if s.logger == nil {
		return
	}
	s.logger(ctx, event, map[string]any{"idempotencyKey": key, "error": err.Error()})
}

// fingerprintOf binds a key to the request content so reuse with another payload is detected.
func fingerprintOf(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Header.Get("Content-Type")))
	h.Write([]byte{0})
	h.Write([]byte(r.URL.RawQuery))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func replay(w http.ResponseWriter, entry Entry) {
	for name, values := range entry.Header {
		w.Header()[name] = append([]string(nil), values...)
	}
	w.Header().Set(ReplayHeader, "true")
	status := entry.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(entry.Body) > 0 {
		_, _ = w.Write(entry.Body)
	}
}

type readCloser struct{ *bytes.Reader }

func (readCloser) Close() error { return nil }

// capturingWriter buffers the handler response so it can be stored before the client sees it.
type capturingWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (c *capturingWriter) Header() http.Header { return c.header }

func (c *capturingWriter) WriteHeader(status int) {
	if c.status == 0 {
		c.status = status
	}
}

func (c *capturingWriter) Write(p []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	return c.body.Write(p)
}

func (c *capturingWriter) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

func (c *capturingWriter) response() CapturedResponse {
	return CapturedResponse{
		Status: c.statusCode(),
		Header: c.header.Clone(),
		Body:   append([]byte(nil), c.body.Bytes()...),
	}
}

func (c *capturingWriter) flushTo(w http.ResponseWriter) {
	for name, values := range c.header {
		w.Header()[name] = values
	}
	w.WriteHeader(c.statusCode())
	if c.body.Len() > 0 {
		_, _ = w.Write(c.body.Bytes())
	}
}
