package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"
)

// DefaultTTL is how long a completed entry can be replayed.
const DefaultTTL = 24 * time.Hour

// EntryState is the lifecycle state of a stored key.
type EntryState string

const (
	// EntryInFlight marks a key whose first request is still running.
	EntryInFlight EntryState = "in_flight"
	// EntryDone marks a key whose response has been captured for replay.
	EntryDone EntryState = "done"
)

// ClaimOutcome tells the middleware what to do with an incoming request.
type ClaimOutcome int

const (
	// ClaimAcquired means the caller owns the key and must run the handler.
	ClaimAcquired ClaimOutcome = iota
	// ClaimReplay means a captured response exists and must be replayed.
	ClaimReplay
	// ClaimBusy means another request holds the key.
	ClaimBusy
)

// Entry is the persisted state of one idempotency key.
type Entry struct {
	Key         string
	Fingerprint string
	State       EntryState
	Status      int
	Header      map[string][]string
	Body        []byte
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the entry is past its retention window at now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// Claim is the result of Store.Claim.
type Claim struct {
	Outcome ClaimOutcome
	Entry   Entry
}

// CapturedResponse is the handler output stored for replay.
type CapturedResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// Store persists idempotency keys. Implementations must be safe for concurrent use
// and must make Claim atomic with respect to other Claims on the same key.
type Store interface {
	// Claim reserves key for fingerprint, or reports the existing entry.
	// A live entry with another fingerprint yields ErrKeyReused.
	Claim(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Claim, error)
	// Complete records the response for a claimed key.
	Complete(ctx context.Context, key, fingerprint string, resp CapturedResponse, now time.Time, ttl time.Duration) error
	// Abandon drops an in-flight claim so the client can retry.
	Abandon(ctx context.Context, key string) error
	// Purge deletes up to limit expired entries and returns how many were removed.
	Purge(ctx context.Context, now time.Time, limit int) (int, error)
}

// ErrKeyReused is returned when a key is presented again with a different request body.
var ErrKeyReused = errors.New("idempotency: key reused with a different request")

// NewEntry builds a fresh in-flight entry for a new claim.
func NewEntry(key, fingerprint string, now time.Time, ttl time.Duration) Entry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return Entry{
		Key:         key,
		Fingerprint: fingerprint,
		State:       EntryInFlight,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

// ResolveClaim decides the outcome for an existing entry. live is false when
// the entry should be replaced by a new claim.
func ResolveClaim(existing Entry, fingerprint string, now time.Time) (Claim, bool, error) {
	if existing.Expired(now) {
		return Claim{}, false, nil
	}
	if existing.Fingerprint != fingerprint {
		return Claim{}, true, ErrKeyReused
	}
	if existing.State == EntryDone {
		return Claim{Outcome: ClaimReplay, Entry: existing}, true, nil
	}
	return Claim{Outcome: ClaimBusy, Entry: existing}, true, nil
}

// DocumentID hashes a key into a fixed-length identifier usable as a document or row id.
func DocumentID(key string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:])
}

// hopHeaders are never stored or replayed.
var hopHeaders = map[string]struct{}{
	"Connection":          {},
	"Content-Length":      {},
	"Date":                {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
	"X-Request-Id":        {},
}

// StorableHeader copies h without hop-by-hop and per-request headers.
func StorableHeader(h http.Header) map[string][]string {
	out := make(map[string][]string, len(h))
	for name, values := range h {
		canonical := http.CanonicalHeaderKey(name)
		if _, skip := hopHeaders[canonical]; skip {
			continue
		}
		out[canonical] = append([]string(nil), values...)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
