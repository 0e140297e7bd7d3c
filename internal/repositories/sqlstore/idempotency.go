package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/august-web/dev-quoteX/internal/platform/idempotency"
)

const (
	selectKeySQL = `SELECT fingerprint, state, response, created_at, expires_at FROM idempotency_keys WHERE key_hash = ?`
	insertKeySQL = `INSERT INTO idempotency_keys (key_hash, fingerprint, state, response, created_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (key_hash) DO NOTHING`
	reclaimKeySQL = `UPDATE idempotency_keys SET fingerprint = ?, state = ?, response = '', created_at = ?, expires_at = ?
WHERE key_hash = ? AND expires_at = ?`
	completeKeySQL = `UPDATE idempotency_keys SET state = ?, response = ?, expires_at = ? WHERE key_hash = ?`
	abandonKeySQL  = `DELETE FROM idempotency_keys WHERE key_hash = ? AND state = ?`
)

// IdempotencyStore keeps idempotency keys in the idempotency_keys table.
type IdempotencyStore struct {
	db *DB
}

var _ idempotency.Store = (*IdempotencyStore)(nil)

func NewIdempotencyStore(db *DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

type storedResponse struct {
	Status int                 `json:"status"`
	Header map[string][]string `json:"header,omitempty"`
	Body   []byte              `json:"body,omitempty"`
}

type keyRow struct {
	fingerprint string
	state       string
	response    string
	createdAt   string
	expiresAt   string
}

func (r keyRow) entry(key string) (idempotency.Entry, error) {
	entry := idempotency.Entry{Key: key, Fingerprint: r.fingerprint, State: idempotency.EntryState(r.state)}
	var err error
	if entry.CreatedAt, err = parseTime(r.createdAt); err != nil {
		return entry, err
	}
	if entry.ExpiresAt, err = parseTime(r.expiresAt); err != nil {
		return entry, err
	}
	if r.response != "" {
		var resp storedResponse
		if err := json.Unmarshal([]byte(r.response), &resp); err != nil {
			return entry, fmt.Errorf("sqlstore: decode idempotent response: %w", err)
		}
		entry.Status, entry.Header, entry.Body = resp.Status, resp.Header, resp.Body
	}
	return entry, nil
}

func (s *IdempotencyStore) selectRow(ctx context.Context, tx *sql.Tx, hash string) (keyRow, bool, error) {
	var row keyRow
	err := tx.QueryRowContext(ctx, s.db.rebind(selectKeySQL), hash).
		Scan(&row.fingerprint, &row.state, &row.response, &row.createdAt, &row.expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return row, false, nil
	}
	if err != nil {
		return row, false, wrap("idempotency.select", err)
	}
	return row, true, nil
}

// Claim inserts a new in-flight row or takes over an expired one. Losing a race
// to a concurrent claim reports ClaimBusy.
func (s *IdempotencyStore) Claim(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (idempotency.Claim, error) {
	now = now.UTC()
	hash := idempotency.DocumentID(key)
	fresh := idempotency.NewEntry(key, fingerprint, now, ttl)

	var claim idempotency.Claim
	err := s.db.inTx(ctx, func(tx *sql.Tx) error {
		row, found, err := s.selectRow(ctx, tx, hash)
		if err != nil {
			return err
		}

		var res sql.Result
		if !found {
			res, err = tx.ExecContext(ctx, s.db.rebind(insertKeySQL),
				hash, fingerprint, string(idempotency.EntryInFlight), "", formatTime(fresh.CreatedAt), formatTime(fresh.ExpiresAt))
		} else {
			existing, err := row.entry(key)
			if err != nil {
				return err
			}
			resolved, live, err := idempotency.ResolveClaim(existing, fingerprint, now)
			if err != nil || live {
				claim = resolved
				return err
			}
			res, err = tx.ExecContext(ctx, s.db.rebind(reclaimKeySQL),
				fingerprint, string(idempotency.EntryInFlight), formatTime(fresh.CreatedAt), formatTime(fresh.ExpiresAt), hash, row.expiresAt)
			if err != nil {
				return wrap("idempotency.reclaim", err)
			}
		}
		if err != nil {
			return wrap("idempotency.claim", err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			claim = idempotency.Claim{Outcome: idempotency.ClaimBusy}
			return nil
		}
		claim = idempotency.Claim{Outcome: idempotency.ClaimAcquired, Entry: fresh}
		return nil
	})
	if err != nil {
		return idempotency.Claim{}, err
	}
	return claim, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, key, fingerprint string, resp idempotency.CapturedResponse, now time.Time, ttl time.Duration) error {
	now = now.UTC()
	if ttl <= 0 {
		ttl = idempotency.DefaultTTL
	}
	hash := idempotency.DocumentID(key)
	raw, err := json.Marshal(storedResponse{Status: resp.Status, Header: idempotency.StorableHeader(resp.Header), Body: resp.Body})
	if err != nil {
		return fmt.Errorf("sqlstore: encode idempotent response: %w", err)
	}
	expires := formatTime(now.Add(ttl))
	done := string(idempotency.EntryDone)

	return s.db.inTx(ctx, func(tx *sql.Tx) error {
		row, found, err := s.selectRow(ctx, tx, hash)
		if err != nil {
			return err
		}
		if !found {
			_, err = tx.ExecContext(ctx, s.db.rebind(insertKeySQL), hash, fingerprint, done, string(raw), formatTime(now), expires)
			return wrap("idempotency.complete", err)
		}
		if row.fingerprint != fingerprint {
			return idempotency.ErrKeyReused
		}
		_, err = tx.ExecContext(ctx, s.db.rebind(completeKeySQL), done, string(raw), expires, hash)
		return wrap("idempotency.complete", err)
	})
}

func (s *IdempotencyStore) Abandon(ctx context.Context, key string) error {
	_, err := s.db.exec(ctx, abandonKeySQL, idempotency.DocumentID(key), string(idempotency.EntryInFlight))
	return wrap("idempotency.abandon", err)
}

// Purge removes expired rows. A limit of zero removes all of them.
func (s *IdempotencyStore) Purge(ctx context.Context, now time.Time, limit int) (int, error) {
	var (
		res sql.Result
		err error
	)
	cutoff := formatTime(now)
	if limit > 0 {
		res, err = s.db.exec(ctx, `DELETE FROM idempotency_keys WHERE key_hash IN (
SELECT key_hash FROM idempotency_keys WHERE expires_at <= ? ORDER BY expires_at LIMIT ?)`, cutoff, limit)
	} else {
		res, err = s.db.exec(ctx, `DELETE FROM idempotency_keys WHERE expires_at <= ?`, cutoff)
	}
	if err != nil {
		return 0, wrap("idempotency.purge", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(affected), nil
}
