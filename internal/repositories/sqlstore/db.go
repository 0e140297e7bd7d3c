// Package sqlstore implements the repositories on database/sql. SQLite (modernc)
// and PostgreSQL (pgx) share one schema: timestamps are fixed-width UTC text so
// they sort lexically, and aggregate values are JSON text.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Dialect selects the SQL flavour.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// timeLayout keeps nanosecond precision at a fixed width so text comparison matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Options controls pool sizing and start-up checks.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
	// SkipMigrations leaves the schema untouched; used when migrations run out of band.
	SkipMigrations bool
	Logger         *zap.Logger
}

var openDB = sql.Open

// DB is a pooled connection bound to a dialect.
type DB struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects, applies the pragmas SQLite needs, verifies connectivity and runs migrations.
func Open(ctx context.Context, dialect Dialect, dsn string, opts Options) (*DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("sqlstore: dsn is required")
	}
	var driver string
	switch dialect {
	case DialectSQLite:
		driver = "sqlite"
	case DialectPostgres:
		driver = "pgx"
	default:
		return nil, fmt.Errorf("sqlstore: unsupported dialect %q", dialect)
	}

	db, err := openDB(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", dialect, err)
	}
	applyOptions(db, dialect, opts)

	if dialect == DialectSQLite {
		for _, pragma := range []string{
			"PRAGMA busy_timeout = 5000",
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
		} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("sqlstore: pragma %q: %w", pragma, err)
			}
		}
	}

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: ping: %w", err)
	}

	if !opts.SkipMigrations {
		if err := Migrate(ctx, db, dialect, opts.Logger); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &DB{db: db, dialect: dialect}, nil
}

// NewDB wraps an existing handle without touching the schema.
func NewDB(db *sql.DB, dialect Dialect) *DB {
	return &DB{db: db, dialect: dialect}
}

// SQL exposes the underlying handle.
func (d *DB) SQL() *sql.DB { return d.db }

// Dialect reports the SQL flavour.
func (d *DB) Dialect() Dialect { return d.dialect }

// Ping verifies the connection.
func (d *DB) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }

// Close releases the pool.
func (d *DB) Close() error { return d.db.Close() }

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (d *DB) rebind(query string) string {
	if d.dialect != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.db.ExecContext(ctx, d.rebind(query), args...)
}

func (d *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, d.rebind(query), args...)
}

func (d *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, d.rebind(query), args...)
}

// inTx runs fn in a transaction and commits when it returns nil.
func (d *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func applyOptions(db *sql.DB, dialect Dialect, opts Options) {
	if dialect == DialectSQLite {
		// SQLite serialises writers; one connection avoids SQLITE_BUSY between pooled handles.
		opts.MaxOpenConns = 1
		opts.MaxIdleConns = 1
	}
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = time.Hour
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlstore: parse time %q: %w", raw, err)
	}
	return t.UTC(), nil
}
