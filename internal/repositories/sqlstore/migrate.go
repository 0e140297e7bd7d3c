package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/august-web/dev-quoteX/internal/platform/observability"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// goose keeps its configuration in package globals.
var migrateMu sync.Mutex

// Migrate applies the embedded migrations.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect, logger *zap.Logger) error {
	if db == nil {
		return nil
	}
	gooseDialect := "sqlite3"
	if dialect == DialectPostgres {
		gooseDialect = "postgres"
	}

	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(observability.NewGooseLogger(logger))
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("sqlstore: migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return nil
}
