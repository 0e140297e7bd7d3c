package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/august-web/dev-quoteX/internal/repositories"
)

// wrap classifies driver errors. A closed connection or transaction is reported as unavailable.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return repositories.NewStoreError(op, repositories.StoreErrorUnavailable, err)
	}
	return fmt.Errorf("sqlstore: %s: %w", op, err)
}
