package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/repositories"
	"github.com/august-web/dev-quoteX/internal/repositories/records"
)

const (
	insertEventSQL = `INSERT INTO analytics_events (id, type, occurred_at, payload) VALUES (?, ?, ?, ?)`
	selectEventSQL = `SELECT payload FROM analytics_events ORDER BY occurred_at, id`
)

// AnalyticsEventRepository appends events to analytics_events.
type AnalyticsEventRepository struct {
	db *DB
}

var _ repositories.AnalyticsEventRepository = (*AnalyticsEventRepository)(nil)

func NewAnalyticsEventRepository(db *DB) *AnalyticsEventRepository {
	return &AnalyticsEventRepository{db: db}
}

func (r *AnalyticsEventRepository) Append(ctx context.Context, event domain.AnalyticsEvent) error {
	raw, err := json.Marshal(records.FromEvent(event))
	if err != nil {
		return fmt.Errorf("sqlstore: encode event: %w", err)
	}
	if _, err := r.db.exec(ctx, insertEventSQL, event.ID, string(event.Type), formatTime(event.OccurredAt), string(raw)); err != nil {
		return wrap("analytics.append", err)
	}
	return nil
}

func (r *AnalyticsEventRepository) List(ctx context.Context) ([]domain.AnalyticsEvent, error) {
	rows, err := r.db.query(ctx, selectEventSQL)
	if err != nil {
		return nil, wrap("analytics.list", err)
	}
	defer rows.Close()

	var events []domain.AnalyticsEvent
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, wrap("analytics.list", err)
		}
		var rec records.Event
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("sqlstore: decode event: %w", err)
		}
		events = append(events, rec.Domain())
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("analytics.list", err)
	}
	return events, nil
}
