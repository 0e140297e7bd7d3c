package memory

import (
	"context"
	"sync"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/repositories"
)

// AnalyticsEventRepository is an append-only event log.
type AnalyticsEventRepository struct {
	mu     sync.RWMutex
	events []domain.AnalyticsEvent
}

var _ repositories.AnalyticsEventRepository = (*AnalyticsEventRepository)(nil)

func NewAnalyticsEventRepository() *AnalyticsEventRepository {
	return &AnalyticsEventRepository{}
}

func (r *AnalyticsEventRepository) Append(ctx context.Context, event domain.AnalyticsEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.Step != nil {
		step := *event.Step
		event.Step = &step
	}
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

// List returns events in append order.
func (r *AnalyticsEventRepository) List(ctx context.Context) ([]domain.AnalyticsEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.AnalyticsEvent(nil), r.events...), nil
}
