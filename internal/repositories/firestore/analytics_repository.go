package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	pfirestore "github.com/august-web/dev-quoteX/internal/platform/firestore"
	"github.com/august-web/dev-quoteX/internal/repositories"
	"github.com/august-web/dev-quoteX/internal/repositories/records"
)

const analyticsCollection = "quote_analytics_events"

// AnalyticsEventRepository writes one document per event.
type AnalyticsEventRepository struct {
	docs *pfirestore.Collection[records.Event]
}

var _ repositories.AnalyticsEventRepository = (*AnalyticsEventRepository)(nil)

func NewAnalyticsEventRepository(provider *pfirestore.Provider) (*AnalyticsEventRepository, error) {
	if provider == nil {
		return nil, errors.New("analytics repository requires firestore provider")
	}
	return &AnalyticsEventRepository{docs: pfirestore.NewCollection[records.Event](provider, analyticsCollection)}, nil
}

func (r *AnalyticsEventRepository) Append(ctx context.Context, event domain.AnalyticsEvent) error {
	return r.docs.Create(ctx, event.ID, records.FromEvent(event))
}

func (r *AnalyticsEventRepository) List(ctx context.Context) ([]domain.AnalyticsEvent, error) {
	recs, err := r.docs.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("occurredAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	events := make([]domain.AnalyticsEvent, 0, len(recs))
	for _, rec := range recs {
		events = append(events, rec.Domain())
	}
	return events, nil
}
