package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	pfirestore "github.com/august-web/dev-quoteX/internal/platform/firestore"
	"github.com/august-web/dev-quoteX/internal/platform/pagination"
	"github.com/august-web/dev-quoteX/internal/repositories"
	"github.com/august-web/dev-quoteX/internal/repositories/records"
)

const requestCollection = "quote_requests"

// RequestRepository stores client requests as documents keyed by request id.
// Listing needs the composite indexes (createdAt desc, id desc) and (status, createdAt desc, id desc).
type RequestRepository struct {
	docs     *pfirestore.Collection[records.Request]
	provider *pfirestore.Provider
}

var _ repositories.RequestRepository = (*RequestRepository)(nil)

func NewRequestRepository(provider *pfirestore.Provider) (*RequestRepository, error) {
	if provider == nil {
		return nil, errors.New("request repository requires firestore provider")
	}
	return &RequestRepository{docs: pfirestore.NewCollection[records.Request](provider, requestCollection), provider: provider}, nil
}

func (r *RequestRepository) Insert(ctx context.Context, request domain.ClientRequest) error {
	if strings.TrimSpace(request.ID) == "" {
		return errors.New("request id is required")
	}
	return r.docs.Create(ctx, request.ID, records.FromRequest(request))
}

// Update replaces an existing document inside a transaction so a deleted or
// never-created request is reported instead of being recreated.
func (r *RequestRepository) Update(ctx context.Context, request domain.ClientRequest) error {
	ref, err := r.docs.Ref(ctx, request.ID)
	if err != nil {
		return err
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			if status.Code(err) == codes.NotFound {
				return repositories.NewStoreError("requests.update", repositories.StoreErrorNotFound, fmt.Errorf("request %s not found", request.ID))
			}
			return err
		}
		return tx.Set(ref, records.FromRequest(request))
	})
}

func (r *RequestRepository) FindByID(ctx context.Context, id string) (domain.ClientRequest, error) {
	rec, err := r.docs.Get(ctx, id)
	if err != nil {
		return domain.ClientRequest{}, err
	}
	return rec.Domain(), nil
}

func (r *RequestRepository) List(ctx context.Context, filter repositories.RequestListFilter) (domain.CursorPage[domain.ClientRequest], error) {
	page := domain.CursorPage[domain.ClientRequest]{}
	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return page, err
	}
	size := filter.Pagination.PageSize
	if size <= 0 {
		size = pagination.DefaultPageSize
	}

	recs, err := r.docs.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.Status != nil {
			q = q.Where("status", "==", string(*filter.Status))
		}
		q = q.OrderBy("createdAt", firestore.Desc).OrderBy("id", firestore.Desc)
		if !cursor.IsZero() {
			q = q.StartAfter(cursor.CreatedAt, cursor.ID)
		}
		return q.Limit(size + 1)
	})
	if err != nil {
		return page, err
	}

	if len(recs) > size {
		recs = recs[:size]
		last := recs[size-1]
		token, err := pagination.EncodeToken(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		if err != nil {
			return page, err
		}
		page.NextPageToken = token
	}
	page.Items = make([]domain.ClientRequest, 0, len(recs))
	for _, rec := range recs {
		page.Items = append(page.Items, rec.Domain())
	}
	return page, nil
}
