package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/platform/pagination"
	"github.com/august-web/dev-quoteX/internal/repositories"
)

// RequestRepository stores client requests by id.
type RequestRepository struct {
	mu       sync.RWMutex
	requests map[string]domain.ClientRequest
}

var _ repositories.RequestRepository = (*RequestRepository)(nil)

func NewRequestRepository() *RequestRepository {
	return &RequestRepository{requests: make(map[string]domain.ClientRequest)}
}

func (r *RequestRepository) Insert(ctx context.Context, request domain.ClientRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.requests[request.ID]; exists {
		return repositories.NewStoreError("requests.insert", repositories.StoreErrorConflict, fmt.Errorf("request %s already exists", request.ID))
	}
	r.requests[request.ID] = CloneRequest(request)
	return nil
}

func (r *RequestRepository) Update(ctx context.Context, request domain.ClientRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.requests[request.ID]; !exists {
		return notFound("requests.update", request.ID)
	}
	r.requests[request.ID] = CloneRequest(request)
	return nil
}

func (r *RequestRepository) FindByID(ctx context.Context, id string) (domain.ClientRequest, error) {
	if err := ctx.Err(); err != nil {
		return domain.ClientRequest{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	request, ok := r.requests[id]
	if !ok {
		return domain.ClientRequest{}, notFound("requests.find", id)
	}
	return CloneRequest(request), nil
}

// List walks requests newest first, resuming after the cursor in the page token.
func (r *RequestRepository) List(ctx context.Context, filter repositories.RequestListFilter) (domain.CursorPage[domain.ClientRequest], error) {
	if err := ctx.Err(); err != nil {
		return domain.CursorPage[domain.ClientRequest]{}, err
	}
	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.ClientRequest]{}, err
	}
	size := filter.Pagination.PageSize
	if size <= 0 {
		size = pagination.DefaultPageSize
	}

	r.mu.RLock()
	matches := make([]domain.ClientRequest, 0, len(r.requests))
	for _, req := range r.requests {
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		if !cursor.Admits(req.CreatedAt, req.ID) {
			continue
		}
		matches = append(matches, req)
	}
	r.mu.RUnlock()

	SortNewestFirst(matches)

	page := domain.CursorPage[domain.ClientRequest]{}
	if len(matches) > size {
		last := matches[size-1]
		token, err := pagination.EncodeToken(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		if err != nil {
			return page, err
		}
		page.NextPageToken = token
		matches = matches[:size]
	}
	page.Items = make([]domain.ClientRequest, len(matches))
	for i, req := range matches {
		page.Items[i] = CloneRequest(req)
	}
	return page, nil
}

// SortNewestFirst orders requests by CreatedAt descending, breaking ties by ID descending.
func SortNewestFirst(requests []domain.ClientRequest) {
	sort.Slice(requests, func(i, j int) bool {
		a, b := requests[i], requests[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// CloneRequest deep-copies the pointer, slice, and map fields of a request.
func CloneRequest(in domain.ClientRequest) domain.ClientRequest {
	out := in
	if in.Config != nil {
		cfg := in.Config.Clone()
		out.Config = &cfg
	}
	if in.SRS != nil {
		srs := *in.SRS
		srs.Analysis.Drivers = append([]domain.SRSDriver(nil), in.SRS.Analysis.Drivers...)
		srs.Addons = append([]string(nil), in.SRS.Addons...)
		out.SRS = &srs
	}
	out.Breakdown = append([]domain.BreakdownLine(nil), in.Breakdown...)
	if in.Onboarding != nil {
		state := *in.Onboarding
		state.Assets = cloneFlags(in.Onboarding.Assets)
		state.Milestones = cloneFlags(in.Onboarding.Milestones)
		out.Onboarding = &state
	}
	return out
}

func cloneFlags(in map[string]bool) map[string]bool {
	if in == nil {
		return nil
	}
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func notFound(op, id string) error {
	return repositories.NewStoreError(op, repositories.StoreErrorNotFound, fmt.Errorf("request %s not found", id))
}
