package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/repositories"
)

type fakeOverrideRepo struct {
	mu        sync.Mutex
	overrides domain.CatalogOverrides
	getErr    error
	replaces  int
}

func (f *fakeOverrideRepo) Get(context.Context) (domain.CatalogOverrides, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return domain.CatalogOverrides{}, f.getErr
	}
	return f.overrides.Clone(), nil
}

func (f *fakeOverrideRepo) Replace(_ context.Context, overrides domain.CatalogOverrides) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaces++
	f.overrides = overrides.Clone()
	return nil
}

type fakeRuleRepo struct {
	mu      sync.Mutex
	rules   []domain.PricingRule
	listErr error
}

func (f *fakeRuleRepo) List(context.Context) ([]domain.PricingRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.PricingRule(nil), f.rules...), nil
}

func (f *fakeRuleRepo) Replace(_ context.Context, rules []domain.PricingRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append([]domain.PricingRule(nil), rules...)
	return nil
}

type fakeRequestRepo struct {
	mu    sync.Mutex
	items map[string]domain.ClientRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{items: map[string]domain.ClientRequest{}}
}

func (f *fakeRequestRepo) Insert(_ context.Context, req domain.ClientRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.items[req.ID]; exists {
		return repositories.NewStoreError("requests.insert", repositories.StoreErrorConflict, errors.New("duplicate"))
	}
	f.items[req.ID] = req
	return nil
}

func (f *fakeRequestRepo) Update(_ context.Context, req domain.ClientRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.items[req.ID]; !exists {
		return repositories.NewStoreError("requests.update", repositories.StoreErrorNotFound, nil)
	}
	f.items[req.ID] = req
	return nil
}

func (f *fakeRequestRepo) FindByID(_ context.Context, id string) (domain.ClientRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.items[id]
	if !ok {
		return domain.ClientRequest{}, repositories.NewStoreError("requests.find", repositories.StoreErrorNotFound, nil)
	}
	return req, nil
}

func (f *fakeRequestRepo) List(_ context.Context, filter repositories.RequestListFilter) (domain.CursorPage[domain.ClientRequest], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]domain.ClientRequest, 0, len(f.items))
	for _, req := range f.items {
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		all = append(all, req)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	offset, _ := strconv.Atoi(filter.Pagination.PageToken)
	size := filter.Pagination.PageSize
	if size <= 0 {
		size = len(all)
	}
	end := min(len(all), offset+size)
	page := domain.CursorPage[domain.ClientRequest]{Items: append([]domain.ClientRequest(nil), all[min(offset, end):end]...)}
	if end < len(all) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

type fakeAnalyticsRepo struct {
	mu     sync.Mutex
	events []domain.AnalyticsEvent
}

func (f *fakeAnalyticsRepo) Append(_ context.Context, event domain.AnalyticsEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAnalyticsRepo) List(context.Context) ([]domain.AnalyticsEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.AnalyticsEvent(nil), f.events...), nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []QuoteEventMessage
	err      error
}

func (f *fakePublisher) PublishQuoteEvent(_ context.Context, msg QuoteEventMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.messages = append(f.messages, msg)
	return "msg-" + strconv.Itoa(len(f.messages)), nil
}

type fakeMetrics struct {
	mu      sync.Mutex
	priced  []int64
	blocked int
	srs     []int
}

func (f *fakeMetrics) QuotePriced(_ context.Context, total int64, blocked bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priced = append(f.priced, total)
	if blocked {
		f.blocked++
	}
}

func (f *fakeMetrics) SRSAnalyzed(_ context.Context, points int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.srs = append(f.srs, points)
}

type fakeArchive struct {
	stored []ArchivedObject
	err    error
}

func (f *fakeArchive) Store(_ context.Context, object ArchivedObject) (ArchivedQuote, error) {
	if f.err != nil {
		return ArchivedQuote{}, f.err
	}
	f.stored = append(f.stored, object)
	return ArchivedQuote{
		Bucket:      "exports",
		ObjectPath:  "quotes/" + object.Name,
		DownloadURL: "https://storage.example.test/exports/quotes/" + object.Name,
	}, nil
}

type quoteStack struct {
	overrides *fakeOverrideRepo
	rules     *fakeRuleRepo
	catalog   CatalogService
	ruleSvc   PricingRuleService
	quotes    QuoteService
	metrics   *fakeMetrics
}

func newQuoteStack() (*quoteStack, error) {
	stack := &quoteStack{
		overrides: &fakeOverrideRepo{},
		rules:     &fakeRuleRepo{},
		metrics:   &fakeMetrics{},
	}
	var err error
	if stack.catalog, err = NewCatalogService(CatalogServiceDeps{Overrides: stack.overrides}); err != nil {
		return nil, err
	}
	if stack.ruleSvc, err = NewPricingRuleService(PricingRuleServiceDeps{Rules: stack.rules}); err != nil {
		return nil, err
	}
	if stack.quotes, err = NewQuoteService(QuoteServiceDeps{Catalog: stack.catalog, Rules: stack.ruleSvc, Metrics: stack.metrics}); err != nil {
		return nil, err
	}
	return stack, nil
}
