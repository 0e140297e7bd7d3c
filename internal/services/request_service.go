package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/platform/textutil"
	"github.com/august-web/dev-quoteX/internal/repositories"
)

const (
	maxRequestFieldLength = 200
	defaultClientName     = "Client"
	defaultProjectName    = "Project"
	defaultRequestPage    = 20
	maxRequestPage        = 100
	onboardingStepsTotal  = 8
	intakeStepWeight      = 3
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	onboardingAssets     = []string{"logo", "brandGuide", "content", "images"}
	onboardingMilestones = []string{"kickoff", "design", "build", "review"}
)

// RequestServiceDeps bundles collaborators for the request service.
type RequestServiceDeps struct {
	Requests    repositories.RequestRepository
	Quotes      QuoteService
	Catalog     CatalogService
	Publisher   QuoteEventPublisher
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type requestService struct {
	repo      repositories.RequestRepository
	quotes    QuoteService
	catalog   CatalogService
	publisher QuoteEventPublisher
	now       func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
}

var _ RequestService = (*requestService)(nil)

// NewRequestService constructs the request service.
func NewRequestService(deps RequestServiceDeps) (RequestService, error) {
	if deps.Requests == nil {
		return nil, ErrRequestRepositoryMissing
	}
	if deps.Quotes == nil {
		return nil, errors.New("request service: quote service is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &requestService{
		repo:      deps.Requests,
		quotes:    deps.Quotes,
		catalog:   deps.Catalog,
		publisher: deps.Publisher,
		now:       func() time.Time { return clock().UTC() },
		newID:     idGen,
		logger:    logger,
	}, nil
}

// Submit prices the quote server-side and stores a new request. Configs with guardrail errors are rejected.
func (s *requestService) Submit(ctx context.Context, cmd SubmitRequestCommand) (ClientRequest, error) {
	if (cmd.Config == nil) == (cmd.SRS == nil) {
		return ClientRequest{}, fmt.Errorf("%w: exactly one of config or srs is required", ErrRequestInvalidInput)
	}
	email := cleanField(cmd.ClientEmail)
	if email != "" && !emailPattern.MatchString(email) {
		return ClientRequest{}, fmt.Errorf("%w: clientEmail is not a valid address", ErrRequestInvalidInput)
	}
	developer := cleanField(cmd.DeveloperEmail)
	if developer != "" && !emailPattern.MatchString(developer) {
		return ClientRequest{}, fmt.Errorf("%w: developerEmail is not a valid address", ErrRequestInvalidInput)
	}

	now := s.now()
	req := ClientRequest{
		ID:             s.newID(),
		ClientName:     firstNonEmpty(cleanField(cmd.ClientName), defaultClientName),
		ClientEmail:    email,
		ClientPhone:    cleanField(cmd.ClientPhone),
		ProjectName:    cleanField(cmd.ProjectName),
		DeveloperEmail: developer,
		Status:         domain.RequestStatusNew,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if cmd.ProceedToPay {
		req.Status = domain.RequestStatusInProgress
	}

	if cmd.Config != nil {
		evaluation, err := s.quotes.PriceQuote(ctx, *cmd.Config)
		if err != nil {
			return ClientRequest{}, err
		}
		if evaluation.Guard.Blocking() {
			return ClientRequest{}, fmt.Errorf("%w: %s", ErrQuoteBlocked, strings.Join(evaluation.Guard.Errors, " "))
		}
		cfg := evaluation.Config
		req.Mode = domain.QuoteModeWizard
		req.Config = &cfg
		req.Total = evaluation.Price.Total
		req.Breakdown = evaluation.Price.Breakdown
		if req.ProjectName == "" {
			req.ProjectName = s.websiteTypeName(ctx, cfg.WebsiteType)
		}
	} else {
		quote, err := s.quotes.PriceSRS(ctx, *cmd.SRS)
		if err != nil {
			return ClientRequest{}, err
		}
		req.Mode = domain.QuoteModeSRS
		req.SRS = &domain.SRSQuoteConfig{
			InputText: cmd.SRS.Text,
			Analysis:  quote.Analysis,
			Level:     quote.Price.Level,
			Addons:    append([]string(nil), cmd.SRS.Addons...),
		}
		req.Total = quote.Total
		req.Breakdown = quote.Breakdown
	}
	req.ProjectName = firstNonEmpty(req.ProjectName, defaultProjectName)

	if err := s.repo.Insert(ctx, req); err != nil {
		return ClientRequest{}, s.translateRepoError(err)
	}

	s.logger(ctx, "request.submitted", map[string]any{
		"requestId":   req.ID,
		"mode":        string(req.Mode),
		"total":       req.Total,
		"clientEmail": req.ClientEmail,
	})
	s.publish(ctx, QuoteEventMessage{
		EventID:    req.ID,
		Type:       string(domain.EventQuoteComplete),
		RequestID:  req.ID,
		Total:      req.Total,
		Attributes: map[string]any{"mode": string(req.Mode), "status": string(req.Status)},
		OccurredAt: now,
	})
	return req, nil
}

func (s *requestService) Get(ctx context.Context, id string) (ClientRequest, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ClientRequest{}, fmt.Errorf("%w: id is required", ErrRequestInvalidInput)
	}
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ClientRequest{}, s.translateRepoError(err)
	}
	return req, nil
}

func (s *requestService) List(ctx context.Context, filter RequestListFilter) (domain.CursorPage[ClientRequest], error) {
	if filter.Status != nil && !validStatus(*filter.Status) {
		return domain.CursorPage[ClientRequest]{}, fmt.Errorf("%w: %q", ErrRequestInvalidStatus, *filter.Status)
	}
	switch size := filter.Pagination.PageSize; {
	case size <= 0:
		filter.Pagination.PageSize = defaultRequestPage
	case size > maxRequestPage:
		filter.Pagination.PageSize = maxRequestPage
	}
	page, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[ClientRequest]{}, s.translateRepoError(err)
	}
	return page, nil
}

func (s *requestService) Update(ctx context.Context, cmd UpdateRequestCommand) (ClientRequest, error) {
	if cmd.Status == nil && cmd.Progress == nil {
		return ClientRequest{}, fmt.Errorf("%w: status or progress is required", ErrRequestInvalidInput)
	}
	if cmd.Status != nil && !validStatus(*cmd.Status) {
		return ClientRequest{}, fmt.Errorf("%w: %q", ErrRequestInvalidStatus, *cmd.Status)
	}
	return s.mutate(ctx, cmd.ID, "request.updated", func(req *ClientRequest) {
		if cmd.Status != nil {
			req.Status = *cmd.Status
		}
		if cmd.Progress != nil {
			req.Progress = clampProgress(*cmd.Progress)
		}
	})
}

// RecordOnboarding stores the kickoff checklist and derives the request progress from it.
func (s *requestService) RecordOnboarding(ctx context.Context, cmd OnboardingCommand) (ClientRequest, error) {
	state := OnboardingState{
		Company:    cleanField(cmd.State.Company),
		Goals:      cleanField(cmd.State.Goals),
		Audience:   cleanField(cmd.State.Audience),
		Assets:     pickChecklist(cmd.State.Assets, onboardingAssets),
		Milestones: pickChecklist(cmd.State.Milestones, onboardingMilestones),
	}
	return s.mutate(ctx, cmd.RequestID, "request.onboarding", func(req *ClientRequest) {
		req.Onboarding = &state
		req.Progress = OnboardingProgress(state)
	})
}

func (s *requestService) MarkPaid(ctx context.Context, id string, mode PaymentMode) (ClientRequest, error) {
	if mode != PaymentModeDeposit && mode != PaymentModeFull {
		return ClientRequest{}, fmt.Errorf("%w: unknown payment mode %q", ErrRequestInvalidInput, mode)
	}
	return s.mutate(ctx, id, "request.paid", func(req *ClientRequest) {
		if mode == PaymentModeDeposit {
			req.DepositPaid = true
		} else {
			req.FinalPaid = true
		}
		if req.Status == domain.RequestStatusNew {
			req.Status = domain.RequestStatusInProgress
		}
	})
}

// Stats counts requests and estimates collected revenue: full total when the final payment is in,
// half of it when only the deposit is.
func (s *requestService) Stats(ctx context.Context) (RequestStats, error) {
	var stats RequestStats
	filter := RequestListFilter{Pagination: domain.Pagination{PageSize: maxRequestPage}}
	for {
		page, err := s.repo.List(ctx, filter)
		if err != nil {
			return RequestStats{}, s.translateRepoError(err)
		}
		for _, req := range page.Items {
			stats.TotalRequests++
			if req.Status == domain.RequestStatusCompleted {
				stats.Completed++
			} else {
				stats.Active++
			}
			switch {
			case req.FinalPaid:
				stats.Revenue += float64(req.Total)
			case req.DepositPaid:
				stats.Revenue += float64(req.Total) * 0.5
			}
		}
		if page.NextPageToken == "" {
			return stats, nil
		}
		filter.Pagination.PageToken = page.NextPageToken
	}
}

// OnboardingProgress returns the completion percentage of the kickoff checklist: one step for the welcome,
// three for a complete intake, and one per checked asset and milestone.
func OnboardingProgress(state OnboardingState) int {
	done := 1
	if state.Company != "" && state.Goals != "" && state.Audience != "" {
		done += intakeStepWeight
	}
	for _, key := range onboardingAssets {
		if state.Assets[key] {
			done++
		}
	}
	for _, key := range onboardingMilestones {
		if state.Milestones[key] {
			done++
		}
	}
	return int(roundHalfUp(float64(done) / onboardingStepsTotal * 100))
}

func (s *requestService) mutate(ctx context.Context, id string, event string, apply func(*ClientRequest)) (ClientRequest, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return ClientRequest{}, err
	}
	apply(&req)
	req.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, req); err != nil {
		return ClientRequest{}, s.translateRepoError(err)
	}
	s.logger(ctx, event, map[string]any{
		"requestId":   req.ID,
		"status":      string(req.Status),
		"progress":    req.Progress,
		"depositPaid": req.DepositPaid,
		"finalPaid":   req.FinalPaid,
	})
	return req, nil
}

func (s *requestService) publish(ctx context.Context, msg QuoteEventMessage) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.PublishQuoteEvent(ctx, msg); err != nil {
		s.logger(ctx, "request.publish_failed", map[string]any{"requestId": msg.RequestID, "error": err.Error()})
	}
}

func (s *requestService) websiteTypeName(ctx context.Context, id string) string {
	if s.catalog == nil || id == "" {
		return ""
	}
	item, ok := s.catalog.Defaults().WebsiteType(id)
	if !ok {
		return ""
	}
	return item.Name
}

func (s *requestService) translateRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case repositories.IsNotFound(err):
		return fmt.Errorf("%w: %v", ErrRequestNotFound, err)
	case repositories.IsConflict(err):
		return fmt.Errorf("%w: %v", ErrRequestConflict, err)
	default:
		return err
	}
}

func validStatus(status RequestStatus) bool {
	switch status {
	case domain.RequestStatusNew, domain.RequestStatusInProgress, domain.RequestStatusCompleted:
		return true
	}
	return false
}

func clampProgress(v int) int {
	return max(0, min(100, v))
}

func pickChecklist(in map[string]bool, keys []string) map[string]bool {
	out := make(map[string]bool, len(keys))
	for _, key := range keys {
		out[key] = in[key]
	}
	return out
}

// cleanField strips markup and control characters and caps the length of free-form client input.
func cleanField(value string) string {
	return textutil.CleanField(value, maxRequestFieldLength)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
