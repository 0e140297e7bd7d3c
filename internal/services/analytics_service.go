package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/repositories"
)

const maxAnalyticsStep = 32

// AnalyticsServiceDeps bundles collaborators for the analytics service.
type AnalyticsServiceDeps struct {
	Events      repositories.AnalyticsEventRepository
	Publisher   QuoteEventPublisher
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type analyticsService struct {
	repo      repositories.AnalyticsEventRepository
	publisher QuoteEventPublisher
	now       func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
}

var _ AnalyticsService = (*analyticsService)(nil)

// NewAnalyticsService constructs the analytics service.
func NewAnalyticsService(deps AnalyticsServiceDeps) (AnalyticsService, error) {
	if deps.Events == nil {
		return nil, ErrAnalyticsRepositoryMissing
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return uuid.NewString() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &analyticsService{
		repo:      deps.Events,
		publisher: deps.Publisher,
		now:       func() time.Time { return clock().UTC() },
		newID:     idGen,
		logger:    logger,
	}, nil
}

// Track validates and appends an event, then forwards it to the bus when one is configured.
// Publish failures are logged and never fail the call.
func (s *analyticsService) Track(ctx context.Context, cmd TrackEventCommand) (AnalyticsEvent, error) {
	event, err := s.buildEvent(cmd)
	if err != nil {
		return AnalyticsEvent{}, err
	}
	if err := s.repo.Append(ctx, event); err != nil {
		return AnalyticsEvent{}, err
	}

	if s.publisher != nil {
		attrs := map[string]any{}
		if event.Step != nil {
			attrs["step"] = *event.Step
		}
		if event.FeatureID != "" {
			attrs["featureId"] = event.FeatureID
		}
		if event.ExtraID != "" {
			attrs["extraId"] = event.ExtraID
		}
		if _, err := s.publisher.PublishQuoteEvent(ctx, QuoteEventMessage{
			EventID:    event.ID,
			Type:       string(event.Type),
			Attributes: attrs,
			OccurredAt: event.OccurredAt,
		}); err != nil {
			s.logger(ctx, "analytics.publish_failed", map[string]any{
				"eventId": event.ID,
				"type":    string(event.Type),
				"error":   err.Error(),
			})
		}
	}
	return event, nil
}

// Summary replays every stored event into per-step and per-item tallies.
func (s *analyticsService) Summary(ctx context.Context) (AnalyticsSummary, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return AnalyticsSummary{}, err
	}
	return SummarizeEvents(events), nil
}

// SummarizeEvents tallies events. Events missing the step or item they refer to are ignored.
func SummarizeEvents(events []AnalyticsEvent) AnalyticsSummary {
	summary := AnalyticsSummary{
		StepViews:         map[int]int{},
		FeatureSelections: map[string]int{},
		ExtraSelections:   map[string]int{},
		DropOffs:          map[int]int{},
	}
	for _, event := range events {
		switch event.Type {
		case domain.EventStepView:
			if event.Step != nil {
				summary.StepViews[*event.Step]++
			}
		case domain.EventDropOff:
			if event.Step != nil {
				summary.DropOffs[*event.Step]++
			}
		case domain.EventFeatureToggle:
			if event.FeatureID != "" {
				summary.FeatureSelections[event.FeatureID]++
			}
		case domain.EventExtraToggle:
			if event.ExtraID != "" {
				summary.ExtraSelections[event.ExtraID]++
			}
		case domain.EventQuoteComplete:
			summary.QuoteCompletions++
		}
	}
	return summary
}

func (s *analyticsService) buildEvent(cmd TrackEventCommand) (AnalyticsEvent, error) {
	event := AnalyticsEvent{
		ID:         s.newID(),
		Type:       domain.AnalyticsEventType(strings.TrimSpace(string(cmd.Type))),
		FeatureID:  strings.TrimSpace(cmd.FeatureID),
		ExtraID:    strings.TrimSpace(cmd.ExtraID),
		OccurredAt: s.now(),
	}
	if cmd.Step != nil {
		step := *cmd.Step
		if step < 0 || step > maxAnalyticsStep {
			return AnalyticsEvent{}, fmt.Errorf("%w: step %d out of range", ErrAnalyticsInvalidEvent, step)
		}
		event.Step = &step
	}

	switch event.Type {
	case domain.EventStepView, domain.EventDropOff:
		if event.Step == nil {
			return AnalyticsEvent{}, fmt.Errorf("%w: %s requires step", ErrAnalyticsInvalidEvent, event.Type)
		}
	case domain.EventFeatureToggle:
		if event.FeatureID == "" {
			return AnalyticsEvent{}, fmt.Errorf("%w: feature_toggle requires featureId", ErrAnalyticsInvalidEvent)
		}
	case domain.EventExtraToggle:
		if event.ExtraID == "" {
			return AnalyticsEvent{}, fmt.Errorf("%w: extra_toggle requires extraId", ErrAnalyticsInvalidEvent)
		}
	case domain.EventQuoteComplete:
	default:
		return AnalyticsEvent{}, fmt.Errorf("%w: unknown type %q", ErrAnalyticsInvalidEvent, cmd.Type)
	}
	return event, nil
}
