package domain

import "time"

// AnalyticsEventType enumerates the wizard events the UI emits.
type AnalyticsEventType string

const (
	EventStepView      AnalyticsEventType = "step_view"
	EventDropOff       AnalyticsEventType = "drop_off"
	EventFeatureToggle AnalyticsEventType = "feature_toggle"
	EventExtraToggle   AnalyticsEventType = "extra_toggle"
	EventQuoteComplete AnalyticsEventType = "quote_complete"
)

// AnalyticsEvent is a single usage signal.
type AnalyticsEvent struct {
	ID         string
	Type       AnalyticsEventType
	Step       *int
	FeatureID  string
	ExtraID    string
	OccurredAt time.Time
}

// AnalyticsSummary tallies events by step or item id.
type AnalyticsSummary struct {
	StepViews         map[int]int
	FeatureSelections map[string]int
	ExtraSelections   map[string]int
	DropOffs          map[int]int
	QuoteCompletions  int
}
