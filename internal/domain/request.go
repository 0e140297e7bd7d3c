package domain

import "time"

// RequestStatus tracks delivery progress of a client request.
type RequestStatus string

const (
	RequestStatusNew        RequestStatus = "new"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
)

// QuoteMode records which pricing path produced a request.
type QuoteMode string

const (
	QuoteModeWizard QuoteMode = "wizard"
	QuoteModeSRS    QuoteMode = "srs"
)

// ClientRequest is a saved quote together with its operational state.
type ClientRequest struct {
	ID             string
	ClientName     string
	ClientEmail    string
	ClientPhone    string
	ProjectName    string
	DeveloperEmail string
	Status         RequestStatus
	DepositPaid    bool
	FinalPaid      bool
	Progress       int
	Mode           QuoteMode
	Config         *QuoteConfig
	SRS            *SRSQuoteConfig
	Total          int64
	Breakdown      []BreakdownLine
	Onboarding     *OnboardingState
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OnboardingState is the kickoff checklist filled in after a request is accepted.
type OnboardingState struct {
	Company    string
	Goals      string
	Audience   string
	Assets     map[string]bool
	Milestones map[string]bool
}

// RequestStats summarises the request book for the admin dashboard.
type RequestStats struct {
	TotalRequests int
	Active        int
	Completed     int
	Revenue       float64
}
