package services

import (
	"context"
	"time"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/repositories"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination         = domain.Pagination
	Catalog            = domain.Catalog
	CatalogItem        = domain.CatalogItem
	CatalogOverrides   = domain.CatalogOverrides
	CatalogNamespace   = domain.CatalogNamespace
	DeliveryOption     = domain.DeliveryOption
	QuoteConfig        = domain.QuoteConfig
	BreakdownLine      = domain.BreakdownLine
	PriceResult        = domain.PriceResult
	RuleOutcome        = domain.RuleOutcome
	PricingRule        = domain.PricingRule
	AddRule            = domain.AddRule
	MultiplyRule       = domain.MultiplyRule
	DiscountRule       = domain.DiscountRule
	GuardResult        = domain.GuardResult
	Suggestion         = domain.Suggestion
	SuggestionAction   = domain.SuggestionAction
	SRSAnalysis        = domain.SRSAnalysis
	SRSDriver          = domain.SRSDriver
	SRSPrice           = domain.SRSPrice
	SRSAddon           = domain.SRSAddon
	ExperienceLevel    = domain.ExperienceLevel
	LevelProfile       = domain.LevelProfile
	ClientRequest      = domain.ClientRequest
	RequestStatus      = domain.RequestStatus
	RequestStats       = domain.RequestStats
	OnboardingState    = domain.OnboardingState
	AnalyticsEvent     = domain.AnalyticsEvent
	AnalyticsSummary   = domain.AnalyticsSummary
	QuoteDocument      = domain.QuoteDocument
	SystemHealthReport = domain.SystemHealthReport
	RequestListFilter  = repositories.RequestListFilter
)

// CatalogService resolves the effective catalog and manages operator overrides.
type CatalogService interface {
	// Effective returns defaults with the current overrides applied. Every call reads the store.
	Effective(ctx context.Context) (Catalog, error)
	Defaults() Catalog
	Overrides(ctx context.Context) (CatalogOverrides, error)
	ReplaceOverrides(ctx context.Context, overrides CatalogOverrides) (Catalog, error)
	ResetOverride(ctx context.Context, namespace CatalogNamespace, id string) (Catalog, error)
}

// PricingRuleService validates and stores the ordered pricing rule list.
type PricingRuleService interface {
	ListRules(ctx context.Context) ([]PricingRule, error)
	ReplaceRules(ctx context.Context, rules []PricingRule) ([]PricingRule, error)
	ReplaceRulesJSON(ctx context.Context, raw []byte) ([]PricingRule, error)
}

// QuoteService prices wizard configurations and SRS text against fresh store snapshots.
type QuoteService interface {
	PriceQuote(ctx context.Context, cfg QuoteConfig) (QuoteEvaluation, error)
	EvaluateQuote(ctx context.Context, cfg QuoteConfig) GuardResult
	AnalyzeSRS(ctx context.Context, cmd AnalyzeSRSCommand) (SRSAnalysis, error)
	PriceSRS(ctx context.Context, cmd PriceSRSCommand) (SRSQuote, error)
}

// RequestService stores client requests and tracks their lifecycle.
type RequestService interface {
	Submit(ctx context.Context, cmd SubmitRequestCommand) (ClientRequest, error)
	Get(ctx context.Context, id string) (ClientRequest, error)
	List(ctx context.Context, filter RequestListFilter) (domain.CursorPage[ClientRequest], error)
	Update(ctx context.Context, cmd UpdateRequestCommand) (ClientRequest, error)
	RecordOnboarding(ctx context.Context, cmd OnboardingCommand) (ClientRequest, error)
	MarkPaid(ctx context.Context, id string, mode PaymentMode) (ClientRequest, error)
	Stats(ctx context.Context) (RequestStats, error)
}

// CheckoutService computes amounts due and runs mocked payments against saved requests.
type CheckoutService interface {
	Quote(ctx context.Context, cmd CheckoutQuoteCommand) (CheckoutQuote, error)
	Pay(ctx context.Context, cmd CheckoutPayCommand) (CheckoutReceipt, error)
}

// AnalyticsService records wizard usage events and tallies them.
type AnalyticsService interface {
	Track(ctx context.Context, cmd TrackEventCommand) (AnalyticsEvent, error)
	Summary(ctx context.Context) (AnalyticsSummary, error)
}

// QuoteExportService renders quotes to PDF and optionally archives them.
type QuoteExportService interface {
	Render(ctx context.Context, doc QuoteDocument) ([]byte, error)
	Export(ctx context.Context, cmd ExportQuoteCommand) (QuoteExport, error)
}

// SystemService aggregates utility endpoints such as health checks.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}

// QuoteEventPublisher emits quote lifecycle and analytics events to an external bus.
type QuoteEventPublisher interface {
	PublishQuoteEvent(ctx context.Context, message QuoteEventMessage) (string, error)
}

// QuoteArchive stores rendered quote documents and issues download links.
type QuoteArchive interface {
	Store(ctx context.Context, object ArchivedObject) (ArchivedQuote, error)
}

// QuoteMetrics records pricing activity. Implementations must be safe for concurrent use.
type QuoteMetrics interface {
	QuotePriced(ctx context.Context, total int64, blocked bool)
	SRSAnalyzed(ctx context.Context, points int)
}

// Command and DTO definitions ------------------------------------------------

// QuoteEvaluation pairs a price with the guardrail verdict for the same config.
type QuoteEvaluation struct {
	Config QuoteConfig
	Price  PriceResult
	Guard  GuardResult
}

type AnalyzeSRSCommand struct {
	Text     string
	Document *SRSDocument
}

type PriceSRSCommand struct {
	Text     string
	Analysis *SRSAnalysis
	Level    ExperienceLevel
	Addons   []string
}

// SRSQuote is an SRS estimate with add-ons folded into Total and Breakdown.
type SRSQuote struct {
	Analysis  SRSAnalysis
	Price     SRSPrice
	Total     int64
	Breakdown []BreakdownLine
}

type SubmitRequestCommand struct {
	ClientName     string
	ClientEmail    string
	ClientPhone    string
	ProjectName    string
	DeveloperEmail string
	Config         *QuoteConfig
	SRS            *PriceSRSCommand
	ProceedToPay   bool
}

type UpdateRequestCommand struct {
	ID       string
	Status   *RequestStatus
	Progress *int
}

type OnboardingCommand struct {
	RequestID string
	State     OnboardingState
}

// PaymentMode selects whether a checkout settles the deposit or the full amount.
type PaymentMode string

const (
	PaymentModeDeposit PaymentMode = "deposit"
	PaymentModeFull    PaymentMode = "full"
)

type CheckoutQuoteCommand struct {
	RequestID  string
	Mode       PaymentMode
	CouponCode string
	Currency   string
}

// CheckoutQuote is the amount due for a request; Display is presentation only.
type CheckoutQuote struct {
	RequestID string
	Mode      PaymentMode
	Subtotal  int64
	Base      int64
	Coupon    string
	Discount  int64
	ToPay     int64
	Breakdown []BreakdownLine
	Display   *DisplayAmount
}

type BillingDetails struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	Country string
	Zip     string
}

type CardDetails struct {
	Number string
	Expiry string
	CVV    string
}

type CheckoutPayCommand struct {
	CheckoutQuoteCommand
	Method        string
	Billing       BillingDetails
	Card          CardDetails
	AcceptedTerms bool
}

type CheckoutReceipt struct {
	Quote     CheckoutQuote
	PaymentID string
	Request   ClientRequest
	PaidAt    time.Time
}

type TrackEventCommand struct {
	Type      domain.AnalyticsEventType
	Step      *int
	FeatureID string
	ExtraID   string
}

type ExportQuoteCommand struct {
	Document QuoteDocument
	Archive  bool
	Name     string
}

type QuoteExport struct {
	PDF      []byte
	Archived *ArchivedQuote
}

type ArchivedObject struct {
	Name        string
	ContentType string
	Data        []byte
}

type ArchivedQuote struct {
	Bucket      string
	ObjectPath  string
	DownloadURL string
	ExpiresAt   time.Time
}

// QuoteEventMessage is the bus payload for analytics and quote lifecycle events.
type QuoteEventMessage struct {
	EventID    string         `json:"eventId"`
	Type       string         `json:"type"`
	RequestID  string         `json:"requestId,omitempty"`
	Total      int64          `json:"total,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}
