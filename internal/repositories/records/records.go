// Package records holds the persisted shapes of domain values. The SQL backend
// stores them as JSON text and the Firestore backend stores them as documents,
// so every field carries both tags.
package records

import (
	"time"

	domain "github.com/august-web/dev-quoteX/internal/domain"
)

// Request is the stored form of domain.ClientRequest.
type Request struct {
	ID             string          `json:"id" firestore:"id"`
	ClientName     string          `json:"clientName" firestore:"clientName"`
	ClientEmail    string          `json:"clientEmail" firestore:"clientEmail"`
	ClientPhone    string          `json:"clientPhone,omitempty" firestore:"clientPhone,omitempty"`
	ProjectName    string          `json:"projectName,omitempty" firestore:"projectName,omitempty"`
	DeveloperEmail string          `json:"developerEmail,omitempty" firestore:"developerEmail,omitempty"`
	Status         string          `json:"status" firestore:"status"`
	DepositPaid    bool            `json:"depositPaid" firestore:"depositPaid"`
	FinalPaid      bool            `json:"finalPaid" firestore:"finalPaid"`
	Progress       int             `json:"progress" firestore:"progress"`
	Mode           string          `json:"mode" firestore:"mode"`
	Config         *QuoteConfig    `json:"config,omitempty" firestore:"config,omitempty"`
	SRS            *SRSConfig      `json:"srs,omitempty" firestore:"srs,omitempty"`
	Total          int64           `json:"total" firestore:"total"`
	Breakdown      []BreakdownLine `json:"breakdown" firestore:"breakdown"`
	Onboarding     *Onboarding     `json:"onboarding,omitempty" firestore:"onboarding,omitempty"`
	CreatedAt      time.Time       `json:"createdAt" firestore:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt" firestore:"updatedAt"`
}

type QuoteConfig struct {
	WebsiteType      string   `json:"websiteType" firestore:"websiteType"`
	PageCount        int      `json:"pageCount" firestore:"pageCount"`
	SelectedFeatures []string `json:"selectedFeatures" firestore:"selectedFeatures"`
	DeliveryOption   string   `json:"deliveryOption" firestore:"deliveryOption"`
	SelectedExtras   []string `json:"selectedExtras" firestore:"selectedExtras"`
	Region           string   `json:"region,omitempty" firestore:"region,omitempty"`
	Currency         string   `json:"currency,omitempty" firestore:"currency,omitempty"`
}

type SRSConfig struct {
	InputText string      `json:"inputText" firestore:"inputText"`
	Points    int         `json:"totalPoints" firestore:"totalPoints"`
	Drivers   []SRSDriver `json:"drivers" firestore:"drivers"`
	Level     string      `json:"level" firestore:"level"`
	Addons    []string    `json:"addons" firestore:"addons"`
}

type SRSDriver struct {
	ID       string `json:"id" firestore:"id"`
	Label    string `json:"label" firestore:"label"`
	Points   int    `json:"points" firestore:"points"`
	Mentions int    `json:"mentions" firestore:"mentions"`
	Reason   string `json:"reason" firestore:"reason"`
}

type BreakdownLine struct {
	Item  string `json:"item" firestore:"item"`
	Price int64  `json:"price" firestore:"price"`
}

type Onboarding struct {
	Company    string          `json:"company" firestore:"company"`
	Goals      string          `json:"goals" firestore:"goals"`
	Audience   string          `json:"audience" firestore:"audience"`
	Assets     map[string]bool `json:"assets,omitempty" firestore:"assets,omitempty"`
	Milestones map[string]bool `json:"milestones,omitempty" firestore:"milestones,omitempty"`
}

// FromRequest converts a domain request. Timestamps are normalised to UTC.
func FromRequest(in domain.ClientRequest) Request {
	out := Request{
		ID:             in.ID,
		ClientName:     in.ClientName,
		ClientEmail:    in.ClientEmail,
		ClientPhone:    in.ClientPhone,
		ProjectName:    in.ProjectName,
		DeveloperEmail: in.DeveloperEmail,
		Status:         string(in.Status),
		DepositPaid:    in.DepositPaid,
		FinalPaid:      in.FinalPaid,
		Progress:       in.Progress,
		Mode:           string(in.Mode),
		Total:          in.Total,
		Breakdown:      make([]BreakdownLine, 0, len(in.Breakdown)),
		CreatedAt:      in.CreatedAt.UTC(),
		UpdatedAt:      in.UpdatedAt.UTC(),
	}
	for _, line := range in.Breakdown {
		out.Breakdown = append(out.Breakdown, BreakdownLine{Item: line.Item, Price: line.Price})
	}
	if cfg := in.Config; cfg != nil {
		out.Config = &QuoteConfig{
			WebsiteType:      cfg.WebsiteType,
			PageCount:        cfg.PageCount,
			SelectedFeatures: append([]string{}, cfg.SelectedFeatures...),
			DeliveryOption:   cfg.DeliveryOption,
			SelectedExtras:   append([]string{}, cfg.SelectedExtras...),
			Region:           cfg.Region,
			Currency:         cfg.Currency,
		}
	}
	if srs := in.SRS; srs != nil {
		rec := &SRSConfig{
			InputText: srs.InputText,
			Points:    srs.Analysis.TotalPoints,
			Drivers:   make([]SRSDriver, 0, len(srs.Analysis.Drivers)),
			Level:     string(srs.Level),
			Addons:    append([]string{}, srs.Addons...),
		}
		for _, d := range srs.Analysis.Drivers {
			rec.Drivers = append(rec.Drivers, SRSDriver{ID: d.ID, Label: d.Label, Points: d.Points, Mentions: d.Mentions, Reason: d.Reason})
		}
		out.SRS = rec
	}
	if ob := in.Onboarding; ob != nil {
		out.Onboarding = &Onboarding{
			Company:    ob.Company,
			Goals:      ob.Goals,
			Audience:   ob.Audience,
			Assets:     copyFlags(ob.Assets),
			Milestones: copyFlags(ob.Milestones),
		}
	}
	return out
}

// Domain converts the record back.
func (r Request) Domain() domain.ClientRequest {
	out := domain.ClientRequest{
		ID:             r.ID,
		ClientName:     r.ClientName,
		ClientEmail:    r.ClientEmail,
		ClientPhone:    r.ClientPhone,
		ProjectName:    r.ProjectName,
		DeveloperEmail: r.DeveloperEmail,
		Status:         domain.RequestStatus(r.Status),
		DepositPaid:    r.DepositPaid,
		FinalPaid:      r.FinalPaid,
		Progress:       r.Progress,
		Mode:           domain.QuoteMode(r.Mode),
		Total:          r.Total,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
	for _, line := range r.Breakdown {
		out.Breakdown = append(out.Breakdown, domain.BreakdownLine{Item: line.Item, Price: line.Price})
	}
	if cfg := r.Config; cfg != nil {
		out.Config = &domain.QuoteConfig{
			WebsiteType:      cfg.WebsiteType,
			PageCount:        cfg.PageCount,
			SelectedFeatures: append([]string(nil), cfg.SelectedFeatures...),
			DeliveryOption:   cfg.DeliveryOption,
			SelectedExtras:   append([]string(nil), cfg.SelectedExtras...),
			Region:           cfg.Region,
			Currency:         cfg.Currency,
		}
	}
	if srs := r.SRS; srs != nil {
		cfg := &domain.SRSQuoteConfig{
			InputText: srs.InputText,
			Analysis:  domain.SRSAnalysis{TotalPoints: srs.Points},
			Level:     domain.ExperienceLevel(srs.Level),
			Addons:    append([]string(nil), srs.Addons...),
		}
		for _, d := range srs.Drivers {
			cfg.Analysis.Drivers = append(cfg.Analysis.Drivers, domain.SRSDriver{ID: d.ID, Label: d.Label, Points: d.Points, Mentions: d.Mentions, Reason: d.Reason})
		}
		out.SRS = cfg
	}
	if ob := r.Onboarding; ob != nil {
		out.Onboarding = &domain.OnboardingState{
			Company:    ob.Company,
			Goals:      ob.Goals,
			Audience:   ob.Audience,
			Assets:     copyFlags(ob.Assets),
			Milestones: copyFlags(ob.Milestones),
		}
	}
	return out
}

// Overrides is the stored form of domain.CatalogOverrides.
type Overrides struct {
	WebsiteTypes map[string]int64 `json:"websiteTypes,omitempty" firestore:"websiteTypes,omitempty"`
	Features     map[string]int64 `json:"features,omitempty" firestore:"features,omitempty"`
	Extras       map[string]int64 `json:"extras,omitempty" firestore:"extras,omitempty"`
	PricePerPage *int64           `json:"pricePerPage,omitempty" firestore:"pricePerPage,omitempty"`
	UpdatedAt    time.Time        `json:"updatedAt" firestore:"updatedAt"`
}

func FromOverrides(in domain.CatalogOverrides, at time.Time) Overrides {
	c := in.Clone()
	return Overrides{WebsiteTypes: c.WebsiteTypes, Features: c.Features, Extras: c.Extras, PricePerPage: c.PricePerPage, UpdatedAt: at.UTC()}
}

func (o Overrides) Domain() domain.CatalogOverrides {
	return domain.CatalogOverrides{WebsiteTypes: o.WebsiteTypes, Features: o.Features, Extras: o.Extras, PricePerPage: o.PricePerPage}.Clone()
}

// Rules wraps the encoded rule list so it is written as one value.
type Rules struct {
	Payload   string    `json:"payload" firestore:"payload"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// FromRules encodes rules with the domain rule codec.
func FromRules(rules []domain.PricingRule, at time.Time) (Rules, error) {
	raw, err := domain.EncodePricingRules(rules)
	if err != nil {
		return Rules{}, err
	}
	return Rules{Payload: string(raw), UpdatedAt: at.UTC()}, nil
}

func (r Rules) Domain() ([]domain.PricingRule, error) {
	if r.Payload == "" {
		return nil, nil
	}
	return domain.DecodePricingRules([]byte(r.Payload))
}

// Event is the stored form of domain.AnalyticsEvent.
type Event struct {
	ID         string    `json:"id" firestore:"id"`
	Type       string    `json:"type" firestore:"type"`
	Step       *int      `json:"step,omitempty" firestore:"step,omitempty"`
	FeatureID  string    `json:"featureId,omitempty" firestore:"featureId,omitempty"`
	ExtraID    string    `json:"extraId,omitempty" firestore:"extraId,omitempty"`
	OccurredAt time.Time `json:"occurredAt" firestore:"occurredAt"`
}

func FromEvent(in domain.AnalyticsEvent) Event {
	out := Event{ID: in.ID, Type: string(in.Type), FeatureID: in.FeatureID, ExtraID: in.ExtraID, OccurredAt: in.OccurredAt.UTC()}
	if in.Step != nil {
		step := *in.Step
		out.Step = &step
	}
	return out
}

func (e Event) Domain() domain.AnalyticsEvent {
	out := domain.AnalyticsEvent{ID: e.ID, Type: domain.AnalyticsEventType(e.Type), FeatureID: e.FeatureID, ExtraID: e.ExtraID, OccurredAt: e.OccurredAt.UTC()}
	if e.Step != nil {
		step := *e.Step
		out.Step = &step
	}
	return out
}

func copyFlags(in map[string]bool) map[string]bool {
	if in == nil {
		return nil
	}
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
