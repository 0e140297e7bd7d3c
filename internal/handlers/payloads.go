package handlers

import (
	"time"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/services"
)

// Wire shapes. Domain types carry no JSON tags; everything crossing HTTP goes through these.

type quoteConfigPayload struct {
	WebsiteType      string   `json:"websiteType"`
	PageCount        int      `json:"pageCount"`
	SelectedFeatures []string `json:"selectedFeatures"`
	DeliveryOption   string   `json:"deliveryOption"`
	SelectedExtras   []string `json:"selectedExtras"`
	Region           string   `json:"region,omitempty"`
	Currency         string   `json:"currency,omitempty"`
}

func (p quoteConfigPayload) toDomain() services.QuoteConfig {
	return services.QuoteConfig{
		WebsiteType:      p.WebsiteType,
		PageCount:        p.PageCount,
		SelectedFeatures: p.SelectedFeatures,
		DeliveryOption:   p.DeliveryOption,
		SelectedExtras:   p.SelectedExtras,
		Region:           p.Region,
		Currency:         p.Currency,
	}
}

func newQuoteConfigPayload(cfg services.QuoteConfig) quoteConfigPayload {
	return quoteConfigPayload{
		WebsiteType:      cfg.WebsiteType,
		PageCount:        cfg.PageCount,
		SelectedFeatures: nonNilStrings(cfg.SelectedFeatures),
		DeliveryOption:   cfg.DeliveryOption,
		SelectedExtras:   nonNilStrings(cfg.SelectedExtras),
		Region:           cfg.Region,
		Currency:         cfg.Currency,
	}
}

type breakdownLinePayload struct {
	Item  string `json:"item"`
	Price int64  `json:"price"`
}

func newBreakdown(lines []services.BreakdownLine) []breakdownLinePayload {
	out := make([]breakdownLinePayload, 0, len(lines))
	for _, line := range lines {
		out = append(out, breakdownLinePayload{Item: line.Item, Price: line.Price})
	}
	return out
}

func breakdownToDomain(lines []breakdownLinePayload) []services.BreakdownLine {
	out := make([]services.BreakdownLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, services.BreakdownLine{Item: line.Item, Price: line.Price})
	}
	return out
}

type priceResponse struct {
	BasePrice            int64                  `json:"basePrice"`
	PagesPrice           int64                  `json:"pagesPrice"`
	FeaturesPrice        int64                  `json:"featuresPrice"`
	ExtrasPrice          int64                  `json:"extrasPrice"`
	DeliveryMultiplier   float64                `json:"deliveryMultiplier"`
	Subtotal             int64                  `json:"subtotal"`
	RuleAdjustedSubtotal int64                  `json:"ruleAdjustedSubtotal"`
	Total                int64                  `json:"total"`
	Breakdown            []breakdownLinePayload `json:"breakdown"`
}

func newPriceResponse(p services.PriceResult) priceResponse {
	return priceResponse{
		BasePrice:            p.BasePrice,
		PagesPrice:           p.PagesPrice,
		FeaturesPrice:        p.FeaturesPrice,
		ExtrasPrice:          p.ExtrasPrice,
		DeliveryMultiplier:   p.DeliveryMultiplier,
		Subtotal:             p.Subtotal,
		RuleAdjustedSubtotal: p.RuleAdjustedSubtotal,
		Total:                p.Total,
		Breakdown:            newBreakdown(p.Breakdown),
	}
}

type suggestionActionPayload struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type suggestionPayload struct {
	ID     string                   `json:"id"`
	Text   string                   `json:"text"`
	Action *suggestionActionPayload `json:"action,omitempty"`
}

type guardResponse struct {
	Blocking    bool                `json:"blocking"`
	Errors      []string            `json:"errors"`
	Suggestions []suggestionPayload `json:"suggestions"`
}

func newGuardResponse(g services.GuardResult) guardResponse {
	resp := guardResponse{
		Blocking:    g.Blocking(),
		Errors:      nonNilStrings(g.Errors),
		Suggestions: make([]suggestionPayload, 0, len(g.Suggestions)),
	}
	for _, s := range g.Suggestions {
		item := suggestionPayload{ID: s.ID, Text: s.Text}
		if s.Action != nil {
			item.Action = &suggestionActionPayload{Type: string(s.Action.Type), Value: s.Action.Value}
		}
		resp.Suggestions = append(resp.Suggestions, item)
	}
	return resp
}

type displayPayload struct {
	Currency  string  `json:"currency"`
	Rate      float64 `json:"rate"`
	Amount    float64 `json:"amount"`
	Formatted string  `json:"formatted"`
}

func newDisplayPayload(d *services.DisplayAmount) *displayPayload {
	if d == nil {
		return nil
	}
	return &displayPayload{Currency: d.Currency, Rate: d.Rate, Amount: d.Amount, Formatted: d.Formatted}
}

type catalogItemPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	BasePrice   int64  `json:"basePrice"`
	Description string `json:"description,omitempty"`
}

type deliveryOptionPayload struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Multiplier  float64 `json:"multiplier"`
	Duration    string  `json:"duration"`
	Description string  `json:"description,omitempty"`
}

type catalogResponse struct {
	WebsiteTypes []catalogItemPayload    `json:"websiteTypes"`
	Features     []catalogItemPayload    `json:"features"`
	Extras       []catalogItemPayload    `json:"extras"`
	Delivery     []deliveryOptionPayload `json:"delivery"`
	PricePerPage int64                   `json:"pricePerPage"`
	Currency     *currencyPayload        `json:"currency,omitempty"`
}

type currencyPayload struct {
	Code      string   `json:"code"`
	Rate      float64  `json:"rate"`
	Supported []string `json:"supported"`
}

func newCatalogResponse(c services.Catalog) catalogResponse {
	items := func(in []services.CatalogItem) []catalogItemPayload {
		out := make([]catalogItemPayload, 0, len(in))
		for _, item := range in {
			out = append(out, catalogItemPayload{ID: item.ID, Name: item.Name, BasePrice: item.BasePrice, Description: item.Description})
		}
		return out
	}
	resp := catalogResponse{
		WebsiteTypes: items(c.WebsiteTypes),
		Features:     items(c.Features),
		Extras:       items(c.Extras),
		Delivery:     make([]deliveryOptionPayload, 0, len(c.Delivery)),
		PricePerPage: c.PricePerPage,
	}
	for _, d := range c.Delivery {
		resp.Delivery = append(resp.Delivery, deliveryOptionPayload{ID: d.ID, Name: d.Name, Multiplier: d.Multiplier, Duration: d.Duration, Description: d.Description})
	}
	return resp
}

type overridesPayload struct {
	WebsiteTypes map[string]int64 `json:"websiteTypes,omitempty"`
	Features     map[string]int64 `json:"features,omitempty"`
	Extras       map[string]int64 `json:"extras,omitempty"`
	PricePerPage *int64           `json:"pricePerPage,omitempty"`
}

func (p overridesPayload) toDomain() services.CatalogOverrides {
	return services.CatalogOverrides{WebsiteTypes: p.WebsiteTypes, Features: p.Features, Extras: p.Extras, PricePerPage: p.PricePerPage}
}

func newOverridesPayload(o services.CatalogOverrides) overridesPayload {
	return overridesPayload{WebsiteTypes: o.WebsiteTypes, Features: o.Features, Extras: o.Extras, PricePerPage: o.PricePerPage}
}

type srsDriverPayload struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Points   int    `json:"points"`
	Mentions int    `json:"mentions"`
	Reason   string `json:"reason"`
}

type srsAnalysisPayload struct {
	TotalPoints int                `json:"totalPoints"`
	Drivers     []srsDriverPayload `json:"drivers"`
}

func newSRSAnalysisPayload(a services.SRSAnalysis) srsAnalysisPayload {
	out := srsAnalysisPayload{TotalPoints: a.TotalPoints, Drivers: make([]srsDriverPayload, 0, len(a.Drivers))}
	for _, d := range a.Drivers {
		out.Drivers = append(out.Drivers, srsDriverPayload{ID: d.ID, Label: d.Label, Points: d.Points, Mentions: d.Mentions, Reason: d.Reason})
	}
	return out
}

func (p srsAnalysisPayload) toDomain() services.SRSAnalysis {
	out := services.SRSAnalysis{TotalPoints: p.TotalPoints}
	for _, d := range p.Drivers {
		out.Drivers = append(out.Drivers, services.SRSDriver{ID: d.ID, Label: d.Label, Points: d.Points, Mentions: d.Mentions, Reason: d.Reason})
	}
	return out
}

type srsPriceRequest struct {
	Text     string              `json:"text,omitempty"`
	Analysis *srsAnalysisPayload `json:"analysis,omitempty"`
	Level    string              `json:"level"`
	Addons   []string            `json:"addons,omitempty"`
}

func (p srsPriceRequest) toCommand() services.PriceSRSCommand {
	cmd := services.PriceSRSCommand{Text: p.Text, Level: services.ExperienceLevel(p.Level), Addons: p.Addons}
	if p.Analysis != nil {
		analysis := p.Analysis.toDomain()
		cmd.Analysis = &analysis
	}
	return cmd
}

type srsPricePayload struct {
	Level     string                 `json:"level"`
	Hours     int64                  `json:"hours"`
	Computed  int64                  `json:"computed"`
	Base      int64                  `json:"base"`
	Breakdown []breakdownLinePayload `json:"breakdown"`
}

type srsQuoteResponse struct {
	Analysis  srsAnalysisPayload     `json:"analysis"`
	Price     srsPricePayload        `json:"price"`
	Total     int64                  `json:"total"`
	Breakdown []breakdownLinePayload `json:"breakdown"`
	Display   *displayPayload        `json:"display,omitempty"`
}

func newSRSQuoteResponse(q services.SRSQuote) srsQuoteResponse {
	return srsQuoteResponse{
		Analysis: newSRSAnalysisPayload(q.Analysis),
		Price: srsPricePayload{
			Level:     string(q.Price.Level),
			Hours:     q.Price.Hours,
			Computed:  q.Price.Computed,
			Base:      q.Price.Base,
			Breakdown: newBreakdown(q.Price.Breakdown),
		},
		Total:     q.Total,
		Breakdown: newBreakdown(q.Breakdown),
	}
}

type onboardingPayload struct {
	Company    string          `json:"company"`
	Goals      string          `json:"goals"`
	Audience   string          `json:"audience"`
	Assets     map[string]bool `json:"assets"`
	Milestones map[string]bool `json:"milestones"`
}

func (p onboardingPayload) toDomain() services.OnboardingState {
	return services.OnboardingState{Company: p.Company, Goals: p.Goals, Audience: p.Audience, Assets: p.Assets, Milestones: p.Milestones}
}

type srsConfigPayload struct {
	InputText string             `json:"inputText"`
	Analysis  srsAnalysisPayload `json:"analysis"`
	Level     string             `json:"level"`
	Addons    []string           `json:"addons"`
}

type requestResponse struct {
	ID             string                 `json:"id"`
	ClientName     string                 `json:"clientName"`
	ClientEmail    string                 `json:"clientEmail"`
	ClientPhone    string                 `json:"clientPhone,omitempty"`
	ProjectName    string                 `json:"projectName,omitempty"`
	DeveloperEmail string                 `json:"developerEmail,omitempty"`
	Status         string                 `json:"status"`
	DepositPaid    bool                   `json:"depositPaid"`
	FinalPaid      bool                   `json:"finalPaid"`
	Progress       int                    `json:"progress"`
	Mode           string                 `json:"mode"`
	Config         *quoteConfigPayload    `json:"config,omitempty"`
	SRS            *srsConfigPayload      `json:"srs,omitempty"`
	Total          int64                  `json:"total"`
	Breakdown      []breakdownLinePayload `json:"breakdown"`
	Onboarding     *onboardingPayload     `json:"onboarding,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

func newRequestResponse(req services.ClientRequest) requestResponse {
	resp := requestResponse{
		ID:             req.ID,
		ClientName:     req.ClientName,
		ClientEmail:    req.ClientEmail,
		ClientPhone:    req.ClientPhone,
		ProjectName:    req.ProjectName,
		DeveloperEmail: req.DeveloperEmail,
		Status:         string(req.Status),
		DepositPaid:    req.DepositPaid,
		FinalPaid:      req.FinalPaid,
		Progress:       req.Progress,
		Mode:           string(req.Mode),
		Total:          req.Total,
		Breakdown:      newBreakdown(req.Breakdown),
		CreatedAt:      req.CreatedAt,
		UpdatedAt:      req.UpdatedAt,
	}
	if req.Config != nil {
		cfg := newQuoteConfigPayload(*req.Config)
		resp.Config = &cfg
	}
	if req.SRS != nil {
		resp.SRS = &srsConfigPayload{
			InputText: req.SRS.InputText,
			Analysis:  newSRSAnalysisPayload(req.SRS.Analysis),
			Level:     string(req.SRS.Level),
			Addons:    nonNilStrings(req.SRS.Addons),
		}
	}
	if req.Onboarding != nil {
		resp.Onboarding = &onboardingPayload{
			Company:    req.Onboarding.Company,
			Goals:      req.Onboarding.Goals,
			Audience:   req.Onboarding.Audience,
			Assets:     req.Onboarding.Assets,
			Milestones: req.Onboarding.Milestones,
		}
	}
	return resp
}

type checkoutQuoteResponse struct {
	RequestID string                 `json:"requestId"`
	Mode      string                 `json:"mode"`
	Subtotal  int64                  `json:"subtotal"`
	Base      int64                  `json:"base"`
	Coupon    string                 `json:"coupon,omitempty"`
	Discount  int64                  `json:"discount"`
	ToPay     int64                  `json:"toPay"`
	Breakdown []breakdownLinePayload `json:"breakdown"`
	Display   *displayPayload        `json:"display,omitempty"`
}

func newCheckoutQuoteResponse(q services.CheckoutQuote) checkoutQuoteResponse {
	return checkoutQuoteResponse{
		RequestID: q.RequestID,
		Mode:      string(q.Mode),
		Subtotal:  q.Subtotal,
		Base:      q.Base,
		Coupon:    q.Coupon,
		Discount:  q.Discount,
		ToPay:     q.ToPay,
		Breakdown: newBreakdown(q.Breakdown),
		Display:   newDisplayPayload(q.Display),
	}
}

type analyticsEventResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Step       *int      `json:"step,omitempty"`
	FeatureID  string    `json:"featureId,omitempty"`
	ExtraID    string    `json:"extraId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func newAnalyticsEventResponse(e domain.AnalyticsEvent) analyticsEventResponse {
	return analyticsEventResponse{ID: e.ID, Type: string(e.Type), Step: e.Step, FeatureID: e.FeatureID, ExtraID: e.ExtraID, OccurredAt: e.OccurredAt}
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
