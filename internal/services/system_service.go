package services

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/repositories"
)

// BuildInfo captures runtime metadata exposed via health endpoints.
type BuildInfo struct {
	Version     string
	CommitSHA   string
	Environment string
	StartedAt   time.Time
}

// SystemServiceDeps bundles collaborators required to construct a system service.
type SystemServiceDeps struct {
	HealthRepository repositories.HealthRepository
	Catalog          CatalogService
	Rules            PricingRuleService
	Clock            func() time.Time
	Build            BuildInfo
}

type systemService struct {
	healthRepo repositories.HealthRepository
	catalog    CatalogService
	rules      PricingRuleService
	clock      func() time.Time
	build      BuildInfo
}

var _ SystemService = (*systemService)(nil)

// NewSystemService assembles the system utility service providing health reports and metadata.
func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.HealthRepository == nil {
		return nil, errors.New("system service: health repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	build := deps.Build
	if build.StartedAt.IsZero() {
		build.StartedAt = clock()
	}

	return &systemService{
		healthRepo: deps.HealthRepository,
		catalog:    deps.Catalog,
		rules:      deps.Rules,
		clock: func() time.Time {
			return clock().UTC()
		},
		build: build,
	}, nil
}

// HealthReport merges dependency probes with a pricing self-check: the effective catalog and rule
// list must both load, since every quote computation reads them.
func (s *systemService) HealthReport(ctx context.Context) (SystemHealthReport, error) {
	if ctx == nil {
		return SystemHealthReport{}, errors.New("system service: context is required")
	}

	report, err := s.healthRepo.Collect(ctx)
	if err != nil {
		return SystemHealthReport{}, err
	}

	now := s.clock()
	report.GeneratedAt = ensureTimestamp(report.GeneratedAt, now)
	report.Version = chooseFirstNonEmpty(report.Version, s.build.Version)
	report.CommitSHA = chooseFirstNonEmpty(report.CommitSHA, s.build.CommitSHA)
	report.Environment = chooseFirstNonEmpty(report.Environment, s.build.Environment)

	if report.Uptime <= 0 && !s.build.StartedAt.IsZero() {
		report.Uptime = now.Sub(s.build.StartedAt)
	}

	if report.Checks == nil {
		report.Checks = map[string]domain.SystemHealthCheck{}
	}
	if s.catalog != nil || s.rules != nil {
		report.Checks["pricing"] = s.pricingCheck(ctx)
	}

	if derived := deriveStatus(report.Checks); strings.TrimSpace(report.Status) == "" || report.Status == domain.HealthStatusOK {
		report.Status = derived
	}

	return report, nil
}

func (s *systemService) pricingCheck(ctx context.Context) domain.SystemHealthCheck {
	start := s.clock()
	check := domain.SystemHealthCheck{Status: domain.HealthStatusOK}
	var details []string
	if s.catalog != nil {
		catalog, err := s.catalog.Effective(ctx)
		if err != nil {
			check.Status = domain.HealthStatusDegraded
			check.Error = err.Error()
		} else if len(catalog.WebsiteTypes) == 0 {
			check.Status = domain.HealthStatusDegraded
			check.Error = "catalog has no website types"
		} else {
			details = append(details, "catalog loaded")
		}
	}
	if s.rules != nil && check.Error == "" {
		if _, err := s.rules.ListRules(ctx); err != nil {
			check.Status = domain.HealthStatusDegraded
			check.Error = err.Error()
		} else {
			details = append(details, "rules loaded")
		}
	}
	check.Detail = strings.Join(details, "; ")
	check.CheckedAt = s.clock()
	check.Latency = check.CheckedAt.Sub(start)
	return check
}

func ensureTimestamp(ts time.Time, fallback time.Time) time.Time {
	if ts.IsZero() {
		return fallback
	}
	return ts.UTC()
}

func chooseFirstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func deriveStatus(checks map[string]domain.SystemHealthCheck) string {
	status := domain.HealthStatusOK
	for _, check := range checks {
		switch check.Status {
		case domain.HealthStatusOK, "":
			continue
		case domain.HealthStatusError:
			return domain.HealthStatusError
		default:
			status = domain.HealthStatusDegraded
		}
	}
	return status
}
