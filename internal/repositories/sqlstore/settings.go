package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/repositories"
	"github.com/august-web/dev-quoteX/internal/repositories/records"
)

const (
	settingCatalogOverrides = "catalog_overrides"
	settingPricingRules     = "pricing_rules"

	upsertSettingSQL = `INSERT INTO quote_settings (name, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT (name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	selectSettingSQL = `SELECT payload FROM quote_settings WHERE name = ?`
)

// settings reads and writes single-row JSON documents in quote_settings.
type settings struct {
	db  *DB
	now func() time.Time
}

// load decodes the named row into out. found is false when the row does not exist.
func (s settings) load(ctx context.Context, name string, out any) (bool, error) {
	var payload string
	err := s.db.queryRow(ctx, selectSettingSQL, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, wrap("settings.get", err)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, fmt.Errorf("sqlstore: decode %s: %w", name, err)
	}
	return true, nil
}

func (s settings) store(ctx context.Context, name string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("sqlstore: encode %s: %w", name, err)
	}
	if _, err := s.db.exec(ctx, upsertSettingSQL, name, string(payload), formatTime(s.now())); err != nil {
		return wrap("settings.replace", err)
	}
	return nil
}

// CatalogOverrideRepository keeps the overrides in one quote_settings row.
type CatalogOverrideRepository struct {
	settings settings
}

var _ repositories.CatalogOverrideRepository = (*CatalogOverrideRepository)(nil)

func NewCatalogOverrideRepository(db *DB, clock func() time.Time) *CatalogOverrideRepository {
	return &CatalogOverrideRepository{settings: settings{db: db, now: clock}}
}

func (r *CatalogOverrideRepository) Get(ctx context.Context) (domain.CatalogOverrides, error) {
	var rec records.Overrides
	if _, err := r.settings.load(ctx, settingCatalogOverrides, &rec); err != nil {
		return domain.CatalogOverrides{}, err
	}
	return rec.Domain(), nil
}

func (r *CatalogOverrideRepository) Replace(ctx context.Context, overrides domain.CatalogOverrides) error {
	return r.settings.store(ctx, settingCatalogOverrides, records.FromOverrides(overrides, r.settings.now()))
}

// PricingRuleRepository stores the encoded rule list in one row, so a replace is a single upsert.
type PricingRuleRepository struct {
	settings settings
}

var _ repositories.PricingRuleRepository = (*PricingRuleRepository)(nil)

func NewPricingRuleRepository(db *DB, clock func() time.Time) *PricingRuleRepository {
	return &PricingRuleRepository{settings: settings{db: db, now: clock}}
}

func (r *PricingRuleRepository) List(ctx context.Context) ([]domain.PricingRule, error) {
	var rec records.Rules
	if _, err := r.settings.load(ctx, settingPricingRules, &rec); err != nil {
		return nil, err
	}
	return rec.Domain()
}

func (r *PricingRuleRepository) Replace(ctx context.Context, rules []domain.PricingRule) error {
	rec, err := records.FromRules(rules, r.settings.now())
	if err != nil {
		return err
	}
	return r.settings.store(ctx, settingPricingRules, rec)
}
