package services

import (
	"fmt"
	"strings"

	domain "github.com/august-web/dev-quoteX/internal/domain"
)

const hoursPerPoint = 3

var levelProfiles = []LevelProfile{
	{ID: domain.LevelJunior, Name: "Junior", Rate: 40, Multiplier: 1, Floor: 400},
	{ID: domain.LevelMid, Name: "Mid-level", Rate: 60, Multiplier: 1.2, Floor: 750},
	{ID: domain.LevelSenior, Name: "Senior/Agency", Rate: 100, Multiplier: 1.4, Floor: 1500},
}

var srsAddons = []SRSAddon{
	{ID: "qa", Label: "Dedicated QA", Price: 500},
	{ID: "pm", Label: "Project Management", Price: 800},
	{ID: "support", Label: "3 months support", Price: 600},
}

// ExperienceLevels lists the supported level profiles.
func ExperienceLevels() []LevelProfile {
	return append([]LevelProfile(nil), levelProfiles...)
}

// SRSAddons lists the optional services offered on top of an SRS estimate.
func SRSAddons() []SRSAddon {
	return append([]SRSAddon(nil), srsAddons...)
}

// LookupLevel resolves a level id, case-insensitively.
func LookupLevel(level ExperienceLevel) (LevelProfile, bool) {
	id := ExperienceLevel(strings.ToLower(strings.TrimSpace(string(level))))
	for _, profile := range levelProfiles {
		if profile.ID == id {
			return profile, true
		}
	}
	return LevelProfile{}, false
}

// PriceFromAnalysis converts effort points into a price for the given level. The result never drops
// below the level floor. Driver lines are allocated proportionally and are not reconciled to Base.
func PriceFromAnalysis(analysis SRSAnalysis, level ExperienceLevel) (SRSPrice, error) {
	profile, ok := LookupLevel(level)
	if !ok {
		return SRSPrice{}, fmt.Errorf("%w: %q", ErrSRSUnknownLevel, level)
	}

	points := analysis.TotalPoints
	if points <= 0 {
		points = minimumSRSPoints
	}
	hours := roundHalfUp(float64(points) * hoursPerPoint)
	computed := roundHalfUp(float64(hours) * float64(profile.Rate) * profile.Multiplier)
	base := max(computed, profile.Floor)

	perPoint := float64(base) / float64(points)
	breakdown := make([]BreakdownLine, 0, len(analysis.Drivers))
	for _, driver := range analysis.Drivers {
		breakdown = append(breakdown, BreakdownLine{Item: driver.Label, Price: roundHalfUp(float64(driver.Points) * perPoint)})
	}

	return SRSPrice{
		Level:     profile.ID,
		Hours:     hours,
		Computed:  computed,
		Base:      base,
		Breakdown: breakdown,
	}, nil
}

// ApplySRSAddons appends the selected add-ons to an SRS price and returns the final total.
// Unknown add-on ids are ignored.
func ApplySRSAddons(price SRSPrice, addonIDs []string) (int64, []BreakdownLine) {
	total := price.Base
	lines := append([]BreakdownLine(nil), price.Breakdown...)
	seen := make(map[string]struct{}, len(addonIDs))
	for _, id := range addonIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		for _, addon := range srsAddons {
			if addon.ID == id {
				total += addon.Price
				lines = append(lines, BreakdownLine{Item: "Add-on: " + addon.Label, Price: addon.Price})
			}
		}
	}
	return total, lines
}
