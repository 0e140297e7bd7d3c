package services

import (
	"fmt"
	"regexp"
	"strings"
)

const minimumSRSPoints = 2

type srsDriverSpec struct {
	id       string
	label    string
	points   int
	reason   string
	patterns []*regexp.Regexp
}

func newDriverSpec(id, label string, points int, reason string, keywords ...string) srsDriverSpec {
	patterns := make([]*regexp.Regexp, 0, len(keywords))
	for _, keyword := range keywords {
		patterns = append(patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(strings.ToLower(keyword))+`\b`))
	}
	return srsDriverSpec{id: id, label: label, points: points, reason: reason, patterns: patterns}
}

var srsDrivers = []srsDriverSpec{
	newDriverSpec("payments", "Payment gateway integration", 8, "Detected payment-related requirements", "payment", "checkout", "stripe", "paypal", "gateway"),
	newDriverSpec("custom_api", "Custom API development", 6, "Detected API-related requirements", "api", "endpoint", "webhook", "graphql"),
	newDriverSpec("admin_panel", "Admin panel / back office", 5, "Detected administrative features", "admin", "dashboard", "cms", "backoffice"),
	newDriverSpec("realtime", "Real-time functionality", 7, "Detected real-time features", "real-time", "realtime", "websocket", "push", "live"),
	newDriverSpec("mobile_app", "Mobile app components", 9, "Detected mobile requirements", "mobile", "android", "ios", "react native", "flutter"),
	newDriverSpec("auth", "User authentication", 4, "Detected authentication", "auth", "authentication", "login", "signup"),
	newDriverSpec("roles", "Roles and permissions", 5, "Detected role management", "role", "roles", "permission", "rbac"),
	newDriverSpec("uploads", "File uploads and storage", 3, "Detected file handling", "upload", "file", "storage", "s3"),
	newDriverSpec("analytics", "Analytics and reporting", 4, "Detected analytics", "analytics", "metrics", "reports"),
}

// AnalyzeSRS scores free text for complexity drivers using whole-word keyword matches.
// Repeated mentions raise a driver's points by one each, up to half its base value again.
func AnalyzeSRS(text string) SRSAnalysis {
	normalized := strings.ToLower(text)
	analysis := SRSAnalysis{Drivers: []SRSDriver{}}

	for _, spec := range srsDrivers {
		mentions := 0
		for _, pattern := range spec.patterns {
			mentions += len(pattern.FindAllStringIndex(normalized, -1))
		}
		if mentions == 0 {
			continue
		}
		points := spec.points + min(mentions-1, spec.points/2)
		reason := spec.reason
		if mentions > 1 {
			reason = fmt.Sprintf("%s (%d mentions)", spec.reason, mentions)
		}
		analysis.Drivers = append(analysis.Drivers, SRSDriver{
			ID:       spec.id,
			Label:    spec.label,
			Points:   points,
			Mentions: mentions,
			Reason:   reason,
		})
		analysis.TotalPoints += points
	}

	if analysis.TotalPoints == 0 {
		analysis.TotalPoints = minimumSRSPoints
	}
	return analysis
}
