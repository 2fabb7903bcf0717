package report

import "sort"

// Insight caps per endpoint.
const (
	MaxDashboardInsights = 4
	MaxReportInsights    = 6
)

// Insight types
const (
	InsightSuccess = "success"
	InsightWarning = "warning"
	InsightInfo    = "info"
)

// Insight is one short observation derived from aggregate facts.
type Insight struct {
	Type     string `json:"type"`
	Icon     string `json:"icon"`
	Text     string `json:"text"`
	Priority int    `json:"priority"`
}

// Rule fires an Insight when When holds for the facts. Lower Priority
// sorts first.
type Rule[F any] struct {
	Name     string
	Priority int
	Type     string
	Icon     string
	When     func(F) bool
	Text     func(F) string
}

// NoActivity is returned when no rule fires.
var NoActivity = Insight{
	Type:     InsightInfo,
	Icon:     "info",
	Text:     "No notable activity in this period yet.",
	Priority: 99,
}

// Evaluate runs every rule against facts, keeps those that fire, orders
// them by priority (ties keep declaration order) and truncates to max.
// POST: result is never empty; NoActivity alone when nothing fired
func Evaluate[F any](rules []Rule[F], facts F, max int) []Insight {
	fired := make([]Insight, 0, len(rules))
	for _, r := range rules {
		if r.When == nil || !r.When(facts) {
			continue
		}
		fired = append(fired, Insight{Type: r.Type, Icon: r.Icon, Text: r.Text(facts), Priority: r.Priority})
	}
	if len(fired) == 0 {
		return []Insight{NoActivity}
	}
	sort.SliceStable(fired, func(i, j int) bool {
		return fired[i].Priority < fired[j].Priority
	})
	if max > 0 && len(fired) > max {
		fired = fired[:max]
	}
	return fired
}
