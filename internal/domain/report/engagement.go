package report

import (
	"math"
	"time"
)

// Engagement weights and window.
const (
	WeightAttendance = 0.4
	WeightTithe      = 0.3
	WeightWelfare    = 0.3

	// EngagementMonths is the trailing window and the month-coverage cap.
	EngagementMonths = 3
)

// Engagement labels.
const (
	LabelExtreme  = "Extreme"
	LabelHigh     = "High"
	LabelModerate = "Moderate"
	LabelLow      = "Low"
	LabelVeryLow  = "Very Low"
)

// Labels lists every label from highest to lowest.
var Labels = []string{LabelExtreme, LabelHigh, LabelModerate, LabelLow, LabelVeryLow}

// EngagementInput carries one member's activity over the trailing window.
type EngagementInput struct {
	AttendedSessions int  // distinct sessions the member attended
	HeldSessions     int  // distinct sessions held in the window
	TitheMonths      int  // distinct months with a tithe payment
	WelfareMonths    int  // distinct months with a welfare payment
	NewMember        bool // tenure under seven days
}

// Engagement is a member's composite score.
type Engagement struct {
	Score      int     `json:"score"`
	Label      string  `json:"label"`
	Attendance float64 `json:"attendance"`
	Tithe      float64 `json:"tithe"`
	Welfare    float64 `json:"welfare"`
}

// EngagementWindow returns the trailing window ending at now.
func EngagementWindow(now time.Time) Window {
	return Window{Start: now.AddDate(0, -EngagementMonths, 0), End: now}
}

// ScoreEngagement blends attendance rate and giving regularity into 0..100.
// INVARIANT: every sub-score is capped at 100; month counts are capped at EngagementMonths
func ScoreEngagement(in EngagementInput) Engagement {
	attendance := 0.0
	if in.HeldSessions > 0 {
		attendance = capPct(float64(in.AttendedSessions) / float64(in.HeldSessions) * 100)
	}
	tithe := monthCoverage(in.TitheMonths)
	welfare := monthCoverage(in.WelfareMonths)

	raw := WeightAttendance*attendance + WeightTithe*tithe + WeightWelfare*welfare
	score := int(math.Floor(raw + 0.5))

	label := LabelFor(score)
	if in.NewMember && score < 50 {
		label = LabelModerate
	}
	return Engagement{Score: score, Label: label, Attendance: attendance, Tithe: tithe, Welfare: welfare}
}

// LabelFor buckets a score.
func LabelFor(score int) string {
	switch {
	case score >= 90:
		return LabelExtreme
	case score >= 75:
		return LabelHigh
	case score >= 50:
		return LabelModerate
	case score >= 25:
		return LabelLow
	default:
		return LabelVeryLow
	}
}

func monthCoverage(months int) float64 {
	if months > EngagementMonths {
		months = EngagementMonths
	}
	if months < 0 {
		months = 0
	}
	return capPct(float64(months) / EngagementMonths * 100)
}

func capPct(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}
