package report_test

import (
	"testing"
	"time"

	"shepherd/internal/domain/checkin"
	"shepherd/internal/domain/report"
)

// Wednesday 2024-05-15 10:30 UTC
var now = time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC)

func TestGrowth(t *testing.T) {
	tests := []struct {
		name       string
		curr, prev int
		want       int
	}{
		{"from zero with activity", 5, 0, 100},
		{"from zero without activity", 0, 0, 0},
		{"half again", 15, 10, 50},
		{"halved", 5, 10, -50},
		{"unchanged", 7, 7, 0},
		{"rounds half up", 3, 8, -62}, // -62.5
		{"to zero", 0, 4, -100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := report.Growth(tt.curr, tt.prev); got != tt.want {
				t.Errorf("Growth(%d, %d) = %d, want %d", tt.curr, tt.prev, got, tt.want)
			}
		})
	}
}

func TestParseSelector(t *testing.T) {
	tests := []struct {
		name     string
		r, f, to string
		want     report.Range
		wantErr  bool
	}{
		{"default month", "", "", "", report.RangeMonth, false},
		{"case insensitive", "WEEK", "", "", report.RangeWeek, false},
		{"unknown", "fortnight", "", "", "", true},
		{"custom ok", "custom", "2024-01-01", "2024-01-31", report.RangeCustom, false},
		{"custom missing to", "custom", "2024-01-01", "", "", true},
		{"custom reversed", "custom", "2024-02-01", "2024-01-01", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := report.ParseSelector(tt.r, tt.f, tt.to, time.UTC)
			if tt.wantErr {
				if !checkin.IsCode(err, checkin.CodeValidation) {
					t.Fatalf("err = %v, want VALIDATION_ERROR", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSelector: %v", err)
			}
			if sel.Range != tt.want {
				t.Errorf("Range = %q, want %q", sel.Range, tt.want)
			}
		})
	}
}

func TestResolve_CalendarRanges(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		r                   report.Range
		curStart, prevStart time.Time
	}{
		{report.RangeToday, day(2024, 5, 15), day(2024, 5, 14)},
		{report.RangeWeek, day(2024, 5, 13), day(2024, 5, 6)},
		{report.RangeMonth, day(2024, 5, 1), day(2024, 4, 1)},
		{report.RangeQuarter, day(2024, 4, 1), day(2024, 1, 1)},
		{report.RangeYear, day(2024, 1, 1), day(2023, 1, 1)},
	}
	for _, tt := range tests {
		t.Run(string(tt.r), func(t *testing.T) {
			cur, prev := report.Selector{Range: tt.r}.Resolve(now)
			if !cur.Start.Equal(tt.curStart) || !cur.End.Equal(now) {
				t.Errorf("current = %v..%v", cur.Start, cur.End)
			}
			elapsed := now.Sub(tt.curStart)
			if !prev.Start.Equal(tt.prevStart) || !prev.End.Equal(tt.prevStart.Add(elapsed)) {
				t.Errorf("previous = %v..%v, want %v..%v", prev.Start, prev.End, tt.prevStart, tt.prevStart.Add(elapsed))
			}
		})
	}
}

func TestResolve_WindowsHaveEqualLength(t *testing.T) {
	tuesday := time.Date(2024, 6, 4, 9, 0, 0, 0, time.UTC)
	endOfMarch := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	for _, at := range []time.Time{now, tuesday, endOfMarch} {
		for _, r := range []report.Range{report.RangeToday, report.RangeWeek, report.RangeMonth, report.RangeQuarter, report.RangeYear} {
			cur, prev := report.Selector{Range: r}.Resolve(at)
			if cur.End.Sub(cur.Start) != prev.End.Sub(prev.Start) {
				t.Errorf("%s at %v: current %v, previous %v", r, at, cur.End.Sub(cur.Start), prev.End.Sub(prev.Start))
			}
			if prev.End.After(cur.Start) {
				t.Errorf("%s at %v: previous ends %v after current starts %v", r, at, prev.End, cur.Start)
			}
		}
	}
}

func TestResolve_ShortPrecedingMonthEndsAtCurrentStart(t *testing.T) {
	at := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	_, prev := report.Selector{Range: report.RangeMonth}.Resolve(at)
	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !prev.End.Equal(march) || !prev.Start.Equal(time.Date(2024, 1, 30, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("previous = %v..%v", prev.Start, prev.End)
	}
}

func TestResolve_AllHasEmptyPrevious(t *testing.T) {
	cur, prev := report.Selector{Range: report.RangeAll}.Resolve(now)
	if !prev.IsEmpty() {
		t.Error("previous window should be empty")
	}
	if !cur.Contains(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("all should contain old activity")
	}
}

func TestResolve_Custom(t *testing.T) {
	sel, err := report.ParseSelector("custom", "2024-03-11", "2024-03-17", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	cur, prev := sel.Resolve(now)
	from, to := cur.DateBounds()
	if from != "2024-03-11" || to != "2024-03-17" {
		t.Errorf("current dates = %s..%s", from, to)
	}
	pFrom, pTo := prev.DateBounds()
	if pFrom != "2024-03-04" || pTo != "2024-03-10" {
		t.Errorf("previous dates = %s..%s", pFrom, pTo)
	}
}

func TestTrendWeeks(t *testing.T) {
	weeks := report.TrendWeeks(now, 3)
	if len(weeks) != 3 {
		t.Fatalf("len = %d", len(weeks))
	}
	if want := time.Date(2024, 4, 29, 0, 0, 0, 0, time.UTC); !weeks[0].Start.Equal(want) {
		t.Errorf("first start = %v", weeks[0].Start)
	}
	if !weeks[2].End.Equal(now) {
		t.Errorf("last week should end at now, got %v", weeks[2].End)
	}
	if !weeks[0].End.Equal(weeks[1].Start) {
		t.Error("weeks should be contiguous")
	}
}

func TestParseWeeks(t *testing.T) {
	for in, want := range map[string]int{"": 8, "abc": 8, "-2": 8, "4": 4, "500": 52} {
		if got := report.ParseWeeks(in); got != want {
			t.Errorf("ParseWeeks(%q) = %d, want %d", in, got, want)
		}
	}
}

type facts struct{ a, b, c bool }

func TestEvaluate_OrdersByPriority(t *testing.T) {
	rules := []report.Rule[facts]{
		{Name: "R3", Priority: 3, Type: report.InsightInfo, When: func(f facts) bool { return f.c }, Text: func(facts) string { return "R3" }},
		{Name: "R1", Priority: 1, Type: report.InsightSuccess, When: func(f facts) bool { return f.a }, Text: func(facts) string { return "R1" }},
		{Name: "R2", Priority: 2, Type: report.InsightWarning, When: func(f facts) bool { return f.b }, Text: func(facts) string { return "R2" }},
	}
	got := report.Evaluate(rules, facts{a: true, c: true}, report.MaxReportInsights)
	if len(got) != 2 || got[0].Text != "R1" || got[1].Text != "R3" {
		t.Fatalf("got %+v, want [R1 R3]", got)
	}

	got = report.Evaluate(rules, facts{a: true, b: true, c: true}, 2)
	if len(got) != 2 || got[1].Text != "R2" {
		t.Errorf("truncation kept %+v", got)
	}
}

func TestEvaluate_Fallback(t *testing.T) {
	rules := []report.Rule[facts]{
		{Name: "R1", Priority: 1, When: func(f facts) bool { return f.a }, Text: func(facts) string { return "R1" }},
	}
	got := report.Evaluate(rules, facts{}, report.MaxDashboardInsights)
	if len(got) != 1 || got[0] != report.NoActivity {
		t.Errorf("got %+v, want fallback", got)
	}
}

func TestScoreEngagement(t *testing.T) {
	tests := []struct {
		name      string
		in        report.EngagementInput
		wantScore int
		wantLabel string
	}{
		{"perfect", report.EngagementInput{AttendedSessions: 12, HeldSessions: 12, TitheMonths: 3, WelfareMonths: 3}, 100, report.LabelExtreme},
		{"months capped", report.EngagementInput{AttendedSessions: 12, HeldSessions: 12, TitheMonths: 9, WelfareMonths: 4}, 100, report.LabelExtreme},
		{"attendance only", report.EngagementInput{AttendedSessions: 6, HeldSessions: 12}, 20, report.LabelVeryLow},
		{"no sessions held", report.EngagementInput{TitheMonths: 3, WelfareMonths: 3}, 60, report.LabelModerate},
		{"high", report.EngagementInput{AttendedSessions: 10, HeldSessions: 12, TitheMonths: 3, WelfareMonths: 2}, 83, report.LabelHigh},
		{"low", report.EngagementInput{AttendedSessions: 3, HeldSessions: 12, TitheMonths: 1}, 20, report.LabelVeryLow},
		{"new member low score", report.EngagementInput{AttendedSessions: 1, HeldSessions: 4, NewMember: true}, 10, report.LabelModerate},
		{"new member high score", report.EngagementInput{AttendedSessions: 4, HeldSessions: 4, TitheMonths: 3, WelfareMonths: 3, NewMember: true}, 100, report.LabelExtreme},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := report.ScoreEngagement(tt.in)
			if got.Score != tt.wantScore || got.Label != tt.wantLabel {
				t.Errorf("got %d/%s, want %d/%s", got.Score, got.Label, tt.wantScore, tt.wantLabel)
			}
		})
	}
}

func TestLabelFor(t *testing.T) {
	for score, want := range map[int]string{100: "Extreme", 90: "Extreme", 89: "High", 75: "High", 50: "Moderate", 49: "Low", 25: "Low", 24: "Very Low", 0: "Very Low"} {
		if got := report.LabelFor(score); got != want {
			t.Errorf("LabelFor(%d) = %q, want %q", score, got, want)
		}
	}
}
