package projections

import (
	"context"
	"errors"
	"testing"
	"time"

	"shepherd/internal/adapters/storage/attendance"
	"shepherd/internal/domain/checkin"
	"shepherd/internal/domain/report"
)

var month = report.Selector{Range: report.RangeMonth}

func TestQueryAttendanceReport(t *testing.T) {
	f := newFixture(t)
	seedCongregation(t, f)

	got, err := QueryAttendanceReport(context.Background(), ReportQuery{Selector: month, Weeks: 3}, f.deps)
	if err != nil {
		t.Fatal(err)
	}
	if got.Total != 6 || got.Members != 4 || got.Visitors != 2 {
		t.Errorf("counts = %+v, want 6 total (4 members, 2 visitors)", got.Counts)
	}
	if got.Growth != 100 {
		t.Errorf("growth = %d, want 100 (6 against 3)", got.Growth)
	}
	if len(got.ByService) != 2 {
		t.Fatalf("byService = %+v", got.ByService)
	}
	byID := map[string]int{}
	for _, s := range got.ByService {
		byID[s.ServiceID] = s.Total
	}
	if byID["sunday-am"] != 5 || byID["midweek"] != 1 {
		t.Errorf("byService totals = %v", byID)
	}

	// Weeks starting Apr 29, May 6 and May 13.
	if len(got.Trend) != 3 {
		t.Fatalf("trend = %+v", got.Trend)
	}
	wantTrend := []struct {
		week  string
		total int
	}{{"2024-04-29", 2}, {"2024-05-06", 4}, {"2024-05-13", 0}}
	for i, w := range wantTrend {
		if got.Trend[i].WeekStart != w.week || got.Trend[i].Total != w.total {
			t.Errorf("trend[%d] = %+v, want %s/%d", i, got.Trend[i], w.week, w.total)
		}
	}
	if !got.Period.Start.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) || !got.Period.End.Equal(now) {
		t.Errorf("period = %+v", got.Period)
	}
}

func TestQueryAttendanceReport_AllHasNoPreviousWindow(t *testing.T) {
	f := newFixture(t)
	seedCongregation(t, f)

	got, err := QueryAttendanceReport(context.Background(), ReportQuery{Selector: report.Selector{Range: report.RangeAll}}, f.deps)
	if err != nil {
		t.Fatal(err)
	}
	if got.Total != 9 || got.Growth != 100 {
		t.Errorf("all-time = %d total, growth %d; want 9 and 100", got.Total, got.Growth)
	}
	if len(got.Trend) != report.DefaultTrendWeeks {
		t.Errorf("trend length = %d, want default %d", len(got.Trend), report.DefaultTrendWeeks)
	}
	if !got.Period.PreviousStart.IsZero() || !got.Period.PreviousEnd.IsZero() {
		t.Errorf("previous window = %+v, want empty", got.Period)
	}
}

func TestQueryMembersReport(t *testing.T) {
	f := newFixture(t)
	seedCongregation(t, f)

	got, err := QueryMembersReport(context.Background(), ReportQuery{Selector: month}, f.deps)
	if err != nil {
		t.Fatal(err)
	}
	if got.Total != 4 || got.Active != 3 || got.Inactive != 1 || got.NewInPeriod != 1 || got.Growth != 0 {
		t.Errorf("report = %+v", got)
	}
	var icons []string
	for _, in := range got.Insights {
		icons = append(icons, in.Icon)
	}
	want := []string{"user-plus", "user-x", "users"}
	if len(icons) != len(want) {
		t.Fatalf("insights = %+v", got.Insights)
	}
	for i := range want {
		if icons[i] != want[i] {
			t.Errorf("insight %d icon = %s, want %s", i, icons[i], want[i])
		}
	}
	if got.Insights[0].Text != "1 new member joined this month." {
		t.Errorf("first insight = %q", got.Insights[0].Text)
	}
	if got.Insights[2].Text != "Ushers has only 1 active member." {
		t.Errorf("group insight = %q", got.Insights[2].Text)
	}
}

func TestMemberInsightRules(t *testing.T) {
	tests := []struct {
		name  string
		facts MemberFacts
		want  []string
	}{
		{"quiet roll", MemberFacts{Period: "this week", Total: 10, Active: 8, Inactive: 2, SmallestGroupActive: -1}, []string{"inactive_members"}},
		{"healthy growth", MemberFacts{Period: "this month", Total: 20, Active: 19, Inactive: 1, Joined: 3, Growth: 50, SmallestGroupActive: -1},
			[]string{"new_members", "join_growth", "inactive_members", "high_activity"}},
		{"decline", MemberFacts{Period: "this year", Total: 5, Active: 5, Growth: -40, SmallestGroup: "Media", SmallestGroupActive: 12},
			[]string{"join_decline", "high_activity"}},
		{"nothing", MemberFacts{SmallestGroupActive: -1}, []string{"no_activity"}},
	}
	texts := map[string]func(MemberFacts) string{}
	for _, r := range MemberInsightRules {
		texts[r.Name] = r.Text
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := report.Evaluate(MemberInsightRules, tt.facts, report.MaxReportInsights)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d insights %+v, want %v", len(got), got, tt.want)
			}
			for i, name := range tt.want {
				wantText := report.NoActivity.Text
				if fn, ok := texts[name]; ok {
					wantText = fn(tt.facts)
				}
				if got[i].Text != wantText {
					t.Errorf("insight %d = %q, want %s (%q)", i, got[i].Text, name, wantText)
				}
			}
		})
	}
}

func TestQueryVisitorsReport(t *testing.T) {
	f := newFixture(t)
	seedCongregation(t, f)

	got, err := QueryVisitorsReport(context.Background(), ReportQuery{Selector: month}, f.deps)
	if err != nil {
		t.Fatal(err)
	}
	if got.NewVisitors != 1 || got.Returning != 1 || got.TotalVisits != 2 || got.Growth != 0 {
		t.Errorf("report = %+v", got)
	}
	if len(got.TopSources) != 1 || got.TopSources[0].Source != "Friend" {
		t.Errorf("sources = %+v", got.TopSources)
	}
}

func TestQueryFinanceReport(t *testing.T) {
	f := newFixture(t)
	seedCongregation(t, f)

	got, err := QueryFinanceReport(context.Background(), ReportQuery{Selector: month}, f.deps)
	if err != nil {
		t.Fatal(err)
	}
	if got.Income != "370.00" || got.Expense != "80.25" || got.Net != "289.75" {
		t.Errorf("income/expense/net = %s/%s/%s", got.Income, got.Expense, got.Net)
	}
	if got.ByKind["tithe"] != "100.00" || got.ByKind["donation"] != "0.00" {
		t.Errorf("byKind = %v", got.ByKind)
	}
	if got.IncomeGrowth != 270 {
		t.Errorf("incomeGrowth = %d, want 270 (370.00 against 100.00)", got.IncomeGrowth)
	}
}

func TestQueryGalleryReport(t *testing.T) {
	f := newFixture(t)
	seedGallery(t, f)

	got, err := QueryGalleryReport(context.Background(), ReportQuery{Selector: month}, f.deps)
	if err != nil {
		t.Fatal(err)
	}
	if got.Albums != 1 || got.MediaAdded != 2 || got.TotalLikes != 3 {
		t.Errorf("report = %+v", got)
	}
	if len(got.TopLiked) != 2 || got.TopLiked[0].ID != "md2" || got.TopLiked[0].Likes != 2 {
		t.Errorf("topLiked = %+v", got.TopLiked)
	}
}

func TestQueryEngagementReport(t *testing.T) {
	f := newFixture(t)
	seedCongregation(t, f)

	got, err := QueryEngagementReport(context.Background(), f.deps)
	if err != nil {
		t.Fatal(err)
	}
	// Four sessions held since Feb 15. Inactive Esi is left out.
	want := []struct {
		id    string
		score int
		label string
	}{
		{"m1", 80, report.LabelHigh},     // 4/4 sessions, 3 tithe months, 1 welfare month
		{"m2", 10, report.LabelModerate}, // joined five days ago
		{"m4", 10, report.LabelVeryLow},
	}
	if len(got.Members) != len(want) {
		t.Fatalf("members = %+v", got.Members)
	}
	for i, w := range want {
		m := got.Members[i]
		if m.MemberID != w.id || m.Score != w.score || m.Label != w.label {
			t.Errorf("row %d = %s %d %s, want %s %d %s", i, m.MemberID, m.Score, m.Label, w.id, w.score, w.label)
		}
	}
	if got.LabelCounts[report.LabelHigh] != 1 || got.LabelCounts[report.LabelExtreme] != 0 || len(got.LabelCounts) != len(report.Labels) {
		t.Errorf("labelCounts = %v", got.LabelCounts)
	}
}

func TestQueryDashboardInsights(t *testing.T) {
	f := newFixture(t)
	seedCongregation(t, f)

	got, err := QueryDashboardInsights(context.Background(), month, f.deps)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"Attendance is up 100% this month.",
		"1 first-time visitor this month. Remember to follow up.",
		"1 new member joined this month.",
		"1 event is scheduled in the next 7 days.",
	}
	if len(got) != report.MaxDashboardInsights {
		t.Fatalf("insights = %+v", got)
	}
	for i, w := range want {
		if got[i].Text != w {
			t.Errorf("insight %d = %q, want %q", i, got[i].Text, w)
		}
	}
}

func TestQueryDashboardInsights_AllTimeGrowsFromZero(t *testing.T) {
	f := newFixture(t)
	seedCongregation(t, f)

	got, err := QueryDashboardInsights(context.Background(), report.Selector{Range: report.RangeAll}, f.deps)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 || got[0].Text != "Attendance is up 100% so far." {
		t.Errorf("insights = %+v, want attendance growth first", got)
	}
	for _, in := range got {
		if in.Icon == "wallet" {
			t.Errorf("giving should not read as down against an empty window: %+v", in)
		}
	}
}

func TestQueryDashboardInsights_EmptyChurch(t *testing.T) {
	f := newFixture(t)
	got, err := QueryDashboardInsights(context.Background(), report.Selector{Range: report.RangeWeek}, f.deps)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != report.NoActivity {
		t.Errorf("insights = %+v, want the no-activity fallback", got)
	}
}

func TestQueryReport_UnknownType(t *testing.T) {
	_, err := QueryReport(context.Background(), ReportQuery{Type: "weather", Selector: month}, ReportDeps{})
	if !checkin.IsCode(err, checkin.CodeValidation) {
		t.Errorf("err = %v, want VALIDATION_ERROR", err)
	}
}

type brokenAttendance struct{ AttendanceStore }

var errDiskGone = errors.New("disk I/O error")

func (brokenAttendance) CountBetween(context.Context, time.Time, time.Time) (attendance.Counts, error) {
	return attendance.Counts{}, errDiskGone
}

func TestQueryReport_StoreFailureIsUncoded(t *testing.T) {
	f := newFixture(t)
	deps := f.deps
	deps.Attendance = brokenAttendance{deps.Attendance}

	_, err := QueryReport(context.Background(), ReportQuery{Type: ReportAttendance, Selector: month}, deps)
	if !errors.Is(err, errDiskGone) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
	if code := checkin.CodeOf(err); code != "" {
		t.Errorf("code = %q, want none", code)
	}
}
