package projections

import (
	"context"
	"fmt"
	"time"

	"shepherd/internal/adapters/storage/member"
	domainMember "shepherd/internal/domain/member"
	"shepherd/internal/domain/report"
)

// SmallGroupThreshold flags groups with fewer active members than this.
const SmallGroupThreshold = 10

// periodPhrase renders a range for insight text, e.g. "this week".
func periodPhrase(r report.Range) string {
	switch r {
	case report.RangeToday:
		return "today"
	case report.RangeWeek:
		return "this week"
	case report.RangeMonth:
		return "this month"
	case report.RangeQuarter:
		return "this quarter"
	case report.RangeYear:
		return "this year"
	case report.RangeAll:
		return "so far"
	default:
		return "in the selected period"
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// MemberFacts are the aggregates member insight rules read.
type MemberFacts struct {
	Period              string
	Total               int
	Active              int
	Inactive            int
	Joined              int
	Growth              int
	SmallestGroup       string
	SmallestGroupActive int // -1 when no member belongs to a named group
}

// MemberInsightRules are evaluated in order; lower priority sorts first.
var MemberInsightRules = []report.Rule[MemberFacts]{
	{
		Name: "new_members", Priority: 1, Type: report.InsightSuccess, Icon: "user-plus",
		When: func(f MemberFacts) bool { return f.Joined > 0 },
		Text: func(f MemberFacts) string {
			return fmt.Sprintf("%s joined %s.", plural(f.Joined, "new member", "new members"), f.Period)
		},
	},
	{
		Name: "join_growth", Priority: 2, Type: report.InsightSuccess, Icon: "trending-up",
		When: func(f MemberFacts) bool { return f.Joined > 0 && f.Growth >= 10 },
		Text: func(f MemberFacts) string {
			return fmt.Sprintf("New memberships are up %d%% on the previous period.", f.Growth)
		},
	},
	{
		Name: "join_decline", Priority: 3, Type: report.InsightWarning, Icon: "trending-down",
		When: func(f MemberFacts) bool { return f.Growth <= -10 },
		Text: func(f MemberFacts) string {
			return fmt.Sprintf("New memberships are down %d%% on the previous period.", -f.Growth)
		},
	},
	{
		Name: "inactive_members", Priority: 4, Type: report.InsightWarning, Icon: "user-x",
		When: func(f MemberFacts) bool { return f.Inactive > 0 },
		Text: func(f MemberFacts) string {
			return fmt.Sprintf("%s marked inactive. A follow-up call may help.", plural(f.Inactive, "member is", "members are"))
		},
	},
	{
		Name: "small_group", Priority: 5, Type: report.InsightInfo, Icon: "users",
		When: func(f MemberFacts) bool {
			return f.SmallestGroup != "" && f.SmallestGroupActive >= 0 && f.SmallestGroupActive < SmallGroupThreshold
		},
		Text: func(f MemberFacts) string {
			return fmt.Sprintf("%s has only %s.", f.SmallestGroup, plural(f.SmallestGroupActive, "active member", "active members"))
		},
	},
	{
		Name: "high_activity", Priority: 6, Type: report.InsightSuccess, Icon: "award",
		When: func(f MemberFacts) bool { return f.Total > 0 && f.Active*100 >= f.Total*90 },
		Text: func(f MemberFacts) string {
			return fmt.Sprintf("%d of %d members are active.", f.Active, f.Total)
		},
	},
}

// DashboardFacts are the cross-domain aggregates the dashboard reads.
type DashboardFacts struct {
	Period           string
	Attendance       int
	AttendanceGrowth int
	FirstTimers      int
	NewMembers       int
	Inactive         int
	UpcomingEvents   int
	Income           float64
	IncomeGrowth     int
}

// DashboardInsightRules are evaluated in order; lower priority sorts first.
var DashboardInsightRules = []report.Rule[DashboardFacts]{
	{
		Name: "attendance_up", Priority: 1, Type: report.InsightSuccess, Icon: "trending-up",
		When: func(f DashboardFacts) bool { return f.Attendance > 0 && f.AttendanceGrowth >= 10 },
		Text: func(f DashboardFacts) string {
			return fmt.Sprintf("Attendance is up %d%% %s.", f.AttendanceGrowth, f.Period)
		},
	},
	{
		Name: "attendance_down", Priority: 2, Type: report.InsightWarning, Icon: "trending-down",
		When: func(f DashboardFacts) bool { return f.AttendanceGrowth <= -10 },
		Text: func(f DashboardFacts) string {
			return fmt.Sprintf("Attendance is down %d%% %s.", -f.AttendanceGrowth, f.Period)
		},
	},
	{
		Name: "first_timers", Priority: 3, Type: report.InsightInfo, Icon: "hand-wave",
		When: func(f DashboardFacts) bool { return f.FirstTimers > 0 },
		Text: func(f DashboardFacts) string {
			return fmt.Sprintf("%s %s. Remember to follow up.", plural(f.FirstTimers, "first-time visitor", "first-time visitors"), f.Period)
		},
	},
	{
		Name: "new_members", Priority: 4, Type: report.InsightSuccess, Icon: "user-plus",
		When: func(f DashboardFacts) bool { return f.NewMembers > 0 },
		Text: func(f DashboardFacts) string {
			return fmt.Sprintf("%s joined %s.", plural(f.NewMembers, "new member", "new members"), f.Period)
		},
	},
	{
		Name: "giving_down", Priority: 5, Type: report.InsightWarning, Icon: "wallet",
		When: func(f DashboardFacts) bool { return f.IncomeGrowth < 0 },
		Text: func(f DashboardFacts) string {
			return fmt.Sprintf("Giving is down %d%% on the previous period.", -f.IncomeGrowth)
		},
	},
	{
		Name: "upcoming_events", Priority: 6, Type: report.InsightInfo, Icon: "calendar",
		When: func(f DashboardFacts) bool { return f.UpcomingEvents > 0 },
		Text: func(f DashboardFacts) string {
			return fmt.Sprintf("%s in the next 7 days.", plural(f.UpcomingEvents, "event is scheduled", "events are scheduled"))
		},
	},
	{
		Name: "inactive_members", Priority: 7, Type: report.InsightWarning, Icon: "user-x",
		When: func(f DashboardFacts) bool { return f.Inactive > 0 },
		Text: func(f DashboardFacts) string {
			return fmt.Sprintf("%s inactive.", plural(f.Inactive, "member is", "members are"))
		},
	},
}

// UpcomingWindow is how far ahead the dashboard looks for events.
const UpcomingWindow = 7 * 24 * time.Hour

// QueryDashboardInsights gathers cross-domain facts and evaluates the dashboard rules.
// POST: Returns between 1 and report.MaxDashboardInsights insights
func QueryDashboardInsights(ctx context.Context, sel report.Selector, deps ReportDeps) ([]report.Insight, error) {
	facts, err := dashboardFacts(ctx, sel, deps)
	if err != nil {
		return nil, err
	}
	return report.Evaluate(DashboardInsightRules, facts, report.MaxDashboardInsights), nil
}

func dashboardFacts(ctx context.Context, sel report.Selector, deps ReportDeps) (DashboardFacts, error) {
	now := deps.now()
	cur, prev := sel.Resolve(now)
	f := DashboardFacts{Period: periodPhrase(sel.Range)}

	counts, err := deps.Attendance.CountBetween(ctx, cur.Start, cur.End)
	if err != nil {
		return f, fmt.Errorf("count attendance: %w", err)
	}
	f.Attendance = counts.Total

	from, to := cur.DateBounds()
	totals, err := deps.Finance.TotalsBetween(ctx, from, to)
	if err != nil {
		return f, fmt.Errorf("finance totals: %w", err)
	}
	f.Income = totals.Income().InexactFloat64()

	// An empty previous window ("all") compares against zero.
	var prevAttendance int
	var prevIncome float64
	if !prev.IsEmpty() {
		prevCounts, err := deps.Attendance.CountBetween(ctx, prev.Start, prev.End)
		if err != nil {
			return f, fmt.Errorf("count previous attendance: %w", err)
		}
		prevAttendance = prevCounts.Total

		pf, pt := prev.DateBounds()
		prevTotals, err := deps.Finance.TotalsBetween(ctx, pf, pt)
		if err != nil {
			return f, fmt.Errorf("previous finance totals: %w", err)
		}
		prevIncome = prevTotals.Income().InexactFloat64()
	}
	f.AttendanceGrowth = report.Growth(counts.Total, prevAttendance)
	f.IncomeGrowth = report.GrowthFloat(f.Income, prevIncome)

	if f.FirstTimers, err = deps.Visitors.CountFirstVisitsBetween(ctx, cur.Start, cur.End); err != nil {
		return f, fmt.Errorf("count first visits: %w", err)
	}
	if f.NewMembers, err = deps.Members.CountJoinedBetween(ctx, cur.Start, cur.End); err != nil {
		return f, fmt.Errorf("count joins: %w", err)
	}
	if f.Inactive, err = deps.Members.Count(ctx, member.ListFilter{Status: domainMember.StatusInactive}); err != nil {
		return f, fmt.Errorf("count inactive: %w", err)
	}
	if f.UpcomingEvents, err = deps.Events.CountStartingBetween(ctx, now, now.Add(UpcomingWindow)); err != nil {
		return f, fmt.Errorf("count upcoming events: %w", err)
	}
	return f, nil
}
