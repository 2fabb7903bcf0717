package projections

import (
	"context"
	"fmt"
	"sort"
	"time"

	"shepherd/internal/adapters/storage/attendance"
	"shepherd/internal/adapters/storage/member"
	"shepherd/internal/adapters/storage/visitor"
	"shepherd/internal/domain/checkin"
	domainFinance "shepherd/internal/domain/finance"
	domainGallery "shepherd/internal/domain/gallery"
	domainMember "shepherd/internal/domain/member"
	"shepherd/internal/domain/report"
)

// Report types accepted by QueryReport.
const (
	ReportAttendance = "attendance"
	ReportMembers    = "members"
	ReportVisitors   = "visitors"
	ReportFinance    = "finance"
	ReportGallery    = "gallery"
	ReportEngagement = "engagement"
)

// TopListSize bounds ranked lists in reports.
const TopListSize = 5

// ReportDeps holds the readers reports draw from. A report only touches
// the readers it needs.
type ReportDeps struct {
	Attendance AttendanceStore
	Members    MemberStore
	Visitors   VisitorStore
	Finance    FinanceStore
	Gallery    GalleryStore
	Events     EventStore
	Now        func() time.Time
	Location   *time.Location // calendar for period boundaries; UTC when nil
}

func (d ReportDeps) now() time.Time {
	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}
	if d.Location != nil {
		return now.In(d.Location)
	}
	return now.UTC()
}

// ReportQuery selects a report and its period.
type ReportQuery struct {
	Type     string
	Selector report.Selector
	Weeks    int // attendance trend length
}

// ReportPeriod echoes the resolved windows.
type ReportPeriod struct {
	Range         report.Range `json:"range"`
	Start         time.Time    `json:"start"`
	End           time.Time    `json:"end"`
	PreviousStart time.Time    `json:"previousStart,omitzero"`
	PreviousEnd   time.Time    `json:"previousEnd,omitzero"`
}

func newPeriod(r report.Range, cur, prev report.Window) ReportPeriod {
	return ReportPeriod{Range: r, Start: cur.Start, End: cur.End, PreviousStart: prev.Start, PreviousEnd: prev.End}
}

// QueryReport dispatches to the report named by q.Type.
// PRE: q.Selector came from report.ParseSelector
// POST: Returns a VALIDATION_ERROR for unknown report types
func QueryReport(ctx context.Context, q ReportQuery, deps ReportDeps) (any, error) {
	switch q.Type {
	case ReportAttendance:
		return QueryAttendanceReport(ctx, q, deps)
	case ReportMembers:
		return QueryMembersReport(ctx, q, deps)
	case ReportVisitors:
		return QueryVisitorsReport(ctx, q, deps)
	case ReportFinance:
		return QueryFinanceReport(ctx, q, deps)
	case ReportGallery:
		return QueryGalleryReport(ctx, q, deps)
	case ReportEngagement:
		return QueryEngagementReport(ctx, deps)
	default:
		return nil, checkin.NewError(checkin.CodeValidation, "type must be one of: attendance, members, visitors, finance, gallery, engagement")
	}
}

// --- Attendance ---

// TrendPoint is one week of the attendance series.
type TrendPoint struct {
	WeekStart string `json:"weekStart"`
	attendance.Counts
}

// AttendanceReport summarises check-ins in the period.
type AttendanceReport struct {
	Period ReportPeriod `json:"period"`
	attendance.Counts
	Growth    int                       `json:"growth"`
	ByService []attendance.ServiceCount `json:"byService"`
	Trend     []TrendPoint              `json:"trend"`
}

// QueryAttendanceReport counts attendance in the current window against the previous one.
// POST: Trend has exactly q.Weeks points (default 8), oldest first
func QueryAttendanceReport(ctx context.Context, q ReportQuery, deps ReportDeps) (AttendanceReport, error) {
	now := deps.now()
	cur, prev := q.Selector.Resolve(now)

	counts, err := deps.Attendance.CountBetween(ctx, cur.Start, cur.End)
	if err != nil {
		return AttendanceReport{}, fmt.Errorf("count attendance: %w", err)
	}
	var prevCounts attendance.Counts
	if !prev.IsEmpty() {
		if prevCounts, err = deps.Attendance.CountBetween(ctx, prev.Start, prev.End); err != nil {
			return AttendanceReport{}, fmt.Errorf("count previous attendance: %w", err)
		}
	}
	byService, err := deps.Attendance.CountByServiceBetween(ctx, cur.Start, cur.End)
	if err != nil {
		return AttendanceReport{}, fmt.Errorf("count attendance by service: %w", err)
	}

	weeks := q.Weeks
	if weeks <= 0 {
		weeks = report.DefaultTrendWeeks
	}
	trend := make([]TrendPoint, 0, weeks)
	for _, w := range report.TrendWeeks(now, weeks) {
		c, err := deps.Attendance.CountBetween(ctx, w.Start, w.End)
		if err != nil {
			return AttendanceReport{}, fmt.Errorf("count trend week: %w", err)
		}
		trend = append(trend, TrendPoint{WeekStart: w.Start.Format(checkin.DateLayout), Counts: c})
	}

	return AttendanceReport{
		Period:    newPeriod(q.Selector.Range, cur, prev),
		Counts:    counts,
		Growth:    report.Growth(counts.Total, prevCounts.Total),
		ByService: byService,
		Trend:     trend,
	}, nil
}

// --- Members ---

// MembersReport summarises the membership roll.
type MembersReport struct {
	Period      ReportPeriod        `json:"period"`
	Total       int                 `json:"total"`
	Active      int                 `json:"active"`
	Inactive    int                 `json:"inactive"`
	NewInPeriod int                 `json:"newInPeriod"`
	Growth      int                 `json:"growth"`
	Groups      []member.GroupCount `json:"groups"`
	Insights    []report.Insight    `json:"insights"`
}

// QueryMembersReport counts members and joins, and derives membership insights.
// POST: Insights holds at most report.MaxReportInsights entries and is never empty
func QueryMembersReport(ctx context.Context, q ReportQuery, deps ReportDeps) (MembersReport, error) {
	now := deps.now()
	cur, prev := q.Selector.Resolve(now)

	active, err := deps.Members.Count(ctx, member.ListFilter{Status: domainMember.StatusActive})
	if err != nil {
		return MembersReport{}, fmt.Errorf("count active members: %w", err)
	}
	inactive, err := deps.Members.Count(ctx, member.ListFilter{Status: domainMember.StatusInactive})
	if err != nil {
		return MembersReport{}, fmt.Errorf("count inactive members: %w", err)
	}
	joined, err := deps.Members.CountJoinedBetween(ctx, cur.Start, cur.End)
	if err != nil {
		return MembersReport{}, fmt.Errorf("count joins: %w", err)
	}
	prevJoined := 0
	if !prev.IsEmpty() {
		if prevJoined, err = deps.Members.CountJoinedBetween(ctx, prev.Start, prev.End); err != nil {
			return MembersReport{}, fmt.Errorf("count previous joins: %w", err)
		}
	}
	groups, err := deps.Members.GroupBreakdown(ctx)
	if err != nil {
		return MembersReport{}, fmt.Errorf("group breakdown: %w", err)
	}

	facts := MemberFacts{
		Period:   periodPhrase(q.Selector.Range),
		Total:    active + inactive,
		Active:   active,
		Inactive: inactive,
		Joined:   joined,
		Growth:   report.Growth(joined, prevJoined),
	}
	facts.SmallestGroup, facts.SmallestGroupActive = smallestGroup(groups)

	return MembersReport{
		Period:      newPeriod(q.Selector.Range, cur, prev),
		Total:       facts.Total,
		Active:      active,
		Inactive:    inactive,
		NewInPeriod: joined,
		Growth:      facts.Growth,
		Groups:      groups,
		Insights:    report.Evaluate(MemberInsightRules, facts, report.MaxReportInsights),
	}, nil
}

// smallestGroup returns the named group with the fewest active members.
func smallestGroup(groups []member.GroupCount) (string, int) {
	name, least := "", -1
	for _, g := range groups {
		if g.Group == "" {
			continue
		}
		if least < 0 || g.Active < least {
			name, least = g.Group, g.Active
		}
	}
	return name, least
}

// --- Visitors ---

// VisitorsReport summarises first-time and returning visitors.
type VisitorsReport struct {
	Period      ReportPeriod          `json:"period"`
	NewVisitors int                   `json:"newVisitors"`
	Returning   int                   `json:"returning"`
	TotalVisits int                   `json:"totalVisits"`
	Growth      int                   `json:"growth"`
	TopSources  []visitor.SourceCount `json:"topSources"`
}

// QueryVisitorsReport counts visitors in the period.
func QueryVisitorsReport(ctx context.Context, q ReportQuery, deps ReportDeps) (VisitorsReport, error) {
	now := deps.now()
	cur, prev := q.Selector.Resolve(now)

	first, err := deps.Visitors.CountFirstVisitsBetween(ctx, cur.Start, cur.End)
	if err != nil {
		return VisitorsReport{}, fmt.Errorf("count first visits: %w", err)
	}
	prevFirst := 0
	if !prev.IsEmpty() {
		if prevFirst, err = deps.Visitors.CountFirstVisitsBetween(ctx, prev.Start, prev.End); err != nil {
			return VisitorsReport{}, fmt.Errorf("count previous first visits: %w", err)
		}
	}
	returning, err := deps.Visitors.CountReturningBetween(ctx, cur.Start, cur.End)
	if err != nil {
		return VisitorsReport{}, fmt.Errorf("count returning visitors: %w", err)
	}
	visits, err := deps.Attendance.CountBetween(ctx, cur.Start, cur.End)
	if err != nil {
		return VisitorsReport{}, fmt.Errorf("count visits: %w", err)
	}
	sources, err := deps.Visitors.TopSources(ctx, cur.Start, cur.End, TopListSize)
	if err != nil {
		return VisitorsReport{}, fmt.Errorf("top sources: %w", err)
	}

	return VisitorsReport{
		Period:      newPeriod(q.Selector.Range, cur, prev),
		NewVisitors: first,
		Returning:   returning,
		TotalVisits: visits.Visitors,
		Growth:      report.Growth(first, prevFirst),
		TopSources:  sources,
	}, nil
}

// --- Finance ---

// FinanceReport sums the ledger. Amounts are fixed two-decimal strings.
type FinanceReport struct {
	Period       ReportPeriod      `json:"period"`
	ByKind       map[string]string `json:"byKind"`
	Income       string            `json:"income"`
	Expense      string            `json:"expense"`
	Net          string            `json:"net"`
	IncomeGrowth int               `json:"incomeGrowth"`
}

// QueryFinanceReport totals transactions by kind over the period's calendar dates.
// INVARIANT: sums are exact decimals; only the growth percentage is approximate
func QueryFinanceReport(ctx context.Context, q ReportQuery, deps ReportDeps) (FinanceReport, error) {
	now := deps.now()
	cur, prev := q.Selector.Resolve(now)

	from, to := cur.DateBounds()
	totals, err := deps.Finance.TotalsBetween(ctx, from, to)
	if err != nil {
		return FinanceReport{}, fmt.Errorf("finance totals: %w", err)
	}
	prevTotals := domainFinance.Totals{}
	if !prev.IsEmpty() {
		pf, pt := prev.DateBounds()
		if prevTotals, err = deps.Finance.TotalsBetween(ctx, pf, pt); err != nil {
			return FinanceReport{}, fmt.Errorf("previous finance totals: %w", err)
		}
	}

	byKind := make(map[string]string, len(domainFinance.ValidKinds))
	for _, k := range domainFinance.ValidKinds {
		byKind[k] = totals.Get(k).StringFixed(2)
	}
	return FinanceReport{
		Period:       newPeriod(q.Selector.Range, cur, prev),
		ByKind:       byKind,
		Income:       totals.Income().StringFixed(2),
		Expense:      totals.Expense().StringFixed(2),
		Net:          totals.Net().StringFixed(2),
		IncomeGrowth: report.GrowthFloat(totals.Income().InexactFloat64(), prevTotals.Income().InexactFloat64()),
	}, nil
}

// --- Gallery ---

// MediaItem is the public view of one gallery item.
type MediaItem struct {
	ID        string `json:"id"`
	AlbumID   string `json:"albumId"`
	Path      string `json:"path"`
	ThumbPath string `json:"thumbPath,omitempty"`
	Caption   string `json:"caption,omitempty"`
	Likes     int    `json:"likes"`
}

func toMediaItems(media []domainGallery.Media) []MediaItem {
	items := make([]MediaItem, 0, len(media))
	for _, m := range media {
		items = append(items, ToMediaItem(m))
	}
	return items
}

// GalleryReport counts uploads in the period and ranks media by likes.
type GalleryReport struct {
	Period     ReportPeriod `json:"period"`
	Albums     int          `json:"albums"`
	MediaAdded int          `json:"mediaAdded"`
	TotalLikes int          `json:"totalLikes"`
	TopLiked   []MediaItem  `json:"topLiked"`
}

// QueryGalleryReport summarises gallery activity.
func QueryGalleryReport(ctx context.Context, q ReportQuery, deps ReportDeps) (GalleryReport, error) {
	cur, prev := q.Selector.Resolve(deps.now())
	stats, err := deps.Gallery.Stats(ctx, cur.Start, cur.End)
	if err != nil {
		return GalleryReport{}, fmt.Errorf("gallery stats: %w", err)
	}
	top, err := deps.Gallery.TopLiked(ctx, TopListSize)
	if err != nil {
		return GalleryReport{}, fmt.Errorf("top liked media: %w", err)
	}
	return GalleryReport{
		Period:     newPeriod(q.Selector.Range, cur, prev),
		Albums:     stats.Albums,
		MediaAdded: stats.Media,
		TotalLikes: stats.Likes,
		TopLiked:   toMediaItems(top),
	}, nil
}

// --- Engagement ---

// MemberEngagement is one scored member.
type MemberEngagement struct {
	MemberID string `json:"memberId"`
	Name     string `json:"name"`
	Group    string `json:"group,omitempty"`
	report.Engagement
}

// EngagementReport ranks every active member by engagement.
type EngagementReport struct {
	WindowStart time.Time          `json:"windowStart"`
	WindowEnd   time.Time          `json:"windowEnd"`
	Members     []MemberEngagement `json:"members"`
	LabelCounts map[string]int     `json:"labelCounts"`
}

// QueryEngagementReport scores active members over the trailing engagement window.
// POST: Members sorted by score desc, then name; LabelCounts has every label
func QueryEngagementReport(ctx context.Context, deps ReportDeps) (EngagementReport, error) {
	now := deps.now()
	members, err := deps.Members.List(ctx, member.ListFilter{Status: domainMember.StatusActive, Sort: "name"})
	if err != nil {
		return EngagementReport{}, fmt.Errorf("list members: %w", err)
	}
	scores, err := scoreMembers(ctx, deps, members, now)
	if err != nil {
		return EngagementReport{}, err
	}

	rows := make([]MemberEngagement, 0, len(members))
	counts := make(map[string]int, len(report.Labels))
	for _, l := range report.Labels {
		counts[l] = 0
	}
	for _, m := range members {
		e := scores[m.ID]
		rows = append(rows, MemberEngagement{MemberID: m.ID, Name: m.Name, Group: m.GroupName, Engagement: e})
		counts[e.Label]++
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].Name < rows[j].Name
	})

	w := report.EngagementWindow(now)
	return EngagementReport{WindowStart: w.Start, WindowEnd: w.End, Members: rows, LabelCounts: counts}, nil
}

// scoreMembers computes engagement for members over the trailing window.
// The denominator is the number of distinct sessions held in the window.
func scoreMembers(ctx context.Context, deps ReportDeps, members []domainMember.Member, now time.Time) (map[string]report.Engagement, error) {
	w := report.EngagementWindow(now)
	held, err := deps.Attendance.CountSessionsBetween(ctx, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	attended, err := deps.Attendance.MemberSessionsBetween(ctx, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("member sessions: %w", err)
	}
	from, to := w.DateBounds()
	tithe, err := deps.Finance.PaymentMonthsBetween(ctx, domainFinance.KindTithe, from, to)
	if err != nil {
		return nil, fmt.Errorf("tithe months: %w", err)
	}
	welfare, err := deps.Finance.PaymentMonthsBetween(ctx, domainFinance.KindWelfare, from, to)
	if err != nil {
		return nil, fmt.Errorf("welfare months: %w", err)
	}

	scores := make(map[string]report.Engagement, len(members))
	for _, m := range members {
		scores[m.ID] = report.ScoreEngagement(report.EngagementInput{
			AttendedSessions: attended[m.ID],
			HeldSessions:     held,
			TitheMonths:      tithe[m.ID],
			WelfareMonths:    welfare[m.ID],
			NewMember:        m.IsNewAt(now),
		})
	}
	return scores, nil
}
