package report

import (
	"math"
	"strconv"
	"strings"
	"time"

	"shepherd/internal/domain/checkin"
)

// Range selects a reporting period.
type Range string

// Supported ranges.
const (
	RangeToday   Range = "today"
	RangeWeek    Range = "week"
	RangeMonth   Range = "month"
	RangeQuarter Range = "quarter"
	RangeYear    Range = "year"
	RangeAll     Range = "all"
	RangeCustom  Range = "custom"
)

// DefaultRange applies when the caller does not pick one.
const DefaultRange = RangeMonth

// Trend window bounds for the weekly attendance series.
const (
	DefaultTrendWeeks = 8
	MaxTrendWeeks     = 52
)

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// IsEmpty reports whether the window contains no instants.
func (w Window) IsEmpty() bool {
	return !w.End.After(w.Start)
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// DateBounds returns the inclusive first and last calendar dates covered,
// in the window's own location, for date-keyed columns.
// PRE: window is not empty
func (w Window) DateBounds() (from, to string) {
	return w.Start.Format(checkin.DateLayout), w.End.Add(-time.Nanosecond).Format(checkin.DateLayout)
}

// Selector is the explicit filter for a reporting period. Build it with
// ParseSelector rather than by hand.
type Selector struct {
	Range Range
	From  time.Time // custom only, inclusive date
	To    time.Time // custom only, inclusive date
}

// ParseSelector validates range/from/to query values.
// POST: Returns a VALIDATION_ERROR for unknown ranges or bad custom dates
func ParseSelector(rangeParam, from, to string, loc *time.Location) (Selector, error) {
	r := Range(strings.ToLower(strings.TrimSpace(rangeParam)))
	if r == "" {
		r = DefaultRange
	}
	switch r {
	case RangeToday, RangeWeek, RangeMonth, RangeQuarter, RangeYear, RangeAll:
		return Selector{Range: r}, nil
	case RangeCustom:
		f, err := time.ParseInLocation(checkin.DateLayout, from, loc)
		if err != nil {
			return Selector{}, checkin.NewError(checkin.CodeValidation, "custom range needs 'from' as YYYY-MM-DD")
		}
		t, err := time.ParseInLocation(checkin.DateLayout, to, loc)
		if err != nil {
			return Selector{}, checkin.NewError(checkin.CodeValidation, "custom range needs 'to' as YYYY-MM-DD")
		}
		if t.Before(f) {
			return Selector{}, checkin.NewError(checkin.CodeValidation, "'to' cannot be before 'from'")
		}
		return Selector{Range: RangeCustom, From: f, To: t}, nil
	default:
		return Selector{}, checkin.NewError(checkin.CodeValidation, "range must be one of: today, week, month, quarter, year, all, custom")
	}
}

// Resolve returns the current and previous windows for the selector.
// Calendar ranges compare the period-to-date against the same elapsed span
// from the start of the preceding period (Monday 00:00 to Tuesday 09:00 of
// last week on a Tuesday at 09:00). When the preceding period is too short
// for that span, as February is for March 31, the span ends at the current
// start instead. "all" has an empty
// previous window. Custom compares against the equal-length span
// immediately before From.
// PRE: selector came from ParseSelector
// POST: current and previous are disjoint and of equal length, except for "all"
func (s Selector) Resolve(now time.Time) (current, previous Window) {
	switch s.Range {
	case RangeAll:
		return Window{Start: time.Time{}, End: now}, Window{}
	case RangeCustom:
		end := s.To.AddDate(0, 0, 1)
		span := end.Sub(s.From)
		return Window{Start: s.From, End: end}, Window{Start: s.From.Add(-span), End: s.From}
	}
	start := PeriodStart(s.Range, now)
	elapsed := now.Sub(start)
	prevStart := shift(s.Range, start, -1)
	if prevStart.Add(elapsed).After(start) {
		prevStart = start.Add(-elapsed)
	}
	return Window{Start: start, End: now}, Window{Start: prevStart, End: prevStart.Add(elapsed)}
}

// PeriodStart returns the start of the calendar period of r containing now.
// Weeks start on Monday.
func PeriodStart(r Range, now time.Time) time.Time {
	y, m, d := now.Date()
	loc := now.Location()
	switch r {
	case RangeToday:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case RangeWeek:
		offset := (int(now.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case RangeQuarter:
		qm := time.Month(((int(m)-1)/3)*3 + 1)
		return time.Date(y, qm, 1, 0, 0, 0, 0, loc)
	case RangeYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	}
}

func shift(r Range, t time.Time, n int) time.Time {
	switch r {
	case RangeToday:
		return t.AddDate(0, 0, n)
	case RangeWeek:
		return t.AddDate(0, 0, 7*n)
	case RangeQuarter:
		return t.AddDate(0, 3*n, 0)
	case RangeYear:
		return t.AddDate(n, 0, 0)
	default:
		return t.AddDate(0, n, 0)
	}
}

// Growth is the percentage change from prev to curr, rounded half up.
// Growth from zero is +100 when anything happened and 0 otherwise.
func Growth(curr, prev int) int {
	return GrowthFloat(float64(curr), float64(prev))
}

// GrowthFloat is Growth for fractional totals such as money.
func GrowthFloat(curr, prev float64) int {
	if prev > 0 {
		return int(math.Floor((curr-prev)/prev*100 + 0.5))
	}
	if curr > 0 {
		return 100
	}
	return 0
}

// ParseWeeks reads the trend length, clamped to [1, MaxTrendWeeks].
func ParseWeeks(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return DefaultTrendWeeks
	}
	if n > MaxTrendWeeks {
		return MaxTrendWeeks
	}
	return n
}

// TrendWeeks returns n consecutive Monday-start weeks, oldest first, the
// last one being the week containing now (cut off at now).
func TrendWeeks(now time.Time, n int) []Window {
	current := PeriodStart(RangeWeek, now)
	weeks := make([]Window, 0, n)
	for i := n - 1; i >= 0; i-- {
		start := current.AddDate(0, 0, -7*i)
		end := start.AddDate(0, 0, 7)
		if end.After(now) {
			end = now
		}
		weeks = append(weeks, Window{Start: start, End: end})
	}
	return weeks
}
