package service

import "time"

// maxPeriodDays caps every budget period so periods stay comparable.
const maxPeriodDays = 30

// Period is one rolling budget window. End is today while the period is
// still running; FullEnd is where it will close.
type Period struct {
	Start   time.Time
	End     time.Time
	FullEnd time.Time
	Days    int
}

// QueryRange widens the period to whole days: [Start 00:00, End 23:59:59].
func (p Period) QueryRange() (time.Time, time.Time) {
	return startOfDay(p.Start), endOfDay(p.End)
}

// PreviousMonth is the same window shifted back one calendar month.
func (p Period) PreviousMonth() Period {
	return Period{
		Start:   addMonths(p.Start, -1),
		End:     addMonths(p.End, -1),
		FullEnd: addMonths(p.FullEnd, -1),
		Days:    p.Days,
	}
}

// PeriodLength is the number of days in anchor's month, capped at 30.
func PeriodLength(anchor time.Time) int {
	return min(daysIn(anchor.Year(), anchor.Month()), maxPeriodDays)
}

// CurrentPeriod finds the period of the limit anchored at renewsAt that
// contains today, rolling a stale anchor forward month by month.
func CurrentPeriod(renewsAt, today time.Time) Period {
	anchor := startOfDay(renewsAt)
	day := startOfDay(today)

	if anchor.After(day) {
		days := PeriodLength(anchor)
		end := anchor.AddDate(0, 0, days)
		return Period{Start: anchor, End: end, FullEnd: end, Days: days}
	}

	start := anchor
	days := PeriodLength(start)
	for start.AddDate(0, 0, days).Before(day) {
		start = addMonths(start, 1)
		days = PeriodLength(start)
	}

	fullEnd := start.AddDate(0, 0, days)
	end := fullEnd
	if day.Before(fullEnd) {
		end = day
	}
	return Period{Start: start, End: end, FullEnd: fullEnd, Days: days}
}

// IsCurrentPeriod reports whether today falls inside the current period
// of renewsAt, bounds included.
func IsCurrentPeriod(renewsAt, today time.Time) bool {
	p := CurrentPeriod(renewsAt, today)
	day := startOfDay(today)
	return !day.Before(p.Start) && !day.After(p.End)
}

// addMonths moves t by n calendar months, clamping the day to the target
// month's length (Jan 31 + 1 month = Feb 28).
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, n, 0)
	day := min(t.Day(), daysIn(first.Year(), first.Month()))
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// monthRange is the calendar month containing t, offset by n months.
func monthRange(t time.Time, n int) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1)
	return first, endOfDay(last)
}
