package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodLength(t *testing.T) {
	assert.Equal(t, 30, PeriodLength(date(2026, 1, 10)))
	assert.Equal(t, 28, PeriodLength(date(2026, 2, 1)))
	assert.Equal(t, 29, PeriodLength(date(2028, 2, 1)))
	assert.Equal(t, 30, PeriodLength(date(2026, 4, 30)))
}

func TestCurrentPeriod(t *testing.T) {
	tests := []struct {
		name     string
		renewsAt time.Time
		today    time.Time
		want     Period
		current  bool
	}{
		{
			name:     "anchor in the future",
			renewsAt: date(2026, 4, 20),
			today:    date(2026, 4, 15),
			want:     Period{Start: date(2026, 4, 20), End: date(2026, 5, 20), FullEnd: date(2026, 5, 20), Days: 30},
			current:  false,
		},
		{
			name:     "running period ends today",
			renewsAt: date(2026, 4, 1),
			today:    date(2026, 4, 15),
			want:     Period{Start: date(2026, 4, 1), End: date(2026, 4, 15), FullEnd: date(2026, 5, 1), Days: 30},
			current:  true,
		},
		{
			name:     "anchor is today",
			renewsAt: date(2026, 4, 15),
			today:    date(2026, 4, 15),
			want:     Period{Start: date(2026, 4, 15), End: date(2026, 4, 15), FullEnd: date(2026, 5, 15), Days: 30},
			current:  true,
		},
		{
			name:     "stale anchor rolls forward",
			renewsAt: date(2026, 1, 10),
			today:    date(2026, 4, 15),
			want:     Period{Start: date(2026, 4, 10), End: date(2026, 4, 15), FullEnd: date(2026, 5, 10), Days: 30},
			current:  true,
		},
		{
			name:     "month end anchor clamps into february",
			renewsAt: date(2026, 1, 31),
			today:    date(2026, 3, 5),
			want:     Period{Start: date(2026, 2, 28), End: date(2026, 3, 5), FullEnd: date(2026, 3, 28), Days: 28},
			current:  true,
		},
		{
			name:     "last day of period is inclusive",
			renewsAt: date(2026, 4, 1),
			today:    date(2026, 5, 1),
			want:     Period{Start: date(2026, 4, 1), End: date(2026, 5, 1), FullEnd: date(2026, 5, 1), Days: 30},
			current:  true,
		},
		{
			name:     "time of day is ignored",
			renewsAt: time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC),
			today:    time.Date(2026, 4, 15, 23, 0, 0, 0, time.UTC),
			want:     Period{Start: date(2026, 4, 1), End: date(2026, 4, 15), FullEnd: date(2026, 5, 1), Days: 30},
			current:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CurrentPeriod(tt.renewsAt, tt.today)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.current, IsCurrentPeriod(tt.renewsAt, tt.today))
		})
	}
}

func TestCurrentPeriod_Properties(t *testing.T) {
	today := date(2026, 4, 15)
	for anchor := date(2024, 1, 1); anchor.Before(date(2026, 7, 1)); anchor = anchor.AddDate(0, 0, 1) {
		p := CurrentPeriod(anchor, today)

		assert.False(t, p.End.Before(p.Start), "anchor %s", anchor.Format(time.DateOnly))
		assert.LessOrEqual(t, p.End.Sub(p.Start), 30*24*time.Hour, "anchor %s", anchor.Format(time.DateOnly))
		assert.GreaterOrEqual(t, p.Days, 28)
		assert.LessOrEqual(t, p.Days, 30)

		inside := !today.Before(p.Start) && !today.After(p.End)
		assert.Equal(t, inside, IsCurrentPeriod(anchor, today), "anchor %s", anchor.Format(time.DateOnly))
		if !anchor.After(today) {
			assert.True(t, inside, "past anchor %s must yield a current period", anchor.Format(time.DateOnly))
		}
	}
}

func TestPeriod_QueryRangeAndPreviousMonth(t *testing.T) {
	p := CurrentPeriod(date(2026, 3, 31), date(2026, 4, 15))
	assert.Equal(t, date(2026, 3, 31), p.Start)

	start, end := p.QueryRange()
	assert.Equal(t, date(2026, 3, 31), start)
	assert.Equal(t, time.Date(2026, 4, 15, 23, 59, 59, 0, time.UTC), end)

	prev := p.PreviousMonth()
	assert.Equal(t, date(2026, 2, 28), prev.Start)
	assert.Equal(t, date(2026, 3, 15), prev.End)
}

func TestAddMonths(t *testing.T) {
	assert.Equal(t, date(2026, 2, 28), addMonths(date(2026, 1, 31), 1))
	assert.Equal(t, date(2028, 2, 29), addMonths(date(2028, 1, 31), 1))
	assert.Equal(t, date(2026, 2, 28), addMonths(date(2026, 3, 31), -1))
	assert.Equal(t, date(2027, 1, 15), addMonths(date(2026, 12, 15), 1))
}

func TestMonthRange(t *testing.T) {
	from, to := monthRange(testNow, 0)
	assert.Equal(t, date(2026, 4, 1), from)
	assert.Equal(t, time.Date(2026, 4, 30, 23, 59, 59, 0, time.UTC), to)

	from, to = monthRange(testNow, -1)
	assert.Equal(t, date(2026, 3, 1), from)
	assert.Equal(t, time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC), to)
}
