package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"disjoint before", date(2024, 1, 1), date(2024, 1, 5), date(2024, 1, 6), date(2024, 1, 10), false},
		{"shared boundary day", date(2024, 12, 24), date(2024, 12, 26), date(2024, 12, 26), date(2024, 12, 28), true},
		{"contained", date(2024, 1, 1), date(2024, 1, 31), date(2024, 1, 10), date(2024, 1, 12), true},
		{"identical single day", date(2024, 3, 4), date(2024, 3, 4), date(2024, 3, 4), date(2024, 3, 4), true},
		{"reversed operands disjoint", date(2024, 2, 10), date(2024, 2, 20), date(2024, 2, 1), date(2024, 2, 9), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd))
			assert.Equal(t, tc.want, Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd))
		})
	}
}

func TestOverlapsIgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)
	b := time.Date(2024, 5, 1, 0, 1, 0, 0, time.UTC)
	assert.True(t, Overlaps(a, a, b, b))
}

func TestMonthBounds(t *testing.T) {
	start, end := MonthBounds(date(2024, 2, 15))
	assert.Equal(t, date(2024, 2, 1), start)
	assert.Equal(t, date(2024, 2, 29), end)

	start, end = MonthBounds(date(2023, 12, 31))
	assert.Equal(t, date(2023, 12, 1), start)
	assert.Equal(t, date(2023, 12, 31), end)
}

func TestMonthStarts(t *testing.T) {
	months := MonthStarts(date(2024, 8, 15), date(2025, 1, 10))
	require.Len(t, months, 6)
	assert.Equal(t, date(2024, 8, 1), months[0])
	assert.Equal(t, date(2025, 1, 1), months[5])

	assert.Nil(t, MonthStarts(date(2024, 2, 1), date(2024, 1, 1)))
	require.Len(t, MonthStarts(date(2024, 3, 10), date(2024, 3, 20)), 1)
}

func TestWorkingDaysPlainWeek(t *testing.T) {
	// 2024-12-02 is a Monday.
	got := WorkingDays(date(2024, 12, 2), date(2024, 12, 8), nil)
	assert.Equal(t, 5, got)
}

func TestWorkingDaysHolidayOnWeekday(t *testing.T) {
	holidays := []Interval{{Start: date(2024, 12, 4), End: date(2024, 12, 4)}}
	got := WorkingDays(date(2024, 12, 2), date(2024, 12, 8), holidays)
	assert.Equal(t, 4, got)
}

func TestWorkingDaysHolidayOnWeekendDoesNotDoubleCount(t *testing.T) {
	holidays := []Interval{{Start: date(2024, 12, 7), End: date(2024, 12, 8)}}
	got := WorkingDays(date(2024, 12, 2), date(2024, 12, 8), holidays)
	assert.Equal(t, 5, got)
}

func TestWorkingDaysDecember2024(t *testing.T) {
	holidays := []Interval{
		{Start: date(2024, 12, 24), End: date(2024, 12, 26)},
		{Start: date(2024, 12, 27), End: date(2024, 12, 28)},
	}
	// December 2024 has 22 weekdays; 24-27 are Tue-Fri.
	got := WorkingDays(date(2024, 12, 1), date(2024, 12, 31), holidays)
	assert.Equal(t, 18, got)
}

func TestWorkingDaysDeterministic(t *testing.T) {
	holidays := []Interval{{Start: date(2024, 6, 3), End: date(2024, 6, 5)}}
	first := WorkingDays(date(2024, 6, 1), date(2024, 6, 30), holidays)
	second := WorkingDays(date(2024, 6, 1), date(2024, 6, 30), holidays)
	assert.Equal(t, first, second)
}

func TestContains(t *testing.T) {
	assert.True(t, Contains(date(2024, 1, 1), date(2024, 1, 31), date(2024, 1, 31)))
	assert.True(t, Contains(date(2024, 1, 5), date(2024, 1, 5), date(2024, 1, 5)))
	assert.False(t, Contains(date(2024, 1, 1), date(2024, 1, 31), date(2024, 2, 1)))
}
