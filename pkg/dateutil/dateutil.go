// Package dateutil provides calendar-day arithmetic shared by the holiday,
// event and report modules. All helpers operate on whole days in UTC;
// time-of-day and timezone information is discarded on entry.
package dateutil

import "time"

// DateLayout is the wire format for calendar days.
const DateLayout = "2006-01-02"

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// Overlaps reports whether the inclusive day ranges [aStart, aEnd] and
// [bStart, bEnd] intersect. A single shared boundary day counts as overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	aStart, aEnd = Day(aStart), Day(aEnd)
	bStart, bEnd = Day(bStart), Day(bEnd)
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// Contains reports whether day falls within the inclusive range [start, end].
func Contains(start, end, day time.Time) bool {
	d := Day(day)
	return !Day(start).After(d) && !Day(end).Before(d)
}

// Interval is a closed range of calendar days.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Covers reports whether the interval contains the given day.
func (i Interval) Covers(day time.Time) bool {
	return Contains(i.Start, i.End, day)
}

// MonthBounds returns the first and last day of the calendar month containing t.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	d := Day(t)
	start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end
}

// MonthStarts lists the first day of every calendar month touched by the
// inclusive range [start, end], in ascending order.
func MonthStarts(start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil
	}
	var months []time.Time
	cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(end) {
		months = append(months, cursor)
		cursor = cursor.AddDate(0, 1, 0)
	}
	return months
}

// WorkingDays counts the weekdays (Mon-Fri) in the inclusive range
// [start, end] that are not covered by any of the supplied intervals.
// Scope filtering of the interval set is the caller's responsibility; every
// interval passed in blocks the days it covers. The walk is linear in the
// number of days, which is bounded in practice by month and term lengths.
func WorkingDays(start, end time.Time, holidays []Interval) int {
	start, end = Day(start), Day(end)
	count := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		covered := false
		for _, h := range holidays {
			if h.Covers(day) {
				covered = true
				break
			}
		}
		if !covered {
			count++
		}
	}
	return count
}
