package models

import "time"

// Calendar reports are derived aggregates. They are computed on demand and
// never persisted or cached.

// ReportPeriod bounds a report window.
type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// ReportEvent is a calendar event enriched with creator attribution.
type ReportEvent struct {
	CalendarEvent
	CreatedByName string `json:"created_by_name"`
}

// ReportHoliday is a holiday enriched with creator attribution.
type ReportHoliday struct {
	Holiday
	CreatedByName string `json:"created_by_name"`
}

// EventTypeBreakdown groups events of one type within a period.
type EventTypeBreakdown struct {
	Type    EventType     `json:"type"`
	Count   int           `json:"count"`
	Records []ReportEvent `json:"records"`
}

// HolidayTypeBreakdown groups holidays of one type within a period.
type HolidayTypeBreakdown struct {
	Type    HolidayType     `json:"type"`
	Count   int             `json:"count"`
	Records []ReportHoliday `json:"records"`
}

// CalendarSummary aggregates a period's events, holidays and working days.
type CalendarSummary struct {
	TotalEvents    int                    `json:"total_events"`
	TotalHolidays  int                    `json:"total_holidays"`
	WorkingDays    int                    `json:"working_days"`
	EventsByType   []EventTypeBreakdown   `json:"events_by_type"`
	HolidaysByType []HolidayTypeBreakdown `json:"holidays_by_type"`
}

// MonthlyCalendarReport covers a single calendar month.
type MonthlyCalendarReport struct {
	Period  ReportPeriod    `json:"period"`
	Summary CalendarSummary `json:"summary"`
}

// TermCalendarReport covers a full term with per-month breakdowns.
type TermCalendarReport struct {
	Term    Term                    `json:"term"`
	Cycle   AcademicCycle           `json:"academic_cycle"`
	Period  ReportPeriod            `json:"period"`
	Summary CalendarSummary         `json:"summary"`
	Months  []MonthlyCalendarReport `json:"months"`
}
