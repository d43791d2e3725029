package models

import (
	"time"

	"github.com/campuskit/calendar-api/pkg/dateutil"
)

// EventType classifies academic calendar events. Unlike holidays, events of
// different types may coexist on the same dates within a scope.
type EventType string

const (
	EventTypeRegistration EventType = "REGISTRATION"
	EventTypeAddDrop      EventType = "ADD_DROP"
	EventTypeWithdrawal   EventType = "WITHDRAWAL"
	EventTypeExamination  EventType = "EXAMINATION"
	EventTypeGrading      EventType = "GRADING"
	EventTypeOrientation  EventType = "ORIENTATION"
	EventTypeGraduation   EventType = "GRADUATION"
	EventTypeOther        EventType = "OTHER"
)

// EventTypes lists all types in their canonical report ordering.
var EventTypes = []EventType{
	EventTypeRegistration,
	EventTypeAddDrop,
	EventTypeWithdrawal,
	EventTypeExamination,
	EventTypeGrading,
	EventTypeOrientation,
	EventTypeGraduation,
	EventTypeOther,
}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// CalendarEvent represents an academic calendar entry owned by an academic
// cycle, optionally restricted to campuses and associated with classes.
type CalendarEvent struct {
	ID              string       `db:"id" json:"id"`
	Name            string       `db:"name" json:"name"`
	Description     *string      `db:"description" json:"description,omitempty"`
	StartDate       time.Time    `db:"start_date" json:"start_date"`
	EndDate         time.Time    `db:"end_date" json:"end_date"`
	Type            EventType    `db:"type" json:"type"`
	AcademicCycleID string       `db:"academic_cycle_id" json:"academic_cycle_id"`
	Status          RecordStatus `db:"status" json:"status"`
	CreatedBy       string       `db:"created_by" json:"created_by"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
	DeletedAt       *time.Time   `db:"deleted_at" json:"deleted_at,omitempty"`

	// CampusIDs restricts the event to specific campuses; empty means the
	// event applies institution-wide.
	CampusIDs []string `db:"-" json:"campus_ids"`
	// ClassIDs optionally associates classes. Replaced wholesale on update.
	ClassIDs []string `db:"-" json:"class_ids"`
}

// SharesScope reports whether two events compete for the same date range.
// Events conflict only within the same academic cycle and event type; a
// campus-unrestricted event competes with every campus in the cycle.
func (e *CalendarEvent) SharesScope(other *CalendarEvent) bool {
	if e.AcademicCycleID != other.AcademicCycleID || e.Type != other.Type {
		return false
	}
	if len(e.CampusIDs) == 0 || len(other.CampusIDs) == 0 {
		return true
	}
	return intersects(e.CampusIDs, other.CampusIDs)
}

// AppliesTo reports whether the event covers the given campus. An empty
// campus id matches any scope.
func (e *CalendarEvent) AppliesTo(campusID string) bool {
	if campusID == "" || len(e.CampusIDs) == 0 {
		return true
	}
	for _, id := range e.CampusIDs {
		if id == campusID {
			return true
		}
	}
	return false
}

// Interval returns the event's date range as a calendar-day interval.
func (e *CalendarEvent) Interval() dateutil.Interval {
	return dateutil.Interval{Start: e.StartDate, End: e.EndDate}
}

// EventFilter narrows down event listings.
type EventFilter struct {
	StartDate       *time.Time
	EndDate         *time.Time
	Type            EventType
	AcademicCycleID string
	CampusID        string
	Page            int
	PageSize        int
}
