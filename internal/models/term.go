package models

import "time"

// Term models an academic term used as a report scope boundary. Terms are
// owned by the enrolment system; this service only ever reads them.
type Term struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	AcademicCycleID string    `db:"academic_cycle_id" json:"academic_cycle_id"`
	StartDate       time.Time `db:"start_date" json:"start_date"`
	EndDate         time.Time `db:"end_date" json:"end_date"`
}

// AcademicCycle is the academic year / cycle owning terms and events.
// Read-only to this service.
type AcademicCycle struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
}
