package models

import (
	"time"

	"github.com/campuskit/calendar-api/pkg/dateutil"
)

// HolidayType labels the reason a holiday exists. The label is informational
// only: two holidays of different types still conflict when their scopes and
// date ranges intersect, because a day cannot be declared a holiday twice for
// the same population.
type HolidayType string

const (
	HolidayTypeNational       HolidayType = "NATIONAL"
	HolidayTypeReligious      HolidayType = "RELIGIOUS"
	HolidayTypeInstitutional  HolidayType = "INSTITUTIONAL"
	HolidayTypeAdministrative HolidayType = "ADMINISTRATIVE"
	HolidayTypeWeather        HolidayType = "WEATHER"
	HolidayTypeOther          HolidayType = "OTHER"
)

// HolidayTypes lists all types in their canonical report ordering.
var HolidayTypes = []HolidayType{
	HolidayTypeNational,
	HolidayTypeReligious,
	HolidayTypeInstitutional,
	HolidayTypeAdministrative,
	HolidayTypeWeather,
	HolidayTypeOther,
}

// Valid reports whether t is a known holiday type.
func (t HolidayType) Valid() bool {
	for _, known := range HolidayTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Holiday represents a non-working day range scoped to campuses.
type Holiday struct {
	ID          string       `db:"id" json:"id"`
	Name        string       `db:"name" json:"name"`
	Description *string      `db:"description" json:"description,omitempty"`
	StartDate   time.Time    `db:"start_date" json:"start_date"`
	EndDate     time.Time    `db:"end_date" json:"end_date"`
	Type        HolidayType  `db:"type" json:"type"`
	AffectsAll  bool         `db:"affects_all" json:"affects_all"`
	Status      RecordStatus `db:"status" json:"status"`
	CreatedBy   string       `db:"created_by" json:"created_by"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time   `db:"deleted_at" json:"deleted_at,omitempty"`

	// CampusIDs is the explicit campus association set. Empty and ignored
	// when AffectsAll is true.
	CampusIDs []string `db:"-" json:"campus_ids"`
}

// SharesScope reports whether two holidays apply to an intersecting campus
// population. Holiday type is deliberately ignored here.
func (h *Holiday) SharesScope(other *Holiday) bool {
	if h.AffectsAll || other.AffectsAll {
		return true
	}
	return intersects(h.CampusIDs, other.CampusIDs)
}

// AppliesTo reports whether the holiday covers the given campus. An empty
// campus id matches any scope.
func (h *Holiday) AppliesTo(campusID string) bool {
	if campusID == "" || h.AffectsAll {
		return true
	}
	for _, id := range h.CampusIDs {
		if id == campusID {
			return true
		}
	}
	return false
}

// Interval returns the holiday's date range as a calendar-day interval.
func (h *Holiday) Interval() dateutil.Interval {
	return dateutil.Interval{Start: h.StartDate, End: h.EndDate}
}

// HolidayFilter narrows down holiday listings. Date bounds select holidays
// whose ranges intersect the filter window.
type HolidayFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Type      HolidayType
	CampusID  string
	Page      int
	PageSize  int
}

func intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
