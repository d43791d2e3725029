package models

// RecordStatus tracks the lifecycle of holidays and calendar events.
type RecordStatus string

const (
	StatusActive               RecordStatus = "ACTIVE"
	StatusInactive             RecordStatus = "INACTIVE"
	StatusArchivedCurrentYear  RecordStatus = "ARCHIVED_CURRENT_YEAR"
	StatusArchivedPreviousYear RecordStatus = "ARCHIVED_PREVIOUS_YEAR"
	StatusArchivedHistorical   RecordStatus = "ARCHIVED_HISTORICAL"
	StatusDeleted              RecordStatus = "DELETED"
)

// CountsForConflicts reports whether records in this status participate in
// overlap conflict detection. Only ACTIVE records block a date range; archived
// and deleted records keep their rows for historical reports but free their
// ranges for new entries.
func (s RecordStatus) CountsForConflicts() bool {
	return s == StatusActive
}

// Deleted reports whether the record has been soft-deleted.
func (s RecordStatus) Deleted() bool {
	return s == StatusDeleted
}

// SystemActorID attributes writes performed without an authenticated actor.
// Callers inject it explicitly; services never default to it on their own.
const SystemActorID = "system"
