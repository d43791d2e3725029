package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/calendar-api/internal/models"
)

func eventRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "description", "start_date", "end_date", "type", "academic_cycle_id", "status", "created_by", "created_at", "updated_at", "deleted_at"})
}

func linkRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"event_id", "link_id"})
}

func TestEventRepositoryCreateWithLinks(t *testing.T) {
	db, mock, cleanup := newHolidayRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO calendar_events").
		WithArgs(sqlmock.AnyArg(), "Finals", nil, sqlmock.AnyArg(), sqlmock.AnyArg(), "EXAMINATION", "cycle-2024", "ACTIVE", "admin-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO event_campuses (event_id, campus_id) VALUES ($1, $2)")).
		WithArgs(sqlmock.AnyArg(), "campus-north").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO event_classes (event_id, class_id) VALUES ($1, $2)")).
		WithArgs(sqlmock.AnyArg(), "class-10a").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	event := &models.CalendarEvent{
		Name:            "Finals",
		StartDate:       time.Date(2024, time.December, 9, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, time.December, 13, 0, 0, 0, 0, time.UTC),
		Type:            models.EventTypeExamination,
		AcademicCycleID: "cycle-2024",
		Status:          models.StatusActive,
		CreatedBy:       "admin-1",
		CampusIDs:       []string{"campus-north"},
		ClassIDs:        []string{"class-10a"},
	}
	require.NoError(t, repo.Create(context.Background(), event))
	assert.NotEmpty(t, event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryUpdateReplacesClassSet(t *testing.T) {
	db, mock, cleanup := newHolidayRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE calendar_events SET updated_at = $1 WHERE id = $2")).
		WithArgs(sqlmock.AnyArg(), "e1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM event_classes WHERE event_id = $1")).
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO event_classes (event_id, class_id) VALUES ($1, $2)")).
		WithArgs("e1", "class-11a").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	classes := []string{"class-11a"}
	require.NoError(t, repo.Update(context.Background(), "e1", UpdateEventParams{ClassIDs: &classes}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryGetByIDAttachesLinks(t *testing.T) {
	db, mock, cleanup := newHolidayRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description, start_date, end_date, type, academic_cycle_id, status, created_by, created_at, updated_at, deleted_at FROM calendar_events WHERE id = $1")).
		WithArgs("e1").
		WillReturnRows(eventRows().AddRow("e1", "Finals", nil, now, now, "EXAMINATION", "cycle-2024", "ACTIVE", "admin-1", now, now, nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT event_id, campus_id AS link_id FROM event_campuses WHERE event_id = ANY($1) ORDER BY campus_id")).
		WillReturnRows(linkRows().AddRow("e1", "campus-north"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT event_id, class_id AS link_id FROM event_classes WHERE event_id = ANY($1) ORDER BY class_id")).
		WillReturnRows(linkRows().AddRow("e1", "class-10a").AddRow("e1", "class-10b"))

	event, err := repo.GetByID(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, []string{"campus-north"}, event.CampusIDs)
	assert.Equal(t, []string{"class-10a", "class-10b"}, event.ClassIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryConflictCandidates(t *testing.T) {
	db, mock, cleanup := newHolidayRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	start := time.Date(2024, time.December, 13, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.December, 16, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description, start_date, end_date, type, academic_cycle_id, status, created_by, created_at, updated_at, deleted_at FROM calendar_events WHERE status = 'ACTIVE' AND academic_cycle_id = $1 AND type = $2 AND end_date >= $3 AND start_date <= $4")).
		WithArgs("cycle-2024", "EXAMINATION", start, end).
		WillReturnRows(eventRows().AddRow("e1", "Finals", nil, now, now, "EXAMINATION", "cycle-2024", "ACTIVE", "admin-1", now, now, nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT event_id, campus_id AS link_id FROM event_campuses WHERE event_id = ANY($1) ORDER BY campus_id")).
		WillReturnRows(linkRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT event_id, class_id AS link_id FROM event_classes WHERE event_id = ANY($1) ORDER BY class_id")).
		WillReturnRows(linkRows())

	events, err := repo.ConflictCandidates(context.Background(), "cycle-2024", models.EventTypeExamination, start, end, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
