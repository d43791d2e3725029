package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuskit/calendar-api/internal/models"
	"github.com/campuskit/calendar-api/internal/repository"
	"github.com/campuskit/calendar-api/pkg/dateutil"
	appErrors "github.com/campuskit/calendar-api/pkg/errors"
)

type mockEventRepo struct {
	items      map[string]*models.CalendarEvent
	listResult []models.CalendarEvent
	listTotal  int
	listErr    error
	deleted    []string
}

func (m *mockEventRepo) Create(ctx context.Context, event *models.CalendarEvent) error {
	if m.items == nil {
		m.items = make(map[string]*models.CalendarEvent)
	}
	if event.ID == "" {
		event.ID = "generated"
	}
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	cp := *event
	m.items[event.ID] = &cp
	return nil
}

func (m *mockEventRepo) Update(ctx context.Context, id string, params repository.UpdateEventParams) error {
	event, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Name != nil {
		event.Name = *params.Name
	}
	if params.Description != nil {
		event.Description = params.Description
	}
	if params.StartDate != nil {
		event.StartDate = *params.StartDate
	}
	if params.EndDate != nil {
		event.EndDate = *params.EndDate
	}
	if params.Type != nil {
		event.Type = *params.Type
	}
	if params.CampusIDs != nil {
		event.CampusIDs = *params.CampusIDs
	}
	if params.ClassIDs != nil {
		event.ClassIDs = *params.ClassIDs
	}
	event.UpdatedAt = time.Now()
	return nil
}

func (m *mockEventRepo) SoftDelete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	if event, ok := m.items[id]; ok {
		event.Status = models.StatusDeleted
	}
	return nil
}

func (m *mockEventRepo) GetByID(ctx context.Context, id string) (*models.CalendarEvent, error) {
	if event, ok := m.items[id]; ok {
		cp := *event
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEventRepo) List(ctx context.Context, filter models.EventFilter) ([]models.CalendarEvent, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listResult, m.listTotal, nil
}

func (m *mockEventRepo) InRange(ctx context.Context, start, end time.Time, campusID string) ([]models.CalendarEvent, error) {
	var result []models.CalendarEvent
	for _, event := range m.items {
		if event.Status != models.StatusActive {
			continue
		}
		if !dateutil.Overlaps(event.StartDate, event.EndDate, start, end) {
			continue
		}
		if !event.AppliesTo(campusID) {
			continue
		}
		result = append(result, *event)
	}
	return result, nil
}

func (m *mockEventRepo) ConflictCandidates(ctx context.Context, cycleID string, eventType models.EventType, start, end time.Time, excludeID string) ([]models.CalendarEvent, error) {
	var result []models.CalendarEvent
	for _, event := range m.items {
		if event.ID == excludeID {
			continue
		}
		if event.Status != models.StatusActive {
			continue
		}
		if event.AcademicCycleID != cycleID || event.Type != eventType {
			continue
		}
		if !dateutil.Overlaps(event.StartDate, event.EndDate, start, end) {
			continue
		}
		result = append(result, *event)
	}
	return result, nil
}

func storedEvent(id string, eventType models.EventType, start, end time.Time, campuses ...string) *models.CalendarEvent {
	return &models.CalendarEvent{
		ID:              id,
		Name:            id,
		StartDate:       start,
		EndDate:         end,
		Type:            eventType,
		AcademicCycleID: "cycle-2024",
		Status:          models.StatusActive,
		CampusIDs:       campuses,
	}
}

func TestEventServiceCreate(t *testing.T) {
	repo := &mockEventRepo{}
	service := NewEventService(repo, nil, validator.New(), zap.NewNop())

	event, err := service.Create(context.Background(), CreateEventRequest{
		Name:            "Fall Registration",
		StartDate:       day(2024, time.August, 1),
		EndDate:         day(2024, time.August, 14),
		Type:            models.EventTypeRegistration,
		AcademicCycleID: "cycle-2024",
		CampusIDs:       []string{"campus-north"},
		ClassIDs:        []string{"class-10a"},
		CreatedBy:       "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, event.Status)
	assert.Equal(t, []string{"class-10a"}, event.ClassIDs)
	assert.Len(t, repo.items, 1)
}

func TestEventServiceCreateRequiresCycle(t *testing.T) {
	service := NewEventService(&mockEventRepo{}, nil, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), CreateEventRequest{
		Name:      "Orphan Event",
		StartDate: day(2024, time.August, 1),
		EndDate:   day(2024, time.August, 14),
		Type:      models.EventTypeRegistration,
		CreatedBy: "admin-1",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestEventServiceCreateRejectsSameTypeOverlap(t *testing.T) {
	repo := &mockEventRepo{items: map[string]*models.CalendarEvent{
		"e1": storedEvent("e1", models.EventTypeExamination,
			day(2024, time.December, 9), day(2024, time.December, 13), "campus-north"),
	}}
	service := NewEventService(repo, nil, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), CreateEventRequest{
		Name:            "Late Finals",
		StartDate:       day(2024, time.December, 13),
		EndDate:         day(2024, time.December, 16),
		Type:            models.EventTypeExamination,
		AcademicCycleID: "cycle-2024",
		CampusIDs:       []string{"campus-north"},
		CreatedBy:       "admin-1",
	})
	require.Error(t, err)
	assert.Equal(t, "overlapping events in the selected date range", appErrors.FromError(err).Message)
}

func TestEventServiceCreateAllowsDifferentTypesSameDates(t *testing.T) {
	repo := &mockEventRepo{items: map[string]*models.CalendarEvent{
		"e1": storedEvent("e1", models.EventTypeExamination,
			day(2024, time.December, 9), day(2024, time.December, 13), "campus-north"),
	}}
	service := NewEventService(repo, nil, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), CreateEventRequest{
		Name:            "Grade Entry",
		StartDate:       day(2024, time.December, 9),
		EndDate:         day(2024, time.December, 13),
		Type:            models.EventTypeGrading,
		AcademicCycleID: "cycle-2024",
		CampusIDs:       []string{"campus-north"},
		CreatedBy:       "admin-1",
	})
	require.NoError(t, err)
	assert.Len(t, repo.items, 2)
}

func TestEventServiceCreateAllowsDifferentCycles(t *testing.T) {
	repo := &mockEventRepo{items: map[string]*models.CalendarEvent{
		"e1": storedEvent("e1", models.EventTypeRegistration,
			day(2024, time.August, 1), day(2024, time.August, 14)),
	}}
	service := NewEventService(repo, nil, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), CreateEventRequest{
		Name:            "Other Cycle Registration",
		StartDate:       day(2024, time.August, 1),
		EndDate:         day(2024, time.August, 14),
		Type:            models.EventTypeRegistration,
		AcademicCycleID: "cycle-2025",
		CreatedBy:       "admin-1",
	})
	require.NoError(t, err)
}

func TestEventServiceCampusUnrestrictedCompetesWithAll(t *testing.T) {
	repo := &mockEventRepo{items: map[string]*models.CalendarEvent{
		"e1": storedEvent("e1", models.EventTypeOrientation,
			day(2024, time.August, 1), day(2024, time.August, 2), "campus-north"),
	}}
	service := NewEventService(repo, nil, validator.New(), zap.NewNop())

	// No campus restriction means institution-wide scope.
	_, err := service.Create(context.Background(), CreateEventRequest{
		Name:            "All Campus Orientation",
		StartDate:       day(2024, time.August, 2),
		EndDate:         day(2024, time.August, 3),
		Type:            models.EventTypeOrientation,
		AcademicCycleID: "cycle-2024",
		CreatedBy:       "admin-1",
	})
	require.Error(t, err)
	assert.Equal(t, "overlapping events in the selected date range", appErrors.FromError(err).Message)
}

func TestEventServiceUpdateReplacesClassSet(t *testing.T) {
	repo := &mockEventRepo{items: map[string]*models.CalendarEvent{
		"e1": {
			ID: "e1", Name: "Finals",
			StartDate: day(2024, time.December, 9), EndDate: day(2024, time.December, 13),
			Type: models.EventTypeExamination, AcademicCycleID: "cycle-2024",
			Status:   models.StatusActive,
			ClassIDs: []string{"class-10a", "class-10b"},
		},
	}}
	service := NewEventService(repo, nil, validator.New(), zap.NewNop())

	classes := []string{"class-11a"}
	updated, err := service.Update(context.Background(), "e1", UpdateEventRequest{ClassIDs: &classes})
	require.NoError(t, err)
	assert.Equal(t, []string{"class-11a"}, updated.ClassIDs)
}

func TestEventServiceUpdateExcludesSelfFromConflicts(t *testing.T) {
	repo := &mockEventRepo{items: map[string]*models.CalendarEvent{
		"e1": storedEvent("e1", models.EventTypeExamination,
			day(2024, time.December, 9), day(2024, time.December, 13), "campus-north"),
	}}
	service := NewEventService(repo, nil, validator.New(), zap.NewNop())

	newEnd := day(2024, time.December, 14)
	updated, err := service.Update(context.Background(), "e1", UpdateEventRequest{EndDate: &newEnd})
	require.NoError(t, err)
	assert.Equal(t, newEnd, updated.EndDate)
}

func TestEventServiceGetDeletedBehavesAsAbsent(t *testing.T) {
	repo := &mockEventRepo{items: map[string]*models.CalendarEvent{
		"e1": storedEvent("e1", models.EventTypeGraduation,
			day(2025, time.June, 20), day(2025, time.June, 20)),
	}}
	service := NewEventService(repo, nil, validator.New(), zap.NewNop())

	require.NoError(t, service.Delete(context.Background(), "e1"))

	_, err := service.Get(context.Background(), "e1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestEventServiceCheckConflicts(t *testing.T) {
	repo := &mockEventRepo{items: map[string]*models.CalendarEvent{
		"e1": storedEvent("e1", models.EventTypeExamination,
			day(2024, time.December, 9), day(2024, time.December, 13), "campus-north"),
		"e2": storedEvent("e2", models.EventTypeGrading,
			day(2024, time.December, 9), day(2024, time.December, 13), "campus-north"),
	}}
	service := NewEventService(repo, nil, validator.New(), zap.NewNop())

	conflicts, err := service.CheckConflicts(context.Background(), CheckConflictsRequest{
		StartDate:       day(2024, time.December, 12),
		EndDate:         day(2024, time.December, 16),
		Type:            models.EventTypeExamination,
		AcademicCycleID: "cycle-2024",
		CampusIDs:       []string{"campus-north"},
	})
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "e1", conflicts[0].ID)

	// Nothing is persisted by a probe.
	assert.Len(t, repo.items, 2)

	// Excluding the stored event clears the conflict.
	conflicts, err = service.CheckConflicts(context.Background(), CheckConflictsRequest{
		StartDate:       day(2024, time.December, 12),
		EndDate:         day(2024, time.December, 16),
		Type:            models.EventTypeExamination,
		AcademicCycleID: "cycle-2024",
		CampusIDs:       []string{"campus-north"},
		ExcludeID:       "e1",
	})
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestEventServiceWritesInvalidateCache(t *testing.T) {
	repo := &mockEventRepo{items: map[string]*models.CalendarEvent{
		"e1": storedEvent("e1", models.EventTypeGraduation,
			day(2025, time.June, 20), day(2025, time.June, 20)),
	}}
	cache := &mockCache{}
	service := NewEventService(repo, cache, validator.New(), zap.NewNop())

	require.NoError(t, service.Delete(context.Background(), "e1"))
	require.Len(t, cache.patterns, 1)
	assert.Equal(t, "calendar:http:*", cache.patterns[0])
}
