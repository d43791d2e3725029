package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuskit/calendar-api/internal/models"
	"github.com/campuskit/calendar-api/internal/repository"
	"github.com/campuskit/calendar-api/pkg/dateutil"
	appErrors "github.com/campuskit/calendar-api/pkg/errors"
)

type eventRepository interface {
	Create(ctx context.Context, event *models.CalendarEvent) error
	Update(ctx context.Context, id string, params repository.UpdateEventParams) error
	SoftDelete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.CalendarEvent, error)
	List(ctx context.Context, filter models.EventFilter) ([]models.CalendarEvent, int, error)
	InRange(ctx context.Context, start, end time.Time, campusID string) ([]models.CalendarEvent, error)
	ConflictCandidates(ctx context.Context, cycleID string, eventType models.EventType, start, end time.Time, excludeID string) ([]models.CalendarEvent, error)
}

// EventService manages academic calendar events. Events of the same type
// within the same academic cycle and campus scope must not overlap; events
// of different types may share dates freely.
type EventService struct {
	repo      eventRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs the service. cache may be nil.
func NewEventService(repo eventRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &EventService{repo: repo, cache: cache, validator: validate, logger: logger}
	_ = svc.validator.RegisterValidation("eventtype", func(fl validator.FieldLevel) bool {
		return models.EventType(fl.Field().String()).Valid()
	})
	return svc
}

// CreateEventRequest describes the create payload.
type CreateEventRequest struct {
	Name            string           `json:"name" validate:"required"`
	Description     *string          `json:"description"`
	StartDate       time.Time        `json:"start_date" validate:"required"`
	EndDate         time.Time        `json:"end_date" validate:"required"`
	Type            models.EventType `json:"type" validate:"required,eventtype"`
	AcademicCycleID string           `json:"academic_cycle_id" validate:"required"`
	CampusIDs       []string         `json:"campus_ids"`
	ClassIDs        []string         `json:"class_ids"`
	CreatedBy       string           `json:"-" validate:"required"`
}

// UpdateEventRequest carries a partial update; nil fields keep their stored
// values. Non-nil CampusIDs/ClassIDs replace the association sets wholesale.
type UpdateEventRequest struct {
	Name        *string           `json:"name" validate:"omitempty,min=1"`
	Description *string           `json:"description"`
	StartDate   *time.Time        `json:"start_date"`
	EndDate     *time.Time        `json:"end_date"`
	Type        *models.EventType `json:"type" validate:"omitempty,eventtype"`
	CampusIDs   *[]string         `json:"campus_ids"`
	ClassIDs    *[]string         `json:"class_ids"`
}

// CheckConflictsRequest describes a conflict probe without persisting.
type CheckConflictsRequest struct {
	StartDate       time.Time        `json:"start_date" validate:"required"`
	EndDate         time.Time        `json:"end_date" validate:"required"`
	Type            models.EventType `json:"type" validate:"required,eventtype"`
	AcademicCycleID string           `json:"academic_cycle_id" validate:"required"`
	CampusIDs       []string         `json:"campus_ids"`
	ExcludeID       string           `json:"exclude_id"`
}

// Create registers a new event after checking date order and overlap against
// ACTIVE events of the same type in the same cycle and campus scope.
func (s *EventService) Create(ctx context.Context, req CreateEventRequest) (*models.CalendarEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}

	start := dateutil.Day(req.StartDate)
	end := dateutil.Day(req.EndDate)
	if start.After(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Start date must be before end date")
	}

	event := &models.CalendarEvent{
		Name:            req.Name,
		Description:     req.Description,
		StartDate:       start,
		EndDate:         end,
		Type:            req.Type,
		AcademicCycleID: req.AcademicCycleID,
		Status:          models.StatusActive,
		CreatedBy:       req.CreatedBy,
		CampusIDs:       req.CampusIDs,
		ClassIDs:        req.ClassIDs,
	}

	conflicts, err := s.findConflicts(ctx, event, "")
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "overlapping events in the selected date range")
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.invalidateCache(ctx)
	return event, nil
}

// Update applies a partial update, re-validating the merged record against
// all other conflict-eligible events. Class associations, when supplied, are
// replaced rather than merged.
func (s *EventService) Update(ctx context.Context, id string, req UpdateEventRequest) (*models.CalendarEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}

	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := *existing
	if req.Name != nil {
		merged.Name = *req.Name
	}
	if req.Description != nil {
		merged.Description = req.Description
	}
	if req.StartDate != nil {
		merged.StartDate = dateutil.Day(*req.StartDate)
	}
	if req.EndDate != nil {
		merged.EndDate = dateutil.Day(*req.EndDate)
	}
	if req.Type != nil {
		merged.Type = *req.Type
	}
	if req.CampusIDs != nil {
		merged.CampusIDs = *req.CampusIDs
	}

	if merged.StartDate.After(merged.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Start date must be before end date")
	}
	conflicts, err := s.findConflicts(ctx, &merged, id)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "overlapping events in the selected date range")
	}

	params := repository.UpdateEventParams{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		CampusIDs:   req.CampusIDs,
		ClassIDs:    req.ClassIDs,
	}
	if req.StartDate != nil {
		params.StartDate = &merged.StartDate
	}
	if req.EndDate != nil {
		params.EndDate = &merged.EndDate
	}
	if err := s.repo.Update(ctx, id, params); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	s.invalidateCache(ctx)

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload event")
	}
	return updated, nil
}

// Delete soft-deletes an event.
func (s *EventService) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	s.invalidateCache(ctx)
	return nil
}

// Get returns an event by id. Soft-deleted records behave as absent.
func (s *EventService) Get(ctx context.Context, id string) (*models.CalendarEvent, error) {
	return s.load(ctx, id)
}

// List returns ACTIVE events matching the filter, paginated.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.CalendarEvent, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// EventsInRange returns ACTIVE events intersecting [start, end], ordered by
// start date, unpaginated. Used by the report generator.
func (s *EventService) EventsInRange(ctx context.Context, start, end time.Time, campusID string) ([]models.CalendarEvent, error) {
	start, end = dateutil.Day(start), dateutil.Day(end)
	if start.After(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Start date must be before end date")
	}
	events, err := s.repo.InRange(ctx, start, end, campusID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events in range")
	}
	return events, nil
}

// CheckConflicts returns the ACTIVE events a hypothetical event would clash
// with, without persisting anything.
func (s *EventService) CheckConflicts(ctx context.Context, req CheckConflictsRequest) ([]models.CalendarEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}
	probe := &models.CalendarEvent{
		StartDate:       dateutil.Day(req.StartDate),
		EndDate:         dateutil.Day(req.EndDate),
		Type:            req.Type,
		AcademicCycleID: req.AcademicCycleID,
		CampusIDs:       req.CampusIDs,
	}
	if probe.StartDate.After(probe.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Start date must be before end date")
	}
	return s.findConflicts(ctx, probe, req.ExcludeID)
}

func (s *EventService) load(ctx context.Context, id string) (*models.CalendarEvent, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if event.Status.Deleted() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	return event, nil
}

// findConflicts fetches ACTIVE peers of the same cycle and type overlapping
// the candidate's range and filters them down to intersecting campus scopes.
func (s *EventService) findConflicts(ctx context.Context, candidate *models.CalendarEvent, excludeID string) ([]models.CalendarEvent, error) {
	peers, err := s.repo.ConflictCandidates(ctx, candidate.AcademicCycleID, candidate.Type, candidate.StartDate, candidate.EndDate, excludeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check event conflicts")
	}
	var conflicts []models.CalendarEvent
	for i := range peers {
		peer := &peers[i]
		if !peer.Status.CountsForConflicts() {
			continue
		}
		if candidate.SharesScope(peer) && dateutil.Overlaps(candidate.StartDate, candidate.EndDate, peer.StartDate, peer.EndDate) {
			conflicts = append(conflicts, *peer)
		}
	}
	return conflicts, nil
}

func (s *EventService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, cachedListPattern); err != nil {
		s.logger.Warn("failed to invalidate list cache", zap.Error(err))
	}
}
