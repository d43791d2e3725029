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

type holidayRepository interface {
	Create(ctx context.Context, holiday *models.Holiday) error
	Update(ctx context.Context, id string, params repository.UpdateHolidayParams) error
	SoftDelete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Holiday, error)
	List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, int, error)
	InRange(ctx context.Context, start, end time.Time, campusID string) ([]models.Holiday, error)
	ConflictCandidates(ctx context.Context, start, end time.Time, excludeID string) ([]models.Holiday, error)
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// cachedListPattern matches every cached list response; any write to
// holidays or events invalidates the whole namespace.
const cachedListPattern = "calendar:http:*"

// HolidayService manages holidays and enforces the no-overlap invariant
// among ACTIVE holidays sharing a campus scope.
type HolidayService struct {
	repo      holidayRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHolidayService constructs the service. cache may be nil.
func NewHolidayService(repo holidayRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *HolidayService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &HolidayService{repo: repo, cache: cache, validator: validate, logger: logger}
	_ = svc.validator.RegisterValidation("holidaytype", func(fl validator.FieldLevel) bool {
		return models.HolidayType(fl.Field().String()).Valid()
	})
	return svc
}

// CreateHolidayRequest describes the create payload. CreatedBy is the acting
// user, resolved by the boundary layer (models.SystemActorID when absent).
type CreateHolidayRequest struct {
	Name        string             `json:"name" validate:"required"`
	Description *string            `json:"description"`
	StartDate   time.Time          `json:"start_date" validate:"required"`
	EndDate     time.Time          `json:"end_date" validate:"required"`
	Type        models.HolidayType `json:"type" validate:"required,holidaytype"`
	AffectsAll  bool               `json:"affects_all"`
	CampusIDs   []string           `json:"campus_ids"`
	CreatedBy   string             `json:"-" validate:"required"`
}

// UpdateHolidayRequest carries a partial update; nil fields keep their
// stored values. A non-nil CampusIDs replaces the association set wholesale.
type UpdateHolidayRequest struct {
	Name        *string             `json:"name" validate:"omitempty,min=1"`
	Description *string             `json:"description"`
	StartDate   *time.Time          `json:"start_date"`
	EndDate     *time.Time          `json:"end_date"`
	Type        *models.HolidayType `json:"type" validate:"omitempty,holidaytype"`
	AffectsAll  *bool               `json:"affects_all"`
	CampusIDs   *[]string           `json:"campus_ids"`
}

// Create registers a new holiday after checking date order and overlap
// against every conflict-eligible holiday in an intersecting scope.
func (s *HolidayService) Create(ctx context.Context, req CreateHolidayRequest) (*models.Holiday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}

	start := dateutil.Day(req.StartDate)
	end := dateutil.Day(req.EndDate)
	if start.After(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Start date must be before end date")
	}

	holiday := &models.Holiday{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
		Type:        req.Type,
		AffectsAll:  req.AffectsAll,
		Status:      models.StatusActive,
		CreatedBy:   req.CreatedBy,
	}
	if !req.AffectsAll {
		holiday.CampusIDs = req.CampusIDs
	}

	if err := s.ensureNoOverlap(ctx, holiday, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, holiday); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create holiday")
	}
	s.invalidateCache(ctx)
	return holiday, nil
}

// Update applies a partial update, re-validating the merged record against
// all other conflict-eligible holidays.
func (s *HolidayService) Update(ctx context.Context, id string, req UpdateHolidayRequest) (*models.Holiday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}

	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	// Merge the partial input over stored values for validation purposes.
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
	if req.AffectsAll != nil {
		merged.AffectsAll = *req.AffectsAll
	}
	if req.CampusIDs != nil {
		merged.CampusIDs = *req.CampusIDs
	}

	if merged.StartDate.After(merged.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Start date must be before end date")
	}
	if err := s.ensureNoOverlap(ctx, &merged, id); err != nil {
		return nil, err
	}

	params := repository.UpdateHolidayParams{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		AffectsAll:  req.AffectsAll,
		CampusIDs:   req.CampusIDs,
	}
	if req.StartDate != nil {
		params.StartDate = &merged.StartDate
	}
	if req.EndDate != nil {
		params.EndDate = &merged.EndDate
	}
	if err := s.repo.Update(ctx, id, params); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update holiday")
	}
	s.invalidateCache(ctx)

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload holiday")
	}
	return updated, nil
}

// Delete soft-deletes a holiday, freeing its date range for new entries
// while keeping the row for historical reports.
func (s *HolidayService) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete holiday")
	}
	s.invalidateCache(ctx)
	return nil
}

// Get returns a holiday by id. Soft-deleted records behave as absent.
func (s *HolidayService) Get(ctx context.Context, id string) (*models.Holiday, error) {
	return s.load(ctx, id)
}

// List returns ACTIVE holidays matching the filter, paginated.
func (s *HolidayService) List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	holidays, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list holidays")
	}
	return holidays, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// IsHoliday reports whether date falls inside an ACTIVE holiday applying to
// the given campus (or to all campuses when campusID is empty).
func (s *HolidayService) IsHoliday(ctx context.Context, date time.Time, campusID string) (bool, error) {
	day := dateutil.Day(date)
	holidays, err := s.repo.InRange(ctx, day, day, campusID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check holiday")
	}
	return len(holidays) > 0, nil
}

// HolidaysInRange returns ACTIVE holidays intersecting [start, end], ordered
// by start date, unpaginated.
func (s *HolidayService) HolidaysInRange(ctx context.Context, start, end time.Time, campusID string) ([]models.Holiday, error) {
	start, end = dateutil.Day(start), dateutil.Day(end)
	if start.After(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Start date must be before end date")
	}
	holidays, err := s.repo.InRange(ctx, start, end, campusID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays in range")
	}
	return holidays, nil
}

func (s *HolidayService) load(ctx context.Context, id string) (*models.Holiday, error) {
	holiday, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holiday")
	}
	if holiday.Status.Deleted() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
	}
	return holiday, nil
}

// ensureNoOverlap rejects the candidate when any conflict-eligible holiday
// in an intersecting scope overlaps its date range. The candidates are
// pre-filtered by date in the store; scope matching happens here.
func (s *HolidayService) ensureNoOverlap(ctx context.Context, candidate *models.Holiday, excludeID string) error {
	peers, err := s.repo.ConflictCandidates(ctx, candidate.StartDate, candidate.EndDate, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check holiday conflicts")
	}
	for i := range peers {
		peer := &peers[i]
		if !peer.Status.CountsForConflicts() {
			continue
		}
		if candidate.SharesScope(peer) && dateutil.Overlaps(candidate.StartDate, candidate.EndDate, peer.StartDate, peer.EndDate) {
			s.logger.Debug("holiday overlap rejected",
				zap.String("conflicting_id", peer.ID),
				zap.Time("start", candidate.StartDate),
				zap.Time("end", candidate.EndDate))
			return appErrors.Clone(appErrors.ErrValidation, "overlapping holidays in the selected date range")
		}
	}
	return nil
}

func (s *HolidayService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, cachedListPattern); err != nil {
		s.logger.Warn("failed to invalidate list cache", zap.Error(err))
	}
}
