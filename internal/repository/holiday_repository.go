package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campuskit/calendar-api/internal/models"
)

// HolidayRepository persists holidays and their campus associations.
//
// The overlap check performed by the service layer is a read followed by a
// write; both run inside one transaction here. Full protection against two
// concurrent writers racing on the same range requires a schema-level
// exclusion constraint on the (scope, daterange) pair.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository constructs a holiday repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

const holidayColumns = "id, name, description, start_date, end_date, type, affects_all, status, created_by, created_at, updated_at, deleted_at"

// Create inserts a holiday together with its campus set.
func (r *HolidayRepository) Create(ctx context.Context, holiday *models.Holiday) error {
	if holiday.ID == "" {
		holiday.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if holiday.CreatedAt.IsZero() {
		holiday.CreatedAt = now
	}
	holiday.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create holiday tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO holidays (id, name, description, start_date, end_date, type, affects_all, status, created_by, created_at, updated_at)
VALUES (:id, :name, :description, :start_date, :end_date, :type, :affects_all, :status, :created_by, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, holiday); err != nil {
		return fmt.Errorf("create holiday: %w", err)
	}

	if !holiday.AffectsAll {
		if err = insertHolidayCampuses(ctx, tx, holiday.ID, holiday.CampusIDs); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create holiday tx: %w", err)
	}
	return nil
}

// UpdateHolidayParams carries the fields of a partial update. Nil fields are
// left untouched; a non-nil CampusIDs replaces the association set wholesale.
type UpdateHolidayParams struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Type        *models.HolidayType
	AffectsAll  *bool
	CampusIDs   *[]string
}

// Update applies a partial update, writing only the supplied columns.
func (r *HolidayRepository) Update(ctx context.Context, id string, params UpdateHolidayParams) error {
	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}
	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.Description != nil {
		add("description", *params.Description)
	}
	if params.StartDate != nil {
		add("start_date", *params.StartDate)
	}
	if params.EndDate != nil {
		add("end_date", *params.EndDate)
	}
	if params.Type != nil {
		add("type", *params.Type)
	}
	if params.AffectsAll != nil {
		add("affects_all", *params.AffectsAll)
	}
	add("updated_at", time.Now().UTC())

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update holiday tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf("UPDATE holidays SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args)+1)
	args = append(args, id)
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update holiday: %w", err)
	}

	if params.CampusIDs != nil {
		if _, err = tx.ExecContext(ctx, "DELETE FROM holiday_campuses WHERE holiday_id = $1", id); err != nil {
			return fmt.Errorf("clear holiday campuses: %w", err)
		}
		if err = insertHolidayCampuses(ctx, tx, id, *params.CampusIDs); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update holiday tx: %w", err)
	}
	return nil
}

// SoftDelete marks a holiday deleted, keeping the row for historical reports.
func (r *HolidayRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE holidays SET status = $1, deleted_at = $2, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, models.StatusDeleted, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("soft delete holiday: %w", err)
	}
	return nil
}

// GetByID fetches a holiday with its campus set. sql.ErrNoRows passes through.
func (r *HolidayRepository) GetByID(ctx context.Context, id string) (*models.Holiday, error) {
	query := fmt.Sprintf("SELECT %s FROM holidays WHERE id = $1", holidayColumns)
	var holiday models.Holiday
	if err := r.db.GetContext(ctx, &holiday, query, id); err != nil {
		return nil, err
	}
	if err := r.attachCampuses(ctx, []*models.Holiday{&holiday}); err != nil {
		return nil, err
	}
	return &holiday, nil
}

// List returns ACTIVE holidays matching the filter, paginated.
func (r *HolidayRepository) List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, int, error) {
	where := []string{"status = 'ACTIVE'"}
	args := []interface{}{}
	if filter.StartDate != nil {
		where = append(where, fmt.Sprintf("end_date >= $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		where = append(where, fmt.Sprintf("start_date <= $%d", len(args)+1))
		args = append(args, *filter.EndDate)
	}
	if filter.Type != "" {
		where = append(where, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.CampusID != "" {
		where = append(where, fmt.Sprintf("(affects_all = TRUE OR id IN (SELECT holiday_id FROM holiday_campuses WHERE campus_id = $%d))", len(args)+1))
		args = append(args, filter.CampusID)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM holidays WHERE %s ORDER BY start_date ASC LIMIT %d OFFSET %d", holidayColumns, whereClause, size, offset)
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list holidays: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM holidays WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count holidays: %w", err)
	}

	if err := r.attachCampusesSlice(ctx, holidays); err != nil {
		return nil, 0, err
	}
	return holidays, total, nil
}

// InRange returns ACTIVE holidays intersecting [start, end], optionally
// narrowed to one campus, ordered by start date.
func (r *HolidayRepository) InRange(ctx context.Context, start, end time.Time, campusID string) ([]models.Holiday, error) {
	where := []string{"status = 'ACTIVE'", "end_date >= $1", "start_date <= $2"}
	args := []interface{}{start, end}
	if campusID != "" {
		where = append(where, "(affects_all = TRUE OR id IN (SELECT holiday_id FROM holiday_campuses WHERE campus_id = $3))")
		args = append(args, campusID)
	}
	query := fmt.Sprintf("SELECT %s FROM holidays WHERE %s ORDER BY start_date ASC", holidayColumns, strings.Join(where, " AND "))
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, args...); err != nil {
		return nil, fmt.Errorf("holidays in range: %w", err)
	}
	if err := r.attachCampusesSlice(ctx, holidays); err != nil {
		return nil, err
	}
	return holidays, nil
}

// ConflictCandidates returns the ACTIVE holidays whose date ranges intersect
// [start, end], excluding the given id. The caller applies scope matching.
func (r *HolidayRepository) ConflictCandidates(ctx context.Context, start, end time.Time, excludeID string) ([]models.Holiday, error) {
	where := []string{"status = 'ACTIVE'", "end_date >= $1", "start_date <= $2"}
	args := []interface{}{start, end}
	if excludeID != "" {
		where = append(where, "id <> $3")
		args = append(args, excludeID)
	}
	query := fmt.Sprintf("SELECT %s FROM holidays WHERE %s", holidayColumns, strings.Join(where, " AND "))
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, args...); err != nil {
		return nil, fmt.Errorf("holiday conflict candidates: %w", err)
	}
	if err := r.attachCampusesSlice(ctx, holidays); err != nil {
		return nil, err
	}
	return holidays, nil
}

func insertHolidayCampuses(ctx context.Context, tx *sqlx.Tx, holidayID string, campusIDs []string) error {
	for _, campusID := range campusIDs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO holiday_campuses (holiday_id, campus_id) VALUES ($1, $2)", holidayID, campusID); err != nil {
			return fmt.Errorf("link holiday campus %s: %w", campusID, err)
		}
	}
	return nil
}

func (r *HolidayRepository) attachCampusesSlice(ctx context.Context, holidays []models.Holiday) error {
	refs := make([]*models.Holiday, len(holidays))
	for i := range holidays {
		refs[i] = &holidays[i]
	}
	return r.attachCampuses(ctx, refs)
}

func (r *HolidayRepository) attachCampuses(ctx context.Context, holidays []*models.Holiday) error {
	if len(holidays) == 0 {
		return nil
	}
	ids := make([]string, len(holidays))
	byID := make(map[string]*models.Holiday, len(holidays))
	for i, h := range holidays {
		ids[i] = h.ID
		byID[h.ID] = h
		h.CampusIDs = nil
	}
	rows := []struct {
		HolidayID string `db:"holiday_id"`
		CampusID  string `db:"campus_id"`
	}{}
	const query = `SELECT holiday_id, campus_id FROM holiday_campuses WHERE holiday_id = ANY($1) ORDER BY campus_id`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("load holiday campuses: %w", err)
	}
	for _, row := range rows {
		if h, ok := byID[row.HolidayID]; ok {
			h.CampusIDs = append(h.CampusIDs, row.CampusID)
		}
	}
	return nil
}
