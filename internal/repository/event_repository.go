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

// EventRepository persists academic calendar events with their campus and
// class associations.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = "id, name, description, start_date, end_date, type, academic_cycle_id, status, created_by, created_at, updated_at, deleted_at"

// Create inserts an event together with its campus and class sets.
func (r *EventRepository) Create(ctx context.Context, event *models.CalendarEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create event tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO calendar_events (id, name, description, start_date, end_date, type, academic_cycle_id, status, created_by, created_at, updated_at)
VALUES (:id, :name, :description, :start_date, :end_date, :type, :academic_cycle_id, :status, :created_by, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	if err = insertEventLinks(ctx, tx, "event_campuses", "campus_id", event.ID, event.CampusIDs); err != nil {
		return err
	}
	if err = insertEventLinks(ctx, tx, "event_classes", "class_id", event.ID, event.ClassIDs); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create event tx: %w", err)
	}
	return nil
}

// UpdateEventParams carries the fields of a partial update. Nil fields are
// left untouched; non-nil CampusIDs/ClassIDs replace the sets wholesale.
type UpdateEventParams struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Type        *models.EventType
	CampusIDs   *[]string
	ClassIDs    *[]string
}

// Update applies a partial update, writing only the supplied columns.
func (r *EventRepository) Update(ctx context.Context, id string, params UpdateEventParams) error {
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
	add("updated_at", time.Now().UTC())

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update event tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf("UPDATE calendar_events SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args)+1)
	args = append(args, id)
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update event: %w", err)
	}

	if params.CampusIDs != nil {
		if err = replaceEventLinks(ctx, tx, "event_campuses", "campus_id", id, *params.CampusIDs); err != nil {
			return err
		}
	}
	if params.ClassIDs != nil {
		if err = replaceEventLinks(ctx, tx, "event_classes", "class_id", id, *params.ClassIDs); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update event tx: %w", err)
	}
	return nil
}

// SoftDelete marks an event deleted, keeping the row for historical reports.
func (r *EventRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE calendar_events SET status = $1, deleted_at = $2, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, models.StatusDeleted, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("soft delete event: %w", err)
	}
	return nil
}

// GetByID fetches an event with its associations. sql.ErrNoRows passes through.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.CalendarEvent, error) {
	query := fmt.Sprintf("SELECT %s FROM calendar_events WHERE id = $1", eventColumns)
	var event models.CalendarEvent
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	if err := r.attachLinks(ctx, []*models.CalendarEvent{&event}); err != nil {
		return nil, err
	}
	return &event, nil
}

// List returns ACTIVE events matching the filter, paginated.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.CalendarEvent, int, error) {
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
	if filter.AcademicCycleID != "" {
		where = append(where, fmt.Sprintf("academic_cycle_id = $%d", len(args)+1))
		args = append(args, filter.AcademicCycleID)
	}
	if filter.CampusID != "" {
		where = append(where, fmt.Sprintf("(NOT EXISTS (SELECT 1 FROM event_campuses ec WHERE ec.event_id = calendar_events.id) OR id IN (SELECT event_id FROM event_campuses WHERE campus_id = $%d))", len(args)+1))
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

	query := fmt.Sprintf("SELECT %s FROM calendar_events WHERE %s ORDER BY start_date ASC LIMIT %d OFFSET %d", eventColumns, whereClause, size, offset)
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM calendar_events WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	if err := r.attachLinksSlice(ctx, events); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// InRange returns ACTIVE events intersecting [start, end], optionally
// narrowed to one campus, ordered by start date.
func (r *EventRepository) InRange(ctx context.Context, start, end time.Time, campusID string) ([]models.CalendarEvent, error) {
	where := []string{"status = 'ACTIVE'", "end_date >= $1", "start_date <= $2"}
	args := []interface{}{start, end}
	if campusID != "" {
		where = append(where, "(NOT EXISTS (SELECT 1 FROM event_campuses ec WHERE ec.event_id = calendar_events.id) OR id IN (SELECT event_id FROM event_campuses WHERE campus_id = $3))")
		args = append(args, campusID)
	}
	query := fmt.Sprintf("SELECT %s FROM calendar_events WHERE %s ORDER BY start_date ASC", eventColumns, strings.Join(where, " AND "))
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("events in range: %w", err)
	}
	if err := r.attachLinksSlice(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

// ConflictCandidates returns the ACTIVE events of the given cycle and type
// whose date ranges intersect [start, end], excluding the given id. The
// caller applies campus scope matching.
func (r *EventRepository) ConflictCandidates(ctx context.Context, cycleID string, eventType models.EventType, start, end time.Time, excludeID string) ([]models.CalendarEvent, error) {
	where := []string{"status = 'ACTIVE'", "academic_cycle_id = $1", "type = $2", "end_date >= $3", "start_date <= $4"}
	args := []interface{}{cycleID, eventType, start, end}
	if excludeID != "" {
		where = append(where, "id <> $5")
		args = append(args, excludeID)
	}
	query := fmt.Sprintf("SELECT %s FROM calendar_events WHERE %s", eventColumns, strings.Join(where, " AND "))
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("event conflict candidates: %w", err)
	}
	if err := r.attachLinksSlice(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

func insertEventLinks(ctx context.Context, tx *sqlx.Tx, table, column, eventID string, ids []string) error {
	for _, id := range ids {
		query := fmt.Sprintf("INSERT INTO %s (event_id, %s) VALUES ($1, $2)", table, column)
		if _, err := tx.ExecContext(ctx, query, eventID, id); err != nil {
			return fmt.Errorf("link event %s %s: %w", column, id, err)
		}
	}
	return nil
}

func replaceEventLinks(ctx context.Context, tx *sqlx.Tx, table, column, eventID string, ids []string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE event_id = $1", table)
	if _, err := tx.ExecContext(ctx, query, eventID); err != nil {
		return fmt.Errorf("clear event %s links: %w", column, err)
	}
	return insertEventLinks(ctx, tx, table, column, eventID, ids)
}

func (r *EventRepository) attachLinksSlice(ctx context.Context, events []models.CalendarEvent) error {
	refs := make([]*models.CalendarEvent, len(events))
	for i := range events {
		refs[i] = &events[i]
	}
	return r.attachLinks(ctx, refs)
}

func (r *EventRepository) attachLinks(ctx context.Context, events []*models.CalendarEvent) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, len(events))
	byID := make(map[string]*models.CalendarEvent, len(events))
	for i, e := range events {
		ids[i] = e.ID
		byID[e.ID] = e
		e.CampusIDs = nil
		e.ClassIDs = nil
	}

	rows := []struct {
		EventID string `db:"event_id"`
		LinkID  string `db:"link_id"`
	}{}
	const campusQuery = `SELECT event_id, campus_id AS link_id FROM event_campuses WHERE event_id = ANY($1) ORDER BY campus_id`
	if err := r.db.SelectContext(ctx, &rows, campusQuery, pq.Array(ids)); err != nil {
		return fmt.Errorf("load event campuses: %w", err)
	}
	for _, row := range rows {
		if e, ok := byID[row.EventID]; ok {
			e.CampusIDs = append(e.CampusIDs, row.LinkID)
		}
	}

	rows = rows[:0]
	const classQuery = `SELECT event_id, class_id AS link_id FROM event_classes WHERE event_id = ANY($1) ORDER BY class_id`
	if err := r.db.SelectContext(ctx, &rows, classQuery, pq.Array(ids)); err != nil {
		return fmt.Errorf("load event classes: %w", err)
	}
	for _, row := range rows {
		if e, ok := byID[row.EventID]; ok {
			e.ClassIDs = append(e.ClassIDs, row.LinkID)
		}
	}
	return nil
}
