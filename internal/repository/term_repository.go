package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/campuskit/calendar-api/internal/models"
)

// TermRepository reads terms and academic cycles. Both are owned by the
// enrolment system; this service never writes them.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository instantiates a term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// FindByID loads a term by identifier. sql.ErrNoRows passes through.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	const query = `SELECT id, name, academic_cycle_id, start_date, end_date FROM terms WHERE id = $1`
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// FindCycle loads an academic cycle by identifier.
func (r *TermRepository) FindCycle(ctx context.Context, id string) (*models.AcademicCycle, error) {
	const query = `SELECT id, name, start_date, end_date FROM academic_cycles WHERE id = $1`
	var cycle models.AcademicCycle
	if err := r.db.GetContext(ctx, &cycle, query, id); err != nil {
		return nil, err
	}
	return &cycle, nil
}
