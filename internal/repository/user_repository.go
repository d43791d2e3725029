package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// UserRepository resolves externally-owned user records to display names for
// report attribution.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a user repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// DisplayNames maps the given user ids to full names. Ids without a matching
// row are simply absent from the result; callers substitute a placeholder.
func (r *UserRepository) DisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	rows := []struct {
		ID       string `db:"id"`
		FullName string `db:"full_name"`
	}{}
	const query = `SELECT id, full_name FROM users WHERE id = ANY($1)`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("resolve user names: %w", err)
	}
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.FullName
	}
	return names, nil
}
