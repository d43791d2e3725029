package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepositoryDisplayNames(t *testing.T) {
	db, mock, cleanup := newHolidayRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name FROM users WHERE id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name"}).
			AddRow("admin-1", "Ava Admin"))

	names, err := repo.DisplayNames(context.Background(), []string{"admin-1", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, "Ava Admin", names["admin-1"])
	_, ok := names["ghost"]
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDisplayNamesEmptyInput(t *testing.T) {
	db, mock, cleanup := newHolidayRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	names, err := repo.DisplayNames(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}
