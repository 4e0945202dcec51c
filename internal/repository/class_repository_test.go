package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/campusgate-api/internal/models"
)

func newClassRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestClassRepositoryList(t *testing.T) {
	db, mock, cleanup := newClassRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows([]string{"id", "institute_id", "name", "description", "status", "created_at", "updated_at"}).
		AddRow("c1", "inst-1", "Prep", "", "active", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, institute_id, name, description, status, created_at, updated_at FROM classes WHERE institute_id").
		WithArgs("inst-1").
		WillReturnRows(rows)

	classes, err := repo.List(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "Prep", classes[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryExistsByName(t *testing.T) {
	db, mock, cleanup := newClassRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM classes WHERE institute_id = $1 AND LOWER(name) = LOWER($2) LIMIT 1")).
		WithArgs("inst-1", "Prep").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByName(context.Background(), "inst-1", "Prep", "")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM classes WHERE institute_id = $1 AND LOWER(name) = LOWER($2) AND id <> $3 LIMIT 1")).
		WithArgs("inst-1", "Prep", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err = repo.ExistsByName(context.Background(), "inst-1", "Prep", "c1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCreateDefaultsStatus(t *testing.T) {
	db, mock, cleanup := newClassRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec("INSERT INTO classes").
		WithArgs(sqlmock.AnyArg(), "inst-1", "Prep", "", "active", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	class := &models.Class{InstituteID: "inst-1", Name: "Prep"}
	require.NoError(t, repo.Create(context.Background(), class))
	assert.Equal(t, "active", class.Status)
	assert.NotEmpty(t, class.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
