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

func newStudentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryNextRollNo(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(roll_no), 0) + 1 FROM students WHERE institute_id = $1")).
		WithArgs("inst-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(7))

	next, err := repo.NextRollNo(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.Equal(t, 7, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), "u1", "inst-1", "c1", "sec1", 7, "Female", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{
		UserID:      "u1",
		InstituteID: "inst-1",
		ClassID:     "c1",
		SectionID:   "sec1",
		RollNo:      7,
		Gender:      "Female",
	}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.NotEmpty(t, student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListScopesInstitute(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "institute_id", "class_id", "section_id", "roll_no", "gender", "admission_date", "created_at", "updated_at", "email", "username", "first_name", "last_name", "phone"}).
		AddRow("s1", "u1", "inst-1", "c1", "sec1", 1, "Male", nil, time.Now(), time.Now(), "s@example.com", "s1", "Stu", "Dent", "")
	mock.ExpectQuery("SELECT s.id, s.user_id, s.institute_id").
		WithArgs("inst-1").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("inst-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), "inst-1", models.StudentFilter{})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
