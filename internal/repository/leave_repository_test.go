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

func newLeaveRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestLeaveRepositoryCreateDefaultsPending(t *testing.T) {
	db, mock, cleanup := newLeaveRepoMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectExec("INSERT INTO leave_requests").
		WithArgs(sqlmock.AnyArg(), "s1", "cs1", "Monday", "fever", "pending", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	leave := &models.LeaveRequest{
		StudentID:    "s1",
		ScheduleID:   "cs1",
		RequestedDay: "Monday",
		Reason:       "fever",
		WeekStart:    time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC),
		WeekEnd:      time.Date(2024, 5, 19, 23, 59, 59, 999000000, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), leave))
	assert.Equal(t, models.LeavePending, leave.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepositoryExistsForWeek(t *testing.T) {
	db, mock, cleanup := newLeaveRepoMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	weekStart := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM leave_requests WHERE student_id = $1 AND schedule_id = $2 AND requested_day = $3 AND week_start = $4 LIMIT 1")).
		WithArgs("s1", "cs1", "Monday", weekStart).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsForWeek(context.Background(), "s1", "cs1", "Monday", weekStart)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepositoryDeleteExpired(t *testing.T) {
	db, mock, cleanup := newLeaveRepoMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	cutoff := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM leave_requests WHERE week_end < $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, err := repo.DeleteExpired(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newLeaveRepoMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE leave_requests SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("l1", models.LeaveAccepted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "l1", models.LeaveAccepted))
	assert.NoError(t, mock.ExpectationsWereMet())
}
