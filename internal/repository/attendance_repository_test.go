package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/campusgate-api/internal/models"
)

func newAttendanceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAttendanceRepositoryUpsertSlotReplacesStatuses(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO attendance_slots").
		WithArgs(sqlmock.AnyArg(), "cs1", "2024-05-15", "08:00-09:00", "t1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("slot-1"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance_statuses WHERE slot_id = $1")).
		WithArgs("slot-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO attendance_statuses").
		WithArgs("slot-1", "s1", models.AttendancePresent).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO attendance_statuses").
		WithArgs("slot-1", "s2", models.AttendanceAbsent).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	slot := &models.AttendanceSlot{
		ScheduleID: "cs1",
		Date:       "2024-05-15",
		Slot:       "08:00-09:00",
		MarkedBy:   "t1",
		Statuses: []models.StudentStatus{
			{StudentID: "s1", Status: models.AttendancePresent},
			{StudentID: "s2", Status: models.AttendanceAbsent},
		},
	}
	require.NoError(t, repo.UpsertSlot(context.Background(), slot))
	assert.Equal(t, "slot-1", slot.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryExportLifecycle(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("INSERT INTO attendance_exports").
		WithArgs(sqlmock.AnyArg(), "cs1", models.ExportFormatCSV, models.ExportStatusQueued, "t1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	export := &models.AttendanceExport{ScheduleID: "cs1", Format: models.ExportFormatCSV, RequestedBy: "t1"}
	require.NoError(t, repo.CreateExport(context.Background(), export))
	require.NotEmpty(t, export.ID)

	mock.ExpectExec("UPDATE attendance_exports SET status").
		WithArgs(export.ID, models.ExportStatusProcessing).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.MarkExportProcessing(context.Background(), export.ID))

	mock.ExpectExec("UPDATE attendance_exports SET status").
		WithArgs(export.ID, models.ExportStatusFinished, "attendance/cs1.csv", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.MarkExportFinished(context.Background(), export.ID, "attendance/cs1.csv"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
