package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusgate/campusgate-api/internal/models"
)

// AttendanceRepository manages persistence for attendance slots and exports.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// UpsertSlot stores one marked lecture occurrence and its per-student
// statuses inside a transaction. Re-marking the same schedule, date, and
// slot replaces the previous statuses.
func (r *AttendanceRepository) UpsertSlot(ctx context.Context, slot *models.AttendanceSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	slot.MarkedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const upsert = `INSERT INTO attendance_slots (id, schedule_id, date, slot, marked_by, marked_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (schedule_id, date, slot) DO UPDATE SET marked_by = EXCLUDED.marked_by, marked_at = EXCLUDED.marked_at
        RETURNING id`
	if err := tx.GetContext(ctx, &slot.ID, upsert, slot.ID, slot.ScheduleID, slot.Date, slot.Slot, slot.MarkedBy, slot.MarkedAt); err != nil {
		return fmt.Errorf("upsert attendance slot: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_statuses WHERE slot_id = $1`, slot.ID); err != nil {
		return fmt.Errorf("clear attendance statuses: %w", err)
	}
	for i := range slot.Statuses {
		slot.Statuses[i].SlotID = slot.ID
		const insert = `INSERT INTO attendance_statuses (slot_id, student_id, status) VALUES ($1, $2, $3)`
		if _, err := tx.ExecContext(ctx, insert, slot.ID, slot.Statuses[i].StudentID, slot.Statuses[i].Status); err != nil {
			return fmt.Errorf("insert attendance status: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance tx: %w", err)
	}
	return nil
}

// ListBySchedule returns all marked slots of a schedule with their statuses.
func (r *AttendanceRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.AttendanceSlot, error) {
	const query = `SELECT id, schedule_id, date, slot, marked_by, marked_at FROM attendance_slots WHERE schedule_id = $1 ORDER BY date ASC, slot ASC`
	var slots []models.AttendanceSlot
	if err := r.db.SelectContext(ctx, &slots, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list attendance slots: %w", err)
	}
	for i := range slots {
		statuses, err := r.listStatuses(ctx, slots[i].ID)
		if err != nil {
			return nil, err
		}
		slots[i].Statuses = statuses
	}
	return slots, nil
}

// StudentCourseEntry is one attendance outcome of a student in a course.
type StudentCourseEntry struct {
	ScheduleID string                  `db:"schedule_id" json:"schedule_id"`
	Date       string                  `db:"date" json:"date"`
	Slot       string                  `db:"slot" json:"slot"`
	Status     models.AttendanceStatus `db:"status" json:"status"`
}

// ListByStudentCourse returns a student's attendance entries for one course.
func (r *AttendanceRepository) ListByStudentCourse(ctx context.Context, studentID, courseID string) ([]StudentCourseEntry, error) {
	const query = `SELECT a.schedule_id, a.date, a.slot, st.status
        FROM attendance_statuses st
        JOIN attendance_slots a ON a.id = st.slot_id
        JOIN course_schedules cs ON cs.id = a.schedule_id
        WHERE st.student_id = $1 AND cs.course_id = $2
        ORDER BY a.date ASC, a.slot ASC`
	var entries []StudentCourseEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID, courseID); err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return entries, nil
}

func (r *AttendanceRepository) listStatuses(ctx context.Context, slotID string) ([]models.StudentStatus, error) {
	const query = `SELECT slot_id, student_id, status FROM attendance_statuses WHERE slot_id = $1 ORDER BY student_id ASC`
	var statuses []models.StudentStatus
	if err := r.db.SelectContext(ctx, &statuses, query, slotID); err != nil {
		return nil, fmt.Errorf("list attendance statuses: %w", err)
	}
	return statuses, nil
}

// CreateExport persists a queued export job.
func (r *AttendanceRepository) CreateExport(ctx context.Context, e *models.AttendanceExport) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = models.ExportStatusQueued
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendance_exports (id, schedule_id, format, status, requested_by, created_at)
        VALUES (:id, :schedule_id, :format, :status, :requested_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, e); err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	return nil
}

// FindExport fetches an export job.
func (r *AttendanceRepository) FindExport(ctx context.Context, id string) (*models.AttendanceExport, error) {
	const query = `SELECT id, schedule_id, format, status, file_path, error_message, requested_by, created_at, finished_at FROM attendance_exports WHERE id = $1`
	var e models.AttendanceExport
	if err := r.db.GetContext(ctx, &e, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find export: %w", err)
	}
	return &e, nil
}

// MarkExportProcessing transitions a job to processing.
func (r *AttendanceRepository) MarkExportProcessing(ctx context.Context, id string) error {
	const query = `UPDATE attendance_exports SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusProcessing); err != nil {
		return fmt.Errorf("mark export processing: %w", err)
	}
	return nil
}

// MarkExportFinished records the result file path.
func (r *AttendanceRepository) MarkExportFinished(ctx context.Context, id, filePath string) error {
	const query = `UPDATE attendance_exports SET status = $2, file_path = $3, finished_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusFinished, filePath, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export finished: %w", err)
	}
	return nil
}

// MarkExportFailed records a failure message.
func (r *AttendanceRepository) MarkExportFailed(ctx context.Context, id, message string) error {
	const query = `UPDATE attendance_exports SET status = $2, error_message = $3, finished_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusFailed, message, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export failed: %w", err)
	}
	return nil
}
