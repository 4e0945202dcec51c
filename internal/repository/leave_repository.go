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

// LeaveRepository manages persistence for leave requests.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs a LeaveRepository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

const leaveColumns = `id, student_id, schedule_id, requested_day, reason, status, week_start, week_end, created_at, updated_at`

// Create inserts a new leave request.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.LeaveRequest) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	if leave.Status == "" {
		leave.Status = models.LeavePending
	}
	now := time.Now().UTC()
	if leave.CreatedAt.IsZero() {
		leave.CreatedAt = now
	}
	leave.UpdatedAt = now
	const query = `INSERT INTO leave_requests (id, student_id, schedule_id, requested_day, reason, status, week_start, week_end, created_at, updated_at)
        VALUES (:id, :student_id, :schedule_id, :requested_day, :reason, :status, :week_start, :week_end, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("create leave request: %w", err)
	}
	return nil
}

// FindByID fetches a leave request.
func (r *LeaveRepository) FindByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	const query = `SELECT ` + leaveColumns + ` FROM leave_requests WHERE id = $1`
	var leave models.LeaveRequest
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find leave request: %w", err)
	}
	return &leave, nil
}

// ExistsForWeek checks for a duplicate request on the same schedule, day,
// and week start.
func (r *LeaveRepository) ExistsForWeek(ctx context.Context, studentID, scheduleID, requestedDay string, weekStart time.Time) (bool, error) {
	const query = `SELECT 1 FROM leave_requests WHERE student_id = $1 AND schedule_id = $2 AND requested_day = $3 AND week_start = $4 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, scheduleID, requestedDay, weekStart); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check leave duplicate: %w", err)
	}
	return true, nil
}

// ListByStudent returns a student's leave requests with course context,
// newest first.
func (r *LeaveRepository) ListByStudent(ctx context.Context, studentID string) ([]models.LeaveDetail, error) {
	const query = `SELECT l.id, l.student_id, l.schedule_id, l.requested_day, l.reason, l.status, l.week_start, l.week_end, l.created_at, l.updated_at,
        c.code AS course_code, c.name AS course_name, s.roll_no
        FROM leave_requests l
        JOIN course_schedules cs ON cs.id = l.schedule_id
        JOIN courses c ON c.id = cs.course_id
        JOIN students s ON s.id = l.student_id
        WHERE l.student_id = $1
        ORDER BY l.created_at DESC`
	var leaves []models.LeaveDetail
	if err := r.db.SelectContext(ctx, &leaves, query, studentID); err != nil {
		return nil, fmt.Errorf("list student leaves: %w", err)
	}
	return leaves, nil
}

// ListPendingForInstructor returns pending requests in the given week for
// schedules taught by the instructor.
func (r *LeaveRepository) ListPendingForInstructor(ctx context.Context, instructorID string, weekStart time.Time) ([]models.LeaveDetail, error) {
	const query = `SELECT l.id, l.student_id, l.schedule_id, l.requested_day, l.reason, l.status, l.week_start, l.week_end, l.created_at, l.updated_at,
        c.code AS course_code, c.name AS course_name, s.roll_no
        FROM leave_requests l
        JOIN course_schedules cs ON cs.id = l.schedule_id
        JOIN courses c ON c.id = cs.course_id
        JOIN students s ON s.id = l.student_id
        WHERE l.status = $1 AND l.week_start = $2 AND cs.instructor_id = $3
        ORDER BY l.created_at ASC`
	var leaves []models.LeaveDetail
	if err := r.db.SelectContext(ctx, &leaves, query, models.LeavePending, weekStart, instructorID); err != nil {
		return nil, fmt.Errorf("list pending leaves: %w", err)
	}
	return leaves, nil
}

// UpdateStatus transitions a leave request.
func (r *LeaveRepository) UpdateStatus(ctx context.Context, id string, status models.LeaveStatus) error {
	const query = `UPDATE leave_requests SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update leave status: %w", err)
	}
	return nil
}

// DeleteExpired removes requests whose week ended before the cutoff and
// returns the number deleted.
func (r *LeaveRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM leave_requests WHERE week_end < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired leaves: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted leaves: %w", err)
	}
	return deleted, nil
}
