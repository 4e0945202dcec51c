package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campusgate/campusgate-api/internal/models"
)

// ScheduleRepository manages persistence for course schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `id, course_id, instructor_id, section_id, start_time, end_time, duration_minutes, days_of_week, status, created_at, updated_at`

const scheduleDetailColumns = `cs.id, cs.course_id, cs.instructor_id, cs.section_id, cs.start_time, cs.end_time, cs.duration_minutes, cs.days_of_week, cs.status, cs.created_at, cs.updated_at,
        c.code AS course_code, c.name AS course_name, sec.name AS section_name`

// Create inserts a new schedule slot.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.CourseSchedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.Status == "" {
		schedule.Status = "active"
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now
	const query = `INSERT INTO course_schedules (id, course_id, instructor_id, section_id, start_time, end_time, duration_minutes, days_of_week, status, created_at, updated_at)
        VALUES (:id, :course_id, :instructor_id, :section_id, :start_time, :end_time, :duration_minutes, :days_of_week, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// FindByID fetches a schedule slot.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.CourseSchedule, error) {
	const query = `SELECT ` + scheduleColumns + ` FROM course_schedules WHERE id = $1`
	var schedule models.CourseSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find schedule: %w", err)
	}
	return &schedule, nil
}

// FindDetail fetches a schedule with course and section display fields.
func (r *ScheduleRepository) FindDetail(ctx context.Context, id string) (*models.ScheduleDetail, error) {
	query := `SELECT ` + scheduleDetailColumns + `
        FROM course_schedules cs
        JOIN courses c ON c.id = cs.course_id
        JOIN sections sec ON sec.id = cs.section_id
        WHERE cs.id = $1`
	var detail models.ScheduleDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find schedule detail: %w", err)
	}
	return &detail, nil
}

// ListByCourse returns schedule slots of one course.
func (r *ScheduleRepository) ListByCourse(ctx context.Context, courseID string) ([]models.ScheduleDetail, error) {
	query := `SELECT ` + scheduleDetailColumns + `
        FROM course_schedules cs
        JOIN courses c ON c.id = cs.course_id
        JOIN sections sec ON sec.id = cs.section_id
        WHERE cs.course_id = $1
        ORDER BY cs.start_time ASC`
	var schedules []models.ScheduleDetail
	if err := r.db.SelectContext(ctx, &schedules, query, courseID); err != nil {
		return nil, fmt.Errorf("list course schedules: %w", err)
	}
	return schedules, nil
}

// ListByInstructor returns schedule slots taught by one instructor.
func (r *ScheduleRepository) ListByInstructor(ctx context.Context, instructorID string) ([]models.ScheduleDetail, error) {
	query := `SELECT ` + scheduleDetailColumns + `
        FROM course_schedules cs
        JOIN courses c ON c.id = cs.course_id
        JOIN sections sec ON sec.id = cs.section_id
        WHERE cs.instructor_id = $1
        ORDER BY cs.start_time ASC`
	var schedules []models.ScheduleDetail
	if err := r.db.SelectContext(ctx, &schedules, query, instructorID); err != nil {
		return nil, fmt.Errorf("list instructor schedules: %w", err)
	}
	return schedules, nil
}

// ListBySection returns schedule slots of one section.
func (r *ScheduleRepository) ListBySection(ctx context.Context, sectionID string) ([]models.ScheduleDetail, error) {
	query := `SELECT ` + scheduleDetailColumns + `
        FROM course_schedules cs
        JOIN courses c ON c.id = cs.course_id
        JOIN sections sec ON sec.id = cs.section_id
        WHERE cs.section_id = $1
        ORDER BY cs.start_time ASC`
	var schedules []models.ScheduleDetail
	if err := r.db.SelectContext(ctx, &schedules, query, sectionID); err != nil {
		return nil, fmt.Errorf("list section schedules: %w", err)
	}
	return schedules, nil
}

// ExistsDuplicate checks for an identical slot on the duplicate key
// (course, instructor, section, days, start, end).
func (r *ScheduleRepository) ExistsDuplicate(ctx context.Context, schedule *models.CourseSchedule) (bool, error) {
	const query = `SELECT 1 FROM course_schedules
        WHERE course_id = $1 AND instructor_id = $2 AND section_id = $3
        AND days_of_week = $4 AND start_time = $5 AND end_time = $6 LIMIT 1`
	var exists int
	err := r.db.GetContext(ctx, &exists, query,
		schedule.CourseID, schedule.InstructorID, schedule.SectionID,
		pq.Array([]string(schedule.DaysOfWeek)), schedule.StartTime, schedule.EndTime)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check schedule duplicate: %w", err)
	}
	return true, nil
}

// Delete removes a schedule slot.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM course_schedules WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}
