package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusgate/campusgate-api/internal/models"
)

// CourseRepository manages persistence for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, institute_id, code, name, description, instructor_id, status, created_at, updated_at`

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.Status == "" {
		course.Status = "active"
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, institute_id, code, name, description, instructor_id, status, created_at, updated_at)
        VALUES (:id, :institute_id, :code, :name, :description, :instructor_id, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// FindByID fetches a course scoped to an institute.
func (r *CourseRepository) FindByID(ctx context.Context, id, instituteID string) (*models.Course, error) {
	const query = `SELECT ` + courseColumns + ` FROM courses WHERE id = $1 AND institute_id = $2`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id, instituteID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// List returns courses of an institute, optionally matching a search term.
func (r *CourseRepository) List(ctx context.Context, instituteID, search string) ([]models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE institute_id = $1`
	args := []interface{}{instituteID}
	if search != "" {
		query += " AND (LOWER(code) LIKE $2 OR LOWER(name) LIKE $2)"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	query += " ORDER BY code ASC"
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListByInstructor returns courses taught by one instructor.
func (r *CourseRepository) ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error) {
	const query = `SELECT ` + courseColumns + ` FROM courses WHERE instructor_id = $1 ORDER BY code ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, instructorID); err != nil {
		return nil, fmt.Errorf("list instructor courses: %w", err)
	}
	return courses, nil
}

// ExistsByCode checks whether a course code is taken within an institute,
// optionally excluding one id.
func (r *CourseRepository) ExistsByCode(ctx context.Context, instituteID, code, excludeID string) (bool, error) {
	query := `SELECT 1 FROM courses WHERE institute_id = $1 AND LOWER(code) = LOWER($2)`
	args := []interface{}{instituteID, code}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course code: %w", err)
	}
	return true, nil
}

// Update modifies an existing course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET code = :code, name = :name, description = :description, instructor_id = :instructor_id, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes a course.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM courses WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}
