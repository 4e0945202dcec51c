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

// StudentRepository manages persistence for student role profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentDetailColumns = `s.id, s.user_id, s.institute_id, s.class_id, s.section_id, s.roll_no, s.gender, s.admission_date, s.created_at, s.updated_at,
        u.email, u.username, u.first_name, u.last_name, u.phone`

// Create inserts a new student profile.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, user_id, institute_id, class_id, section_id, roll_no, gender, admission_date, created_at, updated_at)
        VALUES (:id, :user_id, :institute_id, :class_id, :section_id, :roll_no, :gender, :admission_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// FindByID fetches a student detail scoped to an institute.
func (r *StudentRepository) FindByID(ctx context.Context, id, instituteID string) (*models.StudentDetail, error) {
	query := `SELECT ` + studentDetailColumns + `
        FROM students s
        JOIN users u ON u.id = s.user_id
        WHERE s.id = $1 AND s.institute_id = $2`
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id, instituteID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &detail, nil
}

// FindByUserID fetches the profile owned by a user account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	const query = `SELECT id, user_id, institute_id, class_id, section_id, roll_no, gender, admission_date, created_at, updated_at FROM students WHERE user_id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by user: %w", err)
	}
	return &student, nil
}

// Get fetches a bare profile without tenant scoping. Used by flows that
// already hold a trusted profile id, such as the leave service.
func (r *StudentRepository) Get(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, user_id, institute_id, class_id, section_id, roll_no, gender, admission_date, created_at, updated_at FROM students WHERE id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &student, nil
}

// List returns students of an institute matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, instituteID string, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := "FROM students s JOIN users u ON u.id = s.user_id"
	args := []interface{}{instituteID}
	conditions := []string{"s.institute_id = $1"}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("s.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("s.section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.first_name) LIKE $%d OR LOWER(u.last_name) LIKE $%d OR LOWER(u.email) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT `+studentDetailColumns+` %s ORDER BY s.roll_no ASC LIMIT %d OFFSET %d`, base, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListBySection returns student details of one section.
func (r *StudentRepository) ListBySection(ctx context.Context, sectionID string) ([]models.StudentDetail, error) {
	query := `SELECT ` + studentDetailColumns + `
        FROM students s
        JOIN users u ON u.id = s.user_id
        WHERE s.section_id = $1
        ORDER BY s.roll_no ASC`
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, sectionID); err != nil {
		return nil, fmt.Errorf("list section students: %w", err)
	}
	return students, nil
}

// NextRollNo returns the next sequential roll number for an institute.
func (r *StudentRepository) NextRollNo(ctx context.Context, instituteID string) (int, error) {
	const query = `SELECT COALESCE(MAX(roll_no), 0) + 1 FROM students WHERE institute_id = $1`
	var next int
	if err := r.db.GetContext(ctx, &next, query, instituteID); err != nil {
		return 0, fmt.Errorf("next roll no: %w", err)
	}
	return next, nil
}

// Update modifies an existing profile.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET class_id = :class_id, section_id = :section_id, gender = :gender, admission_date = :admission_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student profile.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM students WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// CountByClass returns the number of students enrolled in a class.
func (r *StudentRepository) CountByClass(ctx context.Context, classID string) (int, error) {
	const query = `SELECT COUNT(*) FROM students WHERE class_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID); err != nil {
		return 0, fmt.Errorf("count class students: %w", err)
	}
	return count, nil
}

// CountBySection returns the number of students in a section.
func (r *StudentRepository) CountBySection(ctx context.Context, sectionID string) (int, error) {
	const query = `SELECT COUNT(*) FROM students WHERE section_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, sectionID); err != nil {
		return 0, fmt.Errorf("count section students: %w", err)
	}
	return count, nil
}
