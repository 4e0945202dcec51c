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

// TeacherRepository manages persistence for teacher role profiles.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

const teacherDetailColumns = `t.id, t.user_id, t.institute_id, t.department, t.gender, t.degree, t.address, t.status, t.joining_date, t.created_at, t.updated_at,
        u.email, u.username, u.first_name, u.last_name, u.phone`

// Create inserts a new teacher profile.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	if teacher.Status == "" {
		teacher.Status = "active"
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now
	const query = `INSERT INTO teachers (id, user_id, institute_id, department, gender, degree, address, status, joining_date, created_at, updated_at)
        VALUES (:id, :user_id, :institute_id, :department, :gender, :degree, :address, :status, :joining_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// FindByID fetches a teacher detail scoped to an institute.
func (r *TeacherRepository) FindByID(ctx context.Context, id, instituteID string) (*models.TeacherDetail, error) {
	query := `SELECT ` + teacherDetailColumns + `
        FROM teachers t
        JOIN users u ON u.id = t.user_id
        WHERE t.id = $1 AND t.institute_id = $2`
	var detail models.TeacherDetail
	if err := r.db.GetContext(ctx, &detail, query, id, instituteID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher: %w", err)
	}
	return &detail, nil
}

// FindByUserID fetches the profile owned by a user account.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	const query = `SELECT id, user_id, institute_id, department, gender, degree, address, status, joining_date, created_at, updated_at FROM teachers WHERE user_id = $1 LIMIT 1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher by user: %w", err)
	}
	return &teacher, nil
}

// Get fetches a bare profile without tenant scoping.
func (r *TeacherRepository) Get(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, user_id, institute_id, department, gender, degree, address, status, joining_date, created_at, updated_at FROM teachers WHERE id = $1 LIMIT 1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	return &teacher, nil
}

// List returns teachers of an institute matching the provided filters.
func (r *TeacherRepository) List(ctx context.Context, instituteID string, filter models.TeacherFilter) ([]models.TeacherDetail, int, error) {
	base := "FROM teachers t JOIN users u ON u.id = t.user_id"
	args := []interface{}{instituteID}
	conditions := []string{"t.institute_id = $1"}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("t.department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", len(args)+1))
		args = append(args, filter.Status)
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

	query := fmt.Sprintf(`SELECT `+teacherDetailColumns+` %s ORDER BY t.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var teachers []models.TeacherDetail
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// Update modifies an existing profile.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET department = :department, gender = :gender, degree = :degree, address = :address, status = :status, joining_date = :joining_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// Delete removes a teacher profile.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM teachers WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	return nil
}
