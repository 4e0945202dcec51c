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

// MaterialRepository manages persistence for course material metadata.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository constructs a MaterialRepository.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

const materialColumns = `id, schedule_id, original_name, stored_name, mime_type, size_bytes, uploaded_by, created_at`

// Create inserts a new material record.
func (r *MaterialRepository) Create(ctx context.Context, m *models.CourseMaterial) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO course_materials (id, schedule_id, original_name, stored_name, mime_type, size_bytes, uploaded_by, created_at)
        VALUES (:id, :schedule_id, :original_name, :stored_name, :mime_type, :size_bytes, :uploaded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// FindByID fetches a material record.
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*models.CourseMaterial, error) {
	const query = `SELECT ` + materialColumns + ` FROM course_materials WHERE id = $1`
	var m models.CourseMaterial
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find material: %w", err)
	}
	return &m, nil
}

// ListBySchedule returns materials of one lecture slot, newest first.
func (r *MaterialRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.CourseMaterial, error) {
	const query = `SELECT ` + materialColumns + ` FROM course_materials WHERE schedule_id = $1 ORDER BY created_at DESC`
	var list []models.CourseMaterial
	if err := r.db.SelectContext(ctx, &list, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return list, nil
}

// Delete removes a material record.
func (r *MaterialRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM course_materials WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return nil
}
