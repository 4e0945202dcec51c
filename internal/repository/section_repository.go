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

// SectionRepository manages persistence for class sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs a SectionRepository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// Create inserts a new section.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	if section.Status == "" {
		section.Status = "active"
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = now
	const query = `INSERT INTO sections (id, institute_id, class_id, name, description, capacity, status, created_at, updated_at)
        VALUES (:id, :institute_id, :class_id, :name, :description, :capacity, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// FindByID fetches a section scoped to an institute.
func (r *SectionRepository) FindByID(ctx context.Context, id, instituteID string) (*models.Section, error) {
	const query = `SELECT id, institute_id, class_id, name, description, capacity, status, created_at, updated_at FROM sections WHERE id = $1 AND institute_id = $2`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id, instituteID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find section: %w", err)
	}
	return &section, nil
}

// List returns sections of an institute, optionally filtered by class.
func (r *SectionRepository) List(ctx context.Context, instituteID, classID string) ([]models.Section, error) {
	query := `SELECT id, institute_id, class_id, name, description, capacity, status, created_at, updated_at FROM sections WHERE institute_id = $1`
	args := []interface{}{instituteID}
	if classID != "" {
		query += " AND class_id = $2"
		args = append(args, classID)
	}
	query += " ORDER BY name ASC"
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// ExistsByName checks whether a section name is taken within a class,
// optionally excluding one id.
func (r *SectionRepository) ExistsByName(ctx context.Context, instituteID, classID, name, excludeID string) (bool, error) {
	query := `SELECT 1 FROM sections WHERE institute_id = $1 AND class_id = $2 AND LOWER(name) = LOWER($3)`
	args := []interface{}{instituteID, classID, name}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check section name: %w", err)
	}
	return true, nil
}

// Update modifies an existing section.
func (r *SectionRepository) Update(ctx context.Context, section *models.Section) error {
	section.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sections SET name = :name, description = :description, capacity = :capacity, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	return nil
}

// Delete removes a section.
func (r *SectionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM sections WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}

// Stats aggregates headcounts per section of a class.
func (r *SectionRepository) Stats(ctx context.Context, classID string) ([]models.SectionStats, error) {
	const query = `SELECT sec.id AS section_id, sec.name AS section_name, sec.capacity,
        COUNT(s.id) AS student_count,
        COUNT(s.id) FILTER (WHERE s.gender = 'Male') AS male_count,
        COUNT(s.id) FILTER (WHERE s.gender = 'Female') AS female_count
        FROM sections sec
        LEFT JOIN students s ON s.section_id = sec.id
        WHERE sec.class_id = $1
        GROUP BY sec.id, sec.name, sec.capacity
        ORDER BY sec.name ASC`
	var stats []models.SectionStats
	if err := r.db.SelectContext(ctx, &stats, query, classID); err != nil {
		return nil, fmt.Errorf("section stats: %w", err)
	}
	return stats, nil
}
