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

// AnnouncementRepository manages persistence for announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository constructs an AnnouncementRepository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

const announcementColumns = `id, institute_id, title, description, image_url, tags, expiry_date, created_by, created_at, updated_at`

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	const query = `INSERT INTO announcements (id, institute_id, title, description, image_url, tags, expiry_date, created_by, created_at, updated_at)
        VALUES (:id, :institute_id, :title, :description, :image_url, :tags, :expiry_date, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// FindByID fetches an announcement scoped to an institute.
func (r *AnnouncementRepository) FindByID(ctx context.Context, id, instituteID string) (*models.Announcement, error) {
	const query = `SELECT ` + announcementColumns + ` FROM announcements WHERE id = $1 AND institute_id = $2`
	var a models.Announcement
	if err := r.db.GetContext(ctx, &a, query, id, instituteID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find announcement: %w", err)
	}
	return &a, nil
}

// ListByInstitute returns announcements of an institute, newest first.
func (r *AnnouncementRepository) ListByInstitute(ctx context.Context, instituteID string) ([]models.Announcement, error) {
	const query = `SELECT ` + announcementColumns + ` FROM announcements WHERE institute_id = $1 ORDER BY created_at DESC`
	var list []models.Announcement
	if err := r.db.SelectContext(ctx, &list, query, instituteID); err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return list, nil
}

// Update modifies an existing announcement.
func (r *AnnouncementRepository) Update(ctx context.Context, a *models.Announcement) error {
	a.UpdatedAt = time.Now().UTC()
	const query = `UPDATE announcements SET title = :title, description = :description, image_url = :image_url, tags = :tags, expiry_date = :expiry_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	return nil
}

// Delete removes an announcement.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM announcements WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	return nil
}
