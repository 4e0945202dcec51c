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

// SettingsRepository manages persistence for portal settings.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs a SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

const settingsColumns = `id, institute_id, institute_name, institute_type, primary_color, secondary_color, logo_url, address, contact_email, contact_phone, portal_permissions, created_at, updated_at`

// FindByInstitute returns the settings row for an institute.
func (r *SettingsRepository) FindByInstitute(ctx context.Context, instituteID string) (*models.PortalSettings, error) {
	const query = `SELECT ` + settingsColumns + ` FROM portal_settings WHERE institute_id = $1 LIMIT 1`
	var settings models.PortalSettings
	if err := r.db.GetContext(ctx, &settings, query, instituteID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find settings: %w", err)
	}
	return &settings, nil
}

// Create inserts a settings row.
func (r *SettingsRepository) Create(ctx context.Context, settings *models.PortalSettings) error {
	if settings.ID == "" {
		settings.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = now
	}
	settings.UpdatedAt = now
	const query = `INSERT INTO portal_settings (id, institute_id, institute_name, institute_type, primary_color, secondary_color, logo_url, address, contact_email, contact_phone, portal_permissions, created_at, updated_at)
        VALUES (:id, :institute_id, :institute_name, :institute_type, :primary_color, :secondary_color, :logo_url, :address, :contact_email, :contact_phone, :portal_permissions, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("create settings: %w", err)
	}
	return nil
}

// Update persists settings changes.
func (r *SettingsRepository) Update(ctx context.Context, settings *models.PortalSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	const query = `UPDATE portal_settings SET institute_name = :institute_name, institute_type = :institute_type, primary_color = :primary_color, secondary_color = :secondary_color, logo_url = :logo_url, address = :address, contact_email = :contact_email, contact_phone = :contact_phone, portal_permissions = :portal_permissions, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}
