package models

import (
	"time"

	"github.com/lib/pq"
)

// Announcement is an institute-wide notice, visible to every role in the
// institute until its optional expiry.
type Announcement struct {
	ID          string         `db:"id" json:"id"`
	InstituteID string         `db:"institute_id" json:"institute_id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	ImageURL    *string        `db:"image_url" json:"image_url,omitempty"`
	Tags        pq.StringArray `db:"tags" json:"tags"`
	ExpiryDate  *time.Time     `db:"expiry_date" json:"expiry_date,omitempty"`
	CreatedBy   string         `db:"created_by" json:"created_by"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// CreateAnnouncementRequest creates an announcement.
type CreateAnnouncementRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description" validate:"required"`
	ImageURL    *string    `json:"image_url,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
}

// UpdateAnnouncementRequest partially updates an announcement.
type UpdateAnnouncementRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
}
