package models

import "time"

// Class represents a grade level within an institute (Playgroup, Prep, 1-10
// for schools). Class names are unique per institute.
type Class struct {
	ID          string    `db:"id" json:"id"`
	InstituteID string    `db:"institute_id" json:"institute_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CreateClassRequest creates a new class.
type CreateClassRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// UpdateClassRequest partially updates a class.
type UpdateClassRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

// ClassStats aggregates headcounts for a class.
type ClassStats struct {
	ClassID      string         `json:"class_id"`
	ClassName    string         `json:"class_name"`
	SectionCount int            `json:"section_count"`
	StudentCount int            `json:"student_count"`
	Sections     []SectionStats `json:"sections"`
}
