package models

import "time"

// Section is a named division of a class. Names are free-form and unique per
// class within an institute.
type Section struct {
	ID          string    `db:"id" json:"id"`
	InstituteID string    `db:"institute_id" json:"institute_id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Capacity    int       `db:"capacity" json:"capacity"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CreateSectionRequest creates a new section under a class.
type CreateSectionRequest struct {
	ClassID     string `json:"class_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity" validate:"gte=0"`
}

// UpdateSectionRequest partially updates a section.
type UpdateSectionRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Capacity    *int    `json:"capacity,omitempty" validate:"omitempty,gte=0"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

// SectionStats aggregates headcounts and capacity use for a section.
type SectionStats struct {
	SectionID    string  `db:"section_id" json:"section_id"`
	SectionName  string  `db:"section_name" json:"section_name"`
	StudentCount int     `db:"student_count" json:"student_count"`
	MaleCount    int     `db:"male_count" json:"male_count"`
	FemaleCount  int     `db:"female_count" json:"female_count"`
	Capacity     int     `db:"capacity" json:"capacity"`
	Utilization  float64 `json:"utilization"`
}
