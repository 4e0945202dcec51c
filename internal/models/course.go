package models

import "time"

// Course is an institute-scoped course. Course codes are unique per institute.
type Course struct {
	ID           string    `db:"id" json:"id"`
	InstituteID  string    `db:"institute_id" json:"institute_id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	InstructorID *string   `db:"instructor_id" json:"instructor_id,omitempty"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CreateCourseRequest creates a new course.
type CreateCourseRequest struct {
	Code         string  `json:"code" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	Description  string  `json:"description"`
	InstructorID *string `json:"instructor_id,omitempty"`
}

// UpdateCourseRequest partially updates a course.
type UpdateCourseRequest struct {
	Code         *string `json:"code,omitempty"`
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	InstructorID *string `json:"instructor_id,omitempty"`
	Status       *string `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}
