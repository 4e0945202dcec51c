package models

import "time"

// Student is the role profile for users with the student role. RollNo is a
// per-institute sequential number assigned at creation.
type Student struct {
	ID            string     `db:"id" json:"id"`
	UserID        string     `db:"user_id" json:"user_id"`
	InstituteID   string     `db:"institute_id" json:"institute_id"`
	ClassID       string     `db:"class_id" json:"class_id"`
	SectionID     string     `db:"section_id" json:"section_id"`
	RollNo        int        `db:"roll_no" json:"roll_no"`
	Gender        string     `db:"gender" json:"gender"`
	AdmissionDate *time.Time `db:"admission_date" json:"admission_date,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentDetail joins the profile with the owning user account.
type StudentDetail struct {
	Student
	Email     string `db:"email" json:"email"`
	Username  string `db:"username" json:"username"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Phone     string `db:"phone" json:"phone"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	ClassID   string
	SectionID string
	Search    string
	Page      int
	PageSize  int
}

// UpdateStudentRequest is a partial update of profile and account fields.
type UpdateStudentRequest struct {
	FirstName     *string    `json:"first_name,omitempty"`
	LastName      *string    `json:"last_name,omitempty"`
	Phone         *string    `json:"phone,omitempty"`
	Gender        *string    `json:"gender,omitempty" validate:"omitempty,oneof=Male Female Other"`
	ClassID       *string    `json:"class_id,omitempty"`
	SectionID     *string    `json:"section_id,omitempty"`
	AdmissionDate *time.Time `json:"admission_date,omitempty"`
}
