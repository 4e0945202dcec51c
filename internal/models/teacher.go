package models

import "time"

// Teacher is the role profile for users with the teacher role.
type Teacher struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	InstituteID string     `db:"institute_id" json:"institute_id"`
	Department  string     `db:"department" json:"department"`
	Gender      string     `db:"gender" json:"gender"`
	Degree      string     `db:"degree" json:"degree"`
	Address     string     `db:"address" json:"address"`
	Status      string     `db:"status" json:"status"`
	JoiningDate *time.Time `db:"joining_date" json:"joining_date,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// TeacherDetail joins the profile with the owning user account.
type TeacherDetail struct {
	Teacher
	Email     string `db:"email" json:"email"`
	Username  string `db:"username" json:"username"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Phone     string `db:"phone" json:"phone"`
}

// TeacherFilter encapsulates search parameters for listing teachers.
type TeacherFilter struct {
	Department string
	Status     string
	Search     string
	Page       int
	PageSize   int
}

// UpdateTeacherRequest is a partial update of profile and account fields.
type UpdateTeacherRequest struct {
	FirstName   *string    `json:"first_name,omitempty"`
	LastName    *string    `json:"last_name,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Department  *string    `json:"department,omitempty"`
	Gender      *string    `json:"gender,omitempty" validate:"omitempty,oneof=Male Female Other"`
	Degree      *string    `json:"degree,omitempty" validate:"omitempty,oneof=Bachelors Masters PhD"`
	Address     *string    `json:"address,omitempty"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	JoiningDate *time.Time `json:"joining_date,omitempty"`
}
