package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued session token, user info, and the
// institute's portal settings. Settings is null when the institute has not
// saved a settings row yet.
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      UserInfo        `json:"user"`
	Settings  *PortalSettings `json:"settings"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Username  string   `json:"username"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Role      UserRole `json:"role"`
}

// RegisterRequest creates a user. Admin registration is open; student and
// teacher registration must be performed by an authenticated admin and
// carries the nested role profile payload.
type RegisterRequest struct {
	Email     string   `json:"email" validate:"required,email"`
	Username  string   `json:"username" validate:"required"`
	Password  string   `json:"password" validate:"required,min=6"`
	FirstName string   `json:"first_name" validate:"required"`
	LastName  string   `json:"last_name"`
	Phone     string   `json:"phone"`
	Role      UserRole `json:"role" validate:"required,oneof=admin teacher student"`

	StudentData *StudentData `json:"student_data,omitempty"`
	TeacherData *TeacherData `json:"teacher_data,omitempty"`
}

// StudentData is the student profile portion of a registration request.
type StudentData struct {
	ClassID       string     `json:"class_id" validate:"required"`
	SectionID     string     `json:"section_id" validate:"required"`
	Gender        string     `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	AdmissionDate *time.Time `json:"admission_date,omitempty"`
}

// TeacherData is the teacher profile portion of a registration request.
type TeacherData struct {
	Department  string     `json:"department" validate:"required"`
	Gender      string     `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	Degree      string     `json:"degree" validate:"omitempty,oneof=Bachelors Masters PhD"`
	Address     string     `json:"address"`
	JoiningDate *time.Time `json:"joining_date,omitempty"`
}

// ChangePasswordRequest updates a user's password by email.
type ChangePasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// SessionClaims is the JWT payload for session tokens.
type SessionClaims struct {
	Email     string   `json:"email"`
	UserID    string   `json:"user_id"`
	SessionID string   `json:"session_id"`
	Role      UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor is the resolved identity attached to a request. ID is the operative
// actor id: the role profile id for teachers and students, the user id for
// admins.
type Actor struct {
	ID        string
	UserID    string
	Email     string
	SessionID string
	Role      UserRole
}

// Session represents a persisted login session.
type Session struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	AccessToken string    `db:"access_token" json:"-"`
	ExpiresAt   time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Expired reports whether the session is past its expiry.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
