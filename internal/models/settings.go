package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// InstituteType enumerates supported institute categories.
type InstituteType string

const (
	InstituteSchool     InstituteType = "school"
	InstituteCollege    InstituteType = "college"
	InstituteUniversity InstituteType = "university"
)

// PortalAccess gates one portal of an institute.
type PortalAccess struct {
	Enabled  bool     `json:"enabled"`
	Features []string `json:"features"`
}

// PortalPermissions holds the per-portal access flags, persisted as JSONB.
type PortalPermissions struct {
	AdminPortal   PortalAccess `json:"admin_portal"`
	TeacherPortal PortalAccess `json:"teacher_portal"`
	StudentPortal PortalAccess `json:"student_portal"`
}

// Value marshals permissions to JSON for persistence.
func (p PortalPermissions) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan unmarshals JSON payloads into the permissions struct.
func (p *PortalPermissions) Scan(value interface{}) error {
	if value == nil {
		*p = PortalPermissions{}
		return nil
	}
	raw, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unexpected portal permissions type %T", value)
	}
	return json.Unmarshal(raw, p)
}

// ForRole returns the access block gating the given role. Admins are never
// gated at login, but the block is still reported in settings responses.
func (p PortalPermissions) ForRole(role UserRole) PortalAccess {
	switch role {
	case RoleTeacher:
		return p.TeacherPortal
	case RoleStudent:
		return p.StudentPortal
	default:
		return p.AdminPortal
	}
}

// PortalSettings is the per-institute configuration row, created with
// defaults on first access.
type PortalSettings struct {
	ID             string            `db:"id" json:"id"`
	InstituteID    string            `db:"institute_id" json:"institute_id"`
	InstituteName  string            `db:"institute_name" json:"institute_name"`
	InstituteType  InstituteType     `db:"institute_type" json:"institute_type"`
	PrimaryColor   string            `db:"primary_color" json:"primary_color"`
	SecondaryColor string            `db:"secondary_color" json:"secondary_color"`
	LogoURL        string            `db:"logo_url" json:"logo_url"`
	Address        string            `db:"address" json:"address"`
	ContactEmail   string            `db:"contact_email" json:"contact_email"`
	ContactPhone   string            `db:"contact_phone" json:"contact_phone"`
	Permissions    PortalPermissions `db:"portal_permissions" json:"portal_permissions"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// DefaultPortalSettings returns the row created on first access.
func DefaultPortalSettings(instituteID string) PortalSettings {
	return PortalSettings{
		InstituteID:    instituteID,
		InstituteName:  "My Institute",
		InstituteType:  InstituteSchool,
		PrimaryColor:   "#1890ff",
		SecondaryColor: "#13c2c2",
		Permissions: PortalPermissions{
			AdminPortal:   PortalAccess{Enabled: true, Features: []string{}},
			TeacherPortal: PortalAccess{Enabled: false, Features: []string{}},
			StudentPortal: PortalAccess{Enabled: false, Features: []string{}},
		},
	}
}

// UpdateSettingsRequest partially updates institute settings.
type UpdateSettingsRequest struct {
	InstituteName  *string            `json:"institute_name,omitempty"`
	InstituteType  *InstituteType     `json:"institute_type,omitempty" validate:"omitempty,oneof=school college university"`
	PrimaryColor   *string            `json:"primary_color,omitempty"`
	SecondaryColor *string            `json:"secondary_color,omitempty"`
	LogoURL        *string            `json:"logo_url,omitempty"`
	Address        *string            `json:"address,omitempty"`
	ContactEmail   *string            `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone   *string            `json:"contact_phone,omitempty"`
	Permissions    *PortalPermissions `json:"portal_permissions,omitempty"`
}
