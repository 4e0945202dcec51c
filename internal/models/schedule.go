package models

import (
	"time"

	"github.com/lib/pq"
)

// Weekday names accepted in schedule daysOfWeek payloads.
var ScheduleDays = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// CourseSchedule is a recurring lecture slot for a course, taught by one
// instructor to one section. Times use the HH:MM 24h format; duration is
// derived from the start and end times.
type CourseSchedule struct {
	ID              string         `db:"id" json:"id"`
	CourseID        string         `db:"course_id" json:"course_id"`
	InstructorID    string         `db:"instructor_id" json:"instructor_id"`
	SectionID       string         `db:"section_id" json:"section_id"`
	StartTime       string         `db:"start_time" json:"start_time"`
	EndTime         string         `db:"end_time" json:"end_time"`
	DurationMinutes int            `db:"duration_minutes" json:"duration_minutes"`
	DaysOfWeek      pq.StringArray `db:"days_of_week" json:"days_of_week"`
	Status          string         `db:"status" json:"status"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// HasDay reports whether the schedule meets on the given weekday name.
func (s CourseSchedule) HasDay(day string) bool {
	for _, d := range s.DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}

// CreateScheduleRequest creates a lecture slot under a course.
type CreateScheduleRequest struct {
	InstructorID string   `json:"instructor_id" validate:"required"`
	SectionID    string   `json:"section_id" validate:"required"`
	StartTime    string   `json:"start_time" validate:"required,datetime=15:04"`
	EndTime      string   `json:"end_time" validate:"required,datetime=15:04"`
	DaysOfWeek   []string `json:"days_of_week" validate:"required,min=1,dive,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
}

// ScheduleDetail joins the slot with course and section display fields.
type ScheduleDetail struct {
	CourseSchedule
	CourseCode  string `db:"course_code" json:"course_code"`
	CourseName  string `db:"course_name" json:"course_name"`
	SectionName string `db:"section_name" json:"section_name"`
}
