package models

import "time"

// LeaveStatus enumerates leave request lifecycle states.
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveAccepted LeaveStatus = "accepted"
	LeaveRejected LeaveStatus = "rejected"
)

// LeaveRequest is a student's request to skip one lecture day in the current
// ISO week. Requests are unique per student, schedule, day, and week start.
type LeaveRequest struct {
	ID           string      `db:"id" json:"id"`
	StudentID    string      `db:"student_id" json:"student_id"`
	ScheduleID   string      `db:"schedule_id" json:"schedule_id"`
	RequestedDay string      `db:"requested_day" json:"requested_day"`
	Reason       string      `db:"reason" json:"reason"`
	Status       LeaveStatus `db:"status" json:"status"`
	WeekStart    time.Time   `db:"week_start" json:"week_start"`
	WeekEnd      time.Time   `db:"week_end" json:"week_end"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// LeaveDetail joins the request with course display fields.
type LeaveDetail struct {
	LeaveRequest
	CourseCode string `db:"course_code" json:"course_code"`
	CourseName string `db:"course_name" json:"course_name"`
	RollNo     int    `db:"roll_no" json:"roll_no"`
}

// CreateLeaveRequest files a leave request against a lecture slot.
type CreateLeaveRequest struct {
	ScheduleID   string `json:"schedule_id" validate:"required"`
	RequestedDay string `json:"requested_day" validate:"required,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	Reason       string `json:"reason" validate:"required"`
}

// UpdateLeaveStatusRequest accepts or rejects a pending leave request.
type UpdateLeaveStatusRequest struct {
	Status LeaveStatus `json:"status" validate:"required,oneof=accepted rejected"`
}
