package models

import "time"

// AttendanceStatus enumerates per-student attendance outcomes.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

// AttendanceSlot records one marked lecture occurrence. A slot is unique per
// schedule, date, and time slot label; re-marking replaces the statuses.
type AttendanceSlot struct {
	ID         string    `db:"id" json:"id"`
	ScheduleID string    `db:"schedule_id" json:"schedule_id"`
	Date       string    `db:"date" json:"date"` // YYYY-MM-DD
	Slot       string    `db:"slot" json:"slot"` // e.g. "08:00-09:00"
	MarkedBy   string    `db:"marked_by" json:"marked_by"`
	MarkedAt   time.Time `db:"marked_at" json:"marked_at"`

	Statuses []StudentStatus `json:"statuses"`
}

// StudentStatus is one student's outcome within a slot.
type StudentStatus struct {
	SlotID    string           `db:"slot_id" json:"-"`
	StudentID string           `db:"student_id" json:"student_id"`
	Status    AttendanceStatus `db:"status" json:"status"`
}

// MarkAttendanceRequest upserts attendance for one lecture occurrence.
type MarkAttendanceRequest struct {
	Date     string               `json:"date" validate:"required,datetime=2006-01-02"`
	Slot     string               `json:"slot" validate:"required"`
	Statuses []StudentStatusInput `json:"statuses" validate:"required,min=1,dive"`
}

// StudentStatusInput is one entry of a mark request.
type StudentStatusInput struct {
	StudentID string           `json:"student_id" validate:"required"`
	Status    AttendanceStatus `json:"status" validate:"required,oneof=present absent late"`
}

// ExportFormat enumerates attendance export output formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus captures export job lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "queued"
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusFinished   ExportStatus = "finished"
	ExportStatusFailed     ExportStatus = "failed"
)

// AttendanceExport is a persisted export job for a schedule's attendance.
// The result is fetched through a signed download URL once finished.
type AttendanceExport struct {
	ID           string       `db:"id" json:"id"`
	ScheduleID   string       `db:"schedule_id" json:"schedule_id"`
	Format       ExportFormat `db:"format" json:"format"`
	Status       ExportStatus `db:"status" json:"status"`
	FilePath     *string      `db:"file_path" json:"-"`
	DownloadURL  *string      `db:"-" json:"download_url,omitempty"`
	ErrorMessage *string      `db:"error_message" json:"error_message,omitempty"`
	RequestedBy  string       `db:"requested_by" json:"requested_by"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time   `db:"finished_at" json:"finished_at,omitempty"`
}

// CreateExportRequest queues an attendance export.
type CreateExportRequest struct {
	Format ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}
