package models

import "time"

// Submission is an assignment window opened by a teacher on a lecture slot.
// Students may upload exactly one file while the window is open.
type Submission struct {
	ID          string    `db:"id" json:"id"`
	ScheduleID  string    `db:"schedule_id" json:"schedule_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Open reports whether the submission window covers the given instant.
func (s Submission) Open(now time.Time) bool {
	return !now.Before(s.StartDate) && !now.After(s.EndDate)
}

// CreateSubmissionRequest opens a submission window.
type CreateSubmissionRequest struct {
	ScheduleID  string    `json:"schedule_id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

// SubmissionUpload is a student's file for a submission. One row per student
// per submission; re-uploading replaces the previous file.
type SubmissionUpload struct {
	ID           string    `db:"id" json:"id"`
	SubmissionID string    `db:"submission_id" json:"submission_id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	OriginalName string    `db:"original_name" json:"original_name"`
	StoredName   string    `db:"stored_name" json:"stored_name"`
	MimeType     string    `db:"mime_type" json:"mime_type"`
	SizeBytes    int64     `db:"size_bytes" json:"size_bytes"`
	UploadedAt   time.Time `db:"uploaded_at" json:"uploaded_at"`
}
