package models

import "time"

// CourseMaterial is a file a teacher shared with a lecture slot.
type CourseMaterial struct {
	ID           string    `db:"id" json:"id"`
	ScheduleID   string    `db:"schedule_id" json:"schedule_id"`
	OriginalName string    `db:"original_name" json:"original_name"`
	StoredName   string    `db:"stored_name" json:"stored_name"`
	MimeType     string    `db:"mime_type" json:"mime_type"`
	SizeBytes    int64     `db:"size_bytes" json:"size_bytes"`
	UploadedBy   string    `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
