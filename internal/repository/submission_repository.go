package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusgate/campusgate-api/internal/models"
)

// SubmissionRepository manages persistence for submissions and uploads.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `id, schedule_id, title, description, start_date, end_date, created_by, created_at`

// Create inserts a new submission window.
func (r *SubmissionRepository) Create(ctx context.Context, s *models.Submission) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO submissions (id, schedule_id, title, description, start_date, end_date, created_by, created_at)
        VALUES (:id, :schedule_id, :title, :description, :start_date, :end_date, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// FindByID fetches a submission.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	const query = `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	var s models.Submission
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return &s, nil
}

// ListByCreator returns submissions opened by one teacher, newest first.
func (r *SubmissionRepository) ListByCreator(ctx context.Context, teacherID string) ([]models.Submission, error) {
	const query = `SELECT ` + submissionColumns + ` FROM submissions WHERE created_by = $1 ORDER BY created_at DESC`
	var list []models.Submission
	if err := r.db.SelectContext(ctx, &list, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher submissions: %w", err)
	}
	return list, nil
}

// ListActiveForSection returns submissions whose window covers now for
// schedules of the given section.
func (r *SubmissionRepository) ListActiveForSection(ctx context.Context, sectionID string, now time.Time) ([]models.Submission, error) {
	const query = `SELECT s.id, s.schedule_id, s.title, s.description, s.start_date, s.end_date, s.created_by, s.created_at
        FROM submissions s
        JOIN course_schedules cs ON cs.id = s.schedule_id
        WHERE cs.section_id = $1 AND s.start_date <= $2 AND s.end_date >= $2
        ORDER BY s.end_date ASC`
	var list []models.Submission
	if err := r.db.SelectContext(ctx, &list, query, sectionID, now); err != nil {
		return nil, fmt.Errorf("list active submissions: %w", err)
	}
	return list, nil
}

const uploadColumns = `id, submission_id, student_id, original_name, stored_name, mime_type, size_bytes, uploaded_at`

// UpsertUpload stores a student's file, replacing any previous upload for the
// same submission.
func (r *SubmissionRepository) UpsertUpload(ctx context.Context, u *models.SubmissionUpload) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.UploadedAt = time.Now().UTC()
	const query = `INSERT INTO submission_uploads (id, submission_id, student_id, original_name, stored_name, mime_type, size_bytes, uploaded_at)
        VALUES (:id, :submission_id, :student_id, :original_name, :stored_name, :mime_type, :size_bytes, :uploaded_at)
        ON CONFLICT (submission_id, student_id) DO UPDATE SET
        original_name = EXCLUDED.original_name, stored_name = EXCLUDED.stored_name,
        mime_type = EXCLUDED.mime_type, size_bytes = EXCLUDED.size_bytes, uploaded_at = EXCLUDED.uploaded_at`
	if _, err := r.db.NamedExecContext(ctx, query, u); err != nil {
		return fmt.Errorf("upsert upload: %w", err)
	}
	return nil
}

// FindUpload returns one student's upload for a submission.
func (r *SubmissionRepository) FindUpload(ctx context.Context, submissionID, studentID string) (*models.SubmissionUpload, error) {
	const query = `SELECT ` + uploadColumns + ` FROM submission_uploads WHERE submission_id = $1 AND student_id = $2`
	var u models.SubmissionUpload
	if err := r.db.GetContext(ctx, &u, query, submissionID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find upload: %w", err)
	}
	return &u, nil
}

// ListUploads returns all uploads for a submission.
func (r *SubmissionRepository) ListUploads(ctx context.Context, submissionID string) ([]models.SubmissionUpload, error) {
	const query = `SELECT ` + uploadColumns + ` FROM submission_uploads WHERE submission_id = $1 ORDER BY uploaded_at DESC`
	var list []models.SubmissionUpload
	if err := r.db.SelectContext(ctx, &list, query, submissionID); err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return list, nil
}
