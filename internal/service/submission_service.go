package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusgate/campusgate-api/internal/models"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
)

type submissionRepository interface {
	Create(ctx context.Context, sub *models.Submission) error
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	ListByCreator(ctx context.Context, teacherID string) ([]models.Submission, error)
	ListActiveForSection(ctx context.Context, sectionID string, now time.Time) ([]models.Submission, error)
	UpsertUpload(ctx context.Context, u *models.SubmissionUpload) error
	FindUpload(ctx context.Context, submissionID, studentID string) (*models.SubmissionUpload, error)
	ListUploads(ctx context.Context, submissionID string) ([]models.SubmissionUpload, error)
}

type submissionStudentRepository interface {
	Get(ctx context.Context, id string) (*models.Student, error)
}

// SubmissionService manages assignment windows and student uploads. A window
// belongs to one lecture slot; students of that slot's section may upload one
// file each while the window is open.
type SubmissionService struct {
	repo      submissionRepository
	schedules materialScheduleRepository
	students  submissionStudentRepository
	files     fileStore
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSubmissionService constructs SubmissionService.
func NewSubmissionService(repo submissionRepository, schedules materialScheduleRepository, students submissionStudentRepository, files fileStore, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		repo:      repo,
		schedules: schedules,
		students:  students,
		files:     files,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create opens a submission window on a lecture slot taught by the teacher.
func (s *SubmissionService) Create(ctx context.Context, teacherID string, req models.CreateSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	schedule, err := s.schedules.FindByID(ctx, req.ScheduleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if schedule.InstructorID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the instructor can open submissions for this class")
	}

	sub := &models.Submission{
		ScheduleID:  req.ScheduleID,
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedBy:   teacherID,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}
	return sub, nil
}

// ListByTeacher returns the submission windows a teacher opened.
func (s *SubmissionService) ListByTeacher(ctx context.Context, teacherID string) ([]models.Submission, error) {
	list, err := s.repo.ListByCreator(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return list, nil
}

// ListActiveForStudent returns open windows on the student's section.
func (s *SubmissionService) ListActiveForStudent(ctx context.Context, studentID string) ([]models.Submission, error) {
	student, err := s.students.Get(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	list, err := s.repo.ListActiveForSection(ctx, student.SectionID, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active submissions")
	}
	return list, nil
}

// Upload stores a student's file for a submission. Re-uploading while the
// window is still open replaces the previous file.
func (s *SubmissionService) Upload(ctx context.Context, submissionID, studentID string, in UploadInput) (*models.SubmissionUpload, error) {
	if in.OriginalName == "" || in.Reader == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}

	sub, err := s.get(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if !sub.Open(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Submission window is closed")
	}

	student, err := s.students.Get(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	schedule, err := s.schedules.FindByID(ctx, sub.ScheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if schedule.SectionID != student.SectionID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "submission belongs to another section")
	}

	previous, err := s.repo.FindUpload(ctx, submissionID, studentID)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load previous upload")
	}

	storedName := filepath.Join("submissions", submissionID, studentID+filepath.Ext(in.OriginalName))
	if _, err := s.files.SaveStream(storedName, in.Reader); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store submission file")
	}

	upload := &models.SubmissionUpload{
		ID:           uuid.NewString(),
		SubmissionID: submissionID,
		StudentID:    studentID,
		OriginalName: in.OriginalName,
		StoredName:   storedName,
		MimeType:     in.MimeType,
		SizeBytes:    in.SizeBytes,
	}
	if err := s.repo.UpsertUpload(ctx, upload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save upload")
	}

	if previous != nil && previous.StoredName != storedName {
		if err := s.files.Delete(previous.StoredName); err != nil {
			s.logger.Warn("failed to remove replaced upload", zap.String("stored_name", previous.StoredName), zap.Error(err))
		}
	}
	return upload, nil
}

// MyUpload returns the student's own upload for a submission.
func (s *SubmissionService) MyUpload(ctx context.Context, submissionID, studentID string) (*models.SubmissionUpload, error) {
	if _, err := s.get(ctx, submissionID); err != nil {
		return nil, err
	}
	upload, err := s.repo.FindUpload(ctx, submissionID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no upload found for this submission")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load upload")
	}
	return upload, nil
}

// ListUploads returns the uploads of a submission the teacher opened.
func (s *SubmissionService) ListUploads(ctx context.Context, submissionID, teacherID string) ([]models.SubmissionUpload, error) {
	sub, err := s.get(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.CreatedBy != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the submission owner can view uploads")
	}
	list, err := s.repo.ListUploads(ctx, submissionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list uploads")
	}
	return list, nil
}

func (s *SubmissionService) get(ctx context.Context, id string) (*models.Submission, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return sub, nil
}
