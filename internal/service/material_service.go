package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusgate/campusgate-api/internal/models"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
)

type materialRepository interface {
	Create(ctx context.Context, m *models.CourseMaterial) error
	FindByID(ctx context.Context, id string) (*models.CourseMaterial, error)
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.CourseMaterial, error)
	Delete(ctx context.Context, id string) error
}

type materialScheduleRepository interface {
	FindByID(ctx context.Context, id string) (*models.CourseSchedule, error)
}

type fileStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

// UploadInput carries an incoming multipart file.
type UploadInput struct {
	OriginalName string
	MimeType     string
	SizeBytes    int64
	Reader       io.Reader
}

// MaterialService stores lecture material files on disk and their metadata in
// the database. Only the instructor of a lecture slot may add or remove files.
type MaterialService struct {
	repo      materialRepository
	schedules materialScheduleRepository
	files     fileStore
	logger    *zap.Logger
}

// NewMaterialService constructs MaterialService.
func NewMaterialService(repo materialRepository, schedules materialScheduleRepository, files fileStore, logger *zap.Logger) *MaterialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaterialService{repo: repo, schedules: schedules, files: files, logger: logger}
}

// Upload stores a file for a lecture slot taught by the actor.
func (s *MaterialService) Upload(ctx context.Context, scheduleID string, actor models.Actor, in UploadInput) (*models.CourseMaterial, error) {
	if in.OriginalName == "" || in.Reader == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}

	schedule, err := s.loadSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleTeacher && schedule.InstructorID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the instructor can manage materials for this class")
	}

	storedName := filepath.Join("materials", scheduleID, uuid.NewString()+filepath.Ext(in.OriginalName))
	if _, err := s.files.SaveStream(storedName, in.Reader); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store material file")
	}

	m := &models.CourseMaterial{
		ScheduleID:   scheduleID,
		OriginalName: in.OriginalName,
		StoredName:   storedName,
		MimeType:     in.MimeType,
		SizeBytes:    in.SizeBytes,
		UploadedBy:   actor.ID,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		if cleanupErr := s.files.Delete(storedName); cleanupErr != nil {
			s.logger.Warn("orphaned material file left on disk", zap.String("stored_name", storedName), zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create material")
	}
	return m, nil
}

// List returns material metadata of one lecture slot.
func (s *MaterialService) List(ctx context.Context, scheduleID string) ([]models.CourseMaterial, error) {
	if _, err := s.loadSchedule(ctx, scheduleID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}
	return list, nil
}

// Download returns the material metadata and an open file handle. The caller
// owns closing the handle.
func (s *MaterialService) Download(ctx context.Context, id string) (*models.CourseMaterial, *os.File, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	file, err := s.files.Open(m.StoredName)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to open material %s", id))
	}
	return m, file, nil
}

// Delete removes a material record and its file.
func (s *MaterialService) Delete(ctx context.Context, id string, actor models.Actor) error {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if actor.Role == models.RoleTeacher && m.UploadedBy != actor.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the uploader can delete this material")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material")
	}
	if err := s.files.Delete(m.StoredName); err != nil {
		s.logger.Warn("failed to remove material file", zap.String("stored_name", m.StoredName), zap.Error(err))
	}
	return nil
}

func (s *MaterialService) loadSchedule(ctx context.Context, scheduleID string) (*models.CourseSchedule, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}
