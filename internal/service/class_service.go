package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusgate/campusgate-api/internal/models"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
)

type classRepository interface {
	Create(ctx context.Context, class *models.Class) error
	FindByID(ctx context.Context, id, instituteID string) (*models.Class, error)
	List(ctx context.Context, instituteID string) ([]models.Class, error)
	ExistsByName(ctx context.Context, instituteID, name, excludeID string) (bool, error)
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
}

type classSectionRepository interface {
	List(ctx context.Context, instituteID, classID string) ([]models.Section, error)
	Stats(ctx context.Context, classID string) ([]models.SectionStats, error)
}

type classStudentRepository interface {
	CountByClass(ctx context.Context, classID string) (int, error)
}

// ClassService coordinates class operations within one institute.
type ClassService struct {
	repo      classRepository
	sections  classSectionRepository
	students  classStudentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(repo classRepository, sections classSectionRepository, students classStudentRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, sections: sections, students: students, validator: validate, logger: logger}
}

// Create adds a new class. Names are unique per institute.
func (s *ClassService) Create(ctx context.Context, instituteID string, req models.CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	exists, err := s.repo.ExistsByName(ctx, instituteID, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "Class with this name already exists")
	}

	class := &models.Class{
		InstituteID: instituteID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "Class with this name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// List returns classes of the institute.
func (s *ClassService) List(ctx context.Context, instituteID string) ([]models.Class, error) {
	classes, err := s.repo.List(ctx, instituteID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// Get returns one class scoped to the institute.
func (s *ClassService) Get(ctx context.Context, id, instituteID string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id, instituteID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Update modifies a class. The duplicate check excludes the class itself.
func (s *ClassService) Update(ctx context.Context, id, instituteID string, req models.UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class, err := s.Get(ctx, id, instituteID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != class.Name {
		exists, err := s.repo.ExistsByName(ctx, instituteID, *req.Name, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class name")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "Class with this name already exists")
		}
		class.Name = *req.Name
	}
	if req.Description != nil {
		class.Description = *req.Description
	}
	if req.Status != nil {
		class.Status = *req.Status
	}

	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return class, nil
}

// Delete removes a class. Blocked while students are enrolled; sections
// cascade at the schema level.
func (s *ClassService) Delete(ctx context.Context, id, instituteID string) error {
	if _, err := s.Get(ctx, id, instituteID); err != nil {
		return err
	}

	count, err := s.students.CountByClass(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count class students")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrValidation, "Cannot delete class while students are enrolled")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	return nil
}

// ListSections returns the sections of a class.
func (s *ClassService) ListSections(ctx context.Context, id, instituteID string) ([]models.Section, error) {
	if _, err := s.Get(ctx, id, instituteID); err != nil {
		return nil, err
	}
	sections, err := s.sections.List(ctx, instituteID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class sections")
	}
	return sections, nil
}

// Stats aggregates section and student counts for a class.
func (s *ClassService) Stats(ctx context.Context, id, instituteID string) (*models.ClassStats, error) {
	class, err := s.Get(ctx, id, instituteID)
	if err != nil {
		return nil, err
	}

	sectionStats, err := s.sections.Stats(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section stats")
	}
	total := 0
	for i := range sectionStats {
		if sectionStats[i].Capacity > 0 {
			sectionStats[i].Utilization = float64(sectionStats[i].StudentCount) / float64(sectionStats[i].Capacity)
		}
		total += sectionStats[i].StudentCount
	}

	return &models.ClassStats{
		ClassID:      class.ID,
		ClassName:    class.Name,
		SectionCount: len(sectionStats),
		StudentCount: total,
		Sections:     sectionStats,
	}, nil
}
