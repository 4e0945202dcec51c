package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusgate/campusgate-api/internal/models"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
)

type sectionRepository interface {
	Create(ctx context.Context, section *models.Section) error
	FindByID(ctx context.Context, id, instituteID string) (*models.Section, error)
	List(ctx context.Context, instituteID, classID string) ([]models.Section, error)
	ExistsByName(ctx context.Context, instituteID, classID, name, excludeID string) (bool, error)
	Update(ctx context.Context, section *models.Section) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, classID string) ([]models.SectionStats, error)
}

type sectionClassRepository interface {
	FindByID(ctx context.Context, id, instituteID string) (*models.Class, error)
}

type sectionStudentRepository interface {
	CountBySection(ctx context.Context, sectionID string) (int, error)
	ListBySection(ctx context.Context, sectionID string) ([]models.StudentDetail, error)
}

// SectionService coordinates section operations within one institute.
type SectionService struct {
	repo      sectionRepository
	classes   sectionClassRepository
	students  sectionStudentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService constructs SectionService.
func NewSectionService(repo sectionRepository, classes sectionClassRepository, students sectionStudentRepository, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{repo: repo, classes: classes, students: students, validator: validate, logger: logger}
}

// Create adds a section under a class of the institute.
func (s *SectionService) Create(ctx context.Context, instituteID string, req models.CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}

	if _, err := s.classes.FindByID(ctx, req.ClassID, instituteID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	exists, err := s.repo.ExistsByName(ctx, instituteID, req.ClassID, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "Section with this name already exists in the class")
	}

	section := &models.Section{
		InstituteID: instituteID,
		ClassID:     req.ClassID,
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
	}
	if err := s.repo.Create(ctx, section); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "Section with this name already exists in the class")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	return section, nil
}

// List returns sections of the institute, optionally filtered by class.
func (s *SectionService) List(ctx context.Context, instituteID, classID string) ([]models.Section, error) {
	sections, err := s.repo.List(ctx, instituteID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// Get returns one section scoped to the institute.
func (s *SectionService) Get(ctx context.Context, id, instituteID string) (*models.Section, error) {
	section, err := s.repo.FindByID(ctx, id, instituteID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return section, nil
}

// Update modifies a section.
func (s *SectionService) Update(ctx context.Context, id, instituteID string, req models.UpdateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}

	section, err := s.Get(ctx, id, instituteID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != section.Name {
		exists, err := s.repo.ExistsByName(ctx, instituteID, section.ClassID, *req.Name, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section name")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "Section with this name already exists in the class")
		}
		section.Name = *req.Name
	}
	if req.Description != nil {
		section.Description = *req.Description
	}
	if req.Capacity != nil {
		section.Capacity = *req.Capacity
	}
	if req.Status != nil {
		section.Status = *req.Status
	}

	if err := s.repo.Update(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section")
	}
	return section, nil
}

// Delete removes a section. Blocked while students are assigned to it.
func (s *SectionService) Delete(ctx context.Context, id, instituteID string) error {
	if _, err := s.Get(ctx, id, instituteID); err != nil {
		return err
	}

	count, err := s.students.CountBySection(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count section students")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrValidation, "Cannot delete section while students are assigned")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section")
	}
	return nil
}

// ListStudents returns student details of one section.
func (s *SectionService) ListStudents(ctx context.Context, id, instituteID string) ([]models.StudentDetail, error) {
	if _, err := s.Get(ctx, id, instituteID); err != nil {
		return nil, err
	}
	students, err := s.students.ListBySection(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list section students")
	}
	return students, nil
}

// Stats aggregates headcounts for the sections of a class.
func (s *SectionService) Stats(ctx context.Context, classID, instituteID string) ([]models.SectionStats, error) {
	if _, err := s.classes.FindByID(ctx, classID, instituteID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	stats, err := s.repo.Stats(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section stats")
	}
	for i := range stats {
		if stats[i].Capacity > 0 {
			stats[i].Utilization = float64(stats[i].StudentCount) / float64(stats[i].Capacity)
		}
	}
	return stats, nil
}
