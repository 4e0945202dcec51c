package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusgate/campusgate-api/internal/models"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
)

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id, instituteID string) (*models.Course, error)
	List(ctx context.Context, instituteID, search string) ([]models.Course, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error)
	ExistsByCode(ctx context.Context, instituteID, code, excludeID string) (bool, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type courseTeacherRepository interface {
	FindByID(ctx context.Context, id, instituteID string) (*models.TeacherDetail, error)
}

// CourseService coordinates course operations within one institute.
type CourseService struct {
	repo      courseRepository
	teachers  courseTeacherRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, teachers courseTeacherRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, teachers: teachers, validator: validate, logger: logger}
}

// Create adds a course. Codes are unique per institute and an assigned
// instructor must exist in the same institute.
func (s *CourseService) Create(ctx context.Context, instituteID string, req models.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	exists, err := s.repo.ExistsByCode(ctx, instituteID, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "Course with this code already exists")
	}

	if req.InstructorID != nil {
		if err := s.checkInstructor(ctx, *req.InstructorID, instituteID); err != nil {
			return nil, err
		}
	}

	course := &models.Course{
		InstituteID:  instituteID,
		Code:         req.Code,
		Name:         req.Name,
		Description:  req.Description,
		InstructorID: req.InstructorID,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "Course with this code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

func (s *CourseService) checkInstructor(ctx context.Context, instructorID, instituteID string) error {
	if _, err := s.teachers.FindByID(ctx, instructorID, instituteID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	return nil
}

// List returns courses of the institute.
func (s *CourseService) List(ctx context.Context, instituteID, search string) ([]models.Course, error) {
	courses, err := s.repo.List(ctx, instituteID, search)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// ListByInstructor returns the courses assigned to one instructor.
func (s *CourseService) ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error) {
	courses, err := s.repo.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructor courses")
	}
	return courses, nil
}

// Get returns one course scoped to the institute.
func (s *CourseService) Get(ctx context.Context, id, instituteID string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id, instituteID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Update modifies a course. The code duplicate check excludes the course itself.
func (s *CourseService) Update(ctx context.Context, id, instituteID string, req models.UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.Get(ctx, id, instituteID)
	if err != nil {
		return nil, err
	}

	if req.Code != nil && *req.Code != course.Code {
		exists, err := s.repo.ExistsByCode(ctx, instituteID, *req.Code, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "Course with this code already exists")
		}
		course.Code = *req.Code
	}
	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.InstructorID != nil {
		if err := s.checkInstructor(ctx, *req.InstructorID, instituteID); err != nil {
			return nil, err
		}
		course.InstructorID = req.InstructorID
	}
	if req.Status != nil {
		course.Status = *req.Status
	}

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Delete removes a course.
func (s *CourseService) Delete(ctx context.Context, id, instituteID string) error {
	if _, err := s.Get(ctx, id, instituteID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}
