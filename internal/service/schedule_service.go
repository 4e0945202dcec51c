package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusgate/campusgate-api/internal/models"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
)

type scheduleRepository interface {
	Create(ctx context.Context, schedule *models.CourseSchedule) error
	FindByID(ctx context.Context, id string) (*models.CourseSchedule, error)
	FindDetail(ctx context.Context, id string) (*models.ScheduleDetail, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.ScheduleDetail, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]models.ScheduleDetail, error)
	ExistsDuplicate(ctx context.Context, schedule *models.CourseSchedule) (bool, error)
	Delete(ctx context.Context, id string) error
}

type scheduleCourseRepository interface {
	FindByID(ctx context.Context, id, instituteID string) (*models.Course, error)
}

type scheduleSectionRepository interface {
	FindByID(ctx context.Context, id, instituteID string) (*models.Section, error)
}

// ScheduleService coordinates lecture slots under courses.
type ScheduleService struct {
	repo      scheduleRepository
	courses   scheduleCourseRepository
	teachers  courseTeacherRepository
	sections  scheduleSectionRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(repo scheduleRepository, courses scheduleCourseRepository, teachers courseTeacherRepository, sections scheduleSectionRepository, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, courses: courses, teachers: teachers, sections: sections, validator: validate, logger: logger}
}

// Create adds a lecture slot under a course. Course, instructor, and section
// must belong to the institute; an identical slot is rejected.
func (s *ScheduleService) Create(ctx context.Context, courseID, instituteID string, req models.CreateScheduleRequest) (*models.CourseSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	if _, err := s.courses.FindByID(ctx, courseID, instituteID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if _, err := s.teachers.FindByID(ctx, req.InstructorID, instituteID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if _, err := s.sections.FindByID(ctx, req.SectionID, instituteID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	duration, err := slotDuration(req.StartTime, req.EndTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	schedule := &models.CourseSchedule{
		CourseID:        courseID,
		InstructorID:    req.InstructorID,
		SectionID:       req.SectionID,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: duration,
		DaysOfWeek:      req.DaysOfWeek,
	}

	dup, err := s.repo.ExistsDuplicate(ctx, schedule)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule duplicate")
	}
	if dup {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "An identical schedule already exists")
	}

	if err := s.repo.Create(ctx, schedule); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "An identical schedule already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return schedule, nil
}

// slotDuration derives the slot length in minutes from HH:MM bounds.
func slotDuration(start, end string) (int, error) {
	st, err := time.Parse("15:04", start)
	if err != nil {
		return 0, fmt.Errorf("%s is not a valid time format (HH:MM)", start)
	}
	en, err := time.Parse("15:04", end)
	if err != nil {
		return 0, fmt.Errorf("%s is not a valid time format (HH:MM)", end)
	}
	minutes := int(en.Sub(st).Minutes())
	if minutes <= 0 {
		return 0, fmt.Errorf("end_time must be after start_time")
	}
	return minutes, nil
}

// ListByCourse returns lecture slots of a course scoped to the institute.
func (s *ScheduleService) ListByCourse(ctx context.Context, courseID, instituteID string) ([]models.ScheduleDetail, error) {
	if _, err := s.courses.FindByID(ctx, courseID, instituteID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	schedules, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return schedules, nil
}

// ListByInstructor returns lecture slots taught by one instructor.
func (s *ScheduleService) ListByInstructor(ctx context.Context, instructorID string) ([]models.ScheduleDetail, error) {
	schedules, err := s.repo.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructor schedules")
	}
	return schedules, nil
}

// Get returns one lecture slot with course and section context.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.ScheduleDetail, error) {
	detail, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return detail, nil
}

// Delete removes a lecture slot after verifying its course belongs to the
// institute.
func (s *ScheduleService) Delete(ctx context.Context, id, instituteID string) error {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if _, err := s.courses.FindByID(ctx, schedule.CourseID, instituteID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	return nil
}
