package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusgate/campusgate-api/internal/models"
	"github.com/campusgate/campusgate-api/pkg/dates"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
)

type leaveRepository interface {
	Create(ctx context.Context, leave *models.LeaveRequest) error
	FindByID(ctx context.Context, id string) (*models.LeaveRequest, error)
	ExistsForWeek(ctx context.Context, studentID, scheduleID, requestedDay string, weekStart time.Time) (bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.LeaveDetail, error)
	ListPendingForInstructor(ctx context.Context, instructorID string, weekStart time.Time) ([]models.LeaveDetail, error)
	UpdateStatus(ctx context.Context, id string, status models.LeaveStatus) error
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// LeaveService handles per-week leave requests against lecture slots. All
// requests live in the current ISO week; a weekly sweep removes the ones
// whose week has passed.
type LeaveService struct {
	repo      leaveRepository
	schedules materialScheduleRepository
	students  submissionStudentRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLeaveService constructs LeaveService.
func NewLeaveService(repo leaveRepository, schedules materialScheduleRepository, students submissionStudentRepository, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaveService{
		repo:      repo,
		schedules: schedules,
		students:  students,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create files a leave request for the current ISO week. The student must
// belong to the schedule's section, the class must meet on the requested day,
// and only one request per schedule and day is allowed per week.
func (s *LeaveService) Create(ctx context.Context, studentID string, req models.CreateLeaveRequest) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}

	schedule, err := s.schedules.FindByID(ctx, req.ScheduleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	student, err := s.students.Get(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if schedule.SectionID != student.SectionID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "You can only request leave for your own section's classes")
	}
	if !schedule.HasDay(req.RequestedDay) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Class does not meet on the requested day")
	}

	week := dates.IsoWeekRange(s.now())
	exists, err := s.repo.ExistsForWeek(ctx, studentID, req.ScheduleID, req.RequestedDay, week.Start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check leave duplicate")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Leave request already exists for this class and day")
	}

	leave := &models.LeaveRequest{
		StudentID:    studentID,
		ScheduleID:   req.ScheduleID,
		RequestedDay: req.RequestedDay,
		Reason:       req.Reason,
		Status:       models.LeavePending,
		WeekStart:    week.Start,
		WeekEnd:      week.End,
	}
	if err := s.repo.Create(ctx, leave); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Leave request already exists for this class and day")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create leave request")
	}
	return leave, nil
}

// ListByStudent returns a student's own leave requests, newest first.
func (s *LeaveService) ListByStudent(ctx context.Context, studentID string) ([]models.LeaveDetail, error) {
	leaves, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave requests")
	}
	return leaves, nil
}

// ListPending returns this week's pending requests on the instructor's
// schedules.
func (s *LeaveService) ListPending(ctx context.Context, instructorID string) ([]models.LeaveDetail, error) {
	week := dates.IsoWeekRange(s.now())
	leaves, err := s.repo.ListPendingForInstructor(ctx, instructorID, week.Start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending leave requests")
	}
	return leaves, nil
}

// UpdateStatus accepts or rejects a pending request. Only the instructor of
// the schedule may decide.
func (s *LeaveService) UpdateStatus(ctx context.Context, id, instructorID string, req models.UpdateLeaveStatusRequest) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave status payload")
	}

	leave, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave request")
	}

	schedule, err := s.schedules.FindByID(ctx, leave.ScheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if schedule.InstructorID != instructorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only the class instructor can update this request")
	}
	if leave.Status != models.LeavePending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Leave request already resolved")
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update leave status")
	}
	leave.Status = req.Status
	return leave, nil
}

// CleanupExpired removes requests whose week ended before the current week
// started and returns the number removed.
func (s *LeaveService) CleanupExpired(ctx context.Context) (int64, error) {
	cutoff := dates.IsoWeekRange(s.now()).Start
	deleted, err := s.repo.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clean up leave requests")
	}
	if deleted > 0 {
		s.logger.Info("removed expired leave requests", zap.Int64("count", deleted))
	}
	return deleted, nil
}

// RunWeeklyCleanup blocks until ctx is done, sweeping expired requests every
// Monday at 01:00 UTC.
func (s *LeaveService) RunWeeklyCleanup(ctx context.Context) {
	timer := time.NewTimer(time.Until(nextMondayCleanup(s.now())))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if _, err := s.CleanupExpired(ctx); err != nil {
				s.logger.Error("weekly leave cleanup failed", zap.Error(err))
			}
			timer.Reset(time.Until(nextMondayCleanup(s.now())))
		}
	}
}

// nextMondayCleanup returns the next Monday 01:00 UTC strictly after t.
func nextMondayCleanup(t time.Time) time.Time {
	t = t.UTC()
	daysAhead := (int(time.Monday) - int(t.Weekday()) + 7) % 7
	candidate := time.Date(t.Year(), t.Month(), t.Day(), 1, 0, 0, 0, time.UTC).AddDate(0, 0, daysAhead)
	if !candidate.After(t) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}
