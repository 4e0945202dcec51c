package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusgate/campusgate-api/internal/models"
	"github.com/campusgate/campusgate-api/pkg/dates"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
)

type mockLeaveRepo struct {
	created       []*models.LeaveRequest
	byID          *models.LeaveRequest
	exists        bool
	updatedStatus models.LeaveStatus
	deleteCutoff  time.Time
	deletedCount  int64
}

func (m *mockLeaveRepo) Create(ctx context.Context, leave *models.LeaveRequest) error {
	m.created = append(m.created, leave)
	return nil
}

func (m *mockLeaveRepo) FindByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	if m.byID == nil {
		return nil, sql.ErrNoRows
	}
	return m.byID, nil
}

func (m *mockLeaveRepo) ExistsForWeek(ctx context.Context, studentID, scheduleID, requestedDay string, weekStart time.Time) (bool, error) {
	return m.exists, nil
}

func (m *mockLeaveRepo) ListByStudent(ctx context.Context, studentID string) ([]models.LeaveDetail, error) {
	return nil, nil
}

func (m *mockLeaveRepo) ListPendingForInstructor(ctx context.Context, instructorID string, weekStart time.Time) ([]models.LeaveDetail, error) {
	return nil, nil
}

func (m *mockLeaveRepo) UpdateStatus(ctx context.Context, id string, status models.LeaveStatus) error {
	m.updatedStatus = status
	return nil
}

func (m *mockLeaveRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	m.deleteCutoff = cutoff
	return m.deletedCount, nil
}

type mockScheduleFinder struct {
	schedule *models.CourseSchedule
}

func (m *mockScheduleFinder) FindByID(ctx context.Context, id string) (*models.CourseSchedule, error) {
	if m.schedule == nil {
		return nil, sql.ErrNoRows
	}
	return m.schedule, nil
}

type mockStudentFinder struct {
	student *models.Student
}

func (m *mockStudentFinder) Get(ctx context.Context, id string) (*models.Student, error) {
	if m.student == nil {
		return nil, sql.ErrNoRows
	}
	return m.student, nil
}

func newTestLeaveService(repo *mockLeaveRepo, schedules *mockScheduleFinder, students *mockStudentFinder, now time.Time) *LeaveService {
	svc := NewLeaveService(repo, schedules, students, validator.New(), zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

// Wednesday 2026-09-02 12:00 UTC; its ISO week starts Monday 2026-08-31.
var leaveTestNow = time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC)

func TestLeaveServiceCreateSuccess(t *testing.T) {
	repo := &mockLeaveRepo{}
	schedules := &mockScheduleFinder{schedule: &models.CourseSchedule{
		ID:         "sch-1",
		SectionID:  "sec-1",
		DaysOfWeek: []string{"Monday", "Thursday"},
	}}
	students := &mockStudentFinder{student: &models.Student{ID: "stu-1", SectionID: "sec-1"}}
	svc := newTestLeaveService(repo, schedules, students, leaveTestNow)

	leave, err := svc.Create(context.Background(), "stu-1", models.CreateLeaveRequest{
		ScheduleID:   "sch-1",
		RequestedDay: "Thursday",
		Reason:       "family event",
	})
	require.NoError(t, err)
	assert.Equal(t, models.LeavePending, leave.Status)

	week := dates.IsoWeekRange(leaveTestNow)
	assert.Equal(t, week.Start, leave.WeekStart)
	assert.Equal(t, week.End, leave.WeekEnd)
	require.Len(t, repo.created, 1)
}

func TestLeaveServiceCreateSectionMismatch(t *testing.T) {
	schedules := &mockScheduleFinder{schedule: &models.CourseSchedule{ID: "sch-1", SectionID: "sec-1", DaysOfWeek: []string{"Monday"}}}
	students := &mockStudentFinder{student: &models.Student{ID: "stu-1", SectionID: "sec-2"}}
	svc := newTestLeaveService(&mockLeaveRepo{}, schedules, students, leaveTestNow)

	_, err := svc.Create(context.Background(), "stu-1", models.CreateLeaveRequest{
		ScheduleID:   "sch-1",
		RequestedDay: "Monday",
		Reason:       "sick",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestLeaveServiceCreateDayNotScheduled(t *testing.T) {
	schedules := &mockScheduleFinder{schedule: &models.CourseSchedule{ID: "sch-1", SectionID: "sec-1", DaysOfWeek: []string{"Monday"}}}
	students := &mockStudentFinder{student: &models.Student{ID: "stu-1", SectionID: "sec-1"}}
	svc := newTestLeaveService(&mockLeaveRepo{}, schedules, students, leaveTestNow)

	_, err := svc.Create(context.Background(), "stu-1", models.CreateLeaveRequest{
		ScheduleID:   "sch-1",
		RequestedDay: "Friday",
		Reason:       "sick",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "Class does not meet on the requested day", appErr.Message)
}

func TestLeaveServiceCreateDuplicateWeek(t *testing.T) {
	repo := &mockLeaveRepo{exists: true}
	schedules := &mockScheduleFinder{schedule: &models.CourseSchedule{ID: "sch-1", SectionID: "sec-1", DaysOfWeek: []string{"Monday"}}}
	students := &mockStudentFinder{student: &models.Student{ID: "stu-1", SectionID: "sec-1"}}
	svc := newTestLeaveService(repo, schedules, students, leaveTestNow)

	_, err := svc.Create(context.Background(), "stu-1", models.CreateLeaveRequest{
		ScheduleID:   "sch-1",
		RequestedDay: "Monday",
		Reason:       "sick",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestLeaveServiceUpdateStatusWrongInstructor(t *testing.T) {
	repo := &mockLeaveRepo{byID: &models.LeaveRequest{ID: "l1", ScheduleID: "sch-1", Status: models.LeavePending}}
	schedules := &mockScheduleFinder{schedule: &models.CourseSchedule{ID: "sch-1", InstructorID: "t1"}}
	svc := newTestLeaveService(repo, schedules, &mockStudentFinder{}, leaveTestNow)

	_, err := svc.UpdateStatus(context.Background(), "l1", "t2", models.UpdateLeaveStatusRequest{Status: models.LeaveAccepted})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Equal(t, "Only the class instructor can update this request", appErr.Message)
}

func TestLeaveServiceUpdateStatusAccept(t *testing.T) {
	repo := &mockLeaveRepo{byID: &models.LeaveRequest{ID: "l1", ScheduleID: "sch-1", Status: models.LeavePending}}
	schedules := &mockScheduleFinder{schedule: &models.CourseSchedule{ID: "sch-1", InstructorID: "t1"}}
	svc := newTestLeaveService(repo, schedules, &mockStudentFinder{}, leaveTestNow)

	leave, err := svc.UpdateStatus(context.Background(), "l1", "t1", models.UpdateLeaveStatusRequest{Status: models.LeaveAccepted})
	require.NoError(t, err)
	assert.Equal(t, models.LeaveAccepted, leave.Status)
	assert.Equal(t, models.LeaveAccepted, repo.updatedStatus)
}

func TestLeaveServiceUpdateStatusAlreadyResolved(t *testing.T) {
	repo := &mockLeaveRepo{byID: &models.LeaveRequest{ID: "l1", ScheduleID: "sch-1", Status: models.LeaveRejected}}
	schedules := &mockScheduleFinder{schedule: &models.CourseSchedule{ID: "sch-1", InstructorID: "t1"}}
	svc := newTestLeaveService(repo, schedules, &mockStudentFinder{}, leaveTestNow)

	_, err := svc.UpdateStatus(context.Background(), "l1", "t1", models.UpdateLeaveStatusRequest{Status: models.LeaveAccepted})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLeaveServiceCleanupExpiredUsesWeekStart(t *testing.T) {
	repo := &mockLeaveRepo{deletedCount: 3}
	svc := newTestLeaveService(repo, &mockScheduleFinder{}, &mockStudentFinder{}, leaveTestNow)

	deleted, err := svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.Equal(t, dates.IsoWeekRange(leaveTestNow).Start, repo.deleteCutoff)
}

func TestNextMondayCleanup(t *testing.T) {
	// From a Wednesday, the next run is the following Monday at 01:00 UTC.
	next := nextMondayCleanup(leaveTestNow)
	assert.Equal(t, time.Date(2026, 9, 7, 1, 0, 0, 0, time.UTC), next)

	// From Monday 00:30, the run is later the same day.
	next = nextMondayCleanup(time.Date(2026, 9, 7, 0, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 9, 7, 1, 0, 0, 0, time.UTC), next)

	// From Monday 01:00 exactly, the run moves a full week out.
	next = nextMondayCleanup(time.Date(2026, 9, 7, 1, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 9, 14, 1, 0, 0, 0, time.UTC), next)
}
