package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusgate/campusgate-api/internal/models"
	"github.com/campusgate/campusgate-api/internal/repository"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
	"github.com/campusgate/campusgate-api/pkg/jobs"
	"github.com/campusgate/campusgate-api/pkg/storage"
)

type mockAttendanceRepo struct {
	slots      []models.AttendanceSlot
	upserted   []*models.AttendanceSlot
	exports    map[string]*models.AttendanceExport
	entries    []repository.StudentCourseEntry
	processing []string
}

func (m *mockAttendanceRepo) UpsertSlot(ctx context.Context, slot *models.AttendanceSlot) error {
	if slot.ID == "" {
		slot.ID = "slot-1"
	}
	m.upserted = append(m.upserted, slot)
	return nil
}

func (m *mockAttendanceRepo) ListBySchedule(ctx context.Context, scheduleID string) ([]models.AttendanceSlot, error) {
	return m.slots, nil
}

func (m *mockAttendanceRepo) ListByStudentCourse(ctx context.Context, studentID, courseID string) ([]repository.StudentCourseEntry, error) {
	return m.entries, nil
}

func (m *mockAttendanceRepo) CreateExport(ctx context.Context, e *models.AttendanceExport) error {
	if e.ID == "" {
		e.ID = "export-1"
	}
	if e.Status == "" {
		e.Status = models.ExportStatusQueued
	}
	if m.exports == nil {
		m.exports = make(map[string]*models.AttendanceExport)
	}
	m.exports[e.ID] = e
	return nil
}

func (m *mockAttendanceRepo) FindExport(ctx context.Context, id string) (*models.AttendanceExport, error) {
	e, ok := m.exports[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return e, nil
}

func (m *mockAttendanceRepo) MarkExportProcessing(ctx context.Context, id string) error {
	m.processing = append(m.processing, id)
	if e, ok := m.exports[id]; ok {
		e.Status = models.ExportStatusProcessing
	}
	return nil
}

func (m *mockAttendanceRepo) MarkExportFinished(ctx context.Context, id, filePath string) error {
	if e, ok := m.exports[id]; ok {
		e.Status = models.ExportStatusFinished
		e.FilePath = &filePath
		now := time.Now().UTC()
		e.FinishedAt = &now
	}
	return nil
}

func (m *mockAttendanceRepo) MarkExportFailed(ctx context.Context, id, message string) error {
	if e, ok := m.exports[id]; ok {
		e.Status = models.ExportStatusFailed
		e.ErrorMessage = &message
	}
	return nil
}

type mockRosterRepo struct {
	students []models.StudentDetail
}

func (m *mockRosterRepo) ListBySection(ctx context.Context, sectionID string) ([]models.StudentDetail, error) {
	return m.students, nil
}

// syncSubmitter runs tasks inline so export tests stay deterministic.
type syncSubmitter struct {
	svc *AttendanceService
}

func (s *syncSubmitter) Submit(task jobs.Task) error {
	return s.svc.ProcessExport(context.Background(), task)
}

func newTestAttendanceService(t *testing.T, repo *mockAttendanceRepo, schedules *mockScheduleFinder) *AttendanceService {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewAttendanceService(repo, schedules, &mockRosterRepo{}, files, signer, validator.New(), zap.NewNop())
	svc.SetPool(&syncSubmitter{svc: svc})
	return svc
}

func TestAttendanceServiceMarkForbiddenForOtherInstructor(t *testing.T) {
	schedules := &mockScheduleFinder{schedule: &models.CourseSchedule{ID: "sch-1", InstructorID: "t1"}}
	svc := newTestAttendanceService(t, &mockAttendanceRepo{}, schedules)

	_, err := svc.Mark(context.Background(), "sch-1", models.Actor{ID: "t2", Role: models.RoleTeacher}, models.MarkAttendanceRequest{
		Date: "2026-09-01",
		Slot: "08:00-09:00",
		Statuses: []models.StudentStatusInput{
			{StudentID: "stu-1", Status: models.AttendancePresent},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceMarkSuccess(t *testing.T) {
	repo := &mockAttendanceRepo{}
	schedules := &mockScheduleFinder{schedule: &models.CourseSchedule{ID: "sch-1", InstructorID: "t1"}}
	svc := newTestAttendanceService(t, repo, schedules)

	slot, err := svc.Mark(context.Background(), "sch-1", models.Actor{ID: "t1", Role: models.RoleTeacher}, models.MarkAttendanceRequest{
		Date: "2026-09-01",
		Slot: "08:00-09:00",
		Statuses: []models.StudentStatusInput{
			{StudentID: "stu-1", Status: models.AttendancePresent},
			{StudentID: "stu-2", Status: models.AttendanceLate},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", slot.MarkedBy)
	require.Len(t, repo.upserted, 1)
	assert.Len(t, repo.upserted[0].Statuses, 2)
}

func TestAttendanceServiceStudentCourseViewCounts(t *testing.T) {
	repo := &mockAttendanceRepo{entries: []repository.StudentCourseEntry{
		{Date: "2026-09-01", Slot: "08:00-09:00", Status: models.AttendancePresent},
		{Date: "2026-09-02", Slot: "08:00-09:00", Status: models.AttendanceAbsent},
		{Date: "2026-09-03", Slot: "08:00-09:00", Status: models.AttendancePresent},
	}}
	svc := newTestAttendanceService(t, repo, &mockScheduleFinder{})

	summary, err := svc.StudentCourseView(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Present)
	assert.Equal(t, 1, summary.Absent)
	assert.Zero(t, summary.Late)
}

func TestAttendanceServiceExportLifecycle(t *testing.T) {
	repo := &mockAttendanceRepo{slots: []models.AttendanceSlot{
		{
			ID:         "slot-1",
			ScheduleID: "sch-1",
			Date:       "2026-09-01",
			Slot:       "08:00-09:00",
			Statuses: []models.StudentStatus{
				{StudentID: "stu-1", Status: models.AttendancePresent},
				{StudentID: "stu-2", Status: models.AttendanceAbsent},
			},
		},
	}}
	schedules := &mockScheduleFinder{schedule: &models.CourseSchedule{ID: "sch-1", InstructorID: "t1"}}
	svc := newTestAttendanceService(t, repo, schedules)

	job, err := svc.RequestExport(context.Background(), "sch-1", models.Actor{ID: "t1", Role: models.RoleTeacher}, models.CreateExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)

	stored := repo.exports[job.ID]
	require.NotNil(t, stored)
	assert.Equal(t, models.ExportStatusFinished, stored.Status)
	require.NotNil(t, stored.FilePath)
	assert.Contains(t, *stored.FilePath, job.ID)

	fetched, err := svc.GetExport(context.Background(), job.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.DownloadURL)
	assert.Contains(t, *fetched.DownloadURL, "token=")

	token := (*fetched.DownloadURL)[strings.Index(*fetched.DownloadURL, "token=")+len("token="):]
	gotJob, file, err := svc.DownloadExport(context.Background(), token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, job.ID, gotJob.ID)

	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "stu-1")
	assert.Contains(t, string(content), "absent")
}

func TestAttendanceServiceDownloadRejectsBadToken(t *testing.T) {
	svc := newTestAttendanceService(t, &mockAttendanceRepo{}, &mockScheduleFinder{})

	_, _, err := svc.DownloadExport(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
