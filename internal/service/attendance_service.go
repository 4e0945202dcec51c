package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusgate/campusgate-api/internal/models"
	"github.com/campusgate/campusgate-api/internal/repository"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
	"github.com/campusgate/campusgate-api/pkg/export"
	"github.com/campusgate/campusgate-api/pkg/jobs"
)

type attendanceRepository interface {
	UpsertSlot(ctx context.Context, slot *models.AttendanceSlot) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.AttendanceSlot, error)
	ListByStudentCourse(ctx context.Context, studentID, courseID string) ([]repository.StudentCourseEntry, error)
	CreateExport(ctx context.Context, e *models.AttendanceExport) error
	FindExport(ctx context.Context, id string) (*models.AttendanceExport, error)
	MarkExportProcessing(ctx context.Context, id string) error
	MarkExportFinished(ctx context.Context, id, filePath string) error
	MarkExportFailed(ctx context.Context, id, message string) error
}

type attendanceRosterRepository interface {
	ListBySection(ctx context.Context, sectionID string) ([]models.StudentDetail, error)
}

type exportFileStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type exportSigner interface {
	Generate(resourceID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (resourceID, relPath string, expiresAt time.Time, err error)
}

type taskSubmitter interface {
	Submit(task jobs.Task) error
}

// AttendanceService marks lecture attendance and renders export files in the
// background. Finished exports are fetched through signed download tokens.
type AttendanceService struct {
	repo      attendanceRepository
	schedules materialScheduleRepository
	roster    attendanceRosterRepository
	files     exportFileStore
	signer    exportSigner
	pool      taskSubmitter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs AttendanceService. The pool may be set
// later through SetPool since the pool's task function is ProcessExport.
func NewAttendanceService(repo attendanceRepository, schedules materialScheduleRepository, roster attendanceRosterRepository, files exportFileStore, signer exportSigner, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:      repo,
		schedules: schedules,
		roster:    roster,
		files:     files,
		signer:    signer,
		validator: validate,
		logger:    logger,
	}
}

// SetPool wires the background worker pool used for export rendering.
func (s *AttendanceService) SetPool(pool taskSubmitter) {
	s.pool = pool
}

// Mark upserts attendance for one lecture occurrence. Re-marking the same
// date and slot replaces the previous statuses.
func (s *AttendanceService) Mark(ctx context.Context, scheduleID string, actor models.Actor, req models.MarkAttendanceRequest) (*models.AttendanceSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	schedule, err := s.loadSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleTeacher && schedule.InstructorID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the instructor can mark attendance for this class")
	}

	slot := &models.AttendanceSlot{
		ScheduleID: scheduleID,
		Date:       req.Date,
		Slot:       req.Slot,
		MarkedBy:   actor.ID,
	}
	for _, st := range req.Statuses {
		slot.Statuses = append(slot.Statuses, models.StudentStatus{
			StudentID: st.StudentID,
			Status:    st.Status,
		})
	}

	if err := s.repo.UpsertSlot(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}
	return slot, nil
}

// ListBySchedule returns all marked occurrences of a lecture slot.
func (s *AttendanceService) ListBySchedule(ctx context.Context, scheduleID string, actor models.Actor) ([]models.AttendanceSlot, error) {
	schedule, err := s.loadSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleTeacher && schedule.InstructorID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the instructor can view attendance for this class")
	}
	slots, err := s.repo.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return slots, nil
}

// StudentCourseSummary aggregates a student's entries for one course.
type StudentCourseSummary struct {
	Entries []repository.StudentCourseEntry `json:"entries"`
	Present int                             `json:"present"`
	Absent  int                             `json:"absent"`
	Late    int                             `json:"late"`
}

// StudentCourseView returns a student's own attendance record for a course.
func (s *AttendanceService) StudentCourseView(ctx context.Context, studentID, courseID string) (*StudentCourseSummary, error) {
	entries, err := s.repo.ListByStudentCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student attendance")
	}
	summary := &StudentCourseSummary{Entries: entries}
	for _, e := range entries {
		switch e.Status {
		case models.AttendancePresent:
			summary.Present++
		case models.AttendanceAbsent:
			summary.Absent++
		case models.AttendanceLate:
			summary.Late++
		}
	}
	return summary, nil
}

// Roster returns the students of the section a lecture slot teaches, ordered
// by roll number, for building the marking sheet.
func (s *AttendanceService) Roster(ctx context.Context, scheduleID string) ([]models.StudentDetail, error) {
	schedule, err := s.loadSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	students, err := s.roster.ListBySection(ctx, schedule.SectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section roster")
	}
	return students, nil
}

// RequestExport queues an attendance export job and returns the queued record.
func (s *AttendanceService) RequestExport(ctx context.Context, scheduleID string, actor models.Actor, req models.CreateExportRequest) (*models.AttendanceExport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}

	schedule, err := s.loadSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleTeacher && schedule.InstructorID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the instructor can export attendance for this class")
	}

	job := &models.AttendanceExport{
		ScheduleID:  scheduleID,
		Format:      req.Format,
		RequestedBy: actor.ID,
	}
	if err := s.repo.CreateExport(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}

	if s.pool == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export worker unavailable")
	}
	if err := s.pool.Submit(jobs.Task{ID: job.ID, Kind: "attendance-export", Payload: job.ID}); err != nil {
		if markErr := s.repo.MarkExportFailed(ctx, job.ID, "failed to enqueue export"); markErr != nil {
			s.logger.Error("failed to record export failure", zap.String("export_id", job.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}
	return job, nil
}

// ProcessExport renders one export job. Wired as the worker pool task
// function.
func (s *AttendanceService) ProcessExport(ctx context.Context, task jobs.Task) error {
	exportID, ok := task.Payload.(string)
	if !ok || exportID == "" {
		exportID = task.ID
	}

	if err := s.repo.MarkExportProcessing(ctx, exportID); err != nil {
		return fmt.Errorf("mark export processing: %w", err)
	}
	job, err := s.repo.FindExport(ctx, exportID)
	if err != nil {
		return fmt.Errorf("load export %s: %w", exportID, err)
	}

	filePath, err := s.renderExport(ctx, job)
	if err != nil {
		if markErr := s.repo.MarkExportFailed(ctx, exportID, err.Error()); markErr != nil {
			s.logger.Error("failed to record export failure", zap.String("export_id", exportID), zap.Error(markErr))
		}
		return fmt.Errorf("render export %s: %w", exportID, err)
	}

	if err := s.repo.MarkExportFinished(ctx, exportID, filePath); err != nil {
		return fmt.Errorf("mark export finished: %w", err)
	}
	s.logger.Info("attendance export finished", zap.String("export_id", exportID), zap.String("file", filePath))
	return nil
}

func (s *AttendanceService) renderExport(ctx context.Context, job *models.AttendanceExport) (string, error) {
	slots, err := s.repo.ListBySchedule(ctx, job.ScheduleID)
	if err != nil {
		return "", err
	}

	table := export.Table{
		Title:   "Attendance Report",
		Columns: []string{"Date", "Slot", "Student", "Status"},
	}
	for _, slot := range slots {
		for _, st := range slot.Statuses {
			table.Rows = append(table.Rows, []string{slot.Date, slot.Slot, st.StudentID, string(st.Status)})
		}
	}

	var data []byte
	var ext string
	switch job.Format {
	case models.ExportFormatPDF:
		data, err = export.RenderPDF(table)
		ext = "pdf"
	default:
		data, err = export.RenderCSV(table)
		ext = "csv"
	}
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("exports/%s.%s", job.ID, ext)
	if _, err := s.files.Save(filename, data); err != nil {
		return "", err
	}
	return filename, nil
}

// GetExport returns an export job, attaching a signed download URL once the
// file is ready.
func (s *AttendanceService) GetExport(ctx context.Context, id string) (*models.AttendanceExport, error) {
	job, err := s.repo.FindExport(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export")
	}

	if job.Status == models.ExportStatusFinished && job.FilePath != nil {
		token, _, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
		}
		url := fmt.Sprintf("/api/v1/attendance/exports/%s/download?token=%s", job.ID, token)
		job.DownloadURL = &url
	}
	return job, nil
}

// DownloadExport validates a signed token and returns the export plus an open
// file handle. The caller owns closing the handle.
func (s *AttendanceService) DownloadExport(ctx context.Context, token string) (*models.AttendanceExport, *os.File, error) {
	exportID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}

	job, err := s.repo.FindExport(ctx, exportID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export")
	}
	if job.Status != models.ExportStatusFinished || job.FilePath == nil || *job.FilePath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "export file not available")
	}

	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return job, file, nil
}

func (s *AttendanceService) loadSchedule(ctx context.Context, scheduleID string) (*models.CourseSchedule, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}
