package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusgate/campusgate-api/internal/models"
	"github.com/campusgate/campusgate-api/internal/service"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
	"github.com/campusgate/campusgate-api/pkg/response"
)

// AttendanceHandler exposes attendance marking, reporting, and export endpoints.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler constructs an attendance handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Mark godoc
// @Summary Mark attendance for a class meeting
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Param payload body models.MarkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	slot, err := h.service.Mark(c.Request.Context(), c.Param("id"), *actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// List godoc
// @Summary List attendance records of a schedule
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	slots, err := h.service.ListBySchedule(c.Request.Context(), c.Param("id"), *actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Roster godoc
// @Summary List the section roster for a schedule
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/roster [get]
func (h *AttendanceHandler) Roster(c *gin.Context) {
	students, err := h.service.Roster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// MyCourseAttendance godoc
// @Summary Attendance summary for the authenticated student in a course
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/attendance/me [get]
func (h *AttendanceHandler) MyCourseAttendance(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, err := h.service.StudentCourseView(c.Request.Context(), actor.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// RequestExport godoc
// @Summary Queue an attendance export for a schedule
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Param payload body models.CreateExportRequest true "Export payload"
// @Success 201 {object} response.Envelope
// @Router /schedules/{id}/attendance/exports [post]
func (h *AttendanceHandler) RequestExport(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.CreateExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	job, err := h.service.RequestExport(c.Request.Context(), c.Param("id"), *actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, job, "Export queued")
}

// GetExport godoc
// @Summary Get export job status
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Export ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/exports/{id} [get]
func (h *AttendanceHandler) GetExport(c *gin.Context) {
	job, err := h.service.GetExport(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// DownloadExport godoc
// @Summary Download a finished export using a signed token
// @Tags Attendance
// @Produce octet-stream
// @Param id path string true "Export ID"
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /attendance/exports/{id}/download [get]
func (h *AttendanceHandler) DownloadExport(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "download token is required"))
		return
	}
	job, file, err := h.service.DownloadExport(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	if job.ID != c.Param("id") {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "token does not match this export"))
		return
	}

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read export file"))
		return
	}

	contentType := "text/csv"
	ext := "csv"
	if job.Format == models.ExportFormatPDF {
		contentType = "application/pdf"
		ext = "pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("attendance-%s.%s", job.ID, ext)))
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
