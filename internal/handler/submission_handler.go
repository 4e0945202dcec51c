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

// SubmissionHandler exposes assignment submission endpoints.
type SubmissionHandler struct {
	service     *service.SubmissionService
	maxFileSize int64
}

// NewSubmissionHandler constructs a submission handler.
func NewSubmissionHandler(svc *service.SubmissionService, maxFileSize int64) *SubmissionHandler {
	return &SubmissionHandler{service: svc, maxFileSize: maxFileSize}
}

// Create godoc
// @Summary Create a submission window
// @Tags Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateSubmissionRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Create(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	submission, err := h.service.Create(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission, "Submission created")
}

// Mine godoc
// @Summary List submissions created by the authenticated teacher
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /submissions/mine [get]
func (h *SubmissionHandler) Mine(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	submissions, err := h.service.ListByTeacher(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, nil)
}

// Active godoc
// @Summary List open submissions for the authenticated student
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /submissions/active [get]
func (h *SubmissionHandler) Active(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	submissions, err := h.service.ListActiveForStudent(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, nil)
}

// Upload godoc
// @Summary Upload a file against a submission window
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Param file formData file true "Submitted file"
// @Success 201 {object} response.Envelope
// @Router /submissions/{id}/uploads [post]
func (h *SubmissionHandler) Upload(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file form field is required"))
		return
	}
	if h.maxFileSize > 0 && header.Size > h.maxFileSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d byte limit", h.maxFileSize)))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read uploaded file"))
		return
	}
	defer file.Close()

	upload, err := h.service.Upload(c.Request.Context(), c.Param("id"), actor.ID, service.UploadInput{
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		SizeBytes:    header.Size,
		Reader:       file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, upload, "File submitted")
}

// MyUpload godoc
// @Summary Get the authenticated student's upload for a submission
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/uploads/mine [get]
func (h *SubmissionHandler) MyUpload(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	upload, err := h.service.MyUpload(c.Request.Context(), c.Param("id"), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, upload, nil)
}

// Uploads godoc
// @Summary List files uploaded against a submission window
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/uploads [get]
func (h *SubmissionHandler) Uploads(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	uploads, err := h.service.ListUploads(c.Request.Context(), c.Param("id"), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, uploads, nil)
}
