package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusgate/campusgate-api/internal/service"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
	"github.com/campusgate/campusgate-api/pkg/response"
)

// MaterialHandler exposes course material upload and download endpoints.
type MaterialHandler struct {
	service     *service.MaterialService
	maxFileSize int64
}

// NewMaterialHandler constructs a material handler.
func NewMaterialHandler(svc *service.MaterialService, maxFileSize int64) *MaterialHandler {
	return &MaterialHandler{service: svc, maxFileSize: maxFileSize}
}

// Upload godoc
// @Summary Upload a course material file
// @Tags Materials
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Param file formData file true "Material file"
// @Success 201 {object} response.Envelope
// @Router /schedules/{id}/materials [post]
func (h *MaterialHandler) Upload(c *gin.Context) {
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

	material, err := h.service.Upload(c.Request.Context(), c.Param("id"), *actor, service.UploadInput{
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		SizeBytes:    header.Size,
		Reader:       file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material, "Material uploaded")
}

// List godoc
// @Summary List materials of a schedule
// @Tags Materials
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/materials [get]
func (h *MaterialHandler) List(c *gin.Context) {
	materials, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, nil)
}

// Download godoc
// @Summary Download a material file
// @Tags Materials
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Material ID"
// @Success 200 {file} binary
// @Router /materials/{id}/download [get]
func (h *MaterialHandler) Download(c *gin.Context) {
	material, file, err := h.service.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", material.OriginalName))
	contentType := material.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, material.SizeBytes, contentType, file, nil)
}

// Delete godoc
// @Summary Delete a material
// @Tags Materials
// @Produce json
// @Security BearerAuth
// @Param id path string true "Material ID"
// @Success 204
// @Router /materials/{id} [delete]
func (h *MaterialHandler) Delete(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), *actor); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
