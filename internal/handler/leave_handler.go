package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusgate/campusgate-api/internal/models"
	"github.com/campusgate/campusgate-api/internal/service"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
	"github.com/campusgate/campusgate-api/pkg/response"
)

// LeaveHandler exposes weekly leave request endpoints.
type LeaveHandler struct {
	service *service.LeaveService
}

// NewLeaveHandler constructs a leave handler.
func NewLeaveHandler(svc *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{service: svc}
}

// Create godoc
// @Summary Request leave for a class day this week
// @Tags Leave
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateLeaveRequest true "Leave payload"
// @Success 201 {object} response.Envelope
// @Router /leave-requests [post]
func (h *LeaveHandler) Create(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	leave, err := h.service.Create(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave, "Leave requested")
}

// Mine godoc
// @Summary List the authenticated student's leave requests
// @Tags Leave
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /leave-requests/mine [get]
func (h *LeaveHandler) Mine(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	requests, err := h.service.ListByStudent(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Pending godoc
// @Summary List pending leave requests for the authenticated teacher's classes
// @Tags Leave
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /leave-requests/pending [get]
func (h *LeaveHandler) Pending(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	requests, err := h.service.ListPending(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// UpdateStatus godoc
// @Summary Accept or reject a leave request
// @Tags Leave
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Leave request ID"
// @Param payload body models.UpdateLeaveStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /leave-requests/{id}/status [put]
func (h *LeaveHandler) UpdateStatus(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.UpdateLeaveStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	leave, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave, nil)
}
