package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/services"
	"github.com/kimconnect/internship-service/internal/utils"
)

type ApplicationHandler struct {
	BaseHandler
	service services.ApplicationService
}

func NewApplicationHandler(service services.ApplicationService, logger utils.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateApplication applies the calling student to an opportunity
// @Summary Apply to opportunity
// @Tags applications
// @Accept json
// @Produce json
// @Param request body services.CreateApplicationRequest true "Application"
// @Success 201 {object} models.Application
// @Failure 409 {object} ErrorResponse "Already applied"
// @Failure 422 {object} ErrorResponse "Deadline passed or listing closed"
// @Router /applications [post]
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	h.LogRequest(c, "Creating application")

	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req services.CreateApplicationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	application, err := h.service.Create(c.Request.Context(), principal, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, application)
}

// UpdateApplication changes status or feedback depending on the caller
// @Summary Update application
// @Description Employers may accept or reject with feedback. Students may only withdraw.
// @Tags applications
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} models.Application
// @Failure 403 {object} ErrorResponse "Not allowed"
// @Failure 409 {object} ErrorResponse "Invalid transition"
// @Router /applications/{id} [put]
func (h *ApplicationHandler) UpdateApplication(c *gin.Context) {
	h.LogRequest(c, "Updating application")

	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateApplicationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	application, err := h.service.Update(c.Request.Context(), principal, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, application)
}

// GetApplication returns one application with its status history
// @Summary Get application
// @Tags applications
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} models.Application
// @Router /applications/{id} [get]
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	application, err := h.service.GetByID(c.Request.Context(), principal, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, application)
}

// ListStudentApplications returns the caller's applications, newest first
// @Summary List my applications
// @Tags applications
// @Produce json
// @Param status query string false "Status filter"
// @Success 200 {array} models.Application
// @Router /applications/student [get]
func (h *ApplicationHandler) ListStudentApplications(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	status, ok := h.statusFilter(c)
	if !ok {
		return
	}

	applications, err := h.service.ListForStudent(c.Request.Context(), principal, status)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, applications)
}

// ListOpportunityApplications returns applications to one listing, newest first
// @Summary List applications for opportunity
// @Tags applications
// @Produce json
// @Param id path int true "Opportunity ID"
// @Param status query string false "Status filter"
// @Success 200 {array} models.Application
// @Router /applications/opportunity/{id} [get]
func (h *ApplicationHandler) ListOpportunityApplications(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	opportunityID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	status, ok := h.statusFilter(c)
	if !ok {
		return
	}

	applications, err := h.service.ListForOpportunity(c.Request.Context(), principal, opportunityID, status)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, applications)
}

func (h *ApplicationHandler) statusFilter(c *gin.Context) (*models.ApplicationStatus, bool) {
	raw := c.Query("status")
	if raw == "" {
		return nil, true
	}
	status := models.ApplicationStatus(raw)
	if !status.IsValid() {
		h.badRequest(c, "status", "must be a valid application status")
		return nil, false
	}
	return &status, true
}
