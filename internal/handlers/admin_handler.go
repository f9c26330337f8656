package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/services"
	"github.com/kimconnect/internship-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminHandler struct {
	BaseHandler
	service services.AdminService
	export  services.ExportService
}

func NewAdminHandler(service services.AdminService, export services.ExportService, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		export:      export,
	}
}

// GetStats returns platform counters
// @Summary Platform statistics
// @Tags admin
// @Produce json
// @Success 200 {object} models.PlatformStats
// @Router /admin/stats [get]
func (h *AdminHandler) GetStats(c *gin.Context) {
	h.LogRequest(c, "Getting platform stats")

	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ListEmployers lists employer profiles with their users
// @Summary List employers
// @Tags admin
// @Produce json
// @Param verified query bool false "Filter by verification"
// @Success 200 {array} models.EmployerProfile
// @Router /admin/employers [get]
func (h *AdminHandler) ListEmployers(c *gin.Context) {
	var params models.ListEmployersParams
	if raw := c.Query("verified"); raw != "" {
		verified, err := strconv.ParseBool(raw)
		if err != nil {
			h.badRequest(c, "verified", "must be true or false")
			return
		}
		params.Verified = &verified
	}

	employers, err := h.service.ListEmployers(c.Request.Context(), params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, employers)
}

// VerifyEmployer marks an employer verified and activates a pending owner
// @Summary Verify employer
// @Tags admin
// @Produce json
// @Param id path int true "Employer profile ID"
// @Success 200 {object} models.EmployerProfile
// @Router /admin/employers/{id}/verify [put]
func (h *AdminHandler) VerifyEmployer(c *gin.Context) {
	h.LogRequest(c, "Verifying employer")

	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	employer, err := h.service.VerifyEmployer(c.Request.Context(), principal, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, employer)
}

// VerifyOpportunity marks a listing verified
// @Summary Verify opportunity
// @Tags admin
// @Produce json
// @Param id path int true "Opportunity ID"
// @Success 200 {object} models.Opportunity
// @Router /admin/opportunities/{id}/verify [put]
func (h *AdminHandler) VerifyOpportunity(c *gin.Context) {
	h.LogRequest(c, "Verifying opportunity")

	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	opportunity, err := h.service.VerifyOpportunity(c.Request.Context(), principal, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, opportunity)
}

// UpdateUserStatus activates, deactivates or bans a user
// @Summary Update user status
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body services.UpdateUserStatusRequest true "Status"
// @Success 200 {object} models.User
// @Failure 422 {object} ErrorResponse "Own account"
// @Router /admin/users/{id}/status [put]
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	h.LogRequest(c, "Updating user status")

	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateUserStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.service.UpdateUserStatus(c.Request.Context(), principal, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ExportReport downloads the platform report as XLSX
// @Summary Export platform report
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /admin/reports/export [get]
func (h *AdminHandler) ExportReport(c *gin.Context) {
	h.LogRequest(c, "Exporting platform report")

	// Buffer so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := h.export.ExportPlatformReport(c.Request.Context(), &buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("platform-report-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
