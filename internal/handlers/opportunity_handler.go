package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/services"
	"github.com/kimconnect/internship-service/internal/utils"
)

type OpportunityHandler struct {
	BaseHandler
	service        services.OpportunityService
	recommendation services.RecommendationService
}

func NewOpportunityHandler(service services.OpportunityService, recommendation services.RecommendationService, logger utils.Logger) *OpportunityHandler {
	return &OpportunityHandler{
		BaseHandler:    NewBaseHandler(logger),
		service:        service,
		recommendation: recommendation,
	}
}

// ===== CATALOG =====

// ListOpportunities browses the catalog
// @Summary List opportunities
// @Description Anonymous callers and students see active verified listings. Employers see their own catalog. Admins may pass show_all.
// @Tags opportunities
// @Produce json
// @Param page query int false "Page number, zero based (default: 0)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param category query string false "Category"
// @Param location_type query string false "remote, in-person or hybrid"
// @Param skills query string false "Comma separated skill ids, all must match"
// @Param search query string false "Text in title, description or company name"
// @Param show_all query bool false "Admins only: include hidden listings"
// @Success 200 {object} models.PaginatedResponse
// @Failure 400 {object} ErrorResponse "Bad request"
// @Router /opportunities [get]
func (h *OpportunityHandler) ListOpportunities(c *gin.Context) {
	h.LogRequest(c, "Listing opportunities")

	params := models.ListOpportunitiesParams{
		Category: strings.TrimSpace(c.Query("category")),
		Search:   strings.TrimSpace(c.Query("search")),
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "0")); err == nil && page >= 0 {
		params.Page = page
	}
	if size, err := strconv.Atoi(c.Query("size")); err == nil && size > 0 {
		params.Size = size
	}

	if lt := c.Query("location_type"); lt != "" {
		switch locationType := models.LocationType(lt); locationType {
		case models.LocationRemote, models.LocationInPerson, models.LocationHybrid:
			params.LocationType = locationType
		default:
			h.badRequest(c, "location_type", "must be remote, in-person, or hybrid")
			return
		}
	}

	if raw := c.Query("skills"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
			if err != nil || id == 0 {
				h.badRequest(c, "skills", "must be a comma separated list of skill ids")
				return
			}
			params.SkillIDs = append(params.SkillIDs, uint(id))
		}
	}

	showAll, _ := strconv.ParseBool(c.Query("show_all"))
	principal, _ := optionalPrincipal(c)

	result, err := h.service.List(c.Request.Context(), principal, params, showAll)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetOpportunity returns one listing with caller-specific flags
// @Summary Get opportunity
// @Tags opportunities
// @Produce json
// @Param id path int true "Opportunity ID"
// @Success 200 {object} models.OpportunityDetail
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /opportunities/{id} [get]
func (h *OpportunityHandler) GetOpportunity(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	principal, _ := optionalPrincipal(c)
	detail, err := h.service.GetByID(c.Request.Context(), principal, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// GetRecommended ranks visible listings for the calling student
// @Summary Recommended opportunities
// @Tags opportunities
// @Produce json
// @Param limit query int false "Maximum results"
// @Success 200 {array} models.RecommendedOpportunity
// @Router /opportunities/recommended [get]
func (h *OpportunityHandler) GetRecommended(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.badRequest(c, "limit", "must be a positive integer")
			return
		}
		limit = parsed
	}

	recommended, err := h.recommendation.GetRecommended(c.Request.Context(), principal, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, recommended)
}

// ===== EMPLOYER MANAGEMENT =====

// CreateOpportunity publishes a listing pending admin verification
// @Summary Create opportunity
// @Tags opportunities
// @Accept json
// @Produce json
// @Param request body services.CreateOpportunityRequest true "Opportunity"
// @Success 201 {object} models.Opportunity
// @Failure 400 {object} ErrorResponse "Validation error"
// @Router /opportunities [post]
func (h *OpportunityHandler) CreateOpportunity(c *gin.Context) {
	h.LogRequest(c, "Creating opportunity")

	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req services.CreateOpportunityRequest
	if !h.bindJSON(c, &req) {
		return
	}

	opportunity, err := h.service.Create(c.Request.Context(), principal, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, opportunity)
}

// UpdateOpportunity applies a partial update
// @Summary Update opportunity
// @Tags opportunities
// @Accept json
// @Produce json
// @Param id path int true "Opportunity ID"
// @Success 200 {object} models.Opportunity
// @Failure 403 {object} ErrorResponse "Not the owner"
// @Router /opportunities/{id} [put]
func (h *OpportunityHandler) UpdateOpportunity(c *gin.Context) {
	h.LogRequest(c, "Updating opportunity")

	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateOpportunityRequest
	if !h.bindJSON(c, &req) {
		return
	}

	opportunity, err := h.service.Update(c.Request.Context(), principal, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, opportunity)
}

// DeleteOpportunity removes a listing with its skills and bookmarks
// @Summary Delete opportunity
// @Tags opportunities
// @Param id path int true "Opportunity ID"
// @Success 204
// @Router /opportunities/{id} [delete]
func (h *OpportunityHandler) DeleteOpportunity(c *gin.Context) {
	h.LogRequest(c, "Deleting opportunity")

	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveSkill detaches one required skill
// @Summary Remove opportunity skill
// @Tags opportunities
// @Param id path int true "Opportunity ID"
// @Param skill_id path int true "Skill ID"
// @Success 204
// @Router /opportunities/{id}/skills/{skill_id} [delete]
func (h *OpportunityHandler) RemoveSkill(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	skillID, ok := h.parseIDParam(c, "skill_id")
	if !ok {
		return
	}

	if err := h.service.RemoveSkill(c.Request.Context(), principal, id, skillID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== SAVED =====

// SaveOpportunity bookmarks a listing. Saving twice succeeds.
// @Summary Save opportunity
// @Tags saved
// @Param id path int true "Opportunity ID"
// @Success 204
// @Router /opportunities/{id}/save [post]
func (h *OpportunityHandler) SaveOpportunity(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Save(c.Request.Context(), principal, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UnsaveOpportunity removes a bookmark
// @Summary Unsave opportunity
// @Tags saved
// @Param id path int true "Opportunity ID"
// @Success 204
// @Router /opportunities/{id}/save [delete]
func (h *OpportunityHandler) UnsaveOpportunity(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Unsave(c.Request.Context(), principal, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListSaved returns the caller's bookmarks, newest first
// @Summary List saved opportunities
// @Tags saved
// @Produce json
// @Success 200 {array} models.SavedOpportunity
// @Router /opportunities/saved [get]
func (h *OpportunityHandler) ListSaved(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	saved, err := h.service.ListSaved(c.Request.Context(), principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, saved)
}
