package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kimconnect/internship-service/internal/services"
	"github.com/kimconnect/internship-service/internal/storage"
	"github.com/kimconnect/internship-service/internal/utils"
	"github.com/kimconnect/internship-service/internal/validator"
)

type ProfileHandler struct {
	BaseHandler
	service services.ProfileService
	store   *storage.LocalStore
}

func NewProfileHandler(service services.ProfileService, store *storage.LocalStore, logger utils.Logger) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		store:       store,
	}
}

// ===== STUDENT PROFILE =====

// GetStudentProfile returns the caller's student profile with skills
// @Summary Get student profile
// @Tags profiles
// @Produce json
// @Success 200 {object} models.StudentProfile
// @Failure 403 {object} ErrorResponse "Not a student"
// @Router /students/profile [get]
func (h *ProfileHandler) GetStudentProfile(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	profile, err := h.service.GetStudentProfile(c.Request.Context(), principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateStudentProfile accepts JSON, or multipart with a JSON `data` part and a `cv` file
// @Summary Update student profile
// @Tags profiles
// @Accept json,mpfd
// @Produce json
// @Success 200 {object} models.StudentProfile
// @Failure 400 {object} ErrorResponse "Validation error"
// @Router /students/profile [put]
func (h *ProfileHandler) UpdateStudentProfile(c *gin.Context) {
	h.LogRequest(c, "Updating student profile")

	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req services.StudentProfileUpdateRequest
	if !h.bindProfileRequest(c, &req) {
		return
	}

	cvURL, ok := h.saveUpload(c, "cv", storage.KindCV)
	if !ok {
		return
	}

	var previous *string
	if cvURL != nil {
		if current, err := h.service.GetStudentProfile(c.Request.Context(), principal); err == nil {
			previous = current.CVURL
		}
	}

	profile, err := h.service.UpdateStudentProfile(c.Request.Context(), principal, &req, cvURL)
	if err != nil {
		h.discardUpload(c, cvURL)
		h.handleServiceError(c, err)
		return
	}
	if cvURL != nil {
		h.discardUpload(c, previous)
	}

	c.JSON(http.StatusOK, profile)
}

// AddStudentSkills links existing skills to the caller's profile
// @Summary Add student skills
// @Tags profiles
// @Accept json
// @Produce json
// @Param request body services.AddSkillsRequest true "Skill ids"
// @Success 200 {array} models.Skill
// @Router /students/skills [post]
func (h *ProfileHandler) AddStudentSkills(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req services.AddSkillsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	skills, err := h.service.AddStudentSkills(c.Request.Context(), principal, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, skills)
}

// RemoveStudentSkill unlinks one skill. Removing an unlinked skill succeeds.
// @Summary Remove student skill
// @Tags profiles
// @Param skill_id path int true "Skill ID"
// @Success 204
// @Router /students/skills/{skill_id} [delete]
func (h *ProfileHandler) RemoveStudentSkill(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	skillID, ok := h.parseIDParam(c, "skill_id")
	if !ok {
		return
	}

	if err := h.service.RemoveStudentSkill(c.Request.Context(), principal, skillID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== EMPLOYER PROFILE =====

// GetEmployerProfile returns the caller's company profile
// @Summary Get employer profile
// @Tags profiles
// @Produce json
// @Success 200 {object} models.EmployerProfile
// @Router /employers/profile [get]
func (h *ProfileHandler) GetEmployerProfile(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	profile, err := h.service.GetEmployerProfile(c.Request.Context(), principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateEmployerProfile accepts JSON, or multipart with a JSON `data` part and a `logo` file
// @Summary Update employer profile
// @Tags profiles
// @Accept json,mpfd
// @Produce json
// @Success 200 {object} models.EmployerProfile
// @Failure 400 {object} ErrorResponse "Validation error"
// @Router /employers/profile [put]
func (h *ProfileHandler) UpdateEmployerProfile(c *gin.Context) {
	h.LogRequest(c, "Updating employer profile")

	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req services.EmployerProfileUpdateRequest
	if !h.bindProfileRequest(c, &req) {
		return
	}

	logoURL, ok := h.saveUpload(c, "logo", storage.KindLogo)
	if !ok {
		return
	}

	var previous *string
	if logoURL != nil {
		if current, err := h.service.GetEmployerProfile(c.Request.Context(), principal); err == nil {
			previous = current.LogoURL
		}
	}

	profile, err := h.service.UpdateEmployerProfile(c.Request.Context(), principal, &req, logoURL)
	if err != nil {
		h.discardUpload(c, logoURL)
		h.handleServiceError(c, err)
		return
	}
	if logoURL != nil {
		h.discardUpload(c, previous)
	}

	c.JSON(http.StatusOK, profile)
}

// ===== SKILLS =====

// ListSkills returns the skill catalog ordered by name
// @Summary List skills
// @Tags skills
// @Produce json
// @Success 200 {array} models.Skill
// @Router /skills [get]
func (h *ProfileHandler) ListSkills(c *gin.Context) {
	skills, err := h.service.ListSkills(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, skills)
}

// ===== HELPERS =====

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// bindProfileRequest reads a JSON body, or the `data` field of a multipart form.
func (h *ProfileHandler) bindProfileRequest(c *gin.Context, dest interface{}) bool {
	if !isMultipart(c) {
		return h.bindJSON(c, dest)
	}

	data := c.PostForm("data")
	if data == "" {
		return true
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		h.abort(c, http.StatusBadRequest, CodeValidation, "Invalid request body",
			validator.NewFieldError("data", "must be a JSON object", nil, "json"))
		return false
	}
	return true
}

// saveUpload stores the named multipart file. A nil URL means no file was sent.
func (h *ProfileHandler) saveUpload(c *gin.Context, field string, kind storage.Kind) (*string, bool) {
	if !isMultipart(c) {
		return nil, true
	}

	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	if err != nil {
		h.badRequest(c, field, "could not read uploaded file")
		return nil, false
	}
	if header.Size > h.store.MaxBytes() {
		h.handleServiceError(c, storage.ErrTooLarge)
		return nil, false
	}

	file, err := header.Open()
	if err != nil {
		h.badRequest(c, field, "could not read uploaded file")
		return nil, false
	}
	defer file.Close()

	url, err := h.store.Save(c.Request.Context(), kind, file)
	if err != nil {
		h.handleServiceError(c, err)
		return nil, false
	}

	h.log(c).Info("Stored upload", "kind", kind, "url", url, "size", header.Size)
	return &url, true
}

func (h *ProfileHandler) discardUpload(c *gin.Context, url *string) {
	if url == nil {
		return
	}
	if err := h.store.Delete(*url); err != nil {
		h.LogError(c, err, "Failed to delete upload")
	}
}
