package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kimconnect/internship-service/internal/services"
	"github.com/kimconnect/internship-service/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	service      services.AuthService
	secureCookie bool
}

func NewAuthHandler(service services.AuthService, secureCookie bool, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler:  NewBaseHandler(logger),
		service:      service,
		secureCookie: secureCookie,
	}
}

// Register creates a student or employer account
// @Summary Register
// @Description Students receive a session immediately. Employers stay pending until an administrator verifies them.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.RegisterRequest true "Registration data"
// @Success 201 {object} services.AuthResult
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 409 {object} ErrorResponse "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	h.LogRequest(c, "Registering user")

	var req services.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if result.Token != "" {
		h.setSessionCookie(c, result.Token, result.ExpiresAt)
	}
	c.JSON(http.StatusCreated, result)
}

// Login authenticates with email and password
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.LoginRequest true "Credentials"
// @Success 200 {object} services.AuthResult
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 403 {object} ErrorResponse "Account not active"
// @Failure 429 {object} ErrorResponse "Rate limited"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	h.LogRequest(c, "Logging in")

	var req services.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	c.JSON(http.StatusOK, result)
}

// Logout revokes the current session and clears the cookie
// @Summary Logout
// @Tags auth
// @Success 204
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.LogRequest(c, "Logging out")

	if err := h.service.Logout(c.Request.Context(), currentSession(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", h.secureCookie, true)
	c.Status(http.StatusNoContent)
}

// Me returns the current user with the profile of their role
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} models.CurrentUser
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	current, err := h.service.Me(c.Request.Context(), principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, current)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, expiresAt *time.Time) {
	maxAge := 0
	if expiresAt != nil {
		maxAge = int(time.Until(*expiresAt).Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, maxAge, "/", "", h.secureCookie, true)
}
