package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kimconnect/internship-service/internal/auth"
	"github.com/kimconnect/internship-service/internal/services"
	"github.com/kimconnect/internship-service/internal/storage"
	"github.com/kimconnect/internship-service/internal/utils"
	"github.com/kimconnect/internship-service/internal/validator"
)

// Error codes returned in ErrorResponse.Code
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeForbidden          = "FORBIDDEN"
	CodeAccountNotActive   = "ACCOUNT_NOT_ACTIVE"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeBusinessRule       = "BUSINESS_RULE"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
)

// Gin context keys set by the auth middleware
const (
	contextKeyPrincipal = "principal"
	contextKeySession   = "session"
	contextKeyUserID    = "user_id"
	contextKeyUserRole  = "user_role"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) log(c *gin.Context) utils.Logger {
	return utils.FromContext(c, h.logger)
}

func (h *BaseHandler) LogRequest(c *gin.Context, message string) {
	h.log(c).Debug(message, "method", c.Request.Method, "path", c.FullPath())
}

func (h *BaseHandler) LogError(c *gin.Context, err error, message string) {
	h.log(c).Error(message, "error", err, "method", c.Request.Method, "path", c.FullPath())
}

func (h *BaseHandler) abort(c *gin.Context, status int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: message, Details: details})
}

// badRequest reports a malformed request body or parameter.
func (h *BaseHandler) badRequest(c *gin.Context, field, message string) {
	h.abort(c, http.StatusBadRequest, CodeValidation, "Invalid request",
		validator.NewFieldError(field, message, nil, "invalid"))
}

// handleServiceError maps the service error taxonomy onto HTTP responses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs services.ValidationErrors
	if errors.As(err, &validationErrs) {
		h.abort(c, http.StatusBadRequest, CodeValidation, "Validation failed", validationErrs)
		return
	}

	var ruleErr *services.BusinessRuleError
	if errors.As(err, &ruleErr) {
		h.abort(c, http.StatusUnprocessableEntity, CodeBusinessRule, ruleErr.Message, gin.H{
			"rule":    ruleErr.Rule,
			"context": ruleErr.Context,
		})
		return
	}

	var permErr *services.PermissionError
	if errors.As(err, &permErr) {
		h.abort(c, http.StatusForbidden, CodeForbidden, "Permission denied", gin.H{
			"resource": permErr.Resource,
			"action":   permErr.Action,
			"reason":   permErr.Reason,
		})
		return
	}

	var inactiveErr *services.AccountNotActiveError
	if errors.As(err, &inactiveErr) {
		h.abort(c, http.StatusForbidden, CodeAccountNotActive, "Account is not active", gin.H{
			"status": inactiveErr.Status,
		})
		return
	}

	var transitionErr *services.TransitionError
	if errors.As(err, &transitionErr) {
		h.abort(c, http.StatusConflict, CodeInvalidTransition, transitionErr.Error(), gin.H{
			"from": transitionErr.From,
			"to":   transitionErr.To,
		})
		return
	}

	switch {
	case errors.Is(err, storage.ErrTooLarge), errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrEmptyFile):
		h.abort(c, http.StatusBadRequest, CodeValidation, "Invalid upload",
			validator.NewFieldError("file", err.Error(), nil, "file"))
	case errors.Is(err, services.ErrValidationFailed):
		h.abort(c, http.StatusBadRequest, CodeValidation, err.Error(), nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		h.abort(c, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid email or password", nil)
	case errors.Is(err, services.ErrUnauthorized):
		h.abort(c, http.StatusUnauthorized, CodeUnauthenticated, "Authentication required", nil)
	case errors.Is(err, services.ErrForbidden):
		h.abort(c, http.StatusForbidden, CodeForbidden, "Permission denied", nil)
	case errors.Is(err, services.ErrAccountNotActive):
		h.abort(c, http.StatusForbidden, CodeAccountNotActive, "Account is not active", nil)
	case errors.Is(err, services.ErrNotFound):
		h.abort(c, http.StatusNotFound, CodeNotFound, err.Error(), nil)
	case errors.Is(err, services.ErrInvalidTransition):
		h.abort(c, http.StatusConflict, CodeInvalidTransition, err.Error(), nil)
	case errors.Is(err, services.ErrConflict):
		h.abort(c, http.StatusConflict, CodeConflict, err.Error(), nil)
	case errors.Is(err, services.ErrTooManyRequests):
		h.abort(c, http.StatusTooManyRequests, CodeRateLimited, "Too many requests", nil)
	default:
		h.LogError(c, err, "Unhandled service error")
		h.abort(c, http.StatusInternalServerError, CodeInternal, "Internal server error", nil)
	}
}

// parseIDParam reads a positive numeric path parameter and writes a 400 when
// it is malformed.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		h.badRequest(c, name, "must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the body and reports decoding failures as VALIDATION_ERROR.
// Field rules are checked by the services.
func (h *BaseHandler) bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		h.abort(c, http.StatusBadRequest, CodeValidation, "Invalid request body",
			validator.ToValidationErrors(err))
		return false
	}
	return true
}

// principal returns the authenticated caller. Routes using it sit behind RequireAuth.
func (h *BaseHandler) principal(c *gin.Context) (auth.Principal, bool) {
	p, ok := optionalPrincipal(c)
	if !ok {
		h.abort(c, http.StatusUnauthorized, CodeUnauthenticated, "Authentication required", nil)
		return auth.Principal{}, false
	}
	return *p, true
}

func optionalPrincipal(c *gin.Context) (*auth.Principal, bool) {
	value, exists := c.Get(contextKeyPrincipal)
	if !exists {
		return nil, false
	}
	p, ok := value.(auth.Principal)
	if !ok {
		return nil, false
	}
	return &p, true
}

func currentSession(c *gin.Context) *services.Session {
	value, exists := c.Get(contextKeySession)
	if !exists {
		return nil
	}
	session, _ := value.(*services.Session)
	return session
}
