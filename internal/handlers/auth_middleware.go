package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/services"
	"github.com/kimconnect/internship-service/internal/utils"
)

// SessionCookieName is the cookie login sets and the middleware reads.
const SessionCookieName = "session"

// AuthMiddleware resolves bearer tokens and session cookies into a principal.
// The user is re-read on every request so bans and role changes apply at once.
type AuthMiddleware struct {
	BaseHandler
	authService services.AuthService
}

func NewAuthMiddleware(authService services.AuthService, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		BaseHandler: NewBaseHandler(logger),
		authService: authService,
	}
}

// RequireAuth rejects requests without a valid session.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			m.abort(c, http.StatusUnauthorized, CodeUnauthenticated, "Authentication required", nil)
			return
		}

		session, err := m.authService.ResolveSession(c.Request.Context(), token)
		if err != nil {
			m.handleServiceError(c, err)
			return
		}

		setSession(c, session)
		c.Next()
	}
}

// OptionalAuth attaches the principal when a valid token is present and
// otherwise continues anonymously.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			session, err := m.authService.ResolveSession(c.Request.Context(), token)
			if err == nil {
				setSession(c, session)
			} else {
				m.log(c).Debug("Ignoring invalid optional credentials", "error", err)
			}
		}
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := m.principal(c)
		if !ok {
			return
		}
		if !principal.HasRole(roles...) {
			m.abort(c, http.StatusForbidden, CodeForbidden, "Insufficient permissions", gin.H{
				"required_roles": roles,
				"role":           principal.Role,
			})
			return
		}
		c.Next()
	}
}

func setSession(c *gin.Context, session *services.Session) {
	c.Set(contextKeySession, session)
	c.Set(contextKeyPrincipal, session.Principal)
	c.Set(contextKeyUserID, session.Principal.UserID)
	c.Set(contextKeyUserRole, session.Principal.Role)
}

// extractToken prefers the Authorization header over the session cookie.
func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie
	}
	return ""
}
