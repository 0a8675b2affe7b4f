package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/services"
	"github.com/springgate/practice-exam-service/internal/utils"
)

// AuthMiddleware validates the session on every request behind the gate and
// stores the user in the request context. Browser clients get a redirect to
// the login page; API clients get a JSON 401.
type AuthMiddleware struct {
	auth   services.AuthService
	logger utils.Logger
}

func NewAuthMiddleware(auth services.AuthService, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, logger: logger}
}

// sessionToken reads the token from the cookie first, then the bearer
// header, so browser and API clients share one gate.
func sessionToken(c *gin.Context) string {
	if token, err := c.Cookie(sessionCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// wantsJSON decides how to reject an unauthenticated request. Anything that
// accepts JSON or arrived via XHR gets a structured 401; plain browser
// navigation is redirected to the login page.
func wantsJSON(c *gin.Context) bool {
	if c.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "application/json") || !strings.Contains(accept, "text/html")
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := m.auth.ValidateSession(c.Request.Context(), sessionToken(c))
		if err != nil {
			// A storage outage is not an invalid session; do not bounce
			// authenticated users to the login page over it.
			if errors.Is(err, services.ErrStorageUnavailable) {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{
					Message: "service temporarily unavailable",
					Code:    "storage_unavailable",
				})
				return
			}
			if wantsJSON(c) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
					Message: "authentication required",
					Code:    "unauthorized",
				})
			} else {
				c.Redirect(http.StatusFound, "/auth/login")
				c.Abort()
			}
			return
		}

		c.Set(contextUserKey, user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// RequireRole gates a route group to one role. It assumes RequireAuth ran
// earlier in the chain.
func (m *AuthMiddleware) RequireRole(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "authentication required",
				Code:    "unauthorized",
			})
			return
		}
		if user.RoleName != role {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "insufficient permissions",
				Code:    "forbidden",
			})
			return
		}
		c.Next()
	}
}

// RequirePermission gates on a single capability from the role's permission
// set instead of the role name.
func (m *AuthMiddleware) RequirePermission(check func(models.Permissions) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "authentication required",
				Code:    "unauthorized",
			})
			return
		}
		perms, err := user.Role.ParsePermissions()
		if err != nil || !check(perms) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "insufficient permissions",
				Code:    "forbidden",
			})
			return
		}
		c.Next()
	}
}
