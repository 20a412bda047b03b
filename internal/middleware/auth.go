package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sudhanshu-m21/task-tracker-api/internal/auth"
	"github.com/sudhanshu-m21/task-tracker-api/internal/constants"
	"github.com/sudhanshu-m21/task-tracker-api/internal/httperr"
	"github.com/sudhanshu-m21/task-tracker-api/internal/models"
	"github.com/sudhanshu-m21/task-tracker-api/internal/services"
)

// RequireAuth decodes the bearer token and resolves the caller identity,
// storing it in the request context for handlers.
func RequireAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, constants.BearerPrefix) {
			httperr.Unauthorized(c, "")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, constants.BearerPrefix))
		if token == "" {
			httperr.Unauthorized(c, "")
			return
		}

		identity, err := authService.Verify(token)
		if err != nil {
			httperr.Unauthorized(c, "")
			return
		}

		c.Set(constants.ContextKeyIdentity, identity)
		c.Next()
	}
}

// RequireAdmin gates a route group to admin callers. Must run after
// RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			httperr.Unauthorized(c, "")
			return
		}
		if identity.Role != models.RoleAdmin {
			httperr.Forbidden(c, "Role "+string(identity.Role)+" is not authorized to access this route")
			return
		}
		c.Next()
	}
}

// GetIdentity retrieves the authenticated identity from context.
func GetIdentity(c *gin.Context) (auth.Identity, bool) {
	v, exists := c.Get(constants.ContextKeyIdentity)
	if !exists {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}
