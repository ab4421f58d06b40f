package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/yellowcard-api/internal/models"
	appErrors "github.com/noah-isme/yellowcard-api/pkg/errors"
	"github.com/noah-isme/yellowcard-api/pkg/response"
)

// RequireRoles enforces role-based access control for routes behind JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	if len(roles) == 0 {
		panic("middleware: RequireRoles needs at least one role")
	}
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "requires role "+string(roles[0])))
		c.Abort()
	}
}
