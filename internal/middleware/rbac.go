package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/models"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/service"
	appErrors "github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/errors"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/response"
)

// RequireScope rejects callers whose claims do not resolve to a scope. With
// allowed kinds given, other scopes are rejected as forbidden. Services
// resolve the scope again from the claims they receive.
func RequireScope(allowed ...models.ScopeKind) gin.HandlerFunc {
	permitted := make(map[models.ScopeKind]struct{}, len(allowed))
	for _, kind := range allowed {
		permitted[kind] = struct{}{}
	}

	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, _ := value.(*models.JWTClaims)

		scope, err := service.ResolveScope(claims)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if len(permitted) > 0 {
			if _, ok := permitted[scope.Kind]; !ok {
				response.Error(c, appErrors.ErrForbidden)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
