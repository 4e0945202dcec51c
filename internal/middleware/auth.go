package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campusgate/campusgate-api/internal/service"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
	"github.com/campusgate/campusgate-api/pkg/response"
)

// ContextActorKey is the gin context key storing the resolved actor.
const ContextActorKey = "currentActor"

// ContextInstituteKey is the gin context key storing the actor's institute id.
const ContextInstituteKey = "currentInstitute"

// Auth protects routes by requiring a live session token. It resolves the
// token into an actor and the actor into its institute, so downstream
// handlers never touch raw claims.
func Auth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		actor, err := authService.ResolveActor(c.Request.Context(), claims)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		instituteID, err := authService.ResolveInstituteID(c.Request.Context(), actor)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextActorKey, actor)
		c.Set(ContextInstituteKey, instituteID)
		c.Next()
	}
}
