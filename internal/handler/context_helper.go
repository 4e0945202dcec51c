package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campusgate/campusgate-api/internal/middleware"
	"github.com/campusgate/campusgate-api/internal/models"
)

func actorFromContext(c *gin.Context) *models.Actor {
	value, exists := c.Get(middleware.ContextActorKey)
	if !exists {
		return nil
	}
	actor, ok := value.(*models.Actor)
	if !ok {
		return nil
	}
	return actor
}

func instituteFromContext(c *gin.Context) string {
	value, exists := c.Get(middleware.ContextInstituteKey)
	if !exists {
		return ""
	}
	id, _ := value.(string)
	return id
}
