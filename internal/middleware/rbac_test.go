package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/campusgate/campusgate-api/internal/models"
)

func performWithActor(actor *models.Actor, roles ...models.UserRole) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	c.Request = req
	if actor != nil {
		c.Set(ContextActorKey, actor)
	}

	RequireRoles(roles...)(c)
	if !c.IsAborted() {
		c.Status(http.StatusOK)
	}
	return w
}

func TestRequireRolesAllowsListedRole(t *testing.T) {
	w := performWithActor(&models.Actor{ID: "t1", Role: models.RoleTeacher}, models.RoleAdmin, models.RoleTeacher)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesRejectsOtherRole(t *testing.T) {
	w := performWithActor(&models.Actor{ID: "s1", Role: models.RoleStudent}, models.RoleAdmin)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRolesRejectsMissingActor(t *testing.T) {
	w := performWithActor(nil, models.RoleAdmin)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
