package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusgate/campusgate-api/internal/middleware"
	"github.com/campusgate/campusgate-api/internal/models"
	"github.com/campusgate/campusgate-api/internal/repository"
	"github.com/campusgate/campusgate-api/internal/service"
)

func newAuthHandlerMock(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	svc := service.NewAuthService(
		repository.NewUserRepository(sqlxDB),
		repository.NewStudentRepository(sqlxDB),
		repository.NewTeacherRepository(sqlxDB),
		repository.NewSettingsRepository(sqlxDB),
		validator.New(),
		zap.NewNop(),
		service.AuthConfig{SessionSecret: "secret", SessionTTL: time.Hour},
	)
	return NewAuthHandler(svc), mock, func() { db.Close() }
}

func userRow(t *testing.T, id, email string, role models.UserRole) *sqlmock.Rows {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "email", "username", "password_hash", "first_name", "last_name",
		"phone", "role", "last_login", "created_at", "updated_at",
	}).AddRow(id, email, "user", string(hash), "First", "Last", "", string(role), nil, now, now)
}

func TestAuthHandlerChangePasswordSelf(t *testing.T) {
	h, mock, cleanup := newAuthHandlerMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("teacher@example.com").
		WillReturnRows(userRow(t, "u1", "teacher@example.com", models.RoleTeacher))
	mock.ExpectExec("UPDATE users SET password_hash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	body, _ := json.Marshal(models.ChangePasswordRequest{Email: "teacher@example.com", NewPassword: "newpassword"})
	c, w := newTestContext(t, http.MethodPost, "/auth/change-password", body)
	c.Set(middleware.ContextActorKey, &models.Actor{ID: "t1", UserID: "u1", Email: "teacher@example.com", Role: models.RoleTeacher})

	h.ChangePassword(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandlerChangePasswordOtherEmailForbidden(t *testing.T) {
	h, mock, cleanup := newAuthHandlerMock(t)
	defer cleanup()

	body, _ := json.Marshal(models.ChangePasswordRequest{Email: "victim@example.com", NewPassword: "newpassword"})
	c, w := newTestContext(t, http.MethodPost, "/auth/change-password", body)
	c.Set(middleware.ContextActorKey, &models.Actor{ID: "s1", UserID: "u1", Email: "student@example.com", Role: models.RoleStudent})

	h.ChangePassword(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandlerChangePasswordAdminForAnyUser(t *testing.T) {
	h, mock, cleanup := newAuthHandlerMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("teacher@example.com").
		WillReturnRows(userRow(t, "u2", "teacher@example.com", models.RoleTeacher))
	mock.ExpectExec("UPDATE users SET password_hash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	body, _ := json.Marshal(models.ChangePasswordRequest{Email: "teacher@example.com", NewPassword: "newpassword"})
	c, w := newTestContext(t, http.MethodPost, "/auth/change-password", body)
	c.Set(middleware.ContextActorKey, &models.Actor{ID: "admin-1", UserID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin})

	h.ChangePassword(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
