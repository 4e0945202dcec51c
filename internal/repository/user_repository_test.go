package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/campusgate-api/internal/models"
)

func newUserRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestUserRepositoryFindByEmailLowercases(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "username", "password_hash", "first_name", "last_name", "phone", "role", "last_login", "created_at", "updated_at"}).
		AddRow("u1", "admin@example.com", "admin", "hash", "Ada", "Admin", "", "admin", nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, email, username, password_hash").
		WithArgs("admin@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "Admin@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateStoresLowercaseEmail(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "new@example.com", "newbie", "hash", "New", "User", "", "student", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{
		Email:        "New@Example.com",
		Username:     "newbie",
		PasswordHash: "hash",
		FirstName:    "New",
		LastName:     "User",
		Role:         models.RoleStudent,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "new@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositorySessionLifecycle(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(sqlmock.AnyArg(), "u1", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	session := &models.Session{UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.CreateSession(context.Background(), session))
	require.NotEmpty(t, session.ID)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET access_token = $2 WHERE id = $1")).
		WithArgs(session.ID, "signed-token").
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.SetSessionToken(context.Background(), session.ID, "signed-token"))

	rows := sqlmock.NewRows([]string{"id", "user_id", "access_token", "expires_at", "created_at"}).
		AddRow(session.ID, "u1", "signed-token", session.ExpiresAt, time.Now())
	mock.ExpectQuery("SELECT id, user_id, access_token, expires_at, created_at FROM sessions").
		WithArgs(session.ID).
		WillReturnRows(rows)

	found, err := repo.FindSessionByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", found.UserID)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = $1")).
		WithArgs(session.ID).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.DeleteSession(context.Background(), session.ID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("taken@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "Taken@Example.com")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
