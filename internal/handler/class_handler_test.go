package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusgate/campusgate-api/internal/middleware"
	"github.com/campusgate/campusgate-api/internal/repository"
	"github.com/campusgate/campusgate-api/internal/service"
)

func newClassHandlerMock(t *testing.T) (*ClassHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	svc := service.NewClassService(
		repository.NewClassRepository(sqlxDB),
		repository.NewSectionRepository(sqlxDB),
		repository.NewStudentRepository(sqlxDB),
		validator.New(),
		zap.NewNop(),
	)
	return NewClassHandler(svc), mock, func() { db.Close() }
}

func newTestContext(t *testing.T, method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextInstituteKey, "inst-1")
	return c, w
}

func TestClassHandlerCreate(t *testing.T) {
	h, mock, cleanup := newClassHandlerMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT 1 FROM classes WHERE institute_id").
		WithArgs("inst-1", "Prep").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectExec("INSERT INTO classes").
		WillReturnResult(sqlmock.NewResult(1, 1))

	body, _ := json.Marshal(map[string]string{"name": "Prep"})
	c, w := newTestContext(t, http.MethodPost, "/classes", body)

	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Prep")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassHandlerCreateInvalidBody(t *testing.T) {
	h, _, cleanup := newClassHandlerMock(t)
	defer cleanup()

	c, w := newTestContext(t, http.MethodPost, "/classes", []byte(`not-json`))

	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClassHandlerGetNotFound(t *testing.T) {
	h, mock, cleanup := newClassHandlerMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM classes WHERE id").
		WillReturnError(sql.ErrNoRows)

	c, w := newTestContext(t, http.MethodGet, "/classes/c-missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "c-missing"}}

	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
