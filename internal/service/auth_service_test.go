package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusgate/campusgate-api/internal/models"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
)

type mockUserRepo struct {
	userByEmail    *models.User
	findByEmailErr error
	createdUsers   []*models.User
	deletedUsers   []string
	emailExists    bool
	sessions       map[string]*models.Session
	lastLoginSet   bool
	passwordHash   string
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	if m.userByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.userByEmail != nil && m.userByEmail.ID == id {
		return m.userByEmail, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return m.emailExists, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-1"
	}
	m.createdUsers = append(m.createdUsers, user)
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	m.deletedUsers = append(m.deletedUsers, id)
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginSet = true
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.passwordHash = passwordHash
	return nil
}

func (m *mockUserRepo) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = "session-1"
	}
	if m.sessions == nil {
		m.sessions = make(map[string]*models.Session)
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *mockUserRepo) SetSessionToken(ctx context.Context, id, token string) error {
	if s, ok := m.sessions[id]; ok {
		s.AccessToken = token
	}
	return nil
}

func (m *mockUserRepo) FindSessionByID(ctx context.Context, id string) (*models.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return s, nil
}

func (m *mockUserRepo) DeleteSession(ctx context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

type mockStudentProfileRepo struct {
	byUserID   *models.Student
	byID       *models.Student
	created    []*models.Student
	createErr  error
	nextRollNo int
}

func (m *mockStudentProfileRepo) Create(ctx context.Context, student *models.Student) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, student)
	return nil
}

func (m *mockStudentProfileRepo) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	if m.byUserID == nil {
		return nil, sql.ErrNoRows
	}
	return m.byUserID, nil
}

func (m *mockStudentProfileRepo) Get(ctx context.Context, id string) (*models.Student, error) {
	if m.byID == nil {
		return nil, sql.ErrNoRows
	}
	return m.byID, nil
}

func (m *mockStudentProfileRepo) NextRollNo(ctx context.Context, instituteID string) (int, error) {
	if m.nextRollNo == 0 {
		m.nextRollNo = 1
	}
	return m.nextRollNo, nil
}

type mockTeacherProfileRepo struct {
	byUserID *models.Teacher
	byID     *models.Teacher
	created  []*models.Teacher
}

func (m *mockTeacherProfileRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	m.created = append(m.created, teacher)
	return nil
}

func (m *mockTeacherProfileRepo) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	if m.byUserID == nil {
		return nil, sql.ErrNoRows
	}
	return m.byUserID, nil
}

func (m *mockTeacherProfileRepo) Get(ctx context.Context, id string) (*models.Teacher, error) {
	if m.byID == nil {
		return nil, sql.ErrNoRows
	}
	return m.byID, nil
}

type mockSettingsRepo struct {
	settings *models.PortalSettings
}

func (m *mockSettingsRepo) FindByInstitute(ctx context.Context, instituteID string) (*models.PortalSettings, error) {
	if m.settings == nil {
		return nil, sql.ErrNoRows
	}
	return m.settings, nil
}

func newTestAuthService(users *mockUserRepo, students *mockStudentProfileRepo, teachers *mockTeacherProfileRepo, settings *mockSettingsRepo) *AuthService {
	return NewAuthService(users, students, teachers, settings, validator.New(), zap.NewNop(), AuthConfig{
		SessionSecret: "secret",
		SessionTTL:    time.Hour,
	})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	users := &mockUserRepo{userByEmail: &models.User{ID: "admin-1", Email: "admin@example.com", PasswordHash: string(hash), Role: models.RoleAdmin}}
	svc := newTestAuthService(users, &mockStudentProfileRepo{}, &mockTeacherProfileRepo{}, &mockSettingsRepo{})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "admin-1", res.User.ID)
	assert.Nil(t, res.Settings)
	assert.True(t, users.lastLoginSet)
	assert.NotEmpty(t, users.sessions)
}

func TestAuthServiceLoginAdminGetsOwnSettings(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	users := &mockUserRepo{userByEmail: &models.User{ID: "admin-1", Email: "admin@example.com", PasswordHash: string(hash), Role: models.RoleAdmin}}
	settings := &mockSettingsRepo{settings: &models.PortalSettings{
		InstituteID: "admin-1",
		Permissions: models.PortalPermissions{
			AdminPortal: models.PortalAccess{Enabled: false},
		},
	}}
	svc := newTestAuthService(users, &mockStudentProfileRepo{}, &mockTeacherProfileRepo{}, settings)

	// Admins are never gated, even by their own disabled flag.
	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "password"})
	require.NoError(t, err)
	require.NotNil(t, res.Settings)
	assert.Equal(t, "admin-1", res.Settings.InstituteID)
}

func TestAuthServiceLoginUserNotFound(t *testing.T) {
	svc := newTestAuthService(&mockUserRepo{}, &mockStudentProfileRepo{}, &mockTeacherProfileRepo{}, &mockSettingsRepo{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "password"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	assert.Equal(t, "User not found", appErr.Message)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	users := &mockUserRepo{userByEmail: &models.User{ID: "u1", Email: "user@example.com", PasswordHash: string(hash), Role: models.RoleAdmin}}
	svc := newTestAuthService(users, &mockStudentProfileRepo{}, &mockTeacherProfileRepo{}, &mockSettingsRepo{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginPortalDisabled(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	users := &mockUserRepo{userByEmail: &models.User{ID: "u1", Email: "student@example.com", PasswordHash: string(hash), Role: models.RoleStudent}}
	students := &mockStudentProfileRepo{byUserID: &models.Student{ID: "s1", UserID: "u1", InstituteID: "inst-1"}}
	settings := &mockSettingsRepo{settings: &models.PortalSettings{
		InstituteID: "inst-1",
		Permissions: models.PortalPermissions{
			AdminPortal:   models.PortalAccess{Enabled: true},
			StudentPortal: models.PortalAccess{Enabled: false},
		},
	}}
	svc := newTestAuthService(users, students, &mockTeacherProfileRepo{}, settings)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPortalDisabled.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginNoSettingsRowAllowsAccess(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	users := &mockUserRepo{userByEmail: &models.User{ID: "u1", Email: "student@example.com", PasswordHash: string(hash), Role: models.RoleStudent}}
	students := &mockStudentProfileRepo{byUserID: &models.Student{ID: "s1", UserID: "u1", InstituteID: "inst-1"}}
	svc := newTestAuthService(users, students, &mockTeacherProfileRepo{}, &mockSettingsRepo{})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Nil(t, res.Settings)
}

func TestAuthServiceLoginReturnsPortalSettings(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	users := &mockUserRepo{userByEmail: &models.User{ID: "u1", Email: "student@example.com", PasswordHash: string(hash), Role: models.RoleStudent}}
	students := &mockStudentProfileRepo{byUserID: &models.Student{ID: "s1", UserID: "u1", InstituteID: "inst-1"}}
	settings := &mockSettingsRepo{settings: &models.PortalSettings{
		InstituteID: "inst-1",
		Permissions: models.PortalPermissions{
			AdminPortal:   models.PortalAccess{Enabled: true},
			StudentPortal: models.PortalAccess{Enabled: true},
		},
	}}
	svc := newTestAuthService(users, students, &mockTeacherProfileRepo{}, settings)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "password"})
	require.NoError(t, err)
	require.NotNil(t, res.Settings)
	assert.Equal(t, "inst-1", res.Settings.InstituteID)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	users := &mockUserRepo{emailExists: true}
	svc := newTestAuthService(users, &mockStudentProfileRepo{}, &mockTeacherProfileRepo{}, &mockSettingsRepo{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "taken@example.com",
		Username:  "taken",
		Password:  "password",
		FirstName: "Taken",
		Role:      models.RoleAdmin,
	}, "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErr.Code)
	assert.Equal(t, "User with this email already exists", appErr.Message)
}

func TestAuthServiceRegisterStudentAssignsRollNo(t *testing.T) {
	users := &mockUserRepo{}
	students := &mockStudentProfileRepo{nextRollNo: 7}
	svc := newTestAuthService(users, students, &mockTeacherProfileRepo{}, &mockSettingsRepo{})

	info, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "Student@Example.com",
		Username:  "student",
		Password:  "password",
		FirstName: "Stu",
		Role:      models.RoleStudent,
		StudentData: &models.StudentData{
			ClassID:   "class-1",
			SectionID: "section-1",
		},
	}, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "student@example.com", info.Email)
	require.Len(t, students.created, 1)
	assert.Equal(t, 7, students.created[0].RollNo)
	assert.Equal(t, "inst-1", students.created[0].InstituteID)
}

func TestAuthServiceRegisterCompensatesOnProfileFailure(t *testing.T) {
	users := &mockUserRepo{}
	students := &mockStudentProfileRepo{createErr: assert.AnError}
	svc := newTestAuthService(users, students, &mockTeacherProfileRepo{}, &mockSettingsRepo{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "student@example.com",
		Username:  "student",
		Password:  "password",
		FirstName: "Stu",
		Role:      models.RoleStudent,
		StudentData: &models.StudentData{
			ClassID:   "class-1",
			SectionID: "section-1",
		},
	}, "inst-1")
	require.Error(t, err)
	require.Len(t, users.createdUsers, 1)
	assert.Equal(t, []string{users.createdUsers[0].ID}, users.deletedUsers)
}

func TestAuthServiceRegisterStudentRequiresAdmin(t *testing.T) {
	svc := newTestAuthService(&mockUserRepo{}, &mockStudentProfileRepo{}, &mockTeacherProfileRepo{}, &mockSettingsRepo{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "student@example.com",
		Username:  "student",
		Password:  "password",
		FirstName: "Stu",
		Role:      models.RoleStudent,
		StudentData: &models.StudentData{
			ClassID:   "class-1",
			SectionID: "section-1",
		},
	}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceResolveActorSubstitutesProfileID(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	users := &mockUserRepo{userByEmail: &models.User{ID: "u1", Email: "student@example.com", PasswordHash: string(hash), Role: models.RoleStudent}}
	students := &mockStudentProfileRepo{byUserID: &models.Student{ID: "s1", UserID: "u1", InstituteID: "inst-1"}}
	svc := newTestAuthService(users, students, &mockTeacherProfileRepo{}, &mockSettingsRepo{})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "password"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)

	actor, err := svc.ResolveActor(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, "s1", actor.ID)
	assert.Equal(t, "u1", actor.UserID)
	assert.Equal(t, models.RoleStudent, actor.Role)
}

func TestAuthServiceResolveActorMissingProfile(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	users := &mockUserRepo{userByEmail: &models.User{ID: "u1", Email: "teacher@example.com", PasswordHash: string(hash), Role: models.RoleTeacher}}
	teachers := &mockTeacherProfileRepo{byUserID: &models.Teacher{ID: "t1", UserID: "u1", InstituteID: "inst-1"}}
	svc := newTestAuthService(users, &mockStudentProfileRepo{}, teachers, &mockSettingsRepo{})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@example.com", Password: "password"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)

	teachers.byUserID = nil
	_, err = svc.ResolveActor(context.Background(), claims)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Equal(t, "teacher profile not provisioned", appErr.Message)
}

func TestAuthServiceLogoutInvalidatesSession(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	users := &mockUserRepo{userByEmail: &models.User{ID: "admin-1", Email: "admin@example.com", PasswordHash: string(hash), Role: models.RoleAdmin}}
	svc := newTestAuthService(users, &mockStudentProfileRepo{}, &mockTeacherProfileRepo{}, &mockSettingsRepo{})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "password"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims.SessionID))

	_, err = svc.ResolveActor(context.Background(), claims)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceResolveInstituteID(t *testing.T) {
	students := &mockStudentProfileRepo{byID: &models.Student{ID: "s1", InstituteID: "inst-9"}}
	svc := newTestAuthService(&mockUserRepo{}, students, &mockTeacherProfileRepo{}, &mockSettingsRepo{})

	id, err := svc.ResolveInstituteID(context.Background(), &models.Actor{ID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "admin-1", id)

	id, err = svc.ResolveInstituteID(context.Background(), &models.Actor{ID: "s1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, "inst-9", id)
}
