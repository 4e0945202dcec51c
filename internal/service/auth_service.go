package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusgate/campusgate-api/internal/models"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	CreateSession(ctx context.Context, session *models.Session) error
	SetSessionToken(ctx context.Context, id, token string) error
	FindSessionByID(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

type authStudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
	Get(ctx context.Context, id string) (*models.Student, error)
	NextRollNo(ctx context.Context, instituteID string) (int, error)
}

type authTeacherRepository interface {
	Create(ctx context.Context, teacher *models.Teacher) error
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
	Get(ctx context.Context, id string) (*models.Teacher, error)
}

type authSettingsRepository interface {
	FindByInstitute(ctx context.Context, instituteID string) (*models.PortalSettings, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
}

// AuthService provides login, registration, and session resolution.
type AuthService struct {
	users     authUserRepository
	students  authStudentRepository
	teachers  authTeacherRepository
	settings  authSettingsRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, students authStudentRepository, teachers authTeacherRepository, settings authSettingsRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = time.Hour
	}
	return &AuthService{
		users:     users,
		students:  students,
		teachers:  teachers,
		settings:  settings,
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// Login authenticates a user, enforces the portal gate for non-admin roles,
// and issues a session token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "User not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid credentials")
	}

	settings, err := s.portalSettings(ctx, user)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &models.Session{
		UserID:    user.ID,
		ExpiresAt: now.Add(s.config.SessionTTL),
	}
	if err := s.users.CreateSession(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	token, err := s.signToken(user, session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session token")
	}

	// Best effort: the session is already valid without its cached token copy.
	if err := s.users.SetSessionToken(ctx, session.ID, token); err != nil {
		s.logger.Warn("failed to store session token", zap.Error(err))
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}

	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User: models.UserInfo{
			ID:        user.ID,
			Email:     user.Email,
			Username:  user.Username,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Role:      user.Role,
		},
		Settings: settings,
	}, nil
}

// portalSettings loads the institute's settings row for the login response
// and enforces the portal gate: a teacher or student whose portal flag is
// disabled cannot log in. Admins are never gated. A missing row means no
// settings have been saved yet; access stays open and nil is returned.
func (s *AuthService) portalSettings(ctx context.Context, user *models.User) (*models.PortalSettings, error) {
	instituteID, err := s.instituteIDForUser(ctx, user)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.FindByInstitute(ctx, instituteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load portal settings")
	}

	if user.Role != models.RoleAdmin && !settings.Permissions.ForRole(user.Role).Enabled {
		return nil, appErrors.Clone(appErrors.ErrPortalDisabled, fmt.Sprintf("%s portal is disabled for this institute", user.Role))
	}
	return settings, nil
}

func (s *AuthService) instituteIDForUser(ctx context.Context, user *models.User) (string, error) {
	switch user.Role {
	case models.RoleAdmin:
		return user.ID, nil
	case models.RoleStudent:
		student, err := s.students.FindByUserID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", appErrors.Clone(appErrors.ErrForbidden, "student profile not provisioned")
			}
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
		}
		return student.InstituteID, nil
	case models.RoleTeacher:
		teacher, err := s.teachers.FindByUserID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", appErrors.Clone(appErrors.ErrForbidden, "teacher profile not provisioned")
			}
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher profile")
		}
		return teacher.InstituteID, nil
	default:
		return "", appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
}

// Register creates a user account. Student and teacher registration must be
// performed by an admin; the caller enforces that and passes the admin's user
// id as instituteID. Profile creation failure deletes the just-created user.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest, instituteID string) (*models.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	switch req.Role {
	case models.RoleStudent:
		if req.StudentData == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student_data is required for student registration")
		}
		if instituteID == "" {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "student registration requires an admin")
		}
	case models.RoleTeacher:
		if req.TeacherData == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "teacher_data is required for teacher registration")
		}
		if instituteID == "" {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "teacher registration requires an admin")
		}
	}

	// Fast path; the unique index on email is the authoritative guard.
	taken, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "User with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        strings.ToLower(req.Email),
		Username:     req.Username,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         req.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "User with this email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	if err := s.createProfile(ctx, user, req, instituteID); err != nil {
		// Compensate: without the role profile the account is unusable.
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			s.logger.Error("failed to clean up user after profile failure",
				zap.String("user_id", user.ID), zap.Error(delErr))
		}
		return nil, err
	}

	return &models.UserInfo{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	}, nil
}

func (s *AuthService) createProfile(ctx context.Context, user *models.User, req models.RegisterRequest, instituteID string) error {
	switch req.Role {
	case models.RoleStudent:
		rollNo, err := s.students.NextRollNo(ctx, instituteID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign roll number")
		}
		student := &models.Student{
			UserID:        user.ID,
			InstituteID:   instituteID,
			ClassID:       req.StudentData.ClassID,
			SectionID:     req.StudentData.SectionID,
			RollNo:        rollNo,
			Gender:        req.StudentData.Gender,
			AdmissionDate: req.StudentData.AdmissionDate,
		}
		if err := s.students.Create(ctx, student); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student profile")
		}
	case models.RoleTeacher:
		teacher := &models.Teacher{
			UserID:      user.ID,
			InstituteID: instituteID,
			Department:  req.TeacherData.Department,
			Gender:      req.TeacherData.Gender,
			Degree:      req.TeacherData.Degree,
			Address:     req.TeacherData.Address,
			JoiningDate: req.TeacherData.JoiningDate,
		}
		if err := s.teachers.Create(ctx, teacher); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher profile")
		}
	}
	return nil
}

// Logout deletes the session row; the token stops resolving immediately.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.users.DeleteSession(ctx, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	return nil
}

// ChangePassword updates a user's password by email.
func (s *AuthService) ChangePassword(ctx context.Context, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change password payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash), time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	return nil
}

// ValidateToken parses and verifies a session token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.SessionSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// ResolveActor turns verified claims into the operative request identity:
// the session must be alive, the user must exist, and teacher/student
// credentials must resolve to a provisioned role profile.
func (s *AuthService) ResolveActor(ctx context.Context, claims *models.SessionClaims) (*models.Actor, error) {
	session, err := s.users.FindSessionByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.Expired(time.Now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	actor := &models.Actor{
		ID:        user.ID,
		UserID:    user.ID,
		Email:     user.Email,
		SessionID: session.ID,
		Role:      user.Role,
	}

	switch user.Role {
	case models.RoleStudent:
		student, err := s.students.FindByUserID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrForbidden, "student profile not provisioned")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
		}
		actor.ID = student.ID
	case models.RoleTeacher:
		teacher, err := s.teachers.FindByUserID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrForbidden, "teacher profile not provisioned")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher profile")
		}
		actor.ID = teacher.ID
	}

	return actor, nil
}

// ResolveInstituteID maps an actor to its tenant: admins own their institute,
// teachers and students inherit it from their profile.
func (s *AuthService) ResolveInstituteID(ctx context.Context, actor *models.Actor) (string, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return actor.ID, nil
	case models.RoleStudent:
		student, err := s.students.Get(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", appErrors.Clone(appErrors.ErrForbidden, "student profile not provisioned")
			}
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
		}
		return student.InstituteID, nil
	case models.RoleTeacher:
		teacher, err := s.teachers.Get(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", appErrors.Clone(appErrors.ErrForbidden, "teacher profile not provisioned")
			}
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher profile")
		}
		return teacher.InstituteID, nil
	default:
		return "", appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
}

func (s *AuthService) signToken(user *models.User, session *models.Session) (string, error) {
	claims := &models.SessionClaims{
		Email:     user.Email,
		UserID:    user.ID,
		SessionID: session.ID,
		Role:      user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.SessionSecret))
}
