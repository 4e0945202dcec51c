package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusgate/campusgate-api/internal/models"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
)

type teacherRepository interface {
	FindByID(ctx context.Context, id, instituteID string) (*models.TeacherDetail, error)
	List(ctx context.Context, instituteID string, filter models.TeacherFilter) ([]models.TeacherDetail, int, error)
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
}

// TeacherService manages teacher profiles for institute admins.
type TeacherService struct {
	repo      teacherRepository
	users     studentUserRepository
	registrar studentRegistrar
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs TeacherService.
func NewTeacherService(repo teacherRepository, users studentUserRepository, registrar studentRegistrar, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, users: users, registrar: registrar, validator: validate, logger: logger}
}

// Create registers a new teacher account plus profile under the institute.
func (s *TeacherService) Create(ctx context.Context, instituteID string, req models.RegisterRequest) (*models.UserInfo, error) {
	req.Role = models.RoleTeacher
	return s.registrar.Register(ctx, req, instituteID)
}

// List returns teachers of the institute.
func (s *TeacherService) List(ctx context.Context, instituteID string, filter models.TeacherFilter) ([]models.TeacherDetail, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, instituteID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return teachers, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one teacher scoped to the institute.
func (s *TeacherService) Get(ctx context.Context, id, instituteID string) (*models.TeacherDetail, error) {
	detail, err := s.repo.FindByID(ctx, id, instituteID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return detail, nil
}

// Update modifies profile and account fields of a teacher.
func (s *TeacherService) Update(ctx context.Context, id, instituteID string, req models.UpdateTeacherRequest) (*models.TeacherDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	detail, err := s.Get(ctx, id, instituteID)
	if err != nil {
		return nil, err
	}

	profile := detail.Teacher
	if req.Department != nil {
		profile.Department = *req.Department
	}
	if req.Gender != nil {
		profile.Gender = *req.Gender
	}
	if req.Degree != nil {
		profile.Degree = *req.Degree
	}
	if req.Address != nil {
		profile.Address = *req.Address
	}
	if req.Status != nil {
		profile.Status = *req.Status
	}
	if req.JoiningDate != nil {
		profile.JoiningDate = req.JoiningDate
	}
	if err := s.repo.Update(ctx, &profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}

	if req.FirstName != nil || req.LastName != nil || req.Phone != nil {
		user, err := s.users.FindByID(ctx, profile.UserID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher account")
		}
		if req.FirstName != nil {
			user.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			user.LastName = *req.LastName
		}
		if req.Phone != nil {
			user.Phone = *req.Phone
		}
		if err := s.users.Update(ctx, user); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher account")
		}
	}

	return s.Get(ctx, id, instituteID)
}

// Delete removes a teacher profile and its user account.
func (s *TeacherService) Delete(ctx context.Context, id, instituteID string) error {
	detail, err := s.Get(ctx, id, instituteID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	if err := s.users.Delete(ctx, detail.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher account")
	}
	return nil
}
