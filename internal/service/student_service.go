package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusgate/campusgate-api/internal/models"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
)

type studentRepository interface {
	FindByID(ctx context.Context, id, instituteID string) (*models.StudentDetail, error)
	Get(ctx context.Context, id string) (*models.Student, error)
	List(ctx context.Context, instituteID string, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type studentUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

type studentRegistrar interface {
	Register(ctx context.Context, req models.RegisterRequest, instituteID string) (*models.UserInfo, error)
}

// StudentService manages student profiles for institute admins. Creation is
// delegated to the registration flow so the user account and profile share
// the same compensating-write path.
type StudentService struct {
	repo      studentRepository
	users     studentUserRepository
	registrar studentRegistrar
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentRepository, users studentUserRepository, registrar studentRegistrar, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, users: users, registrar: registrar, validator: validate, logger: logger}
}

// Create registers a new student account plus profile under the institute.
func (s *StudentService) Create(ctx context.Context, instituteID string, req models.RegisterRequest) (*models.StudentDetail, error) {
	req.Role = models.RoleStudent
	info, err := s.registrar.Register(ctx, req, instituteID)
	if err != nil {
		return nil, err
	}

	students, _, err := s.repo.List(ctx, instituteID, models.StudentFilter{Search: info.Email, PageSize: 1})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load created student")
	}
	if len(students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInternal, "created student not found")
	}
	return &students[0], nil
}

// List returns students of the institute.
func (s *StudentService) List(ctx context.Context, instituteID string, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, instituteID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one student scoped to the institute.
func (s *StudentService) Get(ctx context.Context, id, instituteID string) (*models.StudentDetail, error) {
	detail, err := s.repo.FindByID(ctx, id, instituteID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return detail, nil
}

// Update modifies profile and account fields of a student.
func (s *StudentService) Update(ctx context.Context, id, instituteID string, req models.UpdateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	detail, err := s.Get(ctx, id, instituteID)
	if err != nil {
		return nil, err
	}

	profile := detail.Student
	if req.ClassID != nil {
		profile.ClassID = *req.ClassID
	}
	if req.SectionID != nil {
		profile.SectionID = *req.SectionID
	}
	if req.Gender != nil {
		profile.Gender = *req.Gender
	}
	if req.AdmissionDate != nil {
		profile.AdmissionDate = req.AdmissionDate
	}
	if err := s.repo.Update(ctx, &profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	if req.FirstName != nil || req.LastName != nil || req.Phone != nil {
		user, err := s.users.FindByID(ctx, profile.UserID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student account")
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
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student account")
		}
	}

	return s.Get(ctx, id, instituteID)
}

// Delete removes a student profile and its user account.
func (s *StudentService) Delete(ctx context.Context, id, instituteID string) error {
	detail, err := s.Get(ctx, id, instituteID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	if err := s.users.Delete(ctx, detail.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student account")
	}
	return nil
}
