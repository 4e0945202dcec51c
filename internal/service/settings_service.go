package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusgate/campusgate-api/internal/models"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
)

type settingsRepository interface {
	FindByInstitute(ctx context.Context, instituteID string) (*models.PortalSettings, error)
	Create(ctx context.Context, settings *models.PortalSettings) error
	Update(ctx context.Context, settings *models.PortalSettings) error
}

// SettingsService serves per-institute portal configuration. The row is
// created with defaults on first access so reads never 404.
type SettingsService struct {
	repo      settingsRepository
	cache     cacheStore
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs SettingsService.
func NewSettingsService(repo settingsRepository, cache cacheStore, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &SettingsService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

func settingsCacheKey(instituteID string) string {
	return fmt.Sprintf("settings:%s", instituteID)
}

// Get returns the institute's settings, creating the default row when none
// exists yet.
func (s *SettingsService) Get(ctx context.Context, instituteID string) (*models.PortalSettings, error) {
	key := settingsCacheKey(instituteID)

	if s.cache != nil {
		var cached models.PortalSettings
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if err != appErrors.ErrCacheMiss {
			s.logger.Warn("settings cache read failed", zap.Error(err))
		}
	}

	settings, err := s.repo.FindByInstitute(ctx, instituteID)
	if err != nil {
		if err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
		}
		defaults := models.DefaultPortalSettings(instituteID)
		if err := s.repo.Create(ctx, &defaults); err != nil {
			if appErrors.IsUniqueViolation(err) {
				// Lost a create race; the winner's row is authoritative.
				return s.reload(ctx, instituteID)
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create default settings")
		}
		settings = &defaults
	}

	s.store(ctx, key, settings)
	return settings, nil
}

func (s *SettingsService) reload(ctx context.Context, instituteID string) (*models.PortalSettings, error) {
	settings, err := s.repo.FindByInstitute(ctx, instituteID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	return settings, nil
}

// Update partially applies settings changes and refreshes the cache.
func (s *SettingsService) Update(ctx context.Context, instituteID string, req models.UpdateSettingsRequest) (*models.PortalSettings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}

	settings, err := s.Get(ctx, instituteID)
	if err != nil {
		return nil, err
	}

	if req.InstituteName != nil {
		settings.InstituteName = *req.InstituteName
	}
	if req.InstituteType != nil {
		settings.InstituteType = *req.InstituteType
	}
	if req.PrimaryColor != nil {
		settings.PrimaryColor = *req.PrimaryColor
	}
	if req.SecondaryColor != nil {
		settings.SecondaryColor = *req.SecondaryColor
	}
	if req.LogoURL != nil {
		settings.LogoURL = *req.LogoURL
	}
	if req.Address != nil {
		settings.Address = *req.Address
	}
	if req.ContactEmail != nil {
		settings.ContactEmail = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		settings.ContactPhone = *req.ContactPhone
	}
	if req.Permissions != nil {
		settings.Permissions = *req.Permissions
	}

	if err := s.repo.Update(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update settings")
	}

	key := settingsCacheKey(instituteID)
	if s.cache != nil {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("settings cache invalidation failed", zap.Error(err))
		}
	}
	s.store(ctx, key, settings)
	return settings, nil
}

func (s *SettingsService) store(ctx context.Context, key string, settings *models.PortalSettings) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, settings, s.cacheTTL); err != nil {
		s.logger.Warn("settings cache write failed", zap.Error(err))
	}
}
