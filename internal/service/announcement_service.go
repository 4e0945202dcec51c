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

type announcementRepository interface {
	Create(ctx context.Context, a *models.Announcement) error
	FindByID(ctx context.Context, id, instituteID string) (*models.Announcement, error)
	ListByInstitute(ctx context.Context, instituteID string) ([]models.Announcement, error)
	Update(ctx context.Context, a *models.Announcement) error
	Delete(ctx context.Context, id string) error
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// AnnouncementService manages institute-wide notices. The list endpoint is
// the hottest read of the portal, so it is served from Redis when possible.
type AnnouncementService struct {
	repo      announcementRepository
	cache     cacheStore
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnnouncementService constructs AnnouncementService.
func NewAnnouncementService(repo announcementRepository, cache cacheStore, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &AnnouncementService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

func announcementCacheKey(instituteID string) string {
	return fmt.Sprintf("announcements:%s", instituteID)
}

// Create publishes an announcement to the institute.
func (s *AnnouncementService) Create(ctx context.Context, instituteID, createdBy string, req models.CreateAnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}

	a := &models.Announcement{
		InstituteID: instituteID,
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Tags:        req.Tags,
		ExpiryDate:  req.ExpiryDate,
		CreatedBy:   createdBy,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	s.invalidate(ctx, instituteID)
	return a, nil
}

// List returns the institute's announcements, newest first, dropping the ones
// already past their expiry date.
func (s *AnnouncementService) List(ctx context.Context, instituteID string) ([]models.Announcement, error) {
	key := announcementCacheKey(instituteID)

	var cached []models.Announcement
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return filterExpired(cached, time.Now().UTC()), nil
		} else if err != appErrors.ErrCacheMiss {
			s.logger.Warn("announcement cache read failed", zap.Error(err))
		}
	}

	list, err := s.repo.ListByInstitute(ctx, instituteID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, list, s.cacheTTL); err != nil {
			s.logger.Warn("announcement cache write failed", zap.Error(err))
		}
	}
	return filterExpired(list, time.Now().UTC()), nil
}

func filterExpired(list []models.Announcement, now time.Time) []models.Announcement {
	active := make([]models.Announcement, 0, len(list))
	for _, a := range list {
		if a.ExpiryDate != nil && a.ExpiryDate.Before(now) {
			continue
		}
		active = append(active, a)
	}
	return active
}

// Get returns one announcement scoped to the institute.
func (s *AnnouncementService) Get(ctx context.Context, id, instituteID string) (*models.Announcement, error) {
	a, err := s.repo.FindByID(ctx, id, instituteID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}
	return a, nil
}

// Update modifies an announcement.
func (s *AnnouncementService) Update(ctx context.Context, id, instituteID string, req models.UpdateAnnouncementRequest) (*models.Announcement, error) {
	a, err := s.Get(ctx, id, instituteID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.ImageURL != nil {
		a.ImageURL = req.ImageURL
	}
	if req.Tags != nil {
		a.Tags = req.Tags
	}
	if req.ExpiryDate != nil {
		a.ExpiryDate = req.ExpiryDate
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update announcement")
	}
	s.invalidate(ctx, instituteID)
	return a, nil
}

// Delete removes an announcement.
func (s *AnnouncementService) Delete(ctx context.Context, id, instituteID string) error {
	if _, err := s.Get(ctx, id, instituteID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete announcement")
	}
	s.invalidate(ctx, instituteID)
	return nil
}

func (s *AnnouncementService) invalidate(ctx context.Context, instituteID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, announcementCacheKey(instituteID)); err != nil {
		s.logger.Warn("announcement cache invalidation failed", zap.Error(err))
	}
}
