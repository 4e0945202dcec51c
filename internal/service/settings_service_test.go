package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusgate/campusgate-api/internal/models"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
)

type mockSettingsStore struct {
	settings *models.PortalSettings
	created  []*models.PortalSettings
	updated  []*models.PortalSettings
}

func (m *mockSettingsStore) FindByInstitute(ctx context.Context, instituteID string) (*models.PortalSettings, error) {
	if m.settings == nil || m.settings.InstituteID != instituteID {
		return nil, sql.ErrNoRows
	}
	return m.settings, nil
}

func (m *mockSettingsStore) Create(ctx context.Context, settings *models.PortalSettings) error {
	m.created = append(m.created, settings)
	m.settings = settings
	return nil
}

func (m *mockSettingsStore) Update(ctx context.Context, settings *models.PortalSettings) error {
	m.updated = append(m.updated, settings)
	m.settings = settings
	return nil
}

// memoryCache is a map-backed stand-in for the Redis cache repository.
type memoryCache struct {
	values map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = raw
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	delete(c.values, key)
	return nil
}

func TestSettingsServiceGetCreatesDefaults(t *testing.T) {
	repo := &mockSettingsStore{}
	svc := NewSettingsService(repo, newMemoryCache(), time.Minute, validator.New(), zap.NewNop())

	settings, err := svc.Get(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "My Institute", settings.InstituteName)
	assert.Equal(t, models.InstituteSchool, settings.InstituteType)
	assert.Equal(t, "#1890ff", settings.PrimaryColor)
	assert.Equal(t, "#13c2c2", settings.SecondaryColor)
	assert.True(t, settings.Permissions.AdminPortal.Enabled)
	assert.False(t, settings.Permissions.TeacherPortal.Enabled)
	assert.False(t, settings.Permissions.StudentPortal.Enabled)
	require.Len(t, repo.created, 1)
}

func TestSettingsServiceGetServesFromCache(t *testing.T) {
	repo := &mockSettingsStore{settings: &models.PortalSettings{ID: "ps-1", InstituteID: "inst-1", InstituteName: "Northside High"}}
	cache := newMemoryCache()
	svc := NewSettingsService(repo, cache, time.Minute, validator.New(), zap.NewNop())

	first, err := svc.Get(context.Background(), "inst-1")
	require.NoError(t, err)

	// Point the repo at a different row; the cached copy should still win.
	repo.settings = &models.PortalSettings{ID: "ps-2", InstituteID: "inst-1", InstituteName: "Renamed"}
	second, err := svc.Get(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.Equal(t, first.InstituteName, second.InstituteName)
}

func TestSettingsServiceUpdateAppliesPartialFields(t *testing.T) {
	repo := &mockSettingsStore{settings: &models.PortalSettings{
		ID:            "ps-1",
		InstituteID:   "inst-1",
		InstituteName: "My Institute",
		InstituteType: models.InstituteSchool,
		PrimaryColor:  "#1890ff",
	}}
	svc := NewSettingsService(repo, newMemoryCache(), time.Minute, validator.New(), zap.NewNop())

	name := "Eastwood College"
	kind := models.InstituteCollege
	updated, err := svc.Update(context.Background(), "inst-1", models.UpdateSettingsRequest{
		InstituteName: &name,
		InstituteType: &kind,
	})
	require.NoError(t, err)
	assert.Equal(t, "Eastwood College", updated.InstituteName)
	assert.Equal(t, models.InstituteCollege, updated.InstituteType)
	assert.Equal(t, "#1890ff", updated.PrimaryColor)
	require.Len(t, repo.updated, 1)
}

func TestSettingsServiceUpdateTogglesPortal(t *testing.T) {
	repo := &mockSettingsStore{}
	cache := newMemoryCache()
	svc := NewSettingsService(repo, cache, time.Minute, validator.New(), zap.NewNop())

	perms := models.PortalPermissions{
		AdminPortal:   models.PortalAccess{Enabled: true},
		TeacherPortal: models.PortalAccess{Enabled: true},
		StudentPortal: models.PortalAccess{Enabled: true},
	}
	updated, err := svc.Update(context.Background(), "inst-1", models.UpdateSettingsRequest{Permissions: &perms})
	require.NoError(t, err)
	assert.True(t, updated.Permissions.StudentPortal.Enabled)

	// Cache must reflect the new permissions immediately.
	fetched, err := svc.Get(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.True(t, fetched.Permissions.TeacherPortal.Enabled)
}
