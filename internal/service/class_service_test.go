package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusgate/campusgate-api/internal/models"
	appErrors "github.com/campusgate/campusgate-api/pkg/errors"
)

type mockClassRepo struct {
	byID       *models.Class
	nameExists bool
	created    []*models.Class
	updated    []*models.Class
	deleted    []string
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	m.created = append(m.created, class)
	return nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id, instituteID string) (*models.Class, error) {
	if m.byID == nil || m.byID.InstituteID != instituteID {
		return nil, sql.ErrNoRows
	}
	return m.byID, nil
}

func (m *mockClassRepo) List(ctx context.Context, instituteID string) ([]models.Class, error) {
	if m.byID == nil {
		return nil, nil
	}
	return []models.Class{*m.byID}, nil
}

func (m *mockClassRepo) ExistsByName(ctx context.Context, instituteID, name, excludeID string) (bool, error) {
	return m.nameExists, nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.Class) error {
	m.updated = append(m.updated, class)
	return nil
}

func (m *mockClassRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockClassSectionRepo struct {
	sections []models.Section
	stats    []models.SectionStats
}

func (m *mockClassSectionRepo) List(ctx context.Context, instituteID, classID string) ([]models.Section, error) {
	return m.sections, nil
}

func (m *mockClassSectionRepo) Stats(ctx context.Context, classID string) ([]models.SectionStats, error) {
	return m.stats, nil
}

type mockClassStudentRepo struct {
	count int
}

func (m *mockClassStudentRepo) CountByClass(ctx context.Context, classID string) (int, error) {
	return m.count, nil
}

func newTestClassService(repo *mockClassRepo, sections *mockClassSectionRepo, students *mockClassStudentRepo) *ClassService {
	return NewClassService(repo, sections, students, validator.New(), zap.NewNop())
}

func TestClassServiceCreateDuplicateName(t *testing.T) {
	repo := &mockClassRepo{nameExists: true}
	svc := newTestClassService(repo, &mockClassSectionRepo{}, &mockClassStudentRepo{})

	_, err := svc.Create(context.Background(), "inst-1", models.CreateClassRequest{Name: "Grade 10"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErr.Code)
	assert.Equal(t, "Class with this name already exists", appErr.Message)
	assert.Empty(t, repo.created)
}

func TestClassServiceCreateSuccess(t *testing.T) {
	repo := &mockClassRepo{}
	svc := newTestClassService(repo, &mockClassSectionRepo{}, &mockClassStudentRepo{})

	class, err := svc.Create(context.Background(), "inst-1", models.CreateClassRequest{Name: "Grade 10", Description: "senior year"})
	require.NoError(t, err)
	assert.Equal(t, "inst-1", class.InstituteID)
	assert.Equal(t, "Grade 10", class.Name)
	require.Len(t, repo.created, 1)
}

func TestClassServiceGetScopedToInstitute(t *testing.T) {
	repo := &mockClassRepo{byID: &models.Class{ID: "c1", InstituteID: "inst-1", Name: "Grade 10"}}
	svc := newTestClassService(repo, &mockClassSectionRepo{}, &mockClassStudentRepo{})

	_, err := svc.Get(context.Background(), "c1", "inst-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	class, err := svc.Get(context.Background(), "c1", "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "c1", class.ID)
}

func TestClassServiceDeleteBlockedWithStudents(t *testing.T) {
	repo := &mockClassRepo{byID: &models.Class{ID: "c1", InstituteID: "inst-1", Name: "Grade 10"}}
	svc := newTestClassService(repo, &mockClassSectionRepo{}, &mockClassStudentRepo{count: 4})

	err := svc.Delete(context.Background(), "c1", "inst-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "Cannot delete class while students are enrolled", appErr.Message)
	assert.Empty(t, repo.deleted)
}

func TestClassServiceDeleteEmptyClass(t *testing.T) {
	repo := &mockClassRepo{byID: &models.Class{ID: "c1", InstituteID: "inst-1", Name: "Grade 10"}}
	svc := newTestClassService(repo, &mockClassSectionRepo{}, &mockClassStudentRepo{count: 0})

	require.NoError(t, svc.Delete(context.Background(), "c1", "inst-1"))
	assert.Equal(t, []string{"c1"}, repo.deleted)
}

func TestClassServiceStatsComputesUtilization(t *testing.T) {
	repo := &mockClassRepo{byID: &models.Class{ID: "c1", InstituteID: "inst-1", Name: "Grade 10"}}
	sections := &mockClassSectionRepo{stats: []models.SectionStats{
		{SectionID: "s1", StudentCount: 20, Capacity: 40},
		{SectionID: "s2", StudentCount: 10, Capacity: 0},
	}}
	svc := newTestClassService(repo, sections, &mockClassStudentRepo{})

	stats, err := svc.Stats(context.Background(), "c1", "inst-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.SectionCount)
	assert.Equal(t, 30, stats.StudentCount)
	assert.InDelta(t, 0.5, stats.Sections[0].Utilization, 0.001)
	assert.Zero(t, stats.Sections[1].Utilization)
}
