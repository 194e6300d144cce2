package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadsys/class-record-api/internal/models"
	appErrors "github.com/acadsys/class-record-api/pkg/errors"
)

type cpCompositionRepo struct {
	stored  *models.GradingComposition
	updated map[string]float64
}

func (m *cpCompositionRepo) FindBySection(ctx context.Context, teachingLoadDetailID string) (*models.GradingComposition, error) {
	if m.stored == nil {
		return nil, sql.ErrNoRows
	}
	return m.stored, nil
}

func (m *cpCompositionRepo) Save(ctx context.Context, composition *models.GradingComposition) error {
	composition.ID = "comp1"
	m.stored = composition
	return nil
}

func (m *cpCompositionRepo) UpdateEntry(ctx context.Context, compositionID, categoryID string, percentage float64) error {
	if m.updated == nil {
		m.updated = make(map[string]float64)
	}
	m.updated[categoryID] = percentage
	for i := range m.stored.Entries {
		if m.stored.Entries[i].CategoryID == categoryID {
			m.stored.Entries[i].Percentage = percentage
		}
	}
	return nil
}

type cpCategoryReader struct{}

func (m *cpCategoryReader) List(ctx context.Context) ([]models.Category, error) {
	return []models.Category{
		{ID: "cat-quiz", Code: models.CategoryQuiz, Name: "Quiz", Sequence: 1},
		{ID: "cat-act", Code: models.CategoryActivity, Name: "Activity", Sequence: 2},
		{ID: "cat-exam", Code: models.CategoryExam, Name: "Exam", Sequence: 3},
		{ID: "cat-att", Code: models.CategoryAttendance, Name: "Attendance", Sequence: 4},
	}, nil
}

func (m *cpCategoryReader) FindByID(ctx context.Context, id string) (*models.Category, error) {
	categories, _ := m.List(ctx)
	for _, category := range categories {
		if category.ID == id {
			return &category, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *cpCategoryReader) FindByCode(ctx context.Context, code models.CategoryCode) (*models.Category, error) {
	categories, _ := m.List(ctx)
	for _, category := range categories {
		if category.Code == code {
			return &category, nil
		}
	}
	return nil, sql.ErrNoRows
}

type cpSectionReader struct {
	missing bool
}

func (m *cpSectionReader) FindDetailByID(ctx context.Context, id string) (*models.TeachingLoadDetail, error) {
	if m.missing {
		return nil, sql.ErrNoRows
	}
	return &models.TeachingLoadDetail{ID: id, Section: "BSIT-2A"}, nil
}

type cpInvalidator struct {
	patterns []string
}

func (m *cpInvalidator) Invalidate(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

func validEntries() []CompositionEntryInput {
	return []CompositionEntryInput{
		{CategoryID: "cat-quiz", Percentage: 30},
		{CategoryID: "cat-act", Percentage: 20},
		{CategoryID: "cat-exam", Percentage: 40},
		{CategoryID: "cat-att", Percentage: 10},
	}
}

func TestCompositionSave(t *testing.T) {
	repo := &cpCompositionRepo{}
	invalidator := &cpInvalidator{}
	svc := NewCompositionService(repo, &cpCategoryReader{}, &cpSectionReader{}, invalidator, validator.New(), zap.NewNop())

	saved, err := svc.Save(context.Background(), SaveCompositionRequest{TeachingLoadDetailID: "tld1", Entries: validEntries()})
	require.NoError(t, err)
	assert.Len(t, saved.Entries, 4)
	assert.Contains(t, invalidator.patterns, SectionCachePattern("tld1"))
}

func TestCompositionSaveRejectsBadTotal(t *testing.T) {
	svc := NewCompositionService(&cpCompositionRepo{}, &cpCategoryReader{}, &cpSectionReader{}, nil, validator.New(), zap.NewNop())

	entries := validEntries()
	entries[3].Percentage = 15 // totals 105
	_, err := svc.Save(context.Background(), SaveCompositionRequest{TeachingLoadDetailID: "tld1", Entries: entries})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrInvalidWeights.Code, appErr.Code)
}

func TestCompositionSaveRejectsDuplicateCategory(t *testing.T) {
	svc := NewCompositionService(&cpCompositionRepo{}, &cpCategoryReader{}, &cpSectionReader{}, nil, validator.New(), zap.NewNop())

	entries := validEntries()
	entries[1].CategoryID = "cat-quiz"
	_, err := svc.Save(context.Background(), SaveCompositionRequest{TeachingLoadDetailID: "tld1", Entries: entries})
	require.Error(t, err)
}

func TestCompositionSaveRequiresAllCategories(t *testing.T) {
	svc := NewCompositionService(&cpCompositionRepo{}, &cpCategoryReader{}, &cpSectionReader{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Save(context.Background(), SaveCompositionRequest{
		TeachingLoadDetailID: "tld1",
		Entries: []CompositionEntryInput{
			{CategoryID: "cat-quiz", Percentage: 60},
			{CategoryID: "cat-exam", Percentage: 40},
		},
	})
	require.Error(t, err)
}

func TestCompositionSaveUnknownSection(t *testing.T) {
	svc := NewCompositionService(&cpCompositionRepo{}, &cpCategoryReader{}, &cpSectionReader{missing: true}, nil, validator.New(), zap.NewNop())

	_, err := svc.Save(context.Background(), SaveCompositionRequest{TeachingLoadDetailID: "tld1", Entries: validEntries()})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCompositionGetUnconfigured(t *testing.T) {
	svc := NewCompositionService(&cpCompositionRepo{}, &cpCategoryReader{}, &cpSectionReader{}, nil, validator.New(), zap.NewNop())

	status, err := svc.Get(context.Background(), "tld1")
	require.NoError(t, err)
	assert.False(t, status.Configured)
	assert.Nil(t, status.Composition)
}

func TestCompositionUpdateEntryKeepsBalance(t *testing.T) {
	repo := &cpCompositionRepo{stored: &models.GradingComposition{
		ID:                   "comp1",
		TeachingLoadDetailID: "tld1",
		Entries: []models.CompositionEntry{
			{CategoryID: "cat-quiz", CategoryCode: models.CategoryQuiz, Percentage: 30},
			{CategoryID: "cat-act", CategoryCode: models.CategoryActivity, Percentage: 20},
			{CategoryID: "cat-exam", CategoryCode: models.CategoryExam, Percentage: 40},
			{CategoryID: "cat-att", CategoryCode: models.CategoryAttendance, Percentage: 10},
		},
	}}
	svc := NewCompositionService(repo, &cpCategoryReader{}, &cpSectionReader{}, nil, validator.New(), zap.NewNop())

	// 35 would push the total to 105
	_, err := svc.UpdateEntry(context.Background(), UpdateEntryRequest{TeachingLoadDetailID: "tld1", CategoryID: "cat-quiz", Percentage: 35})
	require.Error(t, err)
	assert.Empty(t, repo.updated)
}

func TestCompositionUpdateEntryUnconfigured(t *testing.T) {
	svc := NewCompositionService(&cpCompositionRepo{}, &cpCategoryReader{}, &cpSectionReader{}, nil, validator.New(), zap.NewNop())

	_, err := svc.UpdateEntry(context.Background(), UpdateEntryRequest{TeachingLoadDetailID: "tld1", CategoryID: "cat-quiz", Percentage: 30})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrNotConfigured.Code, appErr.Code)
}
