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

type bgBaseGradeRepo struct {
	stored *models.BaseGrade
}

func (m *bgBaseGradeRepo) FindBySection(ctx context.Context, teachingLoadDetailID string) (*models.BaseGrade, error) {
	if m.stored == nil {
		return nil, sql.ErrNoRows
	}
	return m.stored, nil
}

func (m *bgBaseGradeRepo) Upsert(ctx context.Context, baseGrade *models.BaseGrade) error {
	m.stored = baseGrade
	return nil
}

func TestBaseGradeSave(t *testing.T) {
	repo := &bgBaseGradeRepo{}
	invalidator := &cpInvalidator{}
	svc := NewBaseGradeService(repo, &cpSectionReader{}, invalidator, validator.New(), zap.NewNop())

	saved, err := svc.Save(context.Background(), SaveBaseGradeRequest{TeachingLoadDetailID: "tld1", BaseGrade: 50, Percentage: 50})
	require.NoError(t, err)
	assert.Equal(t, 50.0, saved.BaseGrade)
	assert.Contains(t, invalidator.patterns, SemesterGradeCacheKey("tld1"))
}

func TestBaseGradeSaveRejectsBadTotal(t *testing.T) {
	svc := NewBaseGradeService(&bgBaseGradeRepo{}, &cpSectionReader{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Save(context.Background(), SaveBaseGradeRequest{TeachingLoadDetailID: "tld1", BaseGrade: 60, Percentage: 50})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrInvalidWeights.Code, appErr.Code)
}

func TestBaseGradeSaveUnknownSection(t *testing.T) {
	svc := NewBaseGradeService(&bgBaseGradeRepo{}, &cpSectionReader{missing: true}, nil, validator.New(), zap.NewNop())

	_, err := svc.Save(context.Background(), SaveBaseGradeRequest{TeachingLoadDetailID: "tld1", BaseGrade: 50, Percentage: 50})
	require.Error(t, err)
}

func TestBaseGradeGetUnconfigured(t *testing.T) {
	svc := NewBaseGradeService(&bgBaseGradeRepo{}, &cpSectionReader{}, nil, validator.New(), zap.NewNop())

	status, err := svc.Get(context.Background(), "tld1")
	require.NoError(t, err)
	assert.False(t, status.Configured)
	assert.Nil(t, status.BaseGrade)
}
