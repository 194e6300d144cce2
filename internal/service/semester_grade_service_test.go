package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadsys/class-record-api/internal/models"
)

type sgBaseGradeReader struct {
	baseGrade *models.BaseGrade
}

func (m *sgBaseGradeReader) FindBySection(ctx context.Context, teachingLoadDetailID string) (*models.BaseGrade, error) {
	if m.baseGrade == nil {
		return nil, sql.ErrNoRows
	}
	return m.baseGrade, nil
}

type sgTermGradeComputer struct {
	results map[string]*models.TermGradeResult
	passing float64
}

func (m *sgTermGradeComputer) Compute(ctx context.Context, teachingLoadDetailID, termID string) (*models.TermGradeResult, error) {
	if result, ok := m.results[termID]; ok {
		return result, nil
	}
	return &models.TermGradeResult{TeachingLoadDetailID: teachingLoadDetailID, TermID: termID}, nil
}

func (m *sgTermGradeComputer) PassingGrade() float64 {
	if m.passing == 0 {
		return 75
	}
	return m.passing
}

func sgTerms() *tgTermReader {
	return midtermReader()
}

func TestSemesterGradeBlend(t *testing.T) {
	baseGrades := &sgBaseGradeReader{baseGrade: &models.BaseGrade{TeachingLoadDetailID: "tld1", BaseGrade: 50, Percentage: 50}}
	termGrades := &sgTermGradeComputer{results: map[string]*models.TermGradeResult{
		"term-mid": {Configured: true, Rows: []models.TermGradeRow{{EnrollmentID: "en1", StudentNumber: "2024-001", StudentName: "Cruz, Ana", FinalGrade: 80}}},
		"term-fin": {Configured: true, Rows: []models.TermGradeRow{{EnrollmentID: "en1", FinalGrade: 90}}},
	}}
	svc := NewSemesterGradeService(baseGrades, termGrades, sgTerms(), nil, nil, zap.NewNop())

	result, err := svc.Compute(context.Background(), "tld1")
	require.NoError(t, err)
	require.True(t, result.Configured)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	// 50 + ((80+90)/2) * 50/100 = 92.5
	require.NotNil(t, row.SemesterGrade)
	assert.InDelta(t, 92.5, *row.SemesterGrade, 0.001)
	assert.Equal(t, RemarksPassed, row.Remarks)
	assert.InDelta(t, 80, *row.MidtermGrade, 0.001)
	assert.InDelta(t, 90, *row.FinalsGrade, 0.001)
}

func TestSemesterGradeFailingRemark(t *testing.T) {
	baseGrades := &sgBaseGradeReader{baseGrade: &models.BaseGrade{BaseGrade: 40, Percentage: 60}}
	termGrades := &sgTermGradeComputer{results: map[string]*models.TermGradeResult{
		"term-mid": {Configured: true, Rows: []models.TermGradeRow{{EnrollmentID: "en1", FinalGrade: 50}}},
		"term-fin": {Configured: true, Rows: []models.TermGradeRow{{EnrollmentID: "en1", FinalGrade: 60}}},
	}}
	svc := NewSemesterGradeService(baseGrades, termGrades, sgTerms(), nil, nil, zap.NewNop())

	result, err := svc.Compute(context.Background(), "tld1")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	// 40 + 55 * 0.6 = 73
	assert.InDelta(t, 73.0, *result.Rows[0].SemesterGrade, 0.001)
	assert.Equal(t, RemarksFailed, result.Rows[0].Remarks)
}

func TestSemesterGradeWithoutBaseGrade(t *testing.T) {
	svc := NewSemesterGradeService(&sgBaseGradeReader{}, &sgTermGradeComputer{}, sgTerms(), nil, nil, zap.NewNop())

	result, err := svc.Compute(context.Background(), "tld1")
	require.NoError(t, err)
	assert.False(t, result.Configured)
	assert.Empty(t, result.Rows)
}

func TestSemesterGradeRequiresBothTermsConfigured(t *testing.T) {
	baseGrades := &sgBaseGradeReader{baseGrade: &models.BaseGrade{BaseGrade: 50, Percentage: 50}}
	termGrades := &sgTermGradeComputer{results: map[string]*models.TermGradeResult{
		"term-mid": {Configured: true, Rows: []models.TermGradeRow{{EnrollmentID: "en1", FinalGrade: 80}}},
	}}
	svc := NewSemesterGradeService(baseGrades, termGrades, sgTerms(), nil, nil, zap.NewNop())

	result, err := svc.Compute(context.Background(), "tld1")
	require.NoError(t, err)
	assert.False(t, result.Configured)
}
