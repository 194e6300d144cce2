package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadsys/class-record-api/internal/models"
)

type tgCompositionReader struct {
	composition *models.GradingComposition
}

func (m *tgCompositionReader) FindBySection(ctx context.Context, teachingLoadDetailID string) (*models.GradingComposition, error) {
	if m.composition == nil {
		return nil, sql.ErrNoRows
	}
	return m.composition, nil
}

type tgActivityLister struct {
	activities []models.Activity
}

func (m *tgActivityLister) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error) {
	var result []models.Activity
	for _, activity := range m.activities {
		if filter.TermID != "" && activity.TermID != filter.TermID {
			continue
		}
		result = append(result, activity)
	}
	return result, nil
}

type tgScoreFetcher struct {
	scores map[string]map[string]float64
}

func (m *tgScoreFetcher) FetchByActivities(ctx context.Context, activityIDs []string) (map[string]map[string]float64, error) {
	result := make(map[string]map[string]float64)
	for _, id := range activityIDs {
		if byEnrollment, ok := m.scores[id]; ok {
			result[id] = byEnrollment
		}
	}
	return result, nil
}

type tgRosterReader struct {
	roster []models.EnrollmentDetail
}

func (m *tgRosterReader) ListDetailsBySection(ctx context.Context, teachingLoadDetailID string) ([]models.EnrollmentDetail, error) {
	return m.roster, nil
}

type tgTermReader struct {
	terms map[string]*models.Term
}

func (m *tgTermReader) List(ctx context.Context) ([]models.Term, error) {
	var list []models.Term
	for _, term := range m.terms {
		list = append(list, *term)
	}
	return list, nil
}

func (m *tgTermReader) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if term, ok := m.terms[id]; ok {
		return term, nil
	}
	return nil, sql.ErrNoRows
}

func (m *tgTermReader) FindByCode(ctx context.Context, code models.TermCode) (*models.Term, error) {
	for _, term := range m.terms {
		if term.Code == code {
			return term, nil
		}
	}
	return nil, sql.ErrNoRows
}

type tgCache struct {
	values map[string]interface{}
}

func (m *tgCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, nil
}

func (m *tgCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.values == nil {
		m.values = make(map[string]interface{})
	}
	m.values[key] = value
	return nil
}

func fullComposition() *models.GradingComposition {
	return &models.GradingComposition{
		ID:                   "comp1",
		TeachingLoadDetailID: "tld1",
		Entries: []models.CompositionEntry{
			{CategoryID: "cat-quiz", CategoryCode: models.CategoryQuiz, Percentage: 30},
			{CategoryID: "cat-act", CategoryCode: models.CategoryActivity, Percentage: 20},
			{CategoryID: "cat-exam", CategoryCode: models.CategoryExam, Percentage: 40},
			{CategoryID: "cat-att", CategoryCode: models.CategoryAttendance, Percentage: 10},
		},
	}
}

func midtermReader() *tgTermReader {
	return &tgTermReader{terms: map[string]*models.Term{
		"term-mid": {ID: "term-mid", Code: models.TermMidterm, Name: "Midterm", Sequence: 1},
		"term-fin": {ID: "term-fin", Code: models.TermFinals, Name: "Finals", Sequence: 2},
	}}
}

func TestTermGradeComputeWeighted(t *testing.T) {
	activities := &tgActivityLister{activities: []models.Activity{
		{ID: "a1", TeachingLoadDetailID: "tld1", CategoryCode: models.CategoryQuiz, TermID: "term-mid", NumberOfItems: 20},
		{ID: "a2", TeachingLoadDetailID: "tld1", CategoryCode: models.CategoryQuiz, TermID: "term-mid", NumberOfItems: 10},
		{ID: "a3", TeachingLoadDetailID: "tld1", CategoryCode: models.CategoryExam, TermID: "term-mid", NumberOfItems: 50},
		{ID: "a4", TeachingLoadDetailID: "tld1", CategoryCode: models.CategoryAttendance, TermID: "term-mid", NumberOfItems: 1},
	}}
	scores := &tgScoreFetcher{scores: map[string]map[string]float64{
		"a1": {"en1": 18},
		"a2": {"en1": 7},
		"a3": {"en1": 45},
		"a4": {"en1": 1},
	}}
	roster := &tgRosterReader{roster: []models.EnrollmentDetail{{ID: "en1", StudentID: "stu1", StudentNumber: "2024-001", StudentName: "Cruz, Ana"}}}
	svc := NewTermGradeService(&tgCompositionReader{composition: fullComposition()}, activities, scores, roster, midtermReader(), nil, nil, 75, zap.NewNop())

	result, err := svc.Compute(context.Background(), "tld1", "term-mid")
	require.NoError(t, err)
	require.True(t, result.Configured)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	require.Len(t, row.Breakdown, 4)

	// quiz: 25/30 = 83.33%, weighted 25.0
	quiz := row.Breakdown[0]
	assert.Equal(t, models.CategoryQuiz, quiz.CategoryCode)
	assert.InDelta(t, 83.33, quiz.Percentage, 0.001)
	assert.InDelta(t, 25.0, quiz.Weighted, 0.001)

	// activity has no recorded work: percentage and weighted stay 0
	activity := row.Breakdown[1]
	assert.Equal(t, 0.0, activity.TotalItems)
	assert.Equal(t, 0.0, activity.Weighted)

	// exam: 45/50 = 90%, weighted 36; attendance: 100%, weighted 10
	assert.InDelta(t, 36.0, row.Breakdown[2].Weighted, 0.001)
	assert.InDelta(t, 10.0, row.Breakdown[3].Weighted, 0.001)

	assert.InDelta(t, 71.0, row.FinalGrade, 0.001)
	assert.Equal(t, RemarksFailed, row.Remarks)
}

func TestTermGradeMissingScoreCountsZero(t *testing.T) {
	activities := &tgActivityLister{activities: []models.Activity{
		{ID: "a1", TeachingLoadDetailID: "tld1", CategoryCode: models.CategoryQuiz, TermID: "term-mid", NumberOfItems: 10},
		{ID: "a2", TeachingLoadDetailID: "tld1", CategoryCode: models.CategoryQuiz, TermID: "term-mid", NumberOfItems: 10},
	}}
	// en1 only took the first quiz; the second still counts in the divisor.
	scores := &tgScoreFetcher{scores: map[string]map[string]float64{"a1": {"en1": 10}}}
	roster := &tgRosterReader{roster: []models.EnrollmentDetail{{ID: "en1", StudentID: "stu1"}}}
	composition := &models.GradingComposition{
		ID:                   "comp1",
		TeachingLoadDetailID: "tld1",
		Entries:              []models.CompositionEntry{{CategoryID: "cat-quiz", CategoryCode: models.CategoryQuiz, Percentage: 100}},
	}
	svc := NewTermGradeService(&tgCompositionReader{composition: composition}, activities, scores, roster, midtermReader(), nil, nil, 75, zap.NewNop())

	result, err := svc.Compute(context.Background(), "tld1", "term-mid")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.InDelta(t, 50.0, result.Rows[0].Breakdown[0].Percentage, 0.001)
	assert.InDelta(t, 50.0, result.Rows[0].FinalGrade, 0.001)
}

func TestTermGradeUnconfiguredSection(t *testing.T) {
	svc := NewTermGradeService(&tgCompositionReader{}, &tgActivityLister{}, &tgScoreFetcher{}, &tgRosterReader{}, midtermReader(), nil, nil, 75, zap.NewNop())

	result, err := svc.Compute(context.Background(), "tld1", "term-mid")
	require.NoError(t, err)
	assert.False(t, result.Configured)
	assert.Empty(t, result.Rows)
}

func TestTermGradePassingBoundary(t *testing.T) {
	activities := &tgActivityLister{activities: []models.Activity{
		{ID: "a1", TeachingLoadDetailID: "tld1", CategoryCode: models.CategoryQuiz, TermID: "term-mid", NumberOfItems: 100},
	}}
	scores := &tgScoreFetcher{scores: map[string]map[string]float64{"a1": {"en1": 75, "en2": 74.99}}}
	roster := &tgRosterReader{roster: []models.EnrollmentDetail{{ID: "en1"}, {ID: "en2"}}}
	composition := &models.GradingComposition{
		ID:      "comp1",
		Entries: []models.CompositionEntry{{CategoryID: "cat-quiz", CategoryCode: models.CategoryQuiz, Percentage: 100}},
	}
	svc := NewTermGradeService(&tgCompositionReader{composition: composition}, activities, scores, roster, midtermReader(), nil, nil, 75, zap.NewNop())

	result, err := svc.Compute(context.Background(), "tld1", "term-mid")
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, RemarksPassed, result.Rows[0].Remarks)
	assert.Equal(t, RemarksFailed, result.Rows[1].Remarks)
}

func TestTermGradeCachesConfiguredResult(t *testing.T) {
	cache := &tgCache{}
	activities := &tgActivityLister{}
	scores := &tgScoreFetcher{}
	roster := &tgRosterReader{roster: []models.EnrollmentDetail{{ID: "en1"}}}
	svc := NewTermGradeService(&tgCompositionReader{composition: fullComposition()}, activities, scores, roster, midtermReader(), cache, nil, 75, zap.NewNop())

	_, err := svc.Compute(context.Background(), "tld1", "term-mid")
	require.NoError(t, err)
	assert.Contains(t, cache.values, TermGradeCacheKey("tld1", "term-mid"))
}

func TestTermGradeRecomputeIsDeterministic(t *testing.T) {
	activities := &tgActivityLister{activities: []models.Activity{
		{ID: "a1", TeachingLoadDetailID: "tld1", CategoryCode: models.CategoryQuiz, TermID: "term-mid", NumberOfItems: 20},
		{ID: "a2", TeachingLoadDetailID: "tld1", CategoryCode: models.CategoryExam, TermID: "term-mid", NumberOfItems: 50},
	}}
	scores := &tgScoreFetcher{scores: map[string]map[string]float64{
		"a1": {"en1": 18, "en2": 11},
		"a2": {"en1": 45},
	}}
	roster := &tgRosterReader{roster: []models.EnrollmentDetail{
		{ID: "en1", StudentID: "stu1", StudentNumber: "2024-001", StudentName: "Cruz, Ana"},
		{ID: "en2", StudentID: "stu2", StudentNumber: "2024-002", StudentName: "Reyes, Ben"},
	}}
	svc := NewTermGradeService(&tgCompositionReader{composition: fullComposition()}, activities, scores, roster, midtermReader(), nil, nil, 75, zap.NewNop())

	first, err := svc.Compute(context.Background(), "tld1", "term-mid")
	require.NoError(t, err)
	second, err := svc.Compute(context.Background(), "tld1", "term-mid")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTermGradeUnknownTerm(t *testing.T) {
	svc := NewTermGradeService(&tgCompositionReader{composition: fullComposition()}, &tgActivityLister{}, &tgScoreFetcher{}, &tgRosterReader{}, midtermReader(), nil, nil, 75, zap.NewNop())

	_, err := svc.Compute(context.Background(), "tld1", "missing")
	require.Error(t, err)
}
