package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadsys/class-record-api/internal/models"
	appErrors "github.com/acadsys/class-record-api/pkg/errors"
)

type acActivityRepo struct {
	activities map[string]*models.Activity
	updated    []models.Activity
}

func (m *acActivityRepo) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error) {
	var out []models.Activity
	for _, a := range m.activities {
		if a.TeachingLoadDetailID == filter.TeachingLoadDetailID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *acActivityRepo) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	a, ok := m.activities[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (m *acActivityRepo) Create(ctx context.Context, activity *models.Activity) error {
	activity.ID = "act-new"
	m.activities[activity.ID] = activity
	return nil
}

func (m *acActivityRepo) Update(ctx context.Context, activity *models.Activity) error {
	m.updated = append(m.updated, *activity)
	m.activities[activity.ID] = activity
	return nil
}

func (m *acActivityRepo) Delete(ctx context.Context, id string) error {
	delete(m.activities, id)
	return nil
}

type acCategoryReader struct{}

func (m *acCategoryReader) List(ctx context.Context) ([]models.Category, error) {
	return []models.Category{{ID: "cat-quiz", Code: models.CategoryQuiz, Name: "Quiz"}}, nil
}

func (m *acCategoryReader) FindByID(ctx context.Context, id string) (*models.Category, error) {
	if id != "cat-quiz" {
		return nil, sql.ErrNoRows
	}
	return &models.Category{ID: "cat-quiz", Code: models.CategoryQuiz, Name: "Quiz"}, nil
}

func (m *acCategoryReader) FindByCode(ctx context.Context, code models.CategoryCode) (*models.Category, error) {
	return &models.Category{ID: "cat-quiz", Code: code}, nil
}

type acTermReader struct{}

func (m *acTermReader) List(ctx context.Context) ([]models.Term, error) {
	return []models.Term{{ID: "term-mid", Code: models.TermMidterm, Name: "Midterm"}}, nil
}

func (m *acTermReader) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if id != "term-mid" {
		return nil, sql.ErrNoRows
	}
	return &models.Term{ID: "term-mid", Code: models.TermMidterm, Name: "Midterm"}, nil
}

func (m *acTermReader) FindByCode(ctx context.Context, code models.TermCode) (*models.Term, error) {
	return &models.Term{ID: "term-mid", Code: code}, nil
}

type acScoreReader struct {
	records []models.ScoreRecord
}

func (m *acScoreReader) ListByActivity(ctx context.Context, activityID string) ([]models.ScoreRecord, error) {
	var out []models.ScoreRecord
	for _, r := range m.records {
		if r.ActivityID == activityID {
			out = append(out, r)
		}
	}
	return out, nil
}

func acQuizActivity() *models.Activity {
	return &models.Activity{
		ID:                   "act-1",
		TeachingLoadDetailID: "tld-1",
		CategoryID:           "cat-quiz",
		CategoryCode:         models.CategoryQuiz,
		TermID:               "term-mid",
		TermCode:             models.TermMidterm,
		Description:          "Quiz 1",
		NumberOfItems:        20,
	}
}

func newActivityServiceUnderTest(repo *acActivityRepo, scores *acScoreReader) *ActivityService {
	return NewActivityService(repo, &acCategoryReader{}, &acTermReader{}, &cpSectionReader{}, scores, &cpInvalidator{}, nil, zap.NewNop())
}

func TestActivityUpdateMetadata(t *testing.T) {
	repo := &acActivityRepo{activities: map[string]*models.Activity{"act-1": acQuizActivity()}}
	scores := &acScoreReader{records: []models.ScoreRecord{
		{ActivityID: "act-1", EnrollmentID: "en1", Score: 18},
	}}
	svc := newActivityServiceUnderTest(repo, scores)

	updated, err := svc.Update(context.Background(), "act-1", UpdateActivityRequest{
		Description:   "Quiz 1 (rescheduled)",
		NumberOfItems: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, "Quiz 1 (rescheduled)", updated.Description)
	assert.Equal(t, float64(25), updated.NumberOfItems)
	require.Len(t, repo.updated, 1)
}

func TestActivityUpdateRejectsItemCountBelowRecordedScore(t *testing.T) {
	repo := &acActivityRepo{activities: map[string]*models.Activity{"act-1": acQuizActivity()}}
	scores := &acScoreReader{records: []models.ScoreRecord{
		{ActivityID: "act-1", EnrollmentID: "en1", Score: 18},
		{ActivityID: "act-1", EnrollmentID: "en2", Score: 9},
	}}
	svc := newActivityServiceUnderTest(repo, scores)

	_, err := svc.Update(context.Background(), "act-1", UpdateActivityRequest{
		Description:   "Quiz 1",
		NumberOfItems: 10,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "18")
	assert.Empty(t, repo.updated)
}

func TestActivityUpdateAllowsShrinkDownToRecordedScore(t *testing.T) {
	repo := &acActivityRepo{activities: map[string]*models.Activity{"act-1": acQuizActivity()}}
	scores := &acScoreReader{records: []models.ScoreRecord{
		{ActivityID: "act-1", EnrollmentID: "en1", Score: 15},
	}}
	svc := newActivityServiceUnderTest(repo, scores)

	updated, err := svc.Update(context.Background(), "act-1", UpdateActivityRequest{
		Description:   "Quiz 1",
		NumberOfItems: 15,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(15), updated.NumberOfItems)
}
