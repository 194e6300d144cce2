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

type scScoreRepo struct {
	records map[string]models.ScoreRecord
}

func (m *scScoreRepo) key(activityID, enrollmentID string) string {
	return activityID + ":" + enrollmentID
}

func (m *scScoreRepo) ListByActivity(ctx context.Context, activityID string) ([]models.ScoreRecord, error) {
	var list []models.ScoreRecord
	for _, record := range m.records {
		if record.ActivityID == activityID {
			list = append(list, record)
		}
	}
	return list, nil
}

func (m *scScoreRepo) Upsert(ctx context.Context, score *models.ScoreRecord) error {
	if m.records == nil {
		m.records = make(map[string]models.ScoreRecord)
	}
	m.records[m.key(score.ActivityID, score.EnrollmentID)] = *score
	return nil
}

func (m *scScoreRepo) BulkUpsert(ctx context.Context, scores []models.ScoreRecord) error {
	for i := range scores {
		_ = m.Upsert(ctx, &scores[i])
	}
	return nil
}

type scActivityReader struct {
	activity *models.Activity
}

func (m *scActivityReader) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	if m.activity == nil || m.activity.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.activity, nil
}

type scRosterReader struct {
	roster []models.EnrollmentDetail
}

func (m *scRosterReader) ListDetailsBySection(ctx context.Context, teachingLoadDetailID string) ([]models.EnrollmentDetail, error) {
	return m.roster, nil
}

func scQuiz() *models.Activity {
	return &models.Activity{
		ID:                   "act1",
		TeachingLoadDetailID: "tld1",
		CategoryCode:         models.CategoryQuiz,
		TermID:               "term-mid",
		Description:          "Quiz 1",
		NumberOfItems:        20,
	}
}

func scSectionRoster() *scRosterReader {
	return &scRosterReader{roster: []models.EnrollmentDetail{
		{ID: "en1", StudentID: "stu1", StudentNumber: "2024-001", StudentName: "Cruz, Ana"},
		{ID: "en2", StudentID: "stu2", StudentNumber: "2024-002", StudentName: "Reyes, Ben"},
	}}
}

func TestScoreRecord(t *testing.T) {
	repo := &scScoreRepo{}
	invalidator := &cpInvalidator{}
	svc := NewScoreService(repo, &scActivityReader{activity: scQuiz()}, scSectionRoster(), invalidator, validator.New(), zap.NewNop())

	record, err := svc.Record(context.Background(), RecordScoreRequest{ActivityID: "act1", EnrollmentID: "en1", Score: 18}, "teacher1")
	require.NoError(t, err)
	assert.Equal(t, 18.0, record.Score)
	assert.Equal(t, "teacher1", record.RecordedBy)
	assert.Contains(t, invalidator.patterns, SectionCachePattern("tld1"))
}

func TestScoreRecordRejectsOutOfRange(t *testing.T) {
	svc := NewScoreService(&scScoreRepo{}, &scActivityReader{activity: scQuiz()}, scSectionRoster(), nil, validator.New(), zap.NewNop())

	_, err := svc.Record(context.Background(), RecordScoreRequest{ActivityID: "act1", EnrollmentID: "en1", Score: 21}, "teacher1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrScoreOutOfRange.Code, appErr.Code)
}

func TestScoreRecordRejectsForeignEnrollment(t *testing.T) {
	svc := NewScoreService(&scScoreRepo{}, &scActivityReader{activity: scQuiz()}, scSectionRoster(), nil, validator.New(), zap.NewNop())

	_, err := svc.Record(context.Background(), RecordScoreRequest{ActivityID: "act1", EnrollmentID: "other", Score: 10}, "teacher1")
	require.Error(t, err)
}

func TestScoreRecordBatchAtomicValidation(t *testing.T) {
	repo := &scScoreRepo{}
	svc := NewScoreService(repo, &scActivityReader{activity: scQuiz()}, scSectionRoster(), nil, validator.New(), zap.NewNop())

	// one entry out of range rejects the entire batch
	_, err := svc.RecordBatch(context.Background(), RecordBatchRequest{
		ActivityID: "act1",
		Scores: []models.PendingScore{
			{EnrollmentID: "en1", Score: 15},
			{EnrollmentID: "en2", Score: 25},
		},
	}, "teacher1")
	require.Error(t, err)
	assert.Empty(t, repo.records)
}

func TestScoreRecordBatchRejectsDuplicates(t *testing.T) {
	svc := NewScoreService(&scScoreRepo{}, &scActivityReader{activity: scQuiz()}, scSectionRoster(), nil, validator.New(), zap.NewNop())

	_, err := svc.RecordBatch(context.Background(), RecordBatchRequest{
		ActivityID: "act1",
		Scores: []models.PendingScore{
			{EnrollmentID: "en1", Score: 10},
			{EnrollmentID: "en1", Score: 12},
		},
	}, "teacher1")
	require.Error(t, err)
}

func TestScoreRecordBatch(t *testing.T) {
	repo := &scScoreRepo{}
	svc := NewScoreService(repo, &scActivityReader{activity: scQuiz()}, scSectionRoster(), nil, validator.New(), zap.NewNop())

	count, err := svc.RecordBatch(context.Background(), RecordBatchRequest{
		ActivityID: "act1",
		Scores: []models.PendingScore{
			{EnrollmentID: "en1", Score: 15},
			{EnrollmentID: "en2", Score: 20},
		},
	}, "teacher1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, repo.records, 2)
}

func TestScoreSheetCoversRoster(t *testing.T) {
	repo := &scScoreRepo{}
	require.NoError(t, repo.Upsert(context.Background(), &models.ScoreRecord{ActivityID: "act1", EnrollmentID: "en1", Score: 17}))
	svc := NewScoreService(repo, &scActivityReader{activity: scQuiz()}, scSectionRoster(), nil, validator.New(), zap.NewNop())

	sheet, err := svc.Sheet(context.Background(), "act1")
	require.NoError(t, err)
	require.Len(t, sheet.Cells, 2)
	require.NotNil(t, sheet.Cells[0].Score)
	assert.Equal(t, 17.0, *sheet.Cells[0].Score)
	assert.Nil(t, sheet.Cells[1].Score)
}

func TestScoreSheetUnknownActivity(t *testing.T) {
	svc := NewScoreService(&scScoreRepo{}, &scActivityReader{}, scSectionRoster(), nil, validator.New(), zap.NewNop())

	_, err := svc.Sheet(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
