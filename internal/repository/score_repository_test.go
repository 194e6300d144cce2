package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/acadsys/class-record-api/internal/models"
)

func newScoreRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScoreRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO score_records")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	score := &models.ScoreRecord{
		ActivityID:   "act-1",
		EnrollmentID: "enr-1",
		Score:        8,
		RecordedBy:   "teacher-1",
	}
	require.NoError(t, repo.Upsert(context.Background(), score))
	require.NotEmpty(t, score.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryBulkUpsertRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO score_records")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO score_records")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	scores := []models.ScoreRecord{
		{ActivityID: "act-1", EnrollmentID: "enr-1", Score: 8},
		{ActivityID: "act-1", EnrollmentID: "enr-2", Score: 9},
	}
	err := repo.BulkUpsert(context.Background(), scores)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryFetchByActivities(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "activity_id", "enrollment_id", "score", "recorded_by", "created_at", "updated_at"}).
		AddRow("s-1", "act-1", "enr-1", 8.0, "teacher-1", now, now).
		AddRow("s-2", "act-1", "enr-2", 6.5, "teacher-1", now, now).
		AddRow("s-3", "act-2", "enr-1", 10.0, "teacher-1", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM score_records WHERE activity_id IN ($1,$2)")).
		WithArgs("act-1", "act-2").
		WillReturnRows(rows)

	result, err := repo.FetchByActivities(context.Background(), []string{"act-1", "act-2"})
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, 8.0, result["act-1"]["enr-1"])
	require.Equal(t, 10.0, result["act-2"]["enr-1"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryFetchByActivitiesEmpty(t *testing.T) {
	db, _, cleanup := newScoreRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	result, err := repo.FetchByActivities(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, result)
}
