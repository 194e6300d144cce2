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

func newCompositionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCompositionRepositoryFindBySection(t *testing.T) {
	db, mock, cleanup := newCompositionRepoMock(t)
	defer cleanup()
	repo := NewCompositionRepository(db)

	now := time.Now()
	compRows := sqlmock.NewRows([]string{"id", "teaching_load_detail_id", "created_at", "updated_at"}).
		AddRow("comp-1", "section-1", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, teaching_load_detail_id, created_at, updated_at")).
		WithArgs("section-1").
		WillReturnRows(compRows)

	entryRows := sqlmock.NewRows([]string{"id", "composition_id", "category_id", "percentage", "category_code"}).
		AddRow("e-1", "comp-1", "cat-quiz", 20.0, "QUIZ").
		AddRow("e-2", "comp-1", "cat-activity", 20.0, "ACTIVITY").
		AddRow("e-3", "comp-1", "cat-exam", 50.0, "EXAM").
		AddRow("e-4", "comp-1", "cat-attendance", 10.0, "ATTENDANCE")
	mock.ExpectQuery(regexp.QuoteMeta("FROM grading_composition_entries e")).
		WithArgs("comp-1").
		WillReturnRows(entryRows)

	composition, err := repo.FindBySection(context.Background(), "section-1")
	require.NoError(t, err)
	require.Equal(t, "comp-1", composition.ID)
	require.Len(t, composition.Entries, 4)
	require.Equal(t, models.CategoryQuiz, composition.Entries[0].CategoryCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompositionRepositorySaveReplacesEntries(t *testing.T) {
	db, mock, cleanup := newCompositionRepoMock(t)
	defer cleanup()
	repo := NewCompositionRepository(db)

	mock.ExpectBegin()
	idRows := sqlmock.NewRows([]string{"id"}).AddRow("comp-1")
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO grading_compositions")).
		WillReturnRows(idRows)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM grading_composition_entries WHERE composition_id = $1")).
		WithArgs("comp-1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	for i := 0; i < 4; i++ {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO grading_composition_entries")).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	composition := &models.GradingComposition{
		TeachingLoadDetailID: "section-1",
		Entries: []models.CompositionEntry{
			{CategoryID: "cat-quiz", Percentage: 20},
			{CategoryID: "cat-activity", Percentage: 20},
			{CategoryID: "cat-exam", Percentage: 50},
			{CategoryID: "cat-attendance", Percentage: 10},
		},
	}
	require.NoError(t, repo.Save(context.Background(), composition))
	require.Equal(t, "comp-1", composition.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompositionRepositoryUpdateEntryMissing(t *testing.T) {
	db, mock, cleanup := newCompositionRepoMock(t)
	defer cleanup()
	repo := NewCompositionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE grading_composition_entries SET percentage = $3")).
		WithArgs("comp-1", "cat-quiz", 25.0).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateEntry(context.Background(), "comp-1", "cat-quiz", 25)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
