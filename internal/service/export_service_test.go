package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadsys/class-record-api/internal/models"
)

func newExportServiceUnderTest(activities *tgActivityLister, scores *tgScoreFetcher, roster *tgRosterReader) *ExportService {
	return NewExportService(nil, nil, activities, scores, roster, nil, nil, nil, nil, ExportConfig{}, zap.NewNop(), nil, nil)
}

func TestExportCategorySheetScoreCells(t *testing.T) {
	activities := &tgActivityLister{activities: []models.Activity{
		{ID: "a1", TeachingLoadDetailID: "tld1", CategoryCode: models.CategoryQuiz, TermID: "term-mid", Description: "Quiz 1", NumberOfItems: 20},
		{ID: "a2", TeachingLoadDetailID: "tld1", CategoryCode: models.CategoryQuiz, TermID: "term-mid", Description: "Quiz 2", NumberOfItems: 10},
	}}
	scores := &tgScoreFetcher{scores: map[string]map[string]float64{
		"a1": {"en1": 18},
		"a2": {"en1": 7},
	}}
	roster := &tgRosterReader{roster: []models.EnrollmentDetail{
		{ID: "en1", StudentID: "stu1", StudentNumber: "2024-001", StudentName: "Cruz, Ana"},
	}}
	svc := newExportServiceUnderTest(activities, scores, roster)

	term := models.Term{ID: "term-mid", Code: models.TermMidterm, Name: "Midterm"}
	sheet, err := svc.categorySheet(context.Background(), "tld1", term, models.CategoryQuiz)
	require.NoError(t, err)
	require.NotNil(t, sheet)

	assert.Equal(t, []string{"Student No", "Student Name", "Quiz 1", "Quiz 2", "Total", "%"}, sheet.Headers)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, []string{"2024-001", "Cruz, Ana", "18/20", "7/10", "25/30", "83.33"}, sheet.Rows[0])
}

func TestExportCategorySheetAttendanceDateRow(t *testing.T) {
	activities := &tgActivityLister{activities: []models.Activity{
		{ID: "a1", TeachingLoadDetailID: "tld1", CategoryCode: models.CategoryAttendance, TermID: "term-mid", Description: "Week 1", NumberOfItems: 1, HeldAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
		{ID: "a2", TeachingLoadDetailID: "tld1", CategoryCode: models.CategoryAttendance, TermID: "term-mid", Description: "Week 2", NumberOfItems: 1, HeldAt: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)},
	}}
	scores := &tgScoreFetcher{scores: map[string]map[string]float64{
		"a1": {"en1": 1},
	}}
	roster := &tgRosterReader{roster: []models.EnrollmentDetail{
		{ID: "en1", StudentID: "stu1", StudentNumber: "2024-001", StudentName: "Cruz, Ana"},
	}}
	svc := newExportServiceUnderTest(activities, scores, roster)

	term := models.Term{ID: "term-mid", Code: models.TermMidterm, Name: "Midterm"}
	sheet, err := svc.categorySheet(context.Background(), "tld1", term, models.CategoryAttendance)
	require.NoError(t, err)
	require.NotNil(t, sheet)

	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, []string{"", "Conducted", "Jan 05", "Jan 12", "", ""}, sheet.Rows[0])
	assert.Equal(t, "2024-001", sheet.Rows[1][0])
}

func TestExportCategorySheetSkipsEmptyCategory(t *testing.T) {
	svc := newExportServiceUnderTest(&tgActivityLister{}, &tgScoreFetcher{}, &tgRosterReader{})

	term := models.Term{ID: "term-mid", Code: models.TermMidterm, Name: "Midterm"}
	sheet, err := svc.categorySheet(context.Background(), "tld1", term, models.CategoryExam)
	require.NoError(t, err)
	assert.Nil(t, sheet)
}
