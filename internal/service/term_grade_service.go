package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/acadsys/class-record-api/internal/models"
	appErrors "github.com/acadsys/class-record-api/pkg/errors"
)

// RemarksPassed and RemarksFailed are the fixed remark strings on grade rows.
const (
	RemarksPassed = "Passed"
	RemarksFailed = "Failed"
)

// round2 rounds to two decimals, ties to even.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

type compositionReader interface {
	FindBySection(ctx context.Context, teachingLoadDetailID string) (*models.GradingComposition, error)
}

type activityLister interface {
	List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error)
}

type scoreFetcher interface {
	FetchByActivities(ctx context.Context, activityIDs []string) (map[string]map[string]float64, error)
}

type gradeCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// TermGradeService computes per-student term grades for a class section.
//
// A category's percentage is the sum of recorded scores over the sum of
// activity items, scaled to 100. Students with no score on an activity
// contribute zero for it while the items still count. Categories with no
// activities contribute zero.
type TermGradeService struct {
	compositions compositionReader
	activities   activityLister
	scores       scoreFetcher
	roster       rosterReader
	terms        termReader
	cache        gradeCache
	metrics      *MetricsService
	passingGrade float64
	logger       *zap.Logger
}

// NewTermGradeService constructs TermGradeService.
func NewTermGradeService(compositions compositionReader, activities activityLister, scores scoreFetcher, roster rosterReader, terms termReader, cache gradeCache, metrics *MetricsService, passingGrade float64, logger *zap.Logger) *TermGradeService {
	if passingGrade <= 0 || passingGrade > 100 {
		passingGrade = 75
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermGradeService{
		compositions: compositions,
		activities:   activities,
		scores:       scores,
		roster:       roster,
		terms:        terms,
		cache:        cache,
		metrics:      metrics,
		passingGrade: passingGrade,
		logger:       logger,
	}
}

// PassingGrade exposes the configured threshold for remark computation.
func (s *TermGradeService) PassingGrade() float64 {
	return s.passingGrade
}

// Compute aggregates the full section's grades for one term. Results are
// cached until a grading mutation invalidates the section.
func (s *TermGradeService) Compute(ctx context.Context, teachingLoadDetailID, termID string) (*models.TermGradeResult, error) {
	if teachingLoadDetailID == "" || termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teaching load detail id and term id required")
	}
	cacheKey := TermGradeCacheKey(teachingLoadDetailID, termID)
	if s.cache != nil {
		var cached models.TermGradeResult
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	start := time.Now()
	result, err := s.compute(ctx, teachingLoadDetailID, termID)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveGradeCompute("term", time.Since(start))
	}
	if s.cache != nil && result.Configured {
		if err := s.cache.Set(ctx, cacheKey, result, 0); err != nil {
			s.logger.Warn("term grade cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return result, nil
}

func (s *TermGradeService) compute(ctx context.Context, teachingLoadDetailID, termID string) (*models.TermGradeResult, error) {
	term, err := s.terms.FindByID(ctx, termID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve term")
	}

	result := &models.TermGradeResult{
		TeachingLoadDetailID: teachingLoadDetailID,
		TermID:               termID,
		TermCode:             term.Code,
	}

	composition, err := s.compositions.FindBySection(ctx, teachingLoadDetailID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load composition")
	}
	result.Configured = true

	roster, err := s.roster.ListDetailsBySection(ctx, teachingLoadDetailID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	activities, err := s.activities.List(ctx, models.ActivityFilter{TeachingLoadDetailID: teachingLoadDetailID, TermID: termID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	activityIDs := make([]string, 0, len(activities))
	for _, activity := range activities {
		activityIDs = append(activityIDs, activity.ID)
	}
	scores, err := s.scores.FetchByActivities(ctx, activityIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch scores")
	}

	byCategory := make(map[string][]models.Activity)
	for _, activity := range activities {
		byCategory[string(activity.CategoryCode)] = append(byCategory[string(activity.CategoryCode)], activity)
	}

	rows := make([]models.TermGradeRow, 0, len(roster))
	for _, student := range roster {
		row := models.TermGradeRow{
			EnrollmentID:  student.ID,
			StudentID:     student.StudentID,
			StudentNumber: student.StudentNumber,
			StudentName:   student.StudentName,
		}
		final := 0.0
		for _, entry := range composition.Entries {
			breakdown := s.categoryBreakdown(entry, byCategory[string(entry.CategoryCode)], scores, student.ID)
			final += breakdown.Weighted
			row.Breakdown = append(row.Breakdown, breakdown)
		}
		row.FinalGrade = round2(final)
		if row.FinalGrade >= s.passingGrade {
			row.Remarks = RemarksPassed
		} else {
			row.Remarks = RemarksFailed
		}
		rows = append(rows, row)
	}
	result.Rows = rows
	return result, nil
}

func (s *TermGradeService) categoryBreakdown(entry models.CompositionEntry, activities []models.Activity, scores map[string]map[string]float64, enrollmentID string) models.CategoryBreakdown {
	breakdown := models.CategoryBreakdown{
		CategoryCode: entry.CategoryCode,
		Weight:       entry.Percentage,
	}
	totalItems := 0.0
	earned := 0.0
	for _, activity := range activities {
		totalItems += activity.NumberOfItems
		if byEnrollment, ok := scores[activity.ID]; ok {
			earned += byEnrollment[enrollmentID]
		}
	}
	breakdown.TotalItems = totalItems
	breakdown.EarnedPoints = earned
	if totalItems > 0 {
		breakdown.Percentage = round2(earned / totalItems * 100)
	}
	breakdown.Weighted = round2(breakdown.Percentage * entry.Percentage / 100)
	return breakdown
}
