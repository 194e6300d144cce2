package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/acadsys/class-record-api/internal/models"
	appErrors "github.com/acadsys/class-record-api/pkg/errors"
)

type baseGradeReader interface {
	FindBySection(ctx context.Context, teachingLoadDetailID string) (*models.BaseGrade, error)
}

type termGradeComputer interface {
	Compute(ctx context.Context, teachingLoadDetailID, termID string) (*models.TermGradeResult, error)
	PassingGrade() float64
}

// SemesterGradeService blends the two term grades into a semester standing:
// base grade plus the term average scaled by the configured percentage.
type SemesterGradeService struct {
	baseGrades baseGradeReader
	termGrades termGradeComputer
	terms      termReader
	cache      gradeCache
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewSemesterGradeService constructs SemesterGradeService.
func NewSemesterGradeService(baseGrades baseGradeReader, termGrades termGradeComputer, terms termReader, cache gradeCache, metrics *MetricsService, logger *zap.Logger) *SemesterGradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterGradeService{
		baseGrades: baseGrades,
		termGrades: termGrades,
		terms:      terms,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
	}
}

// Compute aggregates the section's semester grades. Both the grading
// composition and the base grade must be configured; otherwise the result
// carries configured=false and no rows.
func (s *SemesterGradeService) Compute(ctx context.Context, teachingLoadDetailID string) (*models.SemesterGradeResult, error) {
	if teachingLoadDetailID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teaching load detail id required")
	}
	cacheKey := SemesterGradeCacheKey(teachingLoadDetailID)
	if s.cache != nil {
		var cached models.SemesterGradeResult
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	start := time.Now()
	result, err := s.compute(ctx, teachingLoadDetailID)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveGradeCompute("semester", time.Since(start))
	}
	if s.cache != nil && result.Configured {
		if err := s.cache.Set(ctx, cacheKey, result, 0); err != nil {
			s.logger.Warn("semester grade cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return result, nil
}

func (s *SemesterGradeService) compute(ctx context.Context, teachingLoadDetailID string) (*models.SemesterGradeResult, error) {
	result := &models.SemesterGradeResult{TeachingLoadDetailID: teachingLoadDetailID}

	baseGrade, err := s.baseGrades.FindBySection(ctx, teachingLoadDetailID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load base grade")
	}

	midterm, err := s.termResult(ctx, teachingLoadDetailID, models.TermMidterm)
	if err != nil {
		return nil, err
	}
	finals, err := s.termResult(ctx, teachingLoadDetailID, models.TermFinals)
	if err != nil {
		return nil, err
	}
	if !midterm.Configured || !finals.Configured {
		return result, nil
	}

	result.Configured = true
	result.BaseGrade = &baseGrade.BaseGrade
	result.Percentage = &baseGrade.Percentage

	finalsByEnrollment := make(map[string]float64, len(finals.Rows))
	for _, row := range finals.Rows {
		finalsByEnrollment[row.EnrollmentID] = row.FinalGrade
	}

	passing := s.termGrades.PassingGrade()
	rows := make([]models.SemesterGradeRow, 0, len(midterm.Rows))
	for _, midRow := range midterm.Rows {
		midGrade := midRow.FinalGrade
		finGrade := finalsByEnrollment[midRow.EnrollmentID]
		blended := round2(baseGrade.BaseGrade + (midGrade+finGrade)/2*baseGrade.Percentage/100)
		row := models.SemesterGradeRow{
			EnrollmentID:  midRow.EnrollmentID,
			StudentID:     midRow.StudentID,
			StudentNumber: midRow.StudentNumber,
			StudentName:   midRow.StudentName,
			MidtermGrade:  floatPtr(midGrade),
			FinalsGrade:   floatPtr(finGrade),
			SemesterGrade: floatPtr(blended),
		}
		if blended >= passing {
			row.Remarks = RemarksPassed
		} else {
			row.Remarks = RemarksFailed
		}
		rows = append(rows, row)
	}
	result.Rows = rows
	return result, nil
}

func (s *SemesterGradeService) termResult(ctx context.Context, teachingLoadDetailID string, code models.TermCode) (*models.TermGradeResult, error) {
	term, err := s.terms.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInternal, "term reference data missing")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve term")
	}
	return s.termGrades.Compute(ctx, teachingLoadDetailID, term.ID)
}

func floatPtr(v float64) *float64 {
	return &v
}
