package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadsys/class-record-api/internal/models"
	appErrors "github.com/acadsys/class-record-api/pkg/errors"
)

type baseGradeRepo interface {
	FindBySection(ctx context.Context, teachingLoadDetailID string) (*models.BaseGrade, error)
	Upsert(ctx context.Context, baseGrade *models.BaseGrade) error
}

// SaveBaseGradeRequest sets the semester blend for a section. Base and
// percentage must total 100.
type SaveBaseGradeRequest struct {
	TeachingLoadDetailID string  `json:"teaching_load_detail_id" validate:"required"`
	BaseGrade            float64 `json:"base_grade" validate:"min=0,max=100"`
	Percentage           float64 `json:"percentage" validate:"min=0,max=100"`
}

// BaseGradeStatus wraps the setting with its configured flag.
type BaseGradeStatus struct {
	Configured bool              `json:"configured"`
	BaseGrade  *models.BaseGrade `json:"base_grade,omitempty"`
}

// BaseGradeService manages the per-section semester blend settings.
type BaseGradeService struct {
	baseGrades baseGradeRepo
	sections   sectionReader
	cache      gradeCacheInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewBaseGradeService constructs BaseGradeService.
func NewBaseGradeService(baseGrades baseGradeRepo, sections sectionReader, cache gradeCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *BaseGradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseGradeService{baseGrades: baseGrades, sections: sections, cache: cache, validator: validate, logger: logger}
}

// Get returns the section's base grade settings, flagging unconfigured
// sections instead of failing.
func (s *BaseGradeService) Get(ctx context.Context, teachingLoadDetailID string) (*BaseGradeStatus, error) {
	if teachingLoadDetailID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teaching load detail id required")
	}
	baseGrade, err := s.baseGrades.FindBySection(ctx, teachingLoadDetailID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &BaseGradeStatus{Configured: false}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load base grade")
	}
	return &BaseGradeStatus{Configured: true, BaseGrade: baseGrade}, nil
}

// Save validates and stores the blend settings for a section.
func (s *BaseGradeService) Save(ctx context.Context, req SaveBaseGradeRequest) (*models.BaseGrade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid base grade payload")
	}
	total := req.BaseGrade + req.Percentage
	if total < 100-weightTolerance || total > 100+weightTolerance {
		return nil, appErrors.Clone(appErrors.ErrInvalidWeights, fmt.Sprintf("base grade and percentage must total 100, got %.2f", total))
	}
	if _, err := s.sections.FindDetailByID(ctx, req.TeachingLoadDetailID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class section")
	}
	baseGrade := &models.BaseGrade{
		TeachingLoadDetailID: req.TeachingLoadDetailID,
		BaseGrade:            req.BaseGrade,
		Percentage:           req.Percentage,
	}
	if err := s.baseGrades.Upsert(ctx, baseGrade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save base grade")
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, SemesterGradeCacheKey(req.TeachingLoadDetailID)); err != nil {
			s.logger.Warn("grade cache invalidation failed", zap.String("section", req.TeachingLoadDetailID), zap.Error(err))
		}
	}
	return baseGrade, nil
}
