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

// weightTolerance absorbs float drift when checking that percentages sum to 100.
const weightTolerance = 0.001

type compositionRepo interface {
	FindBySection(ctx context.Context, teachingLoadDetailID string) (*models.GradingComposition, error)
	Save(ctx context.Context, composition *models.GradingComposition) error
	UpdateEntry(ctx context.Context, compositionID, categoryID string, percentage float64) error
}

type categoryReader interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id string) (*models.Category, error)
	FindByCode(ctx context.Context, code models.CategoryCode) (*models.Category, error)
}

type sectionReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.TeachingLoadDetail, error)
}

type gradeCacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// CompositionEntryInput is one category weight in a save payload.
type CompositionEntryInput struct {
	CategoryID string  `json:"category_id" validate:"required"`
	Percentage float64 `json:"percentage" validate:"min=0,max=100"`
}

// SaveCompositionRequest replaces a section's full weighting scheme.
type SaveCompositionRequest struct {
	TeachingLoadDetailID string                  `json:"teaching_load_detail_id" validate:"required"`
	Entries              []CompositionEntryInput `json:"entries" validate:"required,dive"`
}

// UpdateEntryRequest changes one category weight. The resulting set must
// still total 100, so callers send the compensating weights too via Save;
// this path exists for the single-cell edit flow where the client has
// already rebalanced.
type UpdateEntryRequest struct {
	TeachingLoadDetailID string  `json:"teaching_load_detail_id" validate:"required"`
	CategoryID           string  `json:"category_id" validate:"required"`
	Percentage           float64 `json:"percentage" validate:"min=0,max=100"`
}

// CompositionStatus wraps a composition with its configured flag so reads
// never 404 on a fresh section.
type CompositionStatus struct {
	Configured  bool                       `json:"configured"`
	Composition *models.GradingComposition `json:"composition,omitempty"`
}

// CompositionService manages per-section grading weight schemes.
type CompositionService struct {
	compositions compositionRepo
	categories   categoryReader
	sections     sectionReader
	cache        gradeCacheInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewCompositionService constructs CompositionService.
func NewCompositionService(compositions compositionRepo, categories categoryReader, sections sectionReader, cache gradeCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *CompositionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompositionService{
		compositions: compositions,
		categories:   categories,
		sections:     sections,
		cache:        cache,
		validator:    validate,
		logger:       logger,
	}
}

// Get returns the section's composition, flagging unconfigured sections
// instead of failing.
func (s *CompositionService) Get(ctx context.Context, teachingLoadDetailID string) (*CompositionStatus, error) {
	if teachingLoadDetailID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teaching load detail id required")
	}
	composition, err := s.compositions.FindBySection(ctx, teachingLoadDetailID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &CompositionStatus{Configured: false}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load composition")
	}
	return &CompositionStatus{Configured: true, Composition: composition}, nil
}

// Save validates and stores a full weighting scheme for a section.
func (s *CompositionService) Save(ctx context.Context, req SaveCompositionRequest) (*models.GradingComposition, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid composition payload")
	}
	if _, err := s.sections.FindDetailByID(ctx, req.TeachingLoadDetailID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class section")
	}
	entries, err := s.validateEntries(ctx, req.Entries)
	if err != nil {
		return nil, err
	}
	composition := &models.GradingComposition{
		TeachingLoadDetailID: req.TeachingLoadDetailID,
		Entries:              entries,
	}
	if err := s.compositions.Save(ctx, composition); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save composition")
	}
	s.invalidateSection(ctx, req.TeachingLoadDetailID)
	saved, err := s.compositions.FindBySection(ctx, req.TeachingLoadDetailID)
	if err != nil {
		return composition, nil
	}
	return saved, nil
}

// UpdateEntry changes a single category weight after checking the section
// stays balanced at 100.
func (s *CompositionService) UpdateEntry(ctx context.Context, req UpdateEntryRequest) (*models.GradingComposition, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid entry payload")
	}
	composition, err := s.compositions.FindBySection(ctx, req.TeachingLoadDetailID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotConfigured, "composition not configured for section")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load composition")
	}
	total := req.Percentage
	found := false
	for _, entry := range composition.Entries {
		if entry.CategoryID == req.CategoryID {
			found = true
			continue
		}
		total += entry.Percentage
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrValidation, "category not part of composition")
	}
	if total < 100-weightTolerance || total > 100+weightTolerance {
		return nil, appErrors.Clone(appErrors.ErrInvalidWeights, fmt.Sprintf("weights must total 100, got %.2f", total))
	}
	if err := s.compositions.UpdateEntry(ctx, composition.ID, req.CategoryID, req.Percentage); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update composition entry")
	}
	s.invalidateSection(ctx, req.TeachingLoadDetailID)
	return s.compositions.FindBySection(ctx, req.TeachingLoadDetailID)
}

func (s *CompositionService) validateEntries(ctx context.Context, inputs []CompositionEntryInput) ([]models.CompositionEntry, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	if len(inputs) != len(categories) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("composition requires exactly %d category entries", len(categories)))
	}
	byID := make(map[string]models.Category, len(categories))
	for _, category := range categories {
		byID[category.ID] = category
	}
	seen := make(map[string]bool, len(inputs))
	entries := make([]models.CompositionEntry, 0, len(inputs))
	total := 0.0
	for _, input := range inputs {
		category, ok := byID[input.CategoryID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown category in composition")
		}
		if seen[input.CategoryID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate entry for category %s", category.Code))
		}
		seen[input.CategoryID] = true
		total += input.Percentage
		entries = append(entries, models.CompositionEntry{
			CategoryID:   input.CategoryID,
			CategoryCode: category.Code,
			Percentage:   input.Percentage,
		})
	}
	if total < 100-weightTolerance || total > 100+weightTolerance {
		return nil, appErrors.Clone(appErrors.ErrInvalidWeights, fmt.Sprintf("weights must total 100, got %.2f", total))
	}
	return entries, nil
}

func (s *CompositionService) invalidateSection(ctx context.Context, teachingLoadDetailID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, SectionCachePattern(teachingLoadDetailID)); err != nil {
		s.logger.Warn("grade cache invalidation failed", zap.String("section", teachingLoadDetailID), zap.Error(err))
	}
}
