package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/acadsys/class-record-api/internal/models"
	appErrors "github.com/acadsys/class-record-api/pkg/errors"
)

// ReferenceService exposes the fixed grading vocabularies: score categories
// and grading terms. Both are seeded by migration and read-only at runtime.
type ReferenceService struct {
	categories categoryReader
	terms      termReader
	logger     *zap.Logger
}

// NewReferenceService creates a ReferenceService.
func NewReferenceService(categories categoryReader, terms termReader, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{categories: categories, terms: terms, logger: logger}
}

// ListCategories returns all score categories in display order.
func (s *ReferenceService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

// ListTerms returns the grading terms in sequence order.
func (s *ReferenceService) ListTerms(ctx context.Context) ([]models.Term, error) {
	terms, err := s.terms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	return terms, nil
}
