package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadsys/class-record-api/internal/models"
	appErrors "github.com/acadsys/class-record-api/pkg/errors"
)

type activityRepo interface {
	List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error)
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id string) error
}

type termReader interface {
	List(ctx context.Context) ([]models.Term, error)
	FindByID(ctx context.Context, id string) (*models.Term, error)
	FindByCode(ctx context.Context, code models.TermCode) (*models.Term, error)
}

type recordedScoreReader interface {
	ListByActivity(ctx context.Context, activityID string) ([]models.ScoreRecord, error)
}

// CreateActivityRequest registers a new scored item for a section.
type CreateActivityRequest struct {
	TeachingLoadDetailID string    `json:"teaching_load_detail_id" validate:"required"`
	CategoryID           string    `json:"category_id" validate:"required"`
	TermID               string    `json:"term_id" validate:"required"`
	Description          string    `json:"description" validate:"required"`
	NumberOfItems        float64   `json:"number_of_items" validate:"required,gt=0"`
	HeldAt               time.Time `json:"held_at"`
}

// UpdateActivityRequest edits a scored item's metadata. Section, category,
// and term are fixed once created.
type UpdateActivityRequest struct {
	Description   string    `json:"description" validate:"required"`
	NumberOfItems float64   `json:"number_of_items" validate:"required,gt=0"`
	HeldAt        time.Time `json:"held_at"`
}

// ActivityService manages scored assessment items.
type ActivityService struct {
	activities activityRepo
	categories categoryReader
	terms      termReader
	sections   sectionReader
	scores     recordedScoreReader
	cache      gradeCacheInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewActivityService constructs ActivityService.
func NewActivityService(activities activityRepo, categories categoryReader, terms termReader, sections sectionReader, scores recordedScoreReader, cache gradeCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		activities: activities,
		categories: categories,
		terms:      terms,
		sections:   sections,
		scores:     scores,
		cache:      cache,
		validator:  validate,
		logger:     logger,
	}
}

// List returns activities for a section, optionally narrowed by category and term.
func (s *ActivityService) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error) {
	if filter.TeachingLoadDetailID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teaching load detail id required")
	}
	activities, err := s.activities.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	return activities, nil
}

// Get returns one activity.
func (s *ActivityService) Get(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.activities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return activity, nil
}

// Create validates references and registers a new activity.
func (s *ActivityService) Create(ctx context.Context, req CreateActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	if _, err := s.sections.FindDetailByID(ctx, req.TeachingLoadDetailID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class section")
	}
	category, err := s.categories.FindByID(ctx, req.CategoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown category")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve category")
	}
	term, err := s.terms.FindByID(ctx, req.TermID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve term")
	}
	heldAt := req.HeldAt
	if heldAt.IsZero() {
		heldAt = time.Now().UTC()
	}
	activity := &models.Activity{
		TeachingLoadDetailID: req.TeachingLoadDetailID,
		CategoryID:           req.CategoryID,
		CategoryCode:         category.Code,
		TermID:               req.TermID,
		TermCode:             term.Code,
		Description:          req.Description,
		NumberOfItems:        req.NumberOfItems,
		HeldAt:               heldAt,
	}
	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create activity")
	}
	s.invalidate(ctx, req.TeachingLoadDetailID)
	return activity, nil
}

// Update edits an activity's metadata and recomputes downstream grades by
// dropping cached results.
func (s *ActivityService) Update(ctx context.Context, id string, req UpdateActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	activity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// Shrinking the item count below a recorded score would push that
	// student's category percentage past 100.
	if req.NumberOfItems < activity.NumberOfItems && s.scores != nil {
		records, err := s.scores.ListByActivity(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recorded scores")
		}
		highest := 0.0
		for _, record := range records {
			if record.Score > highest {
				highest = record.Score
			}
		}
		if highest > req.NumberOfItems {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("number of items cannot be lower than the highest recorded score (%g)", highest))
		}
	}
	activity.Description = req.Description
	activity.NumberOfItems = req.NumberOfItems
	if !req.HeldAt.IsZero() {
		activity.HeldAt = req.HeldAt
	}
	if err := s.activities.Update(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update activity")
	}
	s.invalidate(ctx, activity.TeachingLoadDetailID)
	return activity, nil
}

// Delete removes an activity and its recorded scores.
func (s *ActivityService) Delete(ctx context.Context, id string) error {
	activity, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.activities.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete activity")
	}
	s.invalidate(ctx, activity.TeachingLoadDetailID)
	return nil
}

func (s *ActivityService) invalidate(ctx context.Context, teachingLoadDetailID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, SectionCachePattern(teachingLoadDetailID)); err != nil {
		s.logger.Warn("grade cache invalidation failed", zap.String("section", teachingLoadDetailID), zap.Error(err))
	}
}
