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

type scoreRepo interface {
	ListByActivity(ctx context.Context, activityID string) ([]models.ScoreRecord, error)
	Upsert(ctx context.Context, score *models.ScoreRecord) error
	BulkUpsert(ctx context.Context, scores []models.ScoreRecord) error
}

type activityReader interface {
	FindByID(ctx context.Context, id string) (*models.Activity, error)
}

type rosterReader interface {
	ListDetailsBySection(ctx context.Context, teachingLoadDetailID string) ([]models.EnrollmentDetail, error)
}

// RecordScoreRequest records or replaces one student's score on an activity.
type RecordScoreRequest struct {
	ActivityID   string  `json:"activity_id" validate:"required"`
	EnrollmentID string  `json:"enrollment_id" validate:"required"`
	Score        float64 `json:"score" validate:"min=0"`
}

// RecordBatchRequest writes an accumulated batch of pending scores for one
// activity in a single transaction.
type RecordBatchRequest struct {
	ActivityID string                `json:"activity_id" validate:"required"`
	Scores     []models.PendingScore `json:"scores" validate:"required,min=1,dive"`
}

// ScoreCell pairs a roster entry with its recorded score, if any.
type ScoreCell struct {
	EnrollmentID  string   `json:"enrollment_id"`
	StudentID     string   `json:"student_id"`
	StudentNumber string   `json:"student_number"`
	StudentName   string   `json:"student_name"`
	Score         *float64 `json:"score"`
}

// ActivitySheet is the score entry grid for one activity: the full roster
// with recorded scores filled in.
type ActivitySheet struct {
	Activity models.Activity `json:"activity"`
	Cells    []ScoreCell     `json:"cells"`
}

// ScoreService validates and persists score records.
type ScoreService struct {
	scores     scoreRepo
	activities activityReader
	roster     rosterReader
	cache      gradeCacheInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewScoreService constructs ScoreService.
func NewScoreService(scores scoreRepo, activities activityReader, roster rosterReader, cache gradeCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ScoreService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreService{
		scores:     scores,
		activities: activities,
		roster:     roster,
		cache:      cache,
		validator:  validate,
		logger:     logger,
	}
}

// Sheet returns the score entry grid for one activity.
func (s *ScoreService) Sheet(ctx context.Context, activityID string) (*ActivitySheet, error) {
	activity, err := s.loadActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	roster, err := s.roster.ListDetailsBySection(ctx, activity.TeachingLoadDetailID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	records, err := s.scores.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scores")
	}
	recorded := make(map[string]float64, len(records))
	for _, record := range records {
		recorded[record.EnrollmentID] = record.Score
	}
	cells := make([]ScoreCell, 0, len(roster))
	for _, entry := range roster {
		cell := ScoreCell{
			EnrollmentID:  entry.ID,
			StudentID:     entry.StudentID,
			StudentNumber: entry.StudentNumber,
			StudentName:   entry.StudentName,
		}
		if score, ok := recorded[entry.ID]; ok {
			value := score
			cell.Score = &value
		}
		cells = append(cells, cell)
	}
	return &ActivitySheet{Activity: *activity, Cells: cells}, nil
}

// Record writes a single score after bounds and roster checks.
func (s *ScoreService) Record(ctx context.Context, req RecordScoreRequest, recordedBy string) (*models.ScoreRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	activity, err := s.loadActivity(ctx, req.ActivityID)
	if err != nil {
		return nil, err
	}
	rosterIDs, err := s.rosterIDs(ctx, activity.TeachingLoadDetailID)
	if err != nil {
		return nil, err
	}
	if !rosterIDs[req.EnrollmentID] {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment not part of this class section")
	}
	if req.Score > activity.NumberOfItems {
		return nil, appErrors.Clone(appErrors.ErrScoreOutOfRange, fmt.Sprintf("score %.2f exceeds %.2f items", req.Score, activity.NumberOfItems))
	}
	record := &models.ScoreRecord{
		ActivityID:   req.ActivityID,
		EnrollmentID: req.EnrollmentID,
		Score:        req.Score,
		RecordedBy:   recordedBy,
	}
	if err := s.scores.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record score")
	}
	s.invalidate(ctx, activity.TeachingLoadDetailID)
	return record, nil
}

// RecordBatch writes a pending score batch atomically. Every entry is
// validated before any row is written; a single bad entry rejects the batch.
func (s *ScoreService) RecordBatch(ctx context.Context, req RecordBatchRequest, recordedBy string) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	activity, err := s.loadActivity(ctx, req.ActivityID)
	if err != nil {
		return 0, err
	}
	rosterIDs, err := s.rosterIDs(ctx, activity.TeachingLoadDetailID)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(req.Scores))
	records := make([]models.ScoreRecord, 0, len(req.Scores))
	for _, pending := range req.Scores {
		if seen[pending.EnrollmentID] {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate score for enrollment %s", pending.EnrollmentID))
		}
		seen[pending.EnrollmentID] = true
		if !rosterIDs[pending.EnrollmentID] {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("enrollment %s not part of this class section", pending.EnrollmentID))
		}
		if pending.Score < 0 || pending.Score > activity.NumberOfItems {
			return 0, appErrors.Clone(appErrors.ErrScoreOutOfRange, fmt.Sprintf("score %.2f for enrollment %s outside [0, %.2f]", pending.Score, pending.EnrollmentID, activity.NumberOfItems))
		}
		records = append(records, models.ScoreRecord{
			ActivityID:   req.ActivityID,
			EnrollmentID: pending.EnrollmentID,
			Score:        pending.Score,
			RecordedBy:   recordedBy,
		})
	}
	if err := s.scores.BulkUpsert(ctx, records); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record scores")
	}
	s.invalidate(ctx, activity.TeachingLoadDetailID)
	return len(records), nil
}

func (s *ScoreService) loadActivity(ctx context.Context, activityID string) (*models.Activity, error) {
	activity, err := s.activities.FindByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return activity, nil
}

func (s *ScoreService) rosterIDs(ctx context.Context, teachingLoadDetailID string) (map[string]bool, error) {
	roster, err := s.roster.ListDetailsBySection(ctx, teachingLoadDetailID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	ids := make(map[string]bool, len(roster))
	for _, entry := range roster {
		ids[entry.ID] = true
	}
	return ids, nil
}

func (s *ScoreService) invalidate(ctx context.Context, teachingLoadDetailID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, SectionCachePattern(teachingLoadDetailID)); err != nil {
		s.logger.Warn("grade cache invalidation failed", zap.String("section", teachingLoadDetailID), zap.Error(err))
	}
}
