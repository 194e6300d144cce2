package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadsys/class-record-api/internal/models"
)

// ScoreRepository handles score record persistence.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// ListByActivity returns all scores recorded against one activity.
func (r *ScoreRepository) ListByActivity(ctx context.Context, activityID string) ([]models.ScoreRecord, error) {
	const query = `SELECT id, activity_id, enrollment_id, score, recorded_by, created_at, updated_at
        FROM score_records WHERE activity_id = $1 ORDER BY created_at`
	var scores []models.ScoreRecord
	if err := r.db.SelectContext(ctx, &scores, query, activityID); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return scores, nil
}

// Upsert inserts or updates a single score record. The (activity,
// enrollment) pair stays unique; later writes win.
func (r *ScoreRepository) Upsert(ctx context.Context, score *models.ScoreRecord) error {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if score.CreatedAt.IsZero() {
		score.CreatedAt = now
	}
	score.UpdatedAt = now
	const query = `INSERT INTO score_records (id, activity_id, enrollment_id, score, recorded_by, created_at, updated_at)
        VALUES (:id, :activity_id, :enrollment_id, :score, :recorded_by, :created_at, :updated_at)
        ON CONFLICT (activity_id, enrollment_id)
        DO UPDATE SET score = EXCLUDED.score, recorded_by = EXCLUDED.recorded_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, score); err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

// BulkUpsert writes a batch of score records in a transaction.
func (r *ScoreRepository) BulkUpsert(ctx context.Context, scores []models.ScoreRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	for i := range scores {
		if scores[i].ID == "" {
			scores[i].ID = uuid.NewString()
		}
		now := time.Now().UTC()
		if scores[i].CreatedAt.IsZero() {
			scores[i].CreatedAt = now
		}
		scores[i].UpdatedAt = now
		const query = `INSERT INTO score_records (id, activity_id, enrollment_id, score, recorded_by, created_at, updated_at)
                VALUES (:id, :activity_id, :enrollment_id, :score, :recorded_by, :created_at, :updated_at)
                ON CONFLICT (activity_id, enrollment_id)
                DO UPDATE SET score = EXCLUDED.score, recorded_by = EXCLUDED.recorded_by, updated_at = EXCLUDED.updated_at`
		if _, err := tx.NamedExecContext(ctx, query, scores[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("bulk upsert score: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scores: %w", err)
	}
	return nil
}

// FetchByActivities returns scores keyed by activity ID, each inner map
// keyed by enrollment ID. Used by the aggregators to sum a whole section.
func (r *ScoreRepository) FetchByActivities(ctx context.Context, activityIDs []string) (map[string]map[string]float64, error) {
	if len(activityIDs) == 0 {
		return map[string]map[string]float64{}, nil
	}
	placeholders := make([]string, len(activityIDs))
	args := make([]interface{}, len(activityIDs))
	for i, id := range activityIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, activity_id, enrollment_id, score, recorded_by, created_at, updated_at
        FROM score_records WHERE activity_id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch scores: %w", err)
	}
	defer rows.Close()
	result := make(map[string]map[string]float64, len(activityIDs))
	for rows.Next() {
		var record models.ScoreRecord
		if err := rows.StructScan(&record); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		if result[record.ActivityID] == nil {
			result[record.ActivityID] = make(map[string]float64)
		}
		result[record.ActivityID][record.EnrollmentID] = record.Score
	}
	return result, nil
}
