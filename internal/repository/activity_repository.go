package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadsys/class-record-api/internal/models"
)

// ActivityRepository handles scored assessment item persistence.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// List returns activities matching the filter, oldest first so export
// columns keep their entry order.
func (r *ActivityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error) {
	query := `SELECT a.id, a.teaching_load_detail_id, a.category_id, a.term_id, a.description, a.number_of_items, a.held_at, a.created_at, a.updated_at,
        c.code AS category_code, t.code AS term_code
        FROM activities a
        JOIN categories c ON c.id = a.category_id
        JOIN terms t ON t.id = a.term_id
        WHERE 1=1`
	var args []interface{}
	if filter.TeachingLoadDetailID != "" {
		query += fmt.Sprintf(" AND a.teaching_load_detail_id = $%d", len(args)+1)
		args = append(args, filter.TeachingLoadDetailID)
	}
	if filter.CategoryID != "" {
		query += fmt.Sprintf(" AND a.category_id = $%d", len(args)+1)
		args = append(args, filter.CategoryID)
	}
	if filter.TermID != "" {
		query += fmt.Sprintf(" AND a.term_id = $%d", len(args)+1)
		args = append(args, filter.TermID)
	}
	query += " ORDER BY a.held_at, a.created_at"
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, args...); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

// FindByID returns a single activity.
func (r *ActivityRepository) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	const query = `SELECT a.id, a.teaching_load_detail_id, a.category_id, a.term_id, a.description, a.number_of_items, a.held_at, a.created_at, a.updated_at,
        c.code AS category_code, t.code AS term_code
        FROM activities a
        JOIN categories c ON c.id = a.category_id
        JOIN terms t ON t.id = a.term_id
        WHERE a.id = $1`
	var activity models.Activity
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		return nil, err
	}
	return &activity, nil
}

// Create inserts a new activity.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	activity.CreatedAt = now
	activity.UpdatedAt = now
	const query = `INSERT INTO activities (id, teaching_load_detail_id, category_id, term_id, description, number_of_items, held_at, created_at, updated_at)
        VALUES (:id, :teaching_load_detail_id, :category_id, :term_id, :description, :number_of_items, :held_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// Update changes an activity's description, item count, or date.
func (r *ActivityRepository) Update(ctx context.Context, activity *models.Activity) error {
	activity.UpdatedAt = time.Now().UTC()
	const query = `UPDATE activities SET description = :description, number_of_items = :number_of_items, held_at = :held_at, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	return nil
}

// Delete removes an activity and its scores.
func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM score_records WHERE activity_id = $1", id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete activity scores: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM activities WHERE id = $1", id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete activity: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activity delete: %w", err)
	}
	return nil
}
