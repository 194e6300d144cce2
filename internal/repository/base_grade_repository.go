package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadsys/class-record-api/internal/models"
)

// BaseGradeRepository manages per-section semester blend settings.
type BaseGradeRepository struct {
	db *sqlx.DB
}

// NewBaseGradeRepository creates a new base grade repository.
func NewBaseGradeRepository(db *sqlx.DB) *BaseGradeRepository {
	return &BaseGradeRepository{db: db}
}

// FindBySection returns the base grade settings for a class section.
func (r *BaseGradeRepository) FindBySection(ctx context.Context, teachingLoadDetailID string) (*models.BaseGrade, error) {
	const query = `SELECT id, teaching_load_detail_id, base_grade, percentage, created_at, updated_at
        FROM base_grades WHERE teaching_load_detail_id = $1`
	var baseGrade models.BaseGrade
	if err := r.db.GetContext(ctx, &baseGrade, query, teachingLoadDetailID); err != nil {
		return nil, err
	}
	return &baseGrade, nil
}

// Upsert inserts or updates a section's base grade settings.
func (r *BaseGradeRepository) Upsert(ctx context.Context, baseGrade *models.BaseGrade) error {
	if baseGrade.ID == "" {
		baseGrade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if baseGrade.CreatedAt.IsZero() {
		baseGrade.CreatedAt = now
	}
	baseGrade.UpdatedAt = now
	const query = `INSERT INTO base_grades (id, teaching_load_detail_id, base_grade, percentage, created_at, updated_at)
        VALUES (:id, :teaching_load_detail_id, :base_grade, :percentage, :created_at, :updated_at)
        ON CONFLICT (teaching_load_detail_id)
        DO UPDATE SET base_grade = EXCLUDED.base_grade, percentage = EXCLUDED.percentage, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, baseGrade); err != nil {
		return fmt.Errorf("upsert base grade: %w", err)
	}
	return nil
}
