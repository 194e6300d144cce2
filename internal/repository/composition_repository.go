package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadsys/class-record-api/internal/models"
)

// CompositionRepository manages grading composition persistence.
type CompositionRepository struct {
	db *sqlx.DB
}

// NewCompositionRepository creates a new composition repository.
func NewCompositionRepository(db *sqlx.DB) *CompositionRepository {
	return &CompositionRepository{db: db}
}

// FindBySection returns the composition for a class section with entries.
func (r *CompositionRepository) FindBySection(ctx context.Context, teachingLoadDetailID string) (*models.GradingComposition, error) {
	const query = `SELECT id, teaching_load_detail_id, created_at, updated_at
        FROM grading_compositions WHERE teaching_load_detail_id = $1`
	var composition models.GradingComposition
	if err := r.db.GetContext(ctx, &composition, query, teachingLoadDetailID); err != nil {
		return nil, err
	}
	entries, err := r.loadEntries(ctx, composition.ID)
	if err != nil {
		return nil, err
	}
	composition.Entries = entries
	return &composition, nil
}

// Save inserts or replaces a section's composition with its entries.
func (r *CompositionRepository) Save(ctx context.Context, composition *models.GradingComposition) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if composition.ID == "" {
		composition.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if composition.CreatedAt.IsZero() {
		composition.CreatedAt = now
	}
	composition.UpdatedAt = now
	const upsertQuery = `INSERT INTO grading_compositions (id, teaching_load_detail_id, created_at, updated_at)
        VALUES (:id, :teaching_load_detail_id, :created_at, :updated_at)
        ON CONFLICT (teaching_load_detail_id)
        DO UPDATE SET updated_at = EXCLUDED.updated_at
        RETURNING id`
	rows, err := tx.NamedQuery(upsertQuery, composition)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("upsert grading composition: %w", err)
	}
	if rows.Next() {
		if err := rows.Scan(&composition.ID); err != nil {
			rows.Close()
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("scan grading composition id: %w", err)
		}
	}
	rows.Close()
	if err := r.replaceEntriesTx(ctx, tx, composition.ID, composition.Entries); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grading composition: %w", err)
	}
	return nil
}

// UpdateEntry changes a single category weight in place.
func (r *CompositionRepository) UpdateEntry(ctx context.Context, compositionID, categoryID string, percentage float64) error {
	const query = `UPDATE grading_composition_entries SET percentage = $3
        WHERE composition_id = $1 AND category_id = $2`
	result, err := r.db.ExecContext(ctx, query, compositionID, categoryID, percentage)
	if err != nil {
		return fmt.Errorf("update composition entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update composition entry: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("composition entry not found")
	}
	const touch = `UPDATE grading_compositions SET updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, touch, compositionID, time.Now().UTC()); err != nil {
		return fmt.Errorf("touch grading composition: %w", err)
	}
	return nil
}

// replaceEntriesTx rewrites composition entries in a transaction.
func (r *CompositionRepository) replaceEntriesTx(ctx context.Context, tx *sqlx.Tx, compositionID string, entries []models.CompositionEntry) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM grading_composition_entries WHERE composition_id = $1", compositionID); err != nil {
		return fmt.Errorf("clear composition entries: %w", err)
	}
	const insertEntry = `INSERT INTO grading_composition_entries (id, composition_id, category_id, percentage)
        VALUES (:id, :composition_id, :category_id, :percentage)`
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		entries[i].CompositionID = compositionID
		if _, err := tx.NamedExecContext(ctx, insertEntry, entries[i]); err != nil {
			return fmt.Errorf("insert composition entry: %w", err)
		}
	}
	return nil
}

func (r *CompositionRepository) loadEntries(ctx context.Context, compositionID string) ([]models.CompositionEntry, error) {
	const query = `SELECT e.id, e.composition_id, e.category_id, e.percentage, c.code AS category_code
        FROM grading_composition_entries e
        JOIN categories c ON c.id = e.category_id
        WHERE e.composition_id = $1 ORDER BY c.sequence`
	var entries []models.CompositionEntry
	if err := r.db.SelectContext(ctx, &entries, query, compositionID); err != nil {
		return nil, fmt.Errorf("load composition entries: %w", err)
	}
	return entries, nil
}
