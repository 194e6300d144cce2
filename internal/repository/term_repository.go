package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/acadsys/class-record-api/internal/models"
)

// TermRepository reads the fixed grading period reference rows.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository creates a new term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// List returns all terms ordered by sequence.
func (r *TermRepository) List(ctx context.Context) ([]models.Term, error) {
	const query = `SELECT id, code, name, sequence FROM terms ORDER BY sequence`
	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms, query); err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	return terms, nil
}

// FindByID returns a single term.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	const query = `SELECT id, code, name, sequence FROM terms WHERE id = $1`
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// FindByCode returns a term by its stable code.
func (r *TermRepository) FindByCode(ctx context.Context, code models.TermCode) (*models.Term, error) {
	const query = `SELECT id, code, name, sequence FROM terms WHERE code = $1`
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, code); err != nil {
		return nil, err
	}
	return &term, nil
}
