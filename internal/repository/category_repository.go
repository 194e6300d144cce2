package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/acadsys/class-record-api/internal/models"
)

// CategoryRepository reads the fixed assessment category reference rows.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns all categories in display order.
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	const query = `SELECT id, code, name, sequence FROM categories ORDER BY sequence`
	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// FindByID returns a single category.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*models.Category, error) {
	const query = `SELECT id, code, name, sequence FROM categories WHERE id = $1`
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByCode returns a category by its stable code.
func (r *CategoryRepository) FindByCode(ctx context.Context, code models.CategoryCode) (*models.Category, error) {
	const query = `SELECT id, code, name, sequence FROM categories WHERE code = $1`
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, code); err != nil {
		return nil, err
	}
	return &category, nil
}
