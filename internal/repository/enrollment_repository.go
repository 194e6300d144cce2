package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadsys/class-record-api/internal/models"
)

// EnrollmentRepository manages class section enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new enrollment repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments matching the filter.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, error) {
	query := `SELECT id, student_id, teaching_load_detail_id, active, created_at, updated_at
        FROM enrollments WHERE 1=1`
	var args []interface{}
	if filter.TeachingLoadDetailID != "" {
		query += fmt.Sprintf(" AND teaching_load_detail_id = $%d", len(args)+1)
		args = append(args, filter.TeachingLoadDetailID)
	}
	if filter.StudentID != "" {
		query += fmt.Sprintf(" AND student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	if filter.ActiveOnly {
		query += " AND active = TRUE"
	}
	query += " ORDER BY created_at"
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// ListDetailsBySection returns active enrollments joined with student
// identity, sorted by student name for roster-style output.
func (r *EnrollmentRepository) ListDetailsBySection(ctx context.Context, teachingLoadDetailID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, s.student_number, s.full_name AS student_name
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        WHERE e.teaching_load_detail_id = $1 AND e.active = TRUE
        ORDER BY s.full_name`
	var details []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &details, query, teachingLoadDetailID); err != nil {
		return nil, fmt.Errorf("list enrollment details: %w", err)
	}
	return details, nil
}

// FindByID returns a single enrollment.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, teaching_load_detail_id, active, created_at, updated_at
        FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Create inserts a new enrollment, reactivating a prior one for the same
// student and section if present.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	enrollment.Active = true
	const query = `INSERT INTO enrollments (id, student_id, teaching_load_detail_id, active, created_at, updated_at)
        VALUES (:id, :student_id, :teaching_load_detail_id, :active, :created_at, :updated_at)
        ON CONFLICT (student_id, teaching_load_detail_id)
        DO UPDATE SET active = TRUE, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}

// Deactivate drops a student from a section without erasing their scores.
func (r *EnrollmentRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE enrollments SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate enrollment: %w", err)
	}
	return nil
}
