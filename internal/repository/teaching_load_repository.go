package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadsys/class-record-api/internal/models"
)

// TeachingLoadRepository manages teaching loads and their class sections.
type TeachingLoadRepository struct {
	db *sqlx.DB
}

// NewTeachingLoadRepository creates a new teaching load repository.
func NewTeachingLoadRepository(db *sqlx.DB) *TeachingLoadRepository {
	return &TeachingLoadRepository{db: db}
}

// List returns teaching loads matching the filter.
func (r *TeachingLoadRepository) List(ctx context.Context, filter models.TeachingLoadFilter) ([]models.TeachingLoad, int, error) {
	base := ` FROM teaching_loads tl JOIN users u ON u.id = tl.teacher_id WHERE 1=1`
	var args []interface{}
	if filter.TeacherID != "" {
		base += fmt.Sprintf(" AND tl.teacher_id = $%d", len(args)+1)
		args = append(args, filter.TeacherID)
	}
	if filter.AcademicYear != "" {
		base += fmt.Sprintf(" AND tl.academic_year = $%d", len(args)+1)
		args = append(args, filter.AcademicYear)
	}
	if filter.Semester != 0 {
		base += fmt.Sprintf(" AND tl.semester = $%d", len(args)+1)
		args = append(args, filter.Semester)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count teaching loads: %w", err)
	}

	query := `SELECT tl.id, tl.teacher_id, u.full_name AS teacher_name, tl.academic_year, tl.semester, tl.created_at, tl.updated_at` + base +
		" ORDER BY tl.academic_year DESC, tl.semester DESC"
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, filter.PageSize, (page-1)*filter.PageSize)
	}
	var loads []models.TeachingLoad
	if err := r.db.SelectContext(ctx, &loads, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teaching loads: %w", err)
	}
	return loads, total, nil
}

// FindByID returns a single teaching load.
func (r *TeachingLoadRepository) FindByID(ctx context.Context, id string) (*models.TeachingLoad, error) {
	const query = `SELECT tl.id, tl.teacher_id, u.full_name AS teacher_name, tl.academic_year, tl.semester, tl.created_at, tl.updated_at
        FROM teaching_loads tl JOIN users u ON u.id = tl.teacher_id WHERE tl.id = $1`
	var load models.TeachingLoad
	if err := r.db.GetContext(ctx, &load, query, id); err != nil {
		return nil, err
	}
	return &load, nil
}

// Create inserts a new teaching load.
func (r *TeachingLoadRepository) Create(ctx context.Context, load *models.TeachingLoad) error {
	if load.ID == "" {
		load.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	load.CreatedAt = now
	load.UpdatedAt = now
	const query = `INSERT INTO teaching_loads (id, teacher_id, academic_year, semester, created_at, updated_at)
        VALUES (:id, :teacher_id, :academic_year, :semester, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, load); err != nil {
		return fmt.Errorf("insert teaching load: %w", err)
	}
	return nil
}

// ListDetails returns the class sections under a teaching load.
func (r *TeachingLoadRepository) ListDetails(ctx context.Context, teachingLoadID string) ([]models.TeachingLoadDetail, error) {
	const query = `SELECT d.id, d.teaching_load_id, d.subject_id, s.code AS subject_code, s.name AS subject_name,
        d.section, d.schedule, d.room, d.created_at, d.updated_at
        FROM teaching_load_details d
        JOIN subjects s ON s.id = d.subject_id
        WHERE d.teaching_load_id = $1 ORDER BY s.code, d.section`
	var details []models.TeachingLoadDetail
	if err := r.db.SelectContext(ctx, &details, query, teachingLoadID); err != nil {
		return nil, fmt.Errorf("list teaching load details: %w", err)
	}
	return details, nil
}

// FindDetailByID returns a single class section with its subject joined.
func (r *TeachingLoadRepository) FindDetailByID(ctx context.Context, id string) (*models.TeachingLoadDetail, error) {
	const query = `SELECT d.id, d.teaching_load_id, d.subject_id, s.code AS subject_code, s.name AS subject_name,
        d.section, d.schedule, d.room, d.created_at, d.updated_at
        FROM teaching_load_details d
        JOIN subjects s ON s.id = d.subject_id
        WHERE d.id = $1`
	var detail models.TeachingLoadDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateDetail inserts a new class section under a teaching load.
func (r *TeachingLoadRepository) CreateDetail(ctx context.Context, detail *models.TeachingLoadDetail) error {
	if detail.ID == "" {
		detail.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	detail.CreatedAt = now
	detail.UpdatedAt = now
	const query = `INSERT INTO teaching_load_details (id, teaching_load_id, subject_id, section, schedule, room, created_at, updated_at)
        VALUES (:id, :teaching_load_id, :subject_id, :section, :schedule, :room, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, detail); err != nil {
		return fmt.Errorf("insert teaching load detail: %w", err)
	}
	return nil
}

// OwnsSection reports whether the teacher owns the class section. Used for
// teacher-scoped access checks.
func (r *TeachingLoadRepository) OwnsSection(ctx context.Context, teacherID, teachingLoadDetailID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM teaching_load_details d
        JOIN teaching_loads tl ON tl.id = d.teaching_load_id
        WHERE d.id = $1 AND tl.teacher_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, teachingLoadDetailID, teacherID); err != nil {
		return false, fmt.Errorf("check section ownership: %w", err)
	}
	return count > 0, nil
}
