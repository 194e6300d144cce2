package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acadsys/class-record-api/internal/models"
	appErrors "github.com/acadsys/class-record-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, error)
	ListDetailsBySection(ctx context.Context, teachingLoadDetailID string) ([]models.EnrollmentDetail, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Deactivate(ctx context.Context, id string) error
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// EnrollRequest puts a student into a class section.
type EnrollRequest struct {
	StudentID            string `json:"studentId" validate:"required,uuid"`
	TeachingLoadDetailID string `json:"teachingLoadDetailId" validate:"required,uuid"`
}

// EnrollmentService maintains class rosters.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentFinder
	sections  sectionReader
	cache     gradeCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService creates an EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, students studentFinder, sections sectionReader, cache gradeCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EnrollmentService{repo: repo, students: students, sections: sections, cache: cache, validator: validate, logger: logger}
}

// List returns enrollments matching the filter.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, error) {
	enrollments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// Roster returns the active students of a class section ordered by name.
func (s *EnrollmentService) Roster(ctx context.Context, teachingLoadDetailID string) ([]models.EnrollmentDetail, error) {
	if teachingLoadDetailID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teachingLoadDetailId is required")
	}
	roster, err := s.repo.ListDetailsBySection(ctx, teachingLoadDetailID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return roster, nil
}

// Enroll adds a student to a class section. Re-enrolling a previously
// removed student reactivates the original row.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate student")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is inactive")
	}

	if _, err := s.sections.FindDetailByID(ctx, req.TeachingLoadDetailID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "class section does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate class section")
	}

	enrollment := &models.Enrollment{
		ID:                   uuid.NewString(),
		StudentID:            req.StudentID,
		TeachingLoadDetailID: req.TeachingLoadDetailID,
		Active:               true,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}

	s.invalidate(ctx, req.TeachingLoadDetailID)
	return enrollment, nil
}

// Drop removes a student from a class section. Scores are retained in case
// the enrollment is later reactivated.
func (s *EnrollmentService) Drop(ctx context.Context, id string) error {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop enrollment")
	}

	s.invalidate(ctx, enrollment.TeachingLoadDetailID)
	return nil
}

func (s *EnrollmentService) invalidate(ctx context.Context, teachingLoadDetailID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, SectionCachePattern(teachingLoadDetailID)); err != nil {
		s.logger.Warn("failed to invalidate grade cache", zap.Error(err))
	}
}
