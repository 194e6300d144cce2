package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acadsys/class-record-api/internal/models"
	appErrors "github.com/acadsys/class-record-api/pkg/errors"
)

type teachingLoadRepository interface {
	List(ctx context.Context, filter models.TeachingLoadFilter) ([]models.TeachingLoad, int, error)
	FindByID(ctx context.Context, id string) (*models.TeachingLoad, error)
	Create(ctx context.Context, load *models.TeachingLoad) error
	ListDetails(ctx context.Context, teachingLoadID string) ([]models.TeachingLoadDetail, error)
	FindDetailByID(ctx context.Context, id string) (*models.TeachingLoadDetail, error)
	CreateDetail(ctx context.Context, detail *models.TeachingLoadDetail) error
	OwnsSection(ctx context.Context, teacherID, teachingLoadDetailID string) (bool, error)
}

type teacherFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type subjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// CreateTeachingLoadRequest assigns a teacher a load for a school term.
type CreateTeachingLoadRequest struct {
	TeacherID    string `json:"teacherId" validate:"required,uuid"`
	AcademicYear string `json:"academicYear" validate:"required"`
	Semester     int    `json:"semester" validate:"required,min=1,max=3"`
}

// CreateSectionRequest adds a class section to an existing load.
type CreateSectionRequest struct {
	SubjectID string  `json:"subjectId" validate:"required,uuid"`
	Section   string  `json:"section" validate:"required"`
	Schedule  *string `json:"schedule"`
	Room      *string `json:"room"`
}

// TeachingLoadService manages teacher assignments and class sections.
type TeachingLoadService struct {
	repo      teachingLoadRepository
	users     teacherFinder
	subjects  subjectFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeachingLoadService creates a TeachingLoadService.
func NewTeachingLoadService(repo teachingLoadRepository, users teacherFinder, subjects subjectFinder, validate *validator.Validate, logger *zap.Logger) *TeachingLoadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TeachingLoadService{repo: repo, users: users, subjects: subjects, validator: validate, logger: logger}
}

// List returns teaching loads matching the filter. Teachers only see their
// own loads; the handler passes the caller identity through the filter.
func (s *TeachingLoadService) List(ctx context.Context, filter models.TeachingLoadFilter) ([]models.TeachingLoad, *models.Pagination, error) {
	loads, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teaching loads")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return loads, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a teaching load with its class sections.
func (s *TeachingLoadService) Get(ctx context.Context, id string) (*models.TeachingLoad, []models.TeachingLoadDetail, error) {
	load, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "teaching load not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teaching load")
	}

	details, err := s.repo.ListDetails(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class sections")
	}
	return load, details, nil
}

// Create assigns a new teaching load to a teacher.
func (s *TeachingLoadService) Create(ctx context.Context, req CreateTeachingLoadRequest) (*models.TeachingLoad, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teaching load payload")
	}

	teacher, err := s.users.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "teacher does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate teacher")
	}
	if teacher.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user is not a teacher")
	}

	load := &models.TeachingLoad{
		ID:           uuid.NewString(),
		TeacherID:    req.TeacherID,
		AcademicYear: strings.TrimSpace(req.AcademicYear),
		Semester:     req.Semester,
	}
	if err := s.repo.Create(ctx, load); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "teaching load already exists for this term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teaching load")
	}
	load.TeacherName = teacher.FullName
	return load, nil
}

// AddSection appends a class section to a teaching load.
func (s *TeachingLoadService) AddSection(ctx context.Context, teachingLoadID string, req CreateSectionRequest) (*models.TeachingLoadDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}

	if _, err := s.repo.FindByID(ctx, teachingLoadID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teaching load not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teaching load")
	}

	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subject does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate subject")
	}

	detail := &models.TeachingLoadDetail{
		ID:             uuid.NewString(),
		TeachingLoadID: teachingLoadID,
		SubjectID:      req.SubjectID,
		Section:        strings.TrimSpace(req.Section),
		Schedule:       req.Schedule,
		Room:           req.Room,
	}
	if err := s.repo.CreateDetail(ctx, detail); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "section already exists for this subject")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class section")
	}
	detail.SubjectCode = subject.Code
	detail.SubjectName = subject.Name
	return detail, nil
}

// GetSection returns a single class section by ID.
func (s *TeachingLoadService) GetSection(ctx context.Context, id string) (*models.TeachingLoadDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class section")
	}
	return detail, nil
}

// OwnsSection reports whether the teacher is assigned the class section.
func (s *TeachingLoadService) OwnsSection(ctx context.Context, teacherID, teachingLoadDetailID string) (bool, error) {
	owns, err := s.repo.OwnsSection(ctx, teacherID, teachingLoadDetailID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section ownership")
	}
	return owns, nil
}
