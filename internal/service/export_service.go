package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/acadsys/class-record-api/internal/models"
	"github.com/acadsys/class-record-api/pkg/export"
	"github.com/acadsys/class-record-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type semesterGradeComputer interface {
	Compute(ctx context.Context, teachingLoadDetailID string) (*models.SemesterGradeResult, error)
}

type workbookRenderer interface {
	Render(wb export.Workbook) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds grade workbooks and persists rendered files.
type ExportService struct {
	termGrades     termGradeComputer
	semesterGrades semesterGradeComputer
	activities     activityLister
	scores         scoreFetcher
	roster         rosterReader
	sections       sectionReader
	terms          termReader
	storage        fileStorage
	csv            workbookRenderer
	pdf            workbookRenderer
	signer         *storage.SignedURLSigner
	logger         *zap.Logger
	cfg            ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(termGrades termGradeComputer, semesterGrades semesterGradeComputer, activities activityLister, scores scoreFetcher, roster rosterReader, sections sectionReader, terms termReader, fileStore fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv workbookRenderer, pdf workbookRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		termGrades:     termGrades,
		semesterGrades: semesterGrades,
		activities:     activities,
		scores:         scores,
		roster:         roster,
		sections:       sections,
		terms:          terms,
		storage:        fileStore,
		csv:            csv,
		pdf:            pdf,
		signer:         signer,
		logger:         logger,
		cfg:            cfg,
	}
}

// Generate builds the workbook for a job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	workbook, err := s.buildWorkbook(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(*workbook)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(*workbook)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	sectionPart := sanitizeFilename(job.Params.TeachingLoadDetailID)
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), sectionPart, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildWorkbook(ctx context.Context, job *models.ReportJob) (*export.Workbook, error) {
	sectionID := job.Params.TeachingLoadDetailID
	section, err := s.sections.FindDetailByID(ctx, sectionID)
	if err != nil {
		return nil, fmt.Errorf("load class section: %w", err)
	}
	title := fmt.Sprintf("%s %s - %s", section.SubjectCode, section.Section, section.SubjectName)

	switch job.Type {
	case models.ReportTypeClassRecord:
		return s.buildClassRecordWorkbook(ctx, sectionID, title)
	case models.ReportTypeTermGrades:
		if job.Params.TermID == nil || *job.Params.TermID == "" {
			return nil, fmt.Errorf("term id required for term grade export")
		}
		wb := &export.Workbook{Title: title}
		sheet, err := s.termComparisonSheet(ctx, sectionID)
		if err != nil {
			return nil, err
		}
		wb.AddSheet(sheet)
		return wb, nil
	case models.ReportTypeSemesterGrades:
		wb := &export.Workbook{Title: title}
		sheet, err := s.semesterSheet(ctx, sectionID)
		if err != nil {
			return nil, err
		}
		wb.AddSheet(sheet)
		return wb, nil
	default:
		return nil, fmt.Errorf("unsupported report type %s", job.Type)
	}
}

// buildClassRecordWorkbook assembles the full class record: a semester
// summary, a midterm/finals comparison, and one raw-score sheet per term
// and category.
func (s *ExportService) buildClassRecordWorkbook(ctx context.Context, sectionID, title string) (*export.Workbook, error) {
	wb := &export.Workbook{Title: title}

	semester, err := s.semesterSheet(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	wb.AddSheet(semester)

	comparison, err := s.termComparisonSheet(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	wb.AddSheet(comparison)

	terms, err := s.terms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	for _, term := range terms {
		for _, category := range models.AllCategoryCodes {
			sheet, err := s.categorySheet(ctx, sectionID, term, category)
			if err != nil {
				return nil, err
			}
			if sheet != nil {
				wb.AddSheet(*sheet)
			}
		}
	}
	return wb, nil
}

func (s *ExportService) semesterSheet(ctx context.Context, sectionID string) (export.Sheet, error) {
	result, err := s.semesterGrades.Compute(ctx, sectionID)
	if err != nil {
		return export.Sheet{}, err
	}
	sheet := export.Sheet{
		Name:    "Semester Grades",
		Headers: []string{"Student No", "Student Name", "Midterm", "Finals", "Semester Grade", "Remarks"},
	}
	for _, row := range result.Rows {
		sheet.Rows = append(sheet.Rows, []string{
			row.StudentNumber,
			row.StudentName,
			formatGradePtr(row.MidtermGrade),
			formatGradePtr(row.FinalsGrade),
			formatGradePtr(row.SemesterGrade),
			row.Remarks,
		})
	}
	return sheet, nil
}

// termComparisonSheet lays the midterm block and the finals block side by
// side: per-category percentages followed by the term grade for each.
func (s *ExportService) termComparisonSheet(ctx context.Context, sectionID string) (export.Sheet, error) {
	terms, err := s.terms.List(ctx)
	if err != nil {
		return export.Sheet{}, fmt.Errorf("list terms: %w", err)
	}

	headers := []string{"Student No", "Student Name"}
	results := make([]*models.TermGradeResult, 0, len(terms))
	for _, term := range terms {
		result, err := s.termGrades.Compute(ctx, sectionID, term.ID)
		if err != nil {
			return export.Sheet{}, err
		}
		results = append(results, result)
		for _, category := range models.AllCategoryCodes {
			headers = append(headers, fmt.Sprintf("%s %s", term.Name, categoryLabel(category)))
		}
		headers = append(headers, fmt.Sprintf("%s Grade", term.Name))
	}

	sheet := export.Sheet{Name: "Term Grades", Headers: headers}
	if len(results) == 0 || !results[0].Configured {
		return sheet, nil
	}

	rowIndex := make([]map[string]models.TermGradeRow, len(results))
	for i, result := range results {
		rowIndex[i] = make(map[string]models.TermGradeRow, len(result.Rows))
		for _, row := range result.Rows {
			rowIndex[i][row.EnrollmentID] = row
		}
	}

	for _, base := range results[0].Rows {
		cells := []string{base.StudentNumber, base.StudentName}
		for i := range results {
			row, ok := rowIndex[i][base.EnrollmentID]
			for _, category := range models.AllCategoryCodes {
				if !ok {
					cells = append(cells, "")
					continue
				}
				cells = append(cells, formatCategoryPct(row.Breakdown, category))
			}
			if ok {
				cells = append(cells, fmt.Sprintf("%.2f", row.FinalGrade))
			} else {
				cells = append(cells, "")
			}
		}
		sheet.Rows = append(sheet.Rows, cells)
	}
	return sheet, nil
}

// categorySheet renders one term+category raw score grid with score/items
// cells. Returns nil when the category has no activities for the term.
func (s *ExportService) categorySheet(ctx context.Context, sectionID string, term models.Term, category models.CategoryCode) (*export.Sheet, error) {
	activities, err := s.activities.List(ctx, models.ActivityFilter{TeachingLoadDetailID: sectionID, TermID: term.ID})
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	filtered := make([]models.Activity, 0, len(activities))
	for _, activity := range activities {
		if activity.CategoryCode == category {
			filtered = append(filtered, activity)
		}
	}
	if len(filtered) == 0 {
		return nil, nil
	}

	activityIDs := make([]string, 0, len(filtered))
	headers := []string{"Student No", "Student Name"}
	for _, activity := range filtered {
		activityIDs = append(activityIDs, activity.ID)
		headers = append(headers, activity.Description)
	}
	headers = append(headers, "Total", "%")

	scores, err := s.scores.FetchByActivities(ctx, activityIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch scores: %w", err)
	}
	roster, err := s.roster.ListDetailsBySection(ctx, sectionID)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	sheet := &export.Sheet{
		Name:    fmt.Sprintf("%s %s", term.Name, categoryLabel(category)),
		Headers: headers,
	}
	// Attendance sheets carry a conduct-date annotation row under the
	// activity columns, matching the original workbook layout.
	if category == models.CategoryAttendance {
		dateRow := []string{"", "Conducted"}
		for _, activity := range filtered {
			dateRow = append(dateRow, activity.HeldAt.Format("Jan 02"))
		}
		dateRow = append(dateRow, "", "")
		sheet.Rows = append(sheet.Rows, dateRow)
	}
	totalItems := 0.0
	for _, activity := range filtered {
		totalItems += activity.NumberOfItems
	}
	for _, student := range roster {
		cells := []string{student.StudentNumber, student.StudentName}
		earned := 0.0
		for _, activity := range filtered {
			score := 0.0
			if byEnrollment, ok := scores[activity.ID]; ok {
				score = byEnrollment[student.ID]
			}
			earned += score
			cells = append(cells, fmt.Sprintf("%s/%s", formatScore(score), formatScore(activity.NumberOfItems)))
		}
		cells = append(cells, fmt.Sprintf("%s/%s", formatScore(earned), formatScore(totalItems)))
		pct := 0.0
		if totalItems > 0 {
			pct = round2(earned / totalItems * 100)
		}
		cells = append(cells, fmt.Sprintf("%.2f", pct))
		sheet.Rows = append(sheet.Rows, cells)
	}
	return sheet, nil
}

func categoryLabel(code models.CategoryCode) string {
	switch code {
	case models.CategoryQuiz:
		return "Quiz"
	case models.CategoryActivity:
		return "Activity"
	case models.CategoryExam:
		return "Exam"
	case models.CategoryAttendance:
		return "Attendance"
	default:
		return string(code)
	}
}

func formatGradePtr(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatCategoryPct(breakdown []models.CategoryBreakdown, category models.CategoryCode) string {
	for _, entry := range breakdown {
		if entry.CategoryCode == category {
			return fmt.Sprintf("%.2f", entry.Percentage)
		}
	}
	return ""
}

func formatScore(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
