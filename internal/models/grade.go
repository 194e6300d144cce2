package models

// CategoryBreakdown is one category's contribution to a term grade.
type CategoryBreakdown struct {
	CategoryCode CategoryCode `json:"categoryCode"`
	EarnedPoints float64      `json:"earnedPoints"`
	TotalItems   float64      `json:"totalItems"`
	Percentage   float64      `json:"percentage"`
	Weight       float64      `json:"weight"`
	Weighted     float64      `json:"weighted"`
}

// TermGradeRow is one student's computed grade for a single term.
type TermGradeRow struct {
	EnrollmentID  string              `json:"enrollmentId"`
	StudentID     string              `json:"studentId"`
	StudentNumber string              `json:"studentNumber"`
	StudentName   string              `json:"studentName"`
	Breakdown     []CategoryBreakdown `json:"breakdown"`
	FinalGrade    float64             `json:"finalGrade"`
	Remarks       string              `json:"remarks"`
}

// TermGradeResult holds a full class section's grades for one term.
type TermGradeResult struct {
	TeachingLoadDetailID string         `json:"teachingLoadDetailId"`
	TermID               string         `json:"termId"`
	TermCode             TermCode       `json:"termCode"`
	Configured           bool           `json:"configured"`
	Rows                 []TermGradeRow `json:"rows"`
}

// SemesterGradeRow is one student's blended semester standing.
type SemesterGradeRow struct {
	EnrollmentID  string   `json:"enrollmentId"`
	StudentID     string   `json:"studentId"`
	StudentNumber string   `json:"studentNumber"`
	StudentName   string   `json:"studentName"`
	MidtermGrade  *float64 `json:"midtermGrade"`
	FinalsGrade   *float64 `json:"finalsGrade"`
	SemesterGrade *float64 `json:"semesterGrade"`
	Remarks       string   `json:"remarks"`
}

// SemesterGradeResult holds a full class section's blended semester grades.
type SemesterGradeResult struct {
	TeachingLoadDetailID string             `json:"teachingLoadDetailId"`
	Configured           bool               `json:"configured"`
	BaseGrade            *float64           `json:"baseGrade,omitempty"`
	Percentage           *float64           `json:"percentage,omitempty"`
	Rows                 []SemesterGradeRow `json:"rows"`
}
