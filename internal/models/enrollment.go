package models

import "time"

// Enrollment links a student to a class section (teaching load detail).
type Enrollment struct {
	ID                   string    `db:"id" json:"id"`
	StudentID            string    `db:"student_id" json:"studentId"`
	TeachingLoadDetailID string    `db:"teaching_load_detail_id" json:"teachingLoadDetailId"`
	Active               bool      `db:"active" json:"active"`
	CreatedAt            time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time `db:"updated_at" json:"updatedAt"`
}

// EnrollmentDetail carries the joined student identity used by score entry
// grids and grade reports.
type EnrollmentDetail struct {
	ID            string `db:"id" json:"id"`
	StudentID     string `db:"student_id" json:"studentId"`
	StudentNumber string `db:"student_number" json:"studentNumber"`
	StudentName   string `db:"student_name" json:"studentName"`
}

// EnrollmentFilter narrows enrollment listings.
type EnrollmentFilter struct {
	TeachingLoadDetailID string `form:"teachingLoadDetailId"`
	StudentID            string `form:"studentId"`
	ActiveOnly           bool   `form:"activeOnly"`
	Page                 int    `form:"page"`
	PageSize             int    `form:"pageSize"`
}
