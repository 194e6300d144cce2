package models

import "time"

// Student represents a student record maintained by the registrar.
type Student struct {
	ID            string    `db:"id" json:"id"`
	StudentNumber string    `db:"student_number" json:"student_number"`
	FullName      string    `db:"full_name" json:"full_name"`
	CourseID      *string   `db:"course_id" json:"course_id,omitempty"`
	YearLevel     int       `db:"year_level" json:"year_level"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter captures list filters for the student roster.
type StudentFilter struct {
	CourseID  string
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
