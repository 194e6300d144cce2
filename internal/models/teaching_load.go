package models

import "time"

// TeachingLoad groups the class sections assigned to a teacher for an
// academic year and semester.
type TeachingLoad struct {
	ID           string    `db:"id" json:"id"`
	TeacherID    string    `db:"teacher_id" json:"teacherId"`
	TeacherName  string    `db:"teacher_name" json:"teacherName,omitempty"`
	AcademicYear string    `db:"academic_year" json:"academicYear"`
	Semester     int       `db:"semester" json:"semester"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// TeachingLoadDetail is a single class section: one subject taught to one
// section under a teaching load. Grading data keys off its ID.
type TeachingLoadDetail struct {
	ID             string    `db:"id" json:"id"`
	TeachingLoadID string    `db:"teaching_load_id" json:"teachingLoadId"`
	SubjectID      string    `db:"subject_id" json:"subjectId"`
	SubjectCode    string    `db:"subject_code" json:"subjectCode,omitempty"`
	SubjectName    string    `db:"subject_name" json:"subjectName,omitempty"`
	Section        string    `db:"section" json:"section"`
	Schedule       *string   `db:"schedule" json:"schedule,omitempty"`
	Room           *string   `db:"room" json:"room,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// TeachingLoadFilter narrows teaching load listings.
type TeachingLoadFilter struct {
	TeacherID    string `form:"teacherId"`
	AcademicYear string `form:"academicYear"`
	Semester     int    `form:"semester"`
	Page         int    `form:"page"`
	PageSize     int    `form:"pageSize"`
}
