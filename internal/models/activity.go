package models

import "time"

// Activity is a scored assessment item (quiz, seatwork, exam, or an
// attendance date) within a class section, category, and term.
type Activity struct {
	ID                   string       `db:"id" json:"id"`
	TeachingLoadDetailID string       `db:"teaching_load_detail_id" json:"teachingLoadDetailId"`
	CategoryID           string       `db:"category_id" json:"categoryId"`
	CategoryCode         CategoryCode `db:"category_code" json:"categoryCode,omitempty"`
	TermID               string       `db:"term_id" json:"termId"`
	TermCode             TermCode     `db:"term_code" json:"termCode,omitempty"`
	Description          string       `db:"description" json:"description"`
	NumberOfItems        float64      `db:"number_of_items" json:"numberOfItems"`
	HeldAt               time.Time    `db:"held_at" json:"heldAt"`
	CreatedAt            time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time    `db:"updated_at" json:"updatedAt"`
}

// ActivityFilter narrows activity listings for one class section.
type ActivityFilter struct {
	TeachingLoadDetailID string `form:"teachingLoadDetailId"`
	CategoryID           string `form:"categoryId"`
	TermID               string `form:"termId"`
}

// ScoreRecord is one student's result on one activity. Score stays within
// [0, activity.NumberOfItems] and the (activity, enrollment) pair is unique.
type ScoreRecord struct {
	ID           string    `db:"id" json:"id"`
	ActivityID   string    `db:"activity_id" json:"activityId"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollmentId"`
	Score        float64   `db:"score" json:"score"`
	RecordedBy   string    `db:"recorded_by" json:"recordedBy,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// PendingScore is a single unsaved entry inside a batch score submission.
type PendingScore struct {
	EnrollmentID string  `json:"enrollmentId" validate:"required"`
	Score        float64 `json:"score" validate:"min=0"`
}
