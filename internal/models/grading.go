package models

import "time"

// CompositionEntry is the weight assigned to one category within a class
// section's grading composition.
type CompositionEntry struct {
	ID            string       `db:"id" json:"id"`
	CompositionID string       `db:"composition_id" json:"-"`
	CategoryID    string       `db:"category_id" json:"categoryId"`
	CategoryCode  CategoryCode `db:"category_code" json:"categoryCode"`
	Percentage    float64      `db:"percentage" json:"percentage"`
}

// GradingComposition is the per-section weighting scheme. Entries cover all
// four categories and their percentages total exactly 100.
type GradingComposition struct {
	ID                   string             `db:"id" json:"id"`
	TeachingLoadDetailID string             `db:"teaching_load_detail_id" json:"teachingLoadDetailId"`
	Entries              []CompositionEntry `db:"-" json:"entries"`
	CreatedAt            time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time          `db:"updated_at" json:"updatedAt"`
}

// BaseGrade is the per-section semester blend: semester grade = base +
// average of term grades scaled by percentage. Base and percentage always
// total 100.
type BaseGrade struct {
	ID                   string    `db:"id" json:"id"`
	TeachingLoadDetailID string    `db:"teaching_load_detail_id" json:"teachingLoadDetailId"`
	BaseGrade            float64   `db:"base_grade" json:"baseGrade"`
	Percentage           float64   `db:"percentage" json:"percentage"`
	CreatedAt            time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time `db:"updated_at" json:"updatedAt"`
}
