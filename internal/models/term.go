package models

// TermCode identifies one of the two grading periods within a semester.
type TermCode string

const (
	TermMidterm TermCode = "MIDTERM"
	TermFinals  TermCode = "FINALS"
)

// Term is a fixed grading period reference row.
type Term struct {
	ID       string   `db:"id" json:"id"`
	Code     TermCode `db:"code" json:"code"`
	Name     string   `db:"name" json:"name"`
	Sequence int      `db:"sequence" json:"sequence"`
}
