package models

// CategoryCode identifies one of the four fixed assessment categories.
type CategoryCode string

const (
	CategoryQuiz       CategoryCode = "QUIZ"
	CategoryActivity   CategoryCode = "ACTIVITY"
	CategoryExam       CategoryCode = "EXAM"
	CategoryAttendance CategoryCode = "ATTENDANCE"
)

// AllCategoryCodes lists the categories in display order. Every grading
// composition must cover exactly this set.
var AllCategoryCodes = []CategoryCode{
	CategoryQuiz,
	CategoryActivity,
	CategoryExam,
	CategoryAttendance,
}

// Category is a fixed assessment category reference row.
type Category struct {
	ID       string       `db:"id" json:"id"`
	Code     CategoryCode `db:"code" json:"code"`
	Name     string       `db:"name" json:"name"`
	Sequence int          `db:"sequence" json:"sequence"`
}
