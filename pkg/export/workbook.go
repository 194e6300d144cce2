package export

// Sheet is one tabular section of a workbook. Rows are positional and must
// match the header width; short rows are padded with empty cells.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Workbook is an ordered collection of sheets making up one export.
type Workbook struct {
	Title  string
	Sheets []Sheet
}

// AddSheet appends a sheet and returns the workbook for chaining.
func (w *Workbook) AddSheet(s Sheet) *Workbook {
	w.Sheets = append(w.Sheets, s)
	return w
}
