package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders a workbook into a tabular PDF, one page per sheet.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with the workbook title on the first page
// and each sheet laid out as a bordered table.
func (e *PDFExporter) Render(wb Workbook) ([]byte, error) {
	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("pdf requires at least one sheet")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)

	for i, sheet := range wb.Sheets {
		if len(sheet.Headers) == 0 {
			return nil, fmt.Errorf("sheet %q requires at least one header", sheet.Name)
		}
		pdf.AddPage()

		if i == 0 && wb.Title != "" {
			pdf.SetFont("Arial", "B", 14)
			pdf.CellFormat(0, 10, strings.ToUpper(wb.Title), "", 1, "C", false, 0, "")
			pdf.Ln(2)
		}
		if sheet.Name != "" {
			pdf.SetFont("Arial", "B", 12)
			pdf.CellFormat(0, 8, sheet.Name, "", 1, "L", false, 0, "")
			pdf.Ln(2)
		}

		pdf.SetFont("Arial", "B", 9)
		colWidth := 277.0 / float64(len(sheet.Headers))
		for _, header := range sheet.Headers {
			pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 8)
		for _, row := range sheet.Rows {
			for j := range sheet.Headers {
				value := ""
				if j < len(row) {
					value = row[j]
				}
				pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
