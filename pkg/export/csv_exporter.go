package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders a workbook into CSV bytes. Sheets become titled
// sections separated by a blank line.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the workbook.
func (e *CSVExporter) Render(wb Workbook) ([]byte, error) {
	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("csv requires at least one sheet")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	for i, sheet := range wb.Sheets {
		if len(sheet.Headers) == 0 {
			return nil, fmt.Errorf("sheet %q requires at least one header", sheet.Name)
		}
		if i > 0 {
			if err := writer.Write([]string{""}); err != nil {
				return nil, fmt.Errorf("write sheet separator: %w", err)
			}
		}
		if sheet.Name != "" {
			if err := writer.Write([]string{sheet.Name}); err != nil {
				return nil, fmt.Errorf("write sheet title: %w", err)
			}
		}
		if err := writer.Write(sheet.Headers); err != nil {
			return nil, fmt.Errorf("write csv headers: %w", err)
		}
		width := len(sheet.Headers)
		for _, row := range sheet.Rows {
			record := make([]string, width)
			for j := 0; j < width && j < len(row); j++ {
				record[j] = row[j]
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
