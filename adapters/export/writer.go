// Package export writes a B-Call result table to CSV or Excel files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"bcall/domain/bcall"
)

// header is the fixed column order of the exported score table.
var header = []string{"legislator", "party", "bloc", "d1", "d2"}

// CSVWriter exports a result as a CSV score table.
type CSVWriter struct{}

// NewCSVWriter creates a CSV exporter.
func NewCSVWriter() *CSVWriter { return &CSVWriter{} }

// Write writes the score table to path.
func (w *CSVWriter) Write(result *bcall.BCallResult, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range scoreRows(result) {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExcelWriter exports a result as an Excel workbook with a Scores sheet and
// a Metadata sheet.
type ExcelWriter struct{}

// NewExcelWriter creates an Excel exporter.
func NewExcelWriter() *ExcelWriter { return &ExcelWriter{} }

// Write writes the workbook to path.
func (w *ExcelWriter) Write(result *bcall.BCallResult, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const scores = "Scores"
	if err := f.SetSheetName("Sheet1", scores); err != nil {
		return err
	}
	if err := f.SetSheetRow(scores, "A1", &[]interface{}{header[0], header[1], header[2], header[3], header[4]}); err != nil {
		return err
	}
	for i, row := range scoreRows(result) {
		cells := make([]interface{}, len(row))
		for j, c := range row {
			cells[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(scores, cell, &cells); err != nil {
			return err
		}
	}

	const meta = "Metadata"
	if _, err := f.NewSheet(meta); err != nil {
		return err
	}
	m := result.Meta
	metaRows := [][]interface{}{
		{"run_id", m.RunID.String()},
		{"metric", string(m.Metric)},
		{"pivot", m.Pivot.String()},
		{"auto_pivot", m.AutoPivot},
		{"threshold", m.Threshold},
		{"normalize", m.Normalize},
		{"total_legislators", m.TotalLegislators},
		{"retained", m.RetainedCount},
		{"dropped", m.DroppedCount},
		{"votes", m.VoteCount},
		{"matrix_fingerprint", m.MatrixFingerprint.String()},
		{"created_at", m.CreatedAt.String()},
	}
	for i, row := range metaRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(meta, cell, &row); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

// scoreRows flattens the result into string rows, retained order preserved.
// An undefined d2 exports as an empty cell rather than "NaN" so downstream
// spreadsheet tooling treats it as blank.
func scoreRows(result *bcall.BCallResult) [][]string {
	rows := make([][]string, 0, len(result.Retained))
	for _, id := range result.Retained {
		s := result.Scores[id]
		d2 := ""
		if s.HasDispersion() {
			d2 = strconv.FormatFloat(s.D2, 'f', 6, 64)
		}
		rows = append(rows, []string{
			id.String(),
			result.Parties[id],
			string(result.Blocs[id]),
			strconv.FormatFloat(s.D1, 'f', 6, 64),
			d2,
		})
	}
	return rows
}
