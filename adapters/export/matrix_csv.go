package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"bcall/domain/rollcall"
)

// WriteMatrixCSV writes a matrix in the wide layout the loader reads back:
// one legislator per row, vote codes si/no/abstencion, absences blank.
func WriteMatrixCSV(m *rollcall.Matrix, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := make([]string, 0, m.NumVotes()+1)
	header = append(header, "legislator")
	for _, v := range m.Votes() {
		header = append(header, v.String())
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, id := range m.Legislators() {
		row, _ := m.Row(id)
		record := make([]string, 0, len(row)+1)
		record = append(record, id.String())
		for _, cell := range row {
			record = append(record, voteCode(cell))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func voteCode(cell float64) string {
	switch {
	case rollcall.IsMissing(cell):
		return ""
	case cell == rollcall.Yea:
		return "si"
	case cell == rollcall.Nay:
		return "no"
	default:
		return "abstencion"
	}
}
