package excel

// RawTable is the uninterpreted contents of one sheet or CSV file: a header
// row plus string cells. Vocabulary mapping happens after this stage.
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// NumRows returns the data row count (header excluded).
func (t *RawTable) NumRows() int { return len(t.Rows) }
