package models

// Table is a generic tabular artifact: a header row plus string cells.
// It is the wire shape for CSV endpoints and the storage shape for
// tabular cache files.
type Table struct {
	Header []string
	Rows   [][]string
}

// ColumnIndex returns the position of the named header column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns row[col] guarding against ragged rows.
func (t *Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// IsEmpty reports whether the table carries no data rows.
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.Rows) == 0
}
