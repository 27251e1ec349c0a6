package model

// Table is the loosely structured result of a provider fetch.
// Column names are not guaranteed across providers; cells are kept as the provider rendered them.
type Table struct {
	// IndexName names the row identity axis. Empty means unnamed.
	IndexName string
	// Index holds one value per row when the provider keyed rows by something meaningful
	// (typically the bar time). Nil when rows are only positional.
	Index   []string
	Columns []string
	Rows    [][]string
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table is nil or has no rows.
func (t *Table) Empty() bool { return t.Len() == 0 }

// ColumnIndex returns the position of name in Columns, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// ResetIndex returns a copy where the index axis becomes the first regular column,
// named IndexName or "index" when unnamed. Tables without an index are copied as is.
func (t *Table) ResetIndex() *Table {
	if t.Index == nil {
		return t.Clone()
	}
	name := t.IndexName
	if name == "" {
		name = "index"
	}
	out := &Table{
		Columns: append([]string{name}, t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, r := range t.Rows {
		row := make([]string, 0, len(r)+1)
		if i < len(t.Index) {
			row = append(row, t.Index[i])
		} else {
			row = append(row, "")
		}
		out.Rows[i] = append(row, r...)
	}
	return out
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	out := &Table{
		IndexName: t.IndexName,
		Columns:   append([]string(nil), t.Columns...),
		Rows:      make([][]string, len(t.Rows)),
	}
	if t.Index != nil {
		out.Index = append([]string(nil), t.Index...)
	}
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}
