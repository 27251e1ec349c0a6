package pipeline

import "time"

// Canonical column names.
const (
	ColDate        = "date"
	ColSource      = "source"
	ColExchange    = "exchange"
	ColSymbol      = "symbol"
	ColTimeframe   = "timeframe"
	ColIngestionTS = "ingestion_ts"
)

// DateLayout renders the date column in written partitions. Fractional seconds appear only when present.
const DateLayout = "2006-01-02 15:04:05.999999999"

// Frame is a table whose date column has been resolved and parsed.
// Dates[i] is the parsed value of Rows[i][date column]; the cell itself holds the normalized rendering.
type Frame struct {
	Columns []string
	Rows    [][]string
	Dates   []time.Time
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Rows) }

// ColumnIndex returns the position of name in Columns, or -1.
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// value returns the cell for column idx of row i, or "" when the column is absent.
func (f *Frame) value(i, idx int) string {
	if idx < 0 || idx >= len(f.Rows[i]) {
		return ""
	}
	return f.Rows[i][idx]
}

// subset returns a frame holding the given rows in the given order. Row slices are shared.
func (f *Frame) subset(order []int) *Frame {
	out := &Frame{
		Columns: f.Columns,
		Rows:    make([][]string, len(order)),
		Dates:   make([]time.Time, len(order)),
	}
	for j, i := range order {
		out.Rows[j] = f.Rows[i]
		out.Dates[j] = f.Dates[i]
	}
	return out
}
