package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"histbars/internal/model"
)

// columnMatcher returns the index of the column it claims, or -1.
type columnMatcher struct {
	name  string
	match func(columns []string) int
}

func exactColumn(name string) columnMatcher {
	return columnMatcher{
		name: "exact:" + name,
		match: func(columns []string) int {
			for i, c := range columns {
				if c == name {
					return i
				}
			}
			return -1
		},
	}
}

func columnContaining(substrings ...string) columnMatcher {
	return columnMatcher{
		name: "contains:" + strings.Join(substrings, "|"),
		match: func(columns []string) int {
			for i, c := range columns {
				lc := strings.ToLower(c)
				for _, s := range substrings {
					if strings.Contains(lc, s) {
						return i
					}
				}
			}
			return -1
		},
	}
}

// dateColumnMatchers is evaluated in order; the first matcher that claims a column wins.
// "index" is the column ResetIndex produces for an unnamed time-valued row axis.
var dateColumnMatchers = []columnMatcher{
	exactColumn("datetime"),
	exactColumn("index"),
	exactColumn("time"),
	exactColumn("timestamp"),
	columnContaining("date", "time"),
}

var errNoTemporalColumn = errors.New("no temporal column identified")

// DateColumn returns the index of the column that carries the event timestamp.
func DateColumn(columns []string) (int, error) {
	for _, m := range dateColumnMatchers {
		if i := m.match(columns); i >= 0 {
			return i, nil
		}
	}
	return -1, &Error{
		Kind:    KindSchemaResolution,
		Op:      "resolve date column",
		Columns: append([]string(nil), columns...),
		Err:     errNoTemporalColumn,
	}
}

// Resolve resets the table index, renames the temporal column to "date" and parses every date cell.
// A pre-existing column literally named "date" that lost to a higher-precedence match is dropped.
func Resolve(t *model.Table) (*Frame, error) {
	flat := t.ResetIndex()
	idx, err := DateColumn(flat.Columns)
	if err != nil {
		return nil, err
	}

	drop := -1
	if flat.Columns[idx] != ColDate {
		drop = flat.ColumnIndex(ColDate)
	}

	f := &Frame{
		Columns: make([]string, 0, len(flat.Columns)),
		Rows:    make([][]string, len(flat.Rows)),
		Dates:   make([]time.Time, len(flat.Rows)),
	}
	for i, c := range flat.Columns {
		switch i {
		case drop:
			continue
		case idx:
			f.Columns = append(f.Columns, ColDate)
		default:
			f.Columns = append(f.Columns, c)
		}
	}

	for r, row := range flat.Rows {
		var cell string
		if idx < len(row) {
			cell = row[idx]
		}
		ts, err := ParseTimestamp(cell)
		if err != nil {
			return nil, &Error{
				Kind:    KindSchemaResolution,
				Op:      fmt.Sprintf("parse %s column %q at row %d", ColDate, flat.Columns[idx], r),
				Columns: append([]string(nil), flat.Columns...),
				Err:     err,
			}
		}
		out := make([]string, 0, len(f.Columns))
		for i := range flat.Columns {
			switch i {
			case drop:
				continue
			case idx:
				out = append(out, ts.Format(DateLayout))
			default:
				if i < len(row) {
					out = append(out, row[i])
				} else {
					out = append(out, "")
				}
			}
		}
		f.Rows[r] = out
		f.Dates[r] = ts
	}
	return f, nil
}

// ParseTimestamp parses a provider time cell. Values without a zone are taken as UTC;
// bare integers are unix seconds or milliseconds. The result is always in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	ts, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return ts.UTC(), nil
}
