package pipeline

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"histbars/internal/model"
)

func TestDateColumnPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    string
	}{
		{"datetime beats everything", []string{"index", "time", "timestamp", "datetime"}, "datetime"},
		{"index beats time", []string{"time", "open", "index"}, "index"},
		{"time beats timestamp", []string{"timestamp", "open", "time"}, "time"},
		{"timestamp exact", []string{"open", "timestamp", "trade_date"}, "timestamp"},
		{"substring date", []string{"open", "Trade_Date", "close"}, "Trade_Date"},
		{"substring first in column order", []string{"open", "uptime", "trade_date"}, "uptime"},
		{"already named date", []string{"date", "open"}, "date"},
		{"exact match is case sensitive", []string{"Time", "open"}, "Time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := DateColumn(tt.columns)
			if err != nil {
				t.Fatalf("DateColumn: %v", err)
			}
			if got := tt.columns[idx]; got != tt.want {
				t.Errorf("picked %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDateColumnNoMatch(t *testing.T) {
	cols := []string{"open", "high", "close"}
	_, err := DateColumn(cols)
	if !errors.Is(err, ErrSchemaResolution) {
		t.Fatalf("err = %v, want ErrSchemaResolution", err)
	}
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("err is %T, want *Error", err)
	}
	if !reflect.DeepEqual(pe.Columns, cols) {
		t.Errorf("Columns = %v, want %v", pe.Columns, cols)
	}
}

func TestResolveTimeBeatsTimestamp(t *testing.T) {
	tbl := &model.Table{
		Columns: []string{"timestamp", "time", "close"},
		Rows: [][]string{
			{"2020-01-01", "2024-03-05 10:00:00", "1"},
		},
	}
	f, err := Resolve(tbl)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	wantCols := []string{"timestamp", "date", "close"}
	if !reflect.DeepEqual(f.Columns, wantCols) {
		t.Errorf("Columns = %v, want %v", f.Columns, wantCols)
	}
	want := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	if !f.Dates[0].Equal(want) {
		t.Errorf("date = %v, want %v", f.Dates[0], want)
	}
	if f.Rows[0][1] != "2024-03-05 10:00:00" {
		t.Errorf("date cell = %q", f.Rows[0][1])
	}
}

func TestResolveIndex(t *testing.T) {
	tests := []struct {
		name      string
		indexName string
	}{
		{"named datetime index", "datetime"},
		{"unnamed index", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := &model.Table{
				IndexName: tt.indexName,
				Index:     []string{"2024-01-02T00:00:00Z"},
				Columns:   []string{"open", "close"},
				Rows:      [][]string{{"1", "2"}},
			}
			f, err := Resolve(tbl)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			want := []string{"date", "open", "close"}
			if !reflect.DeepEqual(f.Columns, want) {
				t.Errorf("Columns = %v, want %v", f.Columns, want)
			}
			if !reflect.DeepEqual(f.Rows[0], []string{"2024-01-02 00:00:00", "1", "2"}) {
				t.Errorf("row = %v", f.Rows[0])
			}
		})
	}
}

func TestResolveDropsShadowedDateColumn(t *testing.T) {
	tbl := &model.Table{
		Columns: []string{"date", "datetime", "close"},
		Rows:    [][]string{{"junk", "2024-01-02", "5"}},
	}
	f, err := Resolve(tbl)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{"date", "close"}
	if !reflect.DeepEqual(f.Columns, want) {
		t.Fatalf("Columns = %v, want %v", f.Columns, want)
	}
	if f.Rows[0][0] != "2024-01-02 00:00:00" || f.Rows[0][1] != "5" {
		t.Errorf("row = %v", f.Rows[0])
	}
}

func TestResolveUnparseable(t *testing.T) {
	tbl := &model.Table{
		Columns: []string{"time", "close"},
		Rows:    [][]string{{"2024-01-01", "1"}, {"not a date", "2"}},
	}
	_, err := Resolve(tbl)
	if KindOf(err) != KindSchemaResolution {
		t.Fatalf("kind = %v, want schema_resolution (err %v)", KindOf(err), err)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2024-06-01",
		"2024-06-01 00:00:00",
		"2024-06-01T00:00:00Z",
		"2024-06-01T02:00:00+02:00",
		"1717200000",
		"1717200000000",
		" 2024-06-01 ",
	} {
		got, err := ParseTimestamp(in)
		if err != nil {
			t.Errorf("ParseTimestamp(%q): %v", in, err)
			continue
		}
		if !got.Equal(want) || got.Location() != time.UTC {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseTimestamp(""); err == nil {
		t.Error("empty string should fail")
	}
}

func TestResolveDateRendering(t *testing.T) {
	tbl := &model.Table{
		Columns: []string{"time", "close"},
		Rows: [][]string{
			{"2024-01-02T09:30:00Z", "1"},
			{"2024-01-02T09:30:00.25Z", "2"},
			{"2024-01-02T11:30:00+02:00", "3"},
		},
	}
	f, err := Resolve(tbl)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{"2024-01-02 09:30:00", "2024-01-02 09:30:00.25", "2024-01-02 09:30:00"}
	for i, w := range want {
		if f.Rows[i][0] != w {
			t.Errorf("row %d date = %q, want %q", i, f.Rows[i][0], w)
		}
	}
}
