package saver

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
)

var (
	testColumns = []string{"source", "date", "close"}
	testRows    = [][]string{
		{"yahoo", "2024-01-01 00:00:00", "1.5"},
		{"yahoo", "2024-01-02 00:00:00", "1.75"},
	}
)

func TestNewPartitionSaver(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
	}{
		{"csv", "csv"},
		{"", "csv"},
		{" Parquet ", "parquet"},
		{"json", "json"},
	}
	for _, tt := range tests {
		s := NewPartitionSaver(tt.format)
		if s == nil {
			t.Fatalf("NewPartitionSaver(%q) = nil", tt.format)
		}
		if s.Extension() != tt.wantExt {
			t.Errorf("NewPartitionSaver(%q).Extension() = %q, want %q", tt.format, s.Extension(), tt.wantExt)
		}
	}
	if s := NewPartitionSaver("xml"); s != nil {
		t.Errorf("NewPartitionSaver(xml) = %T, want nil", s)
	}
}

func TestCSVSaver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := (CSVSaver{}).Save(testColumns, testRows, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := append([][]string{testColumns}, testRows...)
	if !reflect.DeepEqual(records, want) {
		t.Errorf("records = %v, want %v", records, want)
	}
}

func TestCSVSaverOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := (CSVSaver{}).Save(testColumns, testRows, path); err != nil {
		t.Fatal(err)
	}
	if err := (CSVSaver{}).Save(testColumns, testRows[:1], path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "source,date,close\nyahoo,2024-01-01 00:00:00,1.5\n"
	if string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}
}

func TestJSONSaverKeepsColumnOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := (JSONSaver{}).Save(testColumns, testRows, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var got []map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 || got[1]["close"] != "1.75" {
		t.Fatalf("got %v", got)
	}

	src := string(data)
	iSource := strings.Index(src, `"source"`)
	iDate := strings.Index(src, `"date"`)
	iClose := strings.Index(src, `"close"`)
	if !(iSource < iDate && iDate < iClose) {
		t.Errorf("keys out of column order: %s", src)
	}
}

func TestParquetSaver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")
	if err := (ParquetSaver{}).Save(testColumns, testRows, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if pf.NumRows() != int64(len(testRows)) {
		t.Errorf("NumRows = %d, want %d", pf.NumRows(), len(testRows))
	}
	names := map[string]bool{}
	for _, field := range pf.Schema().Fields() {
		names[field.Name()] = true
	}
	for _, c := range testColumns {
		if !names[c] {
			t.Errorf("column %q missing from schema", c)
		}
	}
}
