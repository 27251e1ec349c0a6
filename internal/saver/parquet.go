package saver

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
)

// ParquetSaver writes every column as a required UTF-8 string.
// Columns are stored in schema (name) order; readers address them by name.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(columns []string, rows [][]string, path string) (err error) {
	group := make(parquet.Group, len(columns))
	for _, c := range columns {
		group[c] = parquet.String()
	}
	schema := parquet.NewSchema("bars", group)

	leaf := make(map[string]int, len(columns))
	for i, field := range schema.Fields() {
		leaf[field.Name()] = i
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := parquet.NewWriter(f, schema)
	buf := make([]parquet.Row, 0, len(rows))
	for _, r := range rows {
		row := make(parquet.Row, len(leaf))
		for i, c := range columns {
			var cell string
			if i < len(r) {
				cell = r[i]
			}
			col := leaf[c]
			row[col] = parquet.ByteArrayValue([]byte(cell)).Level(0, 0, col)
		}
		buf = append(buf, row)
	}
	if _, err := w.WriteRows(buf); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return w.Close()
}
