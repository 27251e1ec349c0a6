package saver

import "strings"

// PartitionSaver writes one partition (header + rows) to a file path.
// The pipeline depends only on this behaviour; main picks the implementation.
type PartitionSaver interface {
	Save(columns []string, rows [][]string, path string) error
	Extension() string
}

// NewPartitionSaver creates an implementation by format (csv, parquet, json).
// Returns nil if format not supported.
func NewPartitionSaver(format string) PartitionSaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv", "":
		return CSVSaver{}
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	default:
		return nil
	}
}

// Formats lists the accepted format names.
func Formats() []string { return []string{"csv", "parquet", "json"} }
