package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	namespaceCategory = "raw"
	namespaceKind     = "historical"
)

// Saver serializes one partition to path, replacing whatever is there.
type Saver interface {
	Save(columns []string, rows [][]string, path string) error
	Extension() string
}

// PartitionKey identifies a calendar month.
type PartitionKey struct {
	Year  int
	Month time.Month
}

func (k PartitionKey) Less(o PartitionKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Month < o.Month
}

// Partition is the set of rows sharing a calendar month, in date order.
type Partition struct {
	Key  PartitionKey
	Rows [][]string
}

// PartitionInfo describes a written partition file.
type PartitionInfo struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Path  string `json:"path"`
	Rows  int    `json:"rows"`
}

// Layout derives partition locations. The directory scheme and file name pattern are read
// verbatim by downstream consumers.
type Layout struct {
	Root      string
	Provider  string
	Symbol    string
	Timeframe string
}

// BaseDir is <root>/raw/<provider>/historical.
func (l Layout) BaseDir() string {
	return filepath.Join(l.Root, namespaceCategory, l.Provider, namespaceKind)
}

// Dir is BaseDir/symbol=<SYMBOL>/timeframe=<TF>/year=<YYYY>/month=<MM>.
func (l Layout) Dir(k PartitionKey) string {
	return filepath.Join(
		l.BaseDir(),
		"symbol="+l.Symbol,
		"timeframe="+l.Timeframe,
		fmt.Sprintf("year=%d", k.Year),
		fmt.Sprintf("month=%02d", int(k.Month)),
	)
}

// FileName is <symbol lowercased>_<TF>_<YYYY>_<MM>.<ext>.
func (l Layout) FileName(k PartitionKey, ext string) string {
	return fmt.Sprintf("%s_%s_%d_%02d.%s", strings.ToLower(l.Symbol), l.Timeframe, k.Year, int(k.Month), ext)
}

// Path joins Dir and FileName.
func (l Layout) Path(k PartitionKey, ext string) string {
	return filepath.Join(l.Dir(k), l.FileName(k, ext))
}

// Partitions groups rows by the UTC year and month of their date. Groups come back in ascending
// order and keep the row order of f.
func Partitions(f *Frame) []Partition {
	index := make(map[PartitionKey]int)
	var parts []Partition
	for i, d := range f.Dates {
		d = d.UTC()
		k := PartitionKey{Year: d.Year(), Month: d.Month()}
		p, ok := index[k]
		if !ok {
			p = len(parts)
			index[k] = p
			parts = append(parts, Partition{Key: k})
		}
		parts[p].Rows = append(parts[p].Rows, f.Rows[i])
	}
	sort.SliceStable(parts, func(a, b int) bool { return parts[a].Key.Less(parts[b].Key) })
	return parts
}

// WritePartitions persists every partition of f and returns what was written with the total row count.
// On failure the partitions already written stay on disk.
func WritePartitions(f *Frame, layout Layout, s Saver) ([]PartitionInfo, int, error) {
	var (
		infos []PartitionInfo
		total int
	)
	for _, p := range Partitions(f) {
		dir := layout.Dir(p.Key)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return infos, total, newError(KindPersistence, "create partition dir", err)
		}
		path := filepath.Join(dir, layout.FileName(p.Key, s.Extension()))
		if err := replaceFile(path, func(tmp string) error {
			return s.Save(f.Columns, p.Rows, tmp)
		}); err != nil {
			return infos, total, newError(KindPersistence, "write partition "+path, err)
		}
		infos = append(infos, PartitionInfo{Year: p.Key.Year, Month: int(p.Key.Month), Path: path, Rows: len(p.Rows)})
		total += len(p.Rows)
	}
	return infos, total, nil
}

// replaceFile writes through a temporary sibling and renames it over path,
// so readers never see a half-written partition.
func replaceFile(path string, write func(tmp string) error) error {
	tmp := path + ".tmp"
	if err := write(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
