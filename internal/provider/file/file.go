// Package file replays a previously exported provider result from a local CSV file.
//
// An empty first header cell marks an unnamed row index, which is how dataframe exports
// write their index column.
package file

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"histbars/internal/model"
	"histbars/internal/provider"
)

// Provider reads bars from a CSV file.
type Provider struct {
	path string
}

// New creates a Provider for path.
func New(path string) (*Provider, error) {
	if path == "" {
		return nil, errors.New("file provider: INPUT_FILE not set")
	}
	return &Provider{path: path}, nil
}

// GetName returns provider name
func (p *Provider) GetName() string { return "file" }

// Close is a no-op; the file is opened per fetch.
func (p *Provider) Close() error { return nil }

// Fetch reads the whole file and keeps the last req.MaxBars rows.
func (p *Provider) Fetch(ctx context.Context, req provider.Request) (*model.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p.path, err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.path, err)
	}
	slog.Debug("file provider read", "path", p.path, "rows", t.Len(), "instrument", req.Instrument)
	return provider.TrimToLast(t, req.MaxBars), nil
}

// Read parses CSV content into a Table.
func Read(r io.Reader) (*model.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &model.Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	indexed := len(header) > 0 && header[0] == ""
	t := &model.Table{Columns: header}
	if indexed {
		t.Columns = header[1:]
		t.Index = []string{}
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}
		if indexed {
			if len(rec) == 0 {
				continue
			}
			t.Index = append(t.Index, rec[0])
			rec = rec[1:]
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}
