package provider

import (
	"context"
	"time"

	"histbars/internal/model"
)

// Request describes one history fetch.
type Request struct {
	Instrument string
	Exchange   string
	Interval   model.Interval
	MaxBars    int
}

// Fetcher returns up to MaxBars of the most recent bars. A nil or empty table means no data.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*model.Table, error)
}

// DataProvider is the abstraction used by the application when accessing a data source.
// Implementations are responsible for their own resource cleanup.
type DataProvider interface {
	Fetcher
	GetName() string
	Close() error
}

// TrimToLast keeps the last n rows (and index values) of t. n <= 0 keeps everything.
func TrimToLast(t *model.Table, n int) *model.Table {
	if t == nil || n <= 0 || len(t.Rows) <= n {
		return t
	}
	drop := len(t.Rows) - n
	t.Rows = t.Rows[drop:]
	if len(t.Index) > drop {
		t.Index = t.Index[drop:]
	}
	return t
}

// maxLookback bounds request windows for very large bar counts.
const maxLookback = 50 * 365 * 24 * time.Hour

// WindowStart returns the start of a request window ending at to that spans twice n bars of interval,
// leaving room for weekends and holidays. n <= 0 and windows beyond fifty years are capped at fifty years.
func WindowStart(to time.Time, interval model.Interval, n int) time.Time {
	d := interval.Duration()
	if n <= 0 || d <= 0 || time.Duration(n) > maxLookback/(2*d) {
		return to.Add(-maxLookback)
	}
	return to.Add(-2 * time.Duration(n) * d)
}
