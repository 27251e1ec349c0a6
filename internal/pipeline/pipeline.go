// Package pipeline turns a loosely structured provider table into a validated, deduplicated
// dataset partitioned by calendar month.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"histbars/internal/model"
	"histbars/internal/provider"
)

// Config fixes what one run ingests and where it lands. It is passed by value and never mutated.
type Config struct {
	Symbol        string
	Exchange      string
	Timeframe     string
	Interval      model.Interval
	LookbackYears int
	MaxBars       int
	OutputRoot    string
	// Source names the provider in the source column and in the output path.
	Source string
}

// Layout returns the partition layout for c.
func (c Config) Layout() Layout {
	return Layout{Root: c.OutputRoot, Provider: c.Source, Symbol: c.Symbol, Timeframe: c.Timeframe}
}

// Result is the success variant of a run.
type Result struct {
	Fetched    int
	Rows       int
	Cutoff     time.Time
	IngestedAt time.Time
	Partitions []PartitionInfo
}

var errNoData = errors.New("provider returned no data")

// Runner executes the fetch, resolve, filter, enrich, dedup and write stages in order.
type Runner struct {
	cfg     Config
	fetcher provider.Fetcher
	saver   Saver
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock replaces time.Now as the run clock.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithLogger sets the logger used for stage progress.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a Runner for cfg.
func NewRunner(cfg Config, f provider.Fetcher, s Saver, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		fetcher: f,
		saver:   s,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run performs one ingestion. Errors are always *Error.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	now := r.now().UTC()
	res := Result{
		Cutoff:     Cutoff(now, r.cfg.LookbackYears),
		IngestedAt: now,
	}

	raw, err := r.fetcher.Fetch(ctx, provider.Request{
		Instrument: r.cfg.Symbol,
		Exchange:   r.cfg.Exchange,
		Interval:   r.cfg.Interval,
		MaxBars:    r.cfg.MaxBars,
	})
	if err != nil {
		return res, newError(KindFetch, "fetch", err)
	}
	if raw.Empty() {
		return res, newError(KindFetch, "fetch", errNoData)
	}
	res.Fetched = raw.Len()
	r.logger.Info("fetched bars", "rows", res.Fetched, "columns", raw.Columns, "index", raw.IndexName)

	frame, err := Resolve(raw)
	if err != nil {
		return res, err
	}

	frame, err = FilterSince(frame, res.Cutoff)
	if err != nil {
		return res, err
	}
	r.logger.Debug("filtered by lookback", "cutoff", res.Cutoff.Format(time.DateOnly), "rows", frame.Len())

	frame = Enrich(frame, Provenance{
		Source:     r.cfg.Source,
		Exchange:   r.cfg.Exchange,
		Symbol:     r.cfg.Symbol,
		Timeframe:  r.cfg.Timeframe,
		IngestedAt: now,
	})

	before := frame.Len()
	frame = SortAndDedup(frame)
	if dropped := before - frame.Len(); dropped > 0 {
		r.logger.Info("dropped duplicate bars", "dropped", dropped)
	}

	infos, total, err := WritePartitions(frame, r.cfg.Layout(), r.saver)
	res.Partitions = infos
	res.Rows = total
	if err != nil {
		return res, err
	}
	return res, nil
}
