package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"histbars/internal/ledger"
	"histbars/internal/metrics"
	"histbars/internal/pipeline"
	"histbars/internal/provider"
	"histbars/internal/report"
	"histbars/internal/saver"
)

// App holds the dependencies of one run.
type App struct {
	Config   *Config
	Logger   *slog.Logger
	Provider provider.DataProvider
	Saver    saver.PartitionSaver
	Ledger   *ledger.Repository // nil when LEDGER_PATH is unset
	Metrics  *metrics.Metrics   // nil when METRICS_FILE is unset

	// Clock defaults to time.Now.
	Clock func() time.Time
}

func (a *App) now() time.Time {
	if a.Clock != nil {
		return a.Clock()
	}
	return time.Now()
}

// Run executes one ingestion and records its outcome. The returned error is the pipeline error;
// failures while recording the outcome are logged only.
func (a *App) Run(ctx context.Context) (report.Run, error) {
	pc := a.Config.Pipeline()
	runID := uuid.NewString()
	logger := a.Logger.With("run_id", runID, "symbol", pc.Symbol, "timeframe", pc.Timeframe)
	logger.Info("starting run",
		"provider", a.Provider.GetName(),
		"source", pc.Source,
		"interval", pc.Interval,
		"years", pc.LookbackYears,
		"n_bars", pc.MaxBars,
		"root", pc.OutputRoot,
		"format", a.Saver.Extension(),
	)

	started := a.now()
	res, err := pipeline.NewRunner(pc, a.Provider, a.Saver,
		pipeline.WithClock(a.now),
		pipeline.WithLogger(logger),
	).Run(ctx)
	rep := report.New(runID, pc, res, err, started, a.now())

	a.record(ctx, logger, pc, rep)

	if err != nil {
		logger.Error("run failed", "kind", pipeline.KindOf(err).String(), "error", err)
		return rep, err
	}
	logger.Info("run complete",
		"rows", res.Rows,
		"fetched", res.Fetched,
		"partitions", len(res.Partitions),
		"cutoff", res.Cutoff.Format(time.DateOnly),
		"duration", rep.Duration(),
	)
	return rep, nil
}

func (a *App) record(ctx context.Context, logger *slog.Logger, pc pipeline.Config, rep report.Run) {
	if a.Config.RunReport {
		if err := report.Write(report.Path(pc.Layout()), rep); err != nil {
			logger.Warn("write run report failed", "error", err)
		}
	}
	if a.Ledger != nil {
		if err := a.Ledger.Save(ctx, rep); err != nil {
			logger.Warn("record run in ledger failed", "error", err)
		}
	}
	if a.Metrics != nil {
		a.Metrics.Observe(rep)
		if err := a.Metrics.WriteTextfile(a.Config.MetricsFile); err != nil {
			logger.Warn("write metrics failed", "error", err)
		}
	}
}
