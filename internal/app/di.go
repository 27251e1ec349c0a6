package app

import (
	"fmt"
	"log/slog"
	"os"

	"histbars/internal/ledger"
	"histbars/internal/metrics"
	"histbars/internal/platform/sqlite"
	"histbars/internal/provider"
	"histbars/internal/provider/file"
	"histbars/internal/provider/polygon"
	"histbars/internal/provider/yahoo"
	"histbars/internal/saver"
	"histbars/internal/slogx"
)

// ProvideConfig loads config from file and environment (for Wire).
func ProvideConfig() (*Config, error) {
	return LoadConfig()
}

// ProvideLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and makes it the default (for Wire).
func ProvideLogger(cfg *Config) *slog.Logger {
	l := slogx.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(l)
	return l
}

// ProvidePartitionSaver creates PartitionSaver from config (for Wire).
// Returns error if SaveFormat is not supported.
func ProvidePartitionSaver(cfg *Config) (saver.PartitionSaver, error) {
	ps := saver.NewPartitionSaver(cfg.SaveFormat)
	if ps == nil {
		return nil, fmt.Errorf("unsupported SAVE_FORMAT %q (use: csv, parquet, json)", cfg.SaveFormat)
	}
	return ps, nil
}

// ProvideDataProvider creates the DataProvider selected by DATA_PROVIDER (for Wire).
// The cleanup closes it.
func ProvideDataProvider(cfg *Config) (provider.DataProvider, func(), error) {
	dp, err := CreateProvider(cfg)
	if err != nil {
		return nil, nil, err
	}
	return dp, func() { _ = dp.Close() }, nil
}

// CreateProvider creates DataProvider from config.
func CreateProvider(cfg *Config) (provider.DataProvider, error) {
	switch cfg.DataProvider {
	case "yahoo":
		var opts []yahoo.Option
		if cfg.YahooChartURL != "" {
			opts = append(opts, yahoo.WithChartEndpoint(cfg.YahooChartURL))
		}
		return yahoo.New(opts...), nil
	case "polygon":
		var opts []polygon.Option
		if cfg.PolygonBaseURL != "" {
			opts = append(opts, polygon.WithBaseURL(cfg.PolygonBaseURL))
		}
		c, err := polygon.New(cfg.PolygonAPIKey, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "file":
		p, err := file.New(cfg.InputFile)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported data provider: %s. Options: yahoo, polygon, file", cfg.DataProvider)
	}
}

// ProvideLedger opens the run ledger when LEDGER_PATH is set; otherwise it returns nil (for Wire).
func ProvideLedger(cfg *Config) (*ledger.Repository, func(), error) {
	if cfg.LedgerPath == "" {
		return nil, func() {}, nil
	}
	db, err := sqlite.Open(cfg.LedgerPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger %s: %w", cfg.LedgerPath, err)
	}
	return ledger.NewRepository(db.DB), func() { _ = db.Close() }, nil
}

// ProvideMetrics returns a metrics set when METRICS_FILE is set; otherwise nil (for Wire).
func ProvideMetrics(cfg *Config) *metrics.Metrics {
	if cfg.MetricsFile == "" {
		return nil
	}
	return metrics.NewMetrics()
}
