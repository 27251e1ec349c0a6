// Package metrics exposes the outcome of a run as Prometheus gauges written to a textfile,
// for collection by node_exporter's textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"histbars/internal/pipeline"
	"histbars/internal/report"
)

// Metrics holds the gauges describing the last run of one series.
type Metrics struct {
	registry *prometheus.Registry

	RowsWritten     *prometheus.GaugeVec
	RowsFetched     *prometheus.GaugeVec
	Partitions      *prometheus.GaugeVec
	Duration        *prometheus.GaugeVec
	LastSuccess     *prometheus.GaugeVec
	LastRunFailed   *prometheus.GaugeVec // labels: series + kind
	LastRunFinished *prometheus.GaugeVec
}

var seriesLabels = []string{"provider", "symbol", "timeframe"}

// NewMetrics registers and returns all gauges on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RowsWritten: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "histbars_rows_written",
			Help: "Rows written across all partitions by the last run",
		}, seriesLabels),
		RowsFetched: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "histbars_rows_fetched",
			Help: "Rows returned by the provider in the last run",
		}, seriesLabels),
		Partitions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "histbars_partitions_written",
			Help: "Partition files written by the last run",
		}, seriesLabels),
		Duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "histbars_run_duration_seconds",
			Help: "Wall-clock duration of the last run",
		}, seriesLabels),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "histbars_last_success_timestamp_seconds",
			Help: "Unix time the last successful run finished",
		}, seriesLabels),
		LastRunFailed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "histbars_last_run_failed",
			Help: "1 when the last run failed with the given kind, 0 otherwise",
		}, append(append([]string(nil), seriesLabels...), "kind")),
		LastRunFinished: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "histbars_last_run_timestamp_seconds",
			Help: "Unix time the last run finished, successful or not",
		}, seriesLabels),
	}

	m.registry.MustRegister(
		m.RowsWritten,
		m.RowsFetched,
		m.Partitions,
		m.Duration,
		m.LastSuccess,
		m.LastRunFailed,
		m.LastRunFinished,
	)
	return m
}

var failureKinds = []pipeline.Kind{
	pipeline.KindUnknown,
	pipeline.KindFetch,
	pipeline.KindSchemaResolution,
	pipeline.KindEmptyResult,
	pipeline.KindPersistence,
}

// Observe records r.
func (m *Metrics) Observe(r report.Run) {
	series := prometheus.Labels{"provider": r.Provider, "symbol": r.Symbol, "timeframe": r.Timeframe}

	m.RowsWritten.With(series).Set(float64(r.Rows))
	m.RowsFetched.With(series).Set(float64(r.Fetched))
	m.Partitions.With(series).Set(float64(len(r.Partitions)))
	m.Duration.With(series).Set(r.Duration().Seconds())
	m.LastRunFinished.With(series).Set(float64(r.FinishedAt.Unix()))
	if r.Status == report.StatusSucceeded {
		m.LastSuccess.With(series).Set(float64(r.FinishedAt.Unix()))
	}

	for _, k := range failureKinds {
		v := 0.0
		if r.Status == report.StatusFailed && r.ErrorKind == k.String() {
			v = 1
		}
		m.LastRunFailed.With(prometheus.Labels{
			"provider": r.Provider, "symbol": r.Symbol, "timeframe": r.Timeframe, "kind": k.String(),
		}).Set(v)
	}
}

// Registry exposes the private registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile atomically writes all gauges to path in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
