//go:build wireinject
// +build wireinject

package main

import (
	"histbars/internal/app"

	"github.com/google/wire"
)

// InitializeApp builds App (Config, logger, DataProvider, saver and optional sinks) via Wire.
// Caller must call cleanup when done.
func InitializeApp() (*app.App, func(), error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideLogger,
		app.ProvidePartitionSaver,
		app.ProvideDataProvider,
		app.ProvideLedger,
		app.ProvideMetrics,
		wire.Struct(new(app.App), "Config", "Logger", "Provider", "Saver", "Ledger", "Metrics"),
	)
	return nil, nil, nil
}
