package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"histbars/internal/pipeline"
	"histbars/internal/slogx"
)

// Exit codes per failure kind.
const (
	exitOK          = 0
	exitOther       = 1
	exitFetch       = 2
	exitSchema      = 3
	exitEmptyResult = 4
	exitPersistence = 5
)

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	os.Exit(run())
}

func run() int {
	a, cleanup, err := InitializeApp()
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return exitOther
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := a.Run(ctx); err != nil {
		return exitCode(err)
	}
	return exitOK
}

func exitCode(err error) int {
	switch pipeline.KindOf(err) {
	case pipeline.KindFetch:
		return exitFetch
	case pipeline.KindSchemaResolution:
		return exitSchema
	case pipeline.KindEmptyResult:
		return exitEmptyResult
	case pipeline.KindPersistence:
		return exitPersistence
	default:
		return exitOther
	}
}
