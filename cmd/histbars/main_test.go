package main

import (
	"errors"
	"fmt"
	"testing"

	"histbars/internal/pipeline"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&pipeline.Error{Kind: pipeline.KindFetch}, exitFetch},
		{fmt.Errorf("run: %w", &pipeline.Error{Kind: pipeline.KindSchemaResolution}), exitSchema},
		{&pipeline.Error{Kind: pipeline.KindEmptyResult}, exitEmptyResult},
		{&pipeline.Error{Kind: pipeline.KindPersistence}, exitPersistence},
		{errors.New("boom"), exitOther},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
