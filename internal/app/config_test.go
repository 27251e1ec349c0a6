package app

import (
	"os"
	"path/filepath"
	"testing"

	"histbars/internal/model"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "SYMBOL", "EXCHANGE", "TIMEFRAME", "INTERVAL", "YEARS_HISTORY", "N_BARS",
		"OUTPUT_ROOT", "DATA_PROVIDER", "SOURCE", "SAVE_FORMAT", "LOG_LEVEL", "LOG_FORMAT",
		"INPUT_FILE", "POLYGON_API_KEY", "YAHOO_CHART_URL", "POLYGON_BASE_URL",
		"LEDGER_PATH", "METRICS_FILE", "RUN_REPORT",
	} {
		t.Setenv(k, "")
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Symbol != "ADAUSD" || cfg.Exchange != "BINANCE" || cfg.Timeframe != "1d" {
		t.Errorf("unexpected identity: %+v", cfg)
	}
	if cfg.YearsHistory != 4 || cfg.NBars != 1600 || cfg.SaveFormat != "csv" || !cfg.RunReport {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	pc := cfg.Pipeline()
	if pc.Source != "yahoo" || pc.Interval != model.IntervalDaily || pc.LookbackYears != 4 || pc.MaxBars != 1600 {
		t.Errorf("Pipeline() = %+v", pc)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SYMBOL", "btcusd")
	t.Setenv("YEARS_HISTORY", "2")
	t.Setenv("SOURCE", "tradingview")
	t.Setenv("INTERVAL", "daily")
	t.Setenv("SAVE_FORMAT", "PARQUET")
	t.Setenv("RUN_REPORT", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	pc := cfg.Pipeline()
	if pc.Symbol != "BTCUSD" || pc.LookbackYears != 2 || pc.Source != "tradingview" || pc.Interval != model.IntervalDaily {
		t.Errorf("Pipeline() = %+v", pc)
	}
	if cfg.SaveFormat != "parquet" || cfg.RunReport {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("HISTBARS_TEST_KEY", "secret")
	path := writeTempFile(t, "histbars.yaml", `
symbol: ethusd
data_provider: polygon
polygon_api_key: ${HISTBARS_TEST_KEY}
years_history: 1
n_bars: 500
output_root: /tmp/bars
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("N_BARS", "700")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Symbol != "ETHUSD" || cfg.PolygonAPIKey != "secret" || cfg.YearsHistory != 1 || cfg.OutputRoot != "/tmp/bars" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.NBars != 700 {
		t.Errorf("env should override file: NBars = %d", cfg.NBars)
	}
	if cfg.Exchange != "BINANCE" {
		t.Errorf("default should survive: Exchange = %q", cfg.Exchange)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown provider", map[string]string{"DATA_PROVIDER": "tradingview"}},
		{"unknown format", map[string]string{"SAVE_FORMAT": "xlsx"}},
		{"bad interval", map[string]string{"INTERVAL": "3d"}},
		{"bad int", map[string]string{"N_BARS": "many"}},
		{"zero bars", map[string]string{"N_BARS": "0"}},
		{"polygon without key", map[string]string{"DATA_PROVIDER": "polygon"}},
		{"file without path", map[string]string{"DATA_PROVIDER": "file"}},
		{"path in symbol", map[string]string{"SYMBOL": "../etc"}},
		{"bad report flag", map[string]string{"RUN_REPORT": "maybe"}},
		{"missing config file", map[string]string{"CONFIG_FILE": "/nonexistent/histbars.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
