package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"histbars/internal/model"
	"histbars/internal/pipeline"
)

// Config holds application configuration from an optional YAML file and env.
type Config struct {
	Symbol         string `yaml:"symbol" validate:"required"`
	Exchange       string `yaml:"exchange" validate:"required"`
	Timeframe      string `yaml:"timeframe" validate:"required"`
	Interval       string `yaml:"interval" validate:"required"`
	YearsHistory   int    `yaml:"years_history" validate:"gte=0,lte=100"`
	NBars          int    `yaml:"n_bars" validate:"gte=1"`
	OutputRoot     string `yaml:"output_root" validate:"required"`
	DataProvider   string `yaml:"data_provider" validate:"oneof=yahoo polygon file"`
	Source         string `yaml:"source"`
	SaveFormat     string `yaml:"save_format" validate:"oneof=csv parquet json"`
	LogLevel       string `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat      string `yaml:"log_format" validate:"oneof=text json"`
	InputFile      string `yaml:"input_file" validate:"required_if=DataProvider file"`
	PolygonAPIKey  string `yaml:"polygon_api_key" validate:"required_if=DataProvider polygon"`
	YahooChartURL  string `yaml:"yahoo_chart_url" validate:"omitempty,url"`
	PolygonBaseURL string `yaml:"polygon_base_url" validate:"omitempty,url"`
	LedgerPath     string `yaml:"ledger_path"`
	MetricsFile    string `yaml:"metrics_file"`
	RunReport      bool   `yaml:"run_report"`
}

func defaultConfig() *Config {
	return &Config{
		Symbol:       "ADAUSD",
		Exchange:     "BINANCE",
		Timeframe:    "1d",
		Interval:     "1d",
		YearsHistory: 4,
		NBars:        1600,
		OutputRoot:   "./output",
		DataProvider: "yahoo",
		SaveFormat:   "csv",
		LogLevel:     "info",
		LogFormat:    "text",
		RunReport:    true,
	}
}

// LoadConfig builds the config: defaults, then the YAML file named by CONFIG_FILE (if set),
// then environment overrides. The result is validated.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// loadFile reads a YAML config file and expands ${VAR} environment variables.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Symbol = getEnv("SYMBOL", c.Symbol)
	c.Exchange = getEnv("EXCHANGE", c.Exchange)
	c.Timeframe = getEnv("TIMEFRAME", c.Timeframe)
	c.Interval = getEnv("INTERVAL", c.Interval)
	c.OutputRoot = getEnv("OUTPUT_ROOT", c.OutputRoot)
	c.DataProvider = getEnv("DATA_PROVIDER", c.DataProvider)
	c.Source = getEnv("SOURCE", c.Source)
	c.SaveFormat = getEnv("SAVE_FORMAT", c.SaveFormat)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.InputFile = getEnv("INPUT_FILE", c.InputFile)
	c.PolygonAPIKey = getEnv("POLYGON_API_KEY", c.PolygonAPIKey)
	c.YahooChartURL = getEnv("YAHOO_CHART_URL", c.YahooChartURL)
	c.PolygonBaseURL = getEnv("POLYGON_BASE_URL", c.PolygonBaseURL)
	c.LedgerPath = getEnv("LEDGER_PATH", c.LedgerPath)
	c.MetricsFile = getEnv("METRICS_FILE", c.MetricsFile)

	var err error
	if c.YearsHistory, err = getEnvInt("YEARS_HISTORY", c.YearsHistory); err != nil {
		return err
	}
	if c.NBars, err = getEnvInt("N_BARS", c.NBars); err != nil {
		return err
	}
	if v := os.Getenv("RUN_REPORT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RUN_REPORT: %w", err)
		}
		c.RunReport = b
	}
	return nil
}

func (c *Config) normalize() {
	c.Symbol = strings.ToUpper(strings.TrimSpace(c.Symbol))
	c.Exchange = strings.ToUpper(strings.TrimSpace(c.Exchange))
	c.DataProvider = strings.ToLower(strings.TrimSpace(c.DataProvider))
	c.SaveFormat = strings.ToLower(strings.TrimSpace(c.SaveFormat))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

var validate = validator.New()

// Validate checks struct tags plus fields that need parsing.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	var errs []error
	if _, err := model.ParseInterval(c.Interval); err != nil {
		errs = append(errs, fmt.Errorf("INTERVAL: %w", err))
	}
	// These become path segments of the dataset.
	for key, v := range map[string]string{"SYMBOL": c.Symbol, "TIMEFRAME": c.Timeframe, "SOURCE": c.Source} {
		if strings.ContainsAny(v, `/\`) || v == ".." {
			errs = append(errs, fmt.Errorf("%s %q must not contain path separators", key, v))
		}
	}
	return errors.Join(errs...)
}

// SourceName is the provider label used in the source column and output path.
func (c *Config) SourceName() string {
	if c.Source != "" {
		return c.Source
	}
	return c.DataProvider
}

// Pipeline returns the immutable run configuration.
func (c *Config) Pipeline() pipeline.Config {
	interval, _ := model.ParseInterval(c.Interval)
	return pipeline.Config{
		Symbol:        c.Symbol,
		Exchange:      c.Exchange,
		Timeframe:     c.Timeframe,
		Interval:      interval,
		LookbackYears: c.YearsHistory,
		MaxBars:       c.NBars,
		OutputRoot:    c.OutputRoot,
		Source:        c.SourceName(),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
