// Package config loads the application configuration from environment
// variables (MKTDASH_ prefix) with an optional YAML file overlay. All paths
// the pipeline touches are explicit fields here; nothing reads ambient
// process state at run time.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Data    DataConfig    `yaml:"data" envconfig:"DATA"`
	Metrics MetricsConfig `yaml:"metrics" envconfig:"METRICS"`
	Fetch   FetchConfig   `yaml:"fetch" envconfig:"FETCH"`
	History HistoryConfig `yaml:"history" envconfig:"HISTORY"`
}

// LoggingConfig controls the slog setup.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"text" validate:"oneof=text json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"stdout" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/marketdash.log"`
}

// DataConfig locates the input CSV directory and the output artifacts.
type DataConfig struct {
	Dir       string `yaml:"dir" envconfig:"DIR" default:"data" validate:"required"`
	OutFile   string `yaml:"out_file" envconfig:"OUT_FILE" default:"Financial_Market_Insights_Dashboard.xlsx" validate:"required"`
	ExportCSV bool   `yaml:"export_csv" envconfig:"EXPORT_CSV"`
	CSVDir    string `yaml:"csv_dir" envconfig:"CSV_DIR" default:"reports"`
}

// MetricsConfig overrides the rolling-window parameters. Zero values keep
// the engine defaults (10/30 day MAs, 10-day volatility over 252 periods).
type MetricsConfig struct {
	ShortMAWindow  int     `yaml:"short_ma_window" envconfig:"SHORT_MA_WINDOW" validate:"min=0"`
	LongMAWindow   int     `yaml:"long_ma_window" envconfig:"LONG_MA_WINDOW" validate:"min=0"`
	VolWindow      int     `yaml:"vol_window" envconfig:"VOL_WINDOW" validate:"min=0"`
	PeriodsPerYear float64 `yaml:"periods_per_year" envconfig:"PERIODS_PER_YEAR" validate:"min=0"`
}

// FetchConfig controls the price download step.
type FetchConfig struct {
	BaseURL  string        `yaml:"base_url" envconfig:"BASE_URL" default:"https://query1.finance.yahoo.com" validate:"required,url"`
	Range    string        `yaml:"range" envconfig:"RANGE" default:"3mo" validate:"required"`
	Interval string        `yaml:"interval" envconfig:"INTERVAL" default:"1d" validate:"required"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"30s"`
	RPS      float64       `yaml:"rps" envconfig:"RPS" default:"2" validate:"gt=0"`
}

// HistoryConfig controls the optional sqlite summary-history recorder.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED"`
	DBPath  string `yaml:"db_path" envconfig:"DB_PATH" default:"data/summary_history.db"`
}

// Load builds the configuration: envconfig defaults and environment first,
// then the YAML file at path (if given and present) on top, then validation.
func Load(path string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process("MKTDASH", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
