// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the apply-agent configuration. It can be loaded from a JSON or
// YAML file; missing values are filled from Defaults, the environment, or CLI flags.
type Config struct {
	// Candidate
	Name         string `json:"name,omitempty" yaml:"name,omitempty"`                   // Candidate name, signs cover letters
	Profile      string `json:"profile,omitempty" yaml:"profile,omitempty"`             // Path to the candidate profile given to the oracle
	MasterResume string `json:"master_resume,omitempty" yaml:"master_resume,omitempty"` // Path to the master resume sent for generation
	OutputDir    string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`       // Where generated documents are written

	// Oracle
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"` // Gemini API key

	// Answer cache
	AnswersBackend      string  `json:"answers_backend,omitempty" yaml:"answers_backend,omitempty" validate:"omitempty,oneof=file redis"`
	AnswersPath         string  `json:"answers_path,omitempty" yaml:"answers_path,omitempty"`
	RedisURL            string  `json:"redis_url,omitempty" yaml:"redis_url,omitempty"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty" yaml:"similarity_threshold,omitempty" validate:"omitempty,gt=0,lte=1"`

	// Engine
	ScoreThreshold       int `json:"score_threshold,omitempty" yaml:"score_threshold,omitempty" validate:"omitempty,min=0,max=100"`
	RedirectAttempts     int `json:"redirect_attempts,omitempty" yaml:"redirect_attempts,omitempty" validate:"omitempty,min=1"`
	EntryRefreshAttempts int `json:"entry_refresh_attempts,omitempty" yaml:"entry_refresh_attempts,omitempty" validate:"omitempty,min=1"`
	MaxSteps             int `json:"max_steps,omitempty" yaml:"max_steps,omitempty" validate:"omitempty,min=1"`
	PacingMinMs          int `json:"pacing_min_ms,omitempty" yaml:"pacing_min_ms,omitempty" validate:"omitempty,min=0"`
	PacingMaxMs          int `json:"pacing_max_ms,omitempty" yaml:"pacing_max_ms,omitempty" validate:"omitempty,min=0"`
	AutofillSettleMs     int `json:"autofill_settle_ms,omitempty" yaml:"autofill_settle_ms,omitempty" validate:"omitempty,min=0"`

	// Resume generation service
	GenerationURL            string `json:"generation_url,omitempty" yaml:"generation_url,omitempty" validate:"omitempty,url"`
	GenerationTimeoutSeconds int    `json:"generation_timeout_seconds,omitempty" yaml:"generation_timeout_seconds,omitempty" validate:"omitempty,min=1"`

	// Browser
	Headless    bool   `json:"headless,omitempty" yaml:"headless,omitempty"`
	UserDataDir string `json:"user_data_dir,omitempty" yaml:"user_data_dir,omitempty"`
	ChromePath  string `json:"chrome_path,omitempty" yaml:"chrome_path,omitempty"`

	// History and observability
	HistoryBackend string `json:"history_backend,omitempty" yaml:"history_backend,omitempty" validate:"omitempty,oneof=file postgres"`
	HistoryPath    string `json:"history_path,omitempty" yaml:"history_path,omitempty"`
	DatabaseURL    string `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL connection URL
	MetricsAddr    string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`
	LogLevel       string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	LogFormat      string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,oneof=console json"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		OutputDir:                "generated_cv",
		AnswersBackend:           "file",
		AnswersPath:              "data_folder/answers.json",
		SimilarityThreshold:      0.85,
		ScoreThreshold:           70,
		RedirectAttempts:         3,
		EntryRefreshAttempts:     2,
		PacingMinMs:              1500,
		PacingMaxMs:              2500,
		AutofillSettleMs:         1000,
		GenerationURL:            "http://localhost:8000/generate",
		GenerationTimeoutSeconds: 120,
		HistoryBackend:           "file",
		HistoryPath:              "data_folder/history.jsonl",
		LogLevel:                 "info",
		LogFormat:                "console",
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for paths that are only needed by some commands.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.PacingMaxMs != 0 && c.PacingMaxMs < c.PacingMinMs {
		return fmt.Errorf("config error: 'pacing_max_ms' must not be less than 'pacing_min_ms'")
	}
	if c.AnswersBackend == "redis" && c.RedisURL == "" {
		return fmt.Errorf("config error: 'redis_url' is required for the redis answers backend")
	}
	if c.HistoryBackend == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("config error: 'database_url' is required for the postgres history backend")
	}

	return nil
}

// ApplyEnv fills secrets and connection strings from the environment when the
// file leaves them empty.
func (c *Config) ApplyEnv() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.RedisURL == "" {
		c.RedisURL = os.Getenv("REDIS_URL")
	}
}

type stringDefault struct {
	dst *string
	def string
}

type intDefault struct {
	dst *int
	def int
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	strs := []stringDefault{
		{&result.Name, defaults.Name},
		{&result.Profile, defaults.Profile},
		{&result.MasterResume, defaults.MasterResume},
		{&result.OutputDir, defaults.OutputDir},
		{&result.APIKey, defaults.APIKey},
		{&result.AnswersBackend, defaults.AnswersBackend},
		{&result.AnswersPath, defaults.AnswersPath},
		{&result.RedisURL, defaults.RedisURL},
		{&result.GenerationURL, defaults.GenerationURL},
		{&result.UserDataDir, defaults.UserDataDir},
		{&result.ChromePath, defaults.ChromePath},
		{&result.HistoryBackend, defaults.HistoryBackend},
		{&result.HistoryPath, defaults.HistoryPath},
		{&result.DatabaseURL, defaults.DatabaseURL},
		{&result.MetricsAddr, defaults.MetricsAddr},
		{&result.LogLevel, defaults.LogLevel},
		{&result.LogFormat, defaults.LogFormat},
	}
	for _, f := range strs {
		if *f.dst == "" {
			*f.dst = f.def
		}
	}

	// Int fields: use default if zero
	ints := []intDefault{
		{&result.ScoreThreshold, defaults.ScoreThreshold},
		{&result.RedirectAttempts, defaults.RedirectAttempts},
		{&result.EntryRefreshAttempts, defaults.EntryRefreshAttempts},
		{&result.MaxSteps, defaults.MaxSteps},
		{&result.PacingMinMs, defaults.PacingMinMs},
		{&result.PacingMaxMs, defaults.PacingMaxMs},
		{&result.AutofillSettleMs, defaults.AutofillSettleMs},
		{&result.GenerationTimeoutSeconds, defaults.GenerationTimeoutSeconds},
	}
	for _, f := range ints {
		if *f.dst == 0 {
			*f.dst = f.def
		}
	}

	if result.SimilarityThreshold == 0 {
		result.SimilarityThreshold = defaults.SimilarityThreshold
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// Pacing returns the delay range between UI actions.
func (c *Config) Pacing() (time.Duration, time.Duration) {
	return time.Duration(c.PacingMinMs) * time.Millisecond, time.Duration(c.PacingMaxMs) * time.Millisecond
}

// AutofillSettle returns how long text boxes are given to be autofilled.
func (c *Config) AutofillSettle() time.Duration {
	return time.Duration(c.AutofillSettleMs) * time.Millisecond
}

// GenerationTimeout returns the resume generation request timeout.
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.GenerationTimeoutSeconds) * time.Second
}
