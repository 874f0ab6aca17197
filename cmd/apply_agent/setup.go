package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/apply-agent/internal/answers"
	"github.com/jonathan/apply-agent/internal/config"
	"github.com/jonathan/apply-agent/internal/history"
	"github.com/jonathan/apply-agent/internal/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// resolveConfig loads the optional config file, fills env fallbacks and defaults, and validates.
func resolveConfig(path string) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}
	cfg.ApplyEnv()

	merged := cfg.MergeWithDefaults(config.Defaults())
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}

func openAnswerStore(cfg config.Config, logger *zap.Logger) (answers.Store, func(), error) {
	switch cfg.AnswersBackend {
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := redis.NewClient(opts)
		return answers.NewRedisStore(client, "", logger), func() { _ = client.Close() }, nil
	default:
		return answers.NewFileStore(cfg.AnswersPath, logger), func() {}, nil
	}
}

func openRecorder(ctx context.Context, cfg config.Config) (history.Recorder, func(), error) {
	switch cfg.HistoryBackend {
	case "postgres":
		rec, err := history.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := rec.EnsureSchema(ctx); err != nil {
			rec.Close()
			return nil, nil, err
		}
		return rec, rec.Close, nil
	default:
		return history.NewFileRecorder(cfg.HistoryPath), func() {}, nil
	}
}

// loadJobs reads a JSON or YAML list of jobs, chosen by extension, and validates each one.
func loadJobs(path string) ([]*types.ApplicationJob, error) {
	if path == "" {
		return nil, fmt.Errorf("jobs path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs file %s: %w", path, err)
	}

	var jobs []*types.ApplicationJob
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &jobs)
	default:
		err = json.Unmarshal(data, &jobs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse jobs file: %w", err)
	}

	for i, job := range jobs {
		if job == nil {
			return nil, fmt.Errorf("job %d is empty", i)
		}
		if err := job.Validate(); err != nil {
			return nil, fmt.Errorf("job %d: %w", i, err)
		}
	}
	return jobs, nil
}
