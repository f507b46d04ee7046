// Package worker holds the process-level configuration, health, and
// metrics plumbing for cmd/worker -- the ambient stack wrapped around the
// scheduler and the pipeline beneath it.
package worker

import (
	"fmt"
	"log/slog"

	"rsstranslator/internal/pkg/config"
)

// WorkerConfig holds the configuration for the worker process: where
// translated artifacts are written, how many entries translate
// concurrently per feed, and where the health/metrics HTTP servers listen.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// All fields have sensible defaults and validation rules, loaded
// fail-open: a bad override is logged and replaced with the default rather
// than aborting startup.
type WorkerConfig struct {
	// DataFolder is the writable root for feed artifacts; the "feeds/"
	// subdirectory is created relative to it.
	// Default: "./data"
	DataFolder string

	// ContentConcurrency bounds how many entries an Orchestrator run
	// translates in flight for one TranslatedFeed.
	// Range: 1-32
	// Default: 4
	ContentConcurrency int

	// HealthPort is the port number for the health check HTTP server.
	// Range: 1024-65535
	// Default: 9091
	HealthPort int

	// MetricsPort is the port number for the Prometheus /metrics endpoint.
	// Range: 1024-65535
	// Default: 9090
	MetricsPort int
}

// DefaultConfig returns a WorkerConfig with sensible default values.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		DataFolder:         "./data",
		ContentConcurrency: 4,
		HealthPort:         9091,
		MetricsPort:        9090,
	}
}

// Validate checks if the configuration values are valid. If multiple
// fields are invalid, all errors are collected and returned together.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if c.DataFolder == "" {
		errs = append(errs, fmt.Errorf("data folder: must not be empty"))
	}
	if err := config.ValidateIntRange(c.ContentConcurrency, 1, 32); err != nil {
		errs = append(errs, fmt.Errorf("content concurrency: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads worker configuration from environment variables
// with validation and automatic fallback to default values on failure;
// configuration never aborts the process.
//
// Environment variables:
//   - DATA_FOLDER: writable directory for feed artifacts (default "./data")
//   - CONTENT_CONCURRENCY: integer 1-32 (default 4)
//   - WORKER_HEALTH_PORT: integer 1024-65535 (default 9091)
//   - METRICS_PORT: integer 1024-65535 (default 9090)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	nonEmpty := func(s string) error {
		if s == "" {
			return fmt.Errorf("must not be empty")
		}
		return nil
	}

	result := config.LoadEnvWithFallback("DATA_FOLDER", cfg.DataFolder, nonEmpty)
	cfg.DataFolder = result.Value.(string)
	fallbackApplied = recordFallback(logger, metrics, "DataFolder", result) || fallbackApplied

	result = config.LoadEnvInt("CONTENT_CONCURRENCY", cfg.ContentConcurrency, func(v int) error {
		return config.ValidateIntRange(v, 1, 32)
	})
	cfg.ContentConcurrency = result.Value.(int)
	fallbackApplied = recordFallback(logger, metrics, "ContentConcurrency", result) || fallbackApplied

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	fallbackApplied = recordFallback(logger, metrics, "HealthPort", result) || fallbackApplied

	result = config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.MetricsPort = result.Value.(int)
	fallbackApplied = recordFallback(logger, metrics, "MetricsPort", result) || fallbackApplied

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}

func recordFallback(logger *slog.Logger, metrics *WorkerMetrics, field string, result config.ConfigLoadResult) bool {
	if !result.FallbackApplied {
		return false
	}
	metrics.RecordValidationError(field)
	metrics.RecordFallback(field, "default")
	for _, warning := range result.Warnings {
		logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", warning))
	}
	return true
}
