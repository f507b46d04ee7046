package worker

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DataFolder != "./data" {
		t.Errorf("expected DataFolder './data', got %q", cfg.DataFolder)
	}
	if cfg.ContentConcurrency != 4 {
		t.Errorf("expected ContentConcurrency 4, got %d", cfg.ContentConcurrency)
	}
	if cfg.HealthPort != 9091 {
		t.Errorf("expected HealthPort 9091, got %d", cfg.HealthPort)
	}
	if cfg.MetricsPort != 9090 {
		t.Errorf("expected MetricsPort 9090, got %d", cfg.MetricsPort)
	}
}

func TestDefaultConfig_Immutability(t *testing.T) {
	cfg1 := DefaultConfig()
	cfg2 := DefaultConfig()
	cfg1.DataFolder = "/mutated"

	if cfg2.DataFolder == "/mutated" {
		t.Error("DefaultConfig should return independent instances")
	}
}

func TestWorkerConfig_Validate_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got: %v", err)
	}
}

func TestWorkerConfig_Validate_EmptyDataFolder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataFolder = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty DataFolder")
	}
}

func TestWorkerConfig_Validate_ContentConcurrencyOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ContentConcurrency = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for ContentConcurrency out of range")
	}

	cfg = DefaultConfig()
	cfg.ContentConcurrency = 33
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for ContentConcurrency above range")
	}
}

func TestWorkerConfig_Validate_HealthPortOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HealthPort = 80
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for privileged HealthPort")
	}
}

func TestWorkerConfig_Validate_MetricsPortOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MetricsPort = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for MetricsPort above range")
	}
}

func TestWorkerConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := WorkerConfig{
		DataFolder:         "",
		ContentConcurrency: -1,
		HealthPort:         1,
		MetricsPort:        1,
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected aggregated validation error")
	}
	msg := err.Error()
	for _, want := range []string{"data folder", "content concurrency", "health port", "metrics port"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error message to mention %q, got: %s", want, msg)
		}
	}
}

// globalTestMetrics is a shared metrics instance for tests to avoid
// duplicate Prometheus registration across test functions in this package.
var globalTestMetrics = NewWorkerMetrics()

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	clearWorkerEnv(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	cfg, err := LoadConfigFromEnv(logger, globalTestMetrics)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv returned error (fail-open contract): %v", err)
	}
	if cfg.DataFolder != "./data" {
		t.Errorf("expected default DataFolder, got %q", cfg.DataFolder)
	}
	if cfg.ContentConcurrency != 4 {
		t.Errorf("expected default ContentConcurrency, got %d", cfg.ContentConcurrency)
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	clearWorkerEnv(t)
	t.Setenv("DATA_FOLDER", "/var/lib/rsstranslator")
	t.Setenv("CONTENT_CONCURRENCY", "8")
	t.Setenv("WORKER_HEALTH_PORT", "9200")
	t.Setenv("METRICS_PORT", "9300")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	cfg, err := LoadConfigFromEnv(logger, globalTestMetrics)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataFolder != "/var/lib/rsstranslator" {
		t.Errorf("expected overridden DataFolder, got %q", cfg.DataFolder)
	}
	if cfg.ContentConcurrency != 8 {
		t.Errorf("expected overridden ContentConcurrency, got %d", cfg.ContentConcurrency)
	}
	if cfg.HealthPort != 9200 {
		t.Errorf("expected overridden HealthPort, got %d", cfg.HealthPort)
	}
	if cfg.MetricsPort != 9300 {
		t.Errorf("expected overridden MetricsPort, got %d", cfg.MetricsPort)
	}
}

func TestLoadConfigFromEnv_InvalidFallsBackToDefault(t *testing.T) {
	clearWorkerEnv(t)
	t.Setenv("CONTENT_CONCURRENCY", "not-a-number")
	t.Setenv("WORKER_HEALTH_PORT", "80")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	cfg, err := LoadConfigFromEnv(logger, globalTestMetrics)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv must never error: %v", err)
	}
	if cfg.ContentConcurrency != 4 {
		t.Errorf("expected fallback to default ContentConcurrency, got %d", cfg.ContentConcurrency)
	}
	if cfg.HealthPort != 9091 {
		t.Errorf("expected fallback to default HealthPort, got %d", cfg.HealthPort)
	}
	if buf.Len() == 0 {
		t.Error("expected a fallback warning to be logged")
	}
}

func clearWorkerEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DATA_FOLDER", "CONTENT_CONCURRENCY", "WORKER_HEALTH_PORT", "METRICS_PORT"} {
		original, existed := os.LookupEnv(key)
		os.Unsetenv(key)
		t.Cleanup(func() {
			if existed {
				os.Setenv(key, original)
			}
		})
	}
}
