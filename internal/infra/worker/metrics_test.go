package worker

import (
	"testing"
)

func TestNewWorkerMetrics(t *testing.T) {
	// Use the shared instance (see config_test.go) to avoid duplicate
	// Prometheus registration across test functions in this package.
	metrics := globalTestMetrics

	if metrics == nil {
		t.Fatal("NewWorkerMetrics returned nil")
	}
	if metrics.ConfigMetrics == nil {
		t.Error("ConfigMetrics is nil")
	}

	// Should not panic when calling MustRegister (metrics are auto-registered via promauto)
	metrics.MustRegister()
}

// The remaining tests reuse globalTestMetrics (defined in config_test.go)
// rather than calling NewWorkerMetrics again: promauto registers every
// metric to the default registry, so a second "worker"-named instance
// would panic on duplicate registration.

func TestWorkerMetrics_RecordLoadTimestamp(t *testing.T) {
	globalTestMetrics.RecordLoadTimestamp()
}

func TestWorkerMetrics_RecordValidationError(t *testing.T) {
	globalTestMetrics.RecordValidationError("health_port")
}

func TestWorkerMetrics_RecordFallback(t *testing.T) {
	globalTestMetrics.RecordFallback("health_port", "default")
}

func TestWorkerMetrics_SetFallbackActive(t *testing.T) {
	globalTestMetrics.SetFallbackActive("", true)
	globalTestMetrics.SetFallbackActive("", false)
}
