package worker

import (
	"rsstranslator/internal/pkg/config"
)

// WorkerMetrics tracks fallback/validation outcomes for WorkerConfig by
// embedding ConfigMetrics. Per-pipeline-stage metrics (cache, engine,
// fetch, refresh, orchestrator, scheduler) live in
// internal/observability/metrics instead -- this type only covers the
// worker process's own environment-driven settings.
type WorkerMetrics struct {
	*config.ConfigMetrics
}

// NewWorkerMetrics creates a new WorkerMetrics instance.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),
	}
}

// MustRegister is a no-op method for API compatibility: metrics are
// auto-registered via promauto when created in NewWorkerMetrics and
// NewConfigMetrics.
func (m *WorkerMetrics) MustRegister() {}
