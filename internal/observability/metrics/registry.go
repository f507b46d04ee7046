// Package metrics provides centralized Prometheus metrics for the
// translation pipeline, promauto-registered at package level and grouped
// by pipeline stage.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Translation cache metrics
var (
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translation_cache_lookups_total",
			Help: "Total cache lookups by outcome (hit, miss, error)",
		},
		[]string{"outcome"},
	)

	CacheWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translation_cache_writes_total",
			Help: "Total cache writes by outcome (ok, conflict)",
		},
		[]string{"outcome"},
	)
)

// Engine metrics
var (
	EngineCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_calls_total",
			Help: "Total engine calls by engine name, operation, and outcome",
		},
		[]string{"engine", "operation", "outcome"},
	)

	EngineCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_call_duration_seconds",
			Help:    "Engine call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"engine", "operation"},
	)

	EngineEmptyResultRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_empty_result_retries_total",
			Help: "Number of per-unit retries triggered by an empty or failed engine result",
		},
		[]string{"kind"},
	)

	EngineFallbackToOriginalTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_fallback_to_original_total",
			Help: "Number of times the original text was kept after retry exhaustion",
		},
		[]string{"operation"},
	)
)

// Feed pipeline metrics
var (
	FeedFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetch_total",
			Help: "Total source feed fetch attempts by outcome (updated, not_modified, error)",
		},
		[]string{"outcome"},
	)

	FeedRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_refresh_duration_seconds",
			Help:    "Duration of one Source-Feed Refresher run",
			Buckets: prometheus.DefBuckets,
		},
	)

	OrchestratorEntriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_entries_processed_total",
			Help: "Entries processed by the Translation Orchestrator by outcome",
		},
		[]string{"outcome"},
	)

	OrchestratorRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orchestrator_run_duration_seconds",
			Help:    "Duration of one Translation Orchestrator run",
			Buckets: prometheus.DefBuckets,
		},
	)

	ChunksGroupedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chunks_grouped_total",
			Help: "Chunks produced by group_chunks, by mode (tag, chunk)",
		},
		[]string{"mode"},
	)
)

// Scheduler metrics
var (
	SingleFlightRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_single_flight_rejections_total",
			Help: "Jobs skipped because a job for the same sid was already in flight",
		},
		[]string{"job_kind"},
	)

	ScheduledJobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_jobs_active",
			Help: "Number of source feeds with a pending-or-scheduled refresh job",
		},
	)
)

// RecordOperationDuration observes the elapsed time since start on hist,
// for callers timing an engine/fetch/orchestrator step with `defer`.
func RecordOperationDuration(hist *prometheus.HistogramVec, labels []string, start time.Time) {
	hist.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
}
