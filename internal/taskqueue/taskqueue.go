// Package taskqueue provides the pipeline's two job primitives: a
// process-wide single-flight guard and a dynamic-delay, revoke-by-argument
// scheduled queue. Neither primitive is distributed -- both are scoped to
// one worker process, which is enough because the translation cache makes
// duplicate work across processes idempotent.
package taskqueue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"rsstranslator/internal/observability/metrics"
)

// SingleFlight is a mutex-guarded set of keys (sid) currently being worked
// on by a refresh or translation job in this process. It is advisory
// only -- it does not protect across multiple worker processes, because
// the cache provides idempotence instead.
type SingleFlight struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewSingleFlight creates an empty SingleFlight set.
func NewSingleFlight() *SingleFlight {
	return &SingleFlight{inFlight: make(map[string]struct{})}
}

// TryAcquire inserts key if absent and reports whether it acquired the slot.
// Callers that fail to acquire MUST log and return without doing work.
func (s *SingleFlight) TryAcquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.inFlight[key]; exists {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

// Release removes key from the in-flight set. Callers MUST call this in a
// defer immediately after a successful TryAcquire.
func (s *SingleFlight) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, key)
}

// JobFunc is a unit of scheduled work. ctx is the job's own correlation
// context (internal/correlation.NewJobContext), not the Queue's lifetime
// context -- cancelling the Queue does not cancel jobs already dispatched.
type JobFunc func(ctx context.Context)

// scheduledJob is one pending or just-fired entry, keyed by its first
// positional argument (sid) so it can be revoked by argument match.
type scheduledJob struct {
	id    uint64
	arg   string
	timer *time.Timer
}

// Queue is a dynamic-delay, revoke-by-argument job queue: entries fire
// once after a relative delay and can be revoked in bulk by their sid
// argument before they fire.
type Queue struct {
	mu      sync.Mutex
	nextID  uint64
	pending map[string]map[uint64]*scheduledJob // arg -> id -> job
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{pending: make(map[string]map[uint64]*scheduledJob)}
}

// Schedule dispatches fn to run once after delay, in its own goroutine, with
// jobCtx as its context. The job is tracked under arg until it fires or is
// revoked.
func (q *Queue) Schedule(jobCtx context.Context, arg string, delay time.Duration, fn JobFunc) {
	q.mu.Lock()
	q.nextID++
	id := q.nextID
	job := &scheduledJob{id: id, arg: arg}
	job.timer = time.AfterFunc(delay, func() {
		q.remove(arg, id)
		fn(jobCtx)
	})
	if q.pending[arg] == nil {
		q.pending[arg] = make(map[uint64]*scheduledJob)
	}
	q.pending[arg][id] = job
	q.mu.Unlock()

	metrics.ScheduledJobsActive.Set(float64(q.activeCount()))
}

func (q *Queue) remove(arg string, id uint64) {
	q.mu.Lock()
	if byID, ok := q.pending[arg]; ok {
		delete(byID, id)
		if len(byID) == 0 {
			delete(q.pending, arg)
		}
	}
	q.mu.Unlock()
	metrics.ScheduledJobsActive.Set(float64(q.activeCount()))
}

// RevokeByArg cancels every pending job carrying arg as its sid, called
// before a refresh or translation run for that sid starts so duplicate
// reschedules never accumulate. Already-fired jobs are unaffected -- there
// is no preemption.
func (q *Queue) RevokeByArg(arg string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	byID, ok := q.pending[arg]
	if !ok {
		return 0
	}
	revoked := 0
	for _, job := range byID {
		if job.timer.Stop() {
			revoked++
		}
	}
	delete(q.pending, arg)
	if revoked > 0 {
		slog.Debug("revoked pending jobs", slog.String("arg", arg), slog.Int("count", revoked))
	}
	return revoked
}

// HasPending reports whether any job is currently scheduled for arg, used
// by the scheduler's startup reconciliation to decide which source feeds
// are missing a job.
func (q *Queue) HasPending(arg string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	byID, ok := q.pending[arg]
	return ok && len(byID) > 0
}

// FlushAll cancels every pending job. Used on system shutdown; jobs are
// re-created idempotently on the next startup reconciliation.
func (q *Queue) FlushAll() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for arg, byID := range q.pending {
		for _, job := range byID {
			job.timer.Stop()
		}
		delete(q.pending, arg)
	}
	metrics.ScheduledJobsActive.Set(0)
}

func (q *Queue) activeCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, byID := range q.pending {
		n += len(byID)
	}
	return n
}
