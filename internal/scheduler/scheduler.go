// Package scheduler maintains the invariant that every active SourceFeed
// has exactly one refresh job scheduled-or-in-flight at any time.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"rsstranslator/internal/correlation"
	"rsstranslator/internal/domain/entity"
	"rsstranslator/internal/refresher"
	"rsstranslator/internal/repository"
	"rsstranslator/internal/taskqueue"
)

// reconcileSpec ticks once a minute. cron.Cron cannot itself express a
// per-feed dynamic delay, so it is used only as a wheel that periodically
// re-asserts the scheduling invariant; internal/taskqueue.Queue holds the
// actual per-feed due times.
const reconcileSpec = "@every 1m"

// Scheduler owns the process's cron wheel and reconciles it against the
// SourceFeed table and taskqueue.Queue on startup and every tick.
type Scheduler struct {
	sourceFeeds repository.SourceFeedRepository
	refresher   *refresher.Service
	queue       *taskqueue.Queue
	cron        *cron.Cron
}

// New creates a Scheduler.
func New(sourceFeeds repository.SourceFeedRepository, refresherSvc *refresher.Service, queue *taskqueue.Queue) *Scheduler {
	return &Scheduler{
		sourceFeeds: sourceFeeds,
		refresher:   refresherSvc,
		queue:       queue,
		cron:        cron.New(),
	}
}

// Start performs the initial reconciliation (enumerate SourceFeeds, enqueue
// a job for every one missing from the queue) and then schedules the
// recurring reconciliation tick. It returns once the initial pass
// completes; the cron wheel continues running in the background.
func (s *Scheduler) Start(ctx context.Context) error {
	s.reconcile(ctx)

	if _, err := s.cron.AddFunc(reconcileSpec, func() {
		s.reconcile(correlation.NewJobContext(context.Background()))
	}); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop flushes the entire queue and stops the cron wheel. Wiping pending
// jobs on shutdown is acceptable because Start's reconciliation recreates
// them idempotently on next startup.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.queue.FlushAll()
}

func (s *Scheduler) reconcile(ctx context.Context) {
	feeds, err := s.sourceFeeds.ListAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "scheduler: failed to list source feeds", slog.String("error", err.Error()))
		return
	}

	scheduled := 0
	for _, feed := range feeds {
		if s.queue.HasPending(feed.SID) {
			continue
		}
		s.scheduleFeed(ctx, feed)
		scheduled++
	}
	if scheduled > 0 {
		slog.InfoContext(ctx, "scheduler: reconciled missing jobs", slog.Int("count", scheduled))
	}
}

func (s *Scheduler) scheduleFeed(ctx context.Context, feed *entity.SourceFeed) {
	delay := time.Duration(feed.UpdatePeriod) * time.Minute
	sid := feed.SID
	s.queue.Schedule(correlation.WithID(context.Background(), correlation.FromContext(ctx)), sid, delay, func(jobCtx context.Context) {
		if _, err := s.refresher.Run(jobCtx, sid, false); err != nil {
			slog.ErrorContext(jobCtx, "scheduler: refresher run failed", slog.String("sid", sid), slog.String("error", err.Error()))
		}
	})
}
