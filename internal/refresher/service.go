// Package refresher implements the per-sid source-feed refresh job: fetch
// the feed, persist its raw XML, update feed metadata, and fan out to
// dependent translated feeds.
package refresher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"rsstranslator/internal/correlation"
	"rsstranslator/internal/domain/entity"
	"rsstranslator/internal/feedfetch"
	"rsstranslator/internal/observability/metrics"
	"rsstranslator/internal/orchestrator"
	"rsstranslator/internal/repository"
	"rsstranslator/internal/taskqueue"
)

// orchestratorFanoutDelay is the fixed delay before a dependent
// TranslatedFeed's translation job runs after a successful source-feed
// refresh.
const orchestratorFanoutDelay = 1 * time.Second

// Service runs Refresher invocations for every SourceFeed sid. One Service
// is shared process-wide; its SingleFlight and Queue are the process's
// single instances.
type Service struct {
	sourceFeeds     repository.SourceFeedRepository
	translatedFeeds repository.TranslatedFeedRepository
	fetcher         *feedfetch.Fetcher
	orchestratorSvc *orchestrator.Service
	singleFlight    *taskqueue.SingleFlight
	queue           *taskqueue.Queue
	dataFolder      string
}

// NewService creates a Service.
func NewService(
	sourceFeeds repository.SourceFeedRepository,
	translatedFeeds repository.TranslatedFeedRepository,
	fetcher *feedfetch.Fetcher,
	orchestratorSvc *orchestrator.Service,
	singleFlight *taskqueue.SingleFlight,
	queue *taskqueue.Queue,
	dataFolder string,
) *Service {
	return &Service{
		sourceFeeds:     sourceFeeds,
		translatedFeeds: translatedFeeds,
		fetcher:         fetcher,
		orchestratorSvc: orchestratorSvc,
		singleFlight:    singleFlight,
		queue:           queue,
		dataFolder:      dataFolder,
	}
}

// Run executes one refresh for sid. force is accepted for symmetry with
// the orchestrator's contract; the refresher itself has no short-circuit
// to bypass (it always attempts the conditional fetch), but passes force
// through to the translation jobs it fans out to.
func (s *Service) Run(ctx context.Context, sid string, force bool) (bool, error) {
	if !s.singleFlight.TryAcquire(sid) {
		slog.InfoContext(ctx, "refresher: job already in flight, skipping", slog.String("sid", sid))
		metrics.SingleFlightRejectionsTotal.WithLabelValues("refresher").Inc()
		return false, nil
	}
	defer s.singleFlight.Release(sid)

	ctx = correlation.NewJobContext(ctx)
	start := time.Now()
	defer func() { metrics.FeedRefreshDuration.Observe(time.Since(start).Seconds()) }()

	source, err := s.sourceFeeds.Get(ctx, sid)
	if err != nil {
		slog.ErrorContext(ctx, "refresher: failed to load source feed", slog.String("sid", sid), slog.String("error", err.Error()))
		return false, err
	}
	if source == nil {
		slog.WarnContext(ctx, "refresher: source feed not found, dropping job", slog.String("sid", sid))
		return false, nil
	}

	s.queue.RevokeByArg(sid)

	fetchErr := s.runFetch(ctx, source)

	source.LastPull = timePtr(time.Now().UTC())
	if fetchErr != nil {
		source.Valid = entity.ValidityFalse
	} else {
		source.Valid = entity.ValidityTrue
	}

	s.queue.Schedule(detachedJobContext(ctx), sid, time.Duration(source.UpdatePeriod)*time.Minute, func(jobCtx context.Context) {
		if _, err := s.Run(jobCtx, sid, false); err != nil {
			slog.ErrorContext(jobCtx, "refresher: rescheduled run failed", slog.String("sid", sid), slog.String("error", err.Error()))
		}
	})

	if err := s.sourceFeeds.Update(ctx, source); err != nil {
		slog.ErrorContext(ctx, "refresher: failed to persist source feed", slog.String("sid", sid), slog.String("error", err.Error()))
		metrics.FeedFetchTotal.WithLabelValues("error").Inc()
		return true, err
	}

	if fetchErr == nil {
		s.fanOut(ctx, source, force)
	}

	return true, fetchErr
}

// runFetch fetches the feed, writes the raw XML on update, and updates the
// feed's own metadata. It mutates source in place but does not persist
// it -- the caller does that once, after also stamping last_pull.
func (s *Service) runFetch(ctx context.Context, source *entity.SourceFeed) error {
	result, err := s.fetcher.Fetch(ctx, source.URL, source.ETag)
	if err != nil {
		slog.WarnContext(ctx, "refresher: fetch failed", slog.String("sid", source.SID), slog.String("error", err.Error()))
		metrics.FeedFetchTotal.WithLabelValues("error").Inc()
		return err
	}

	if !result.Updated {
		metrics.FeedFetchTotal.WithLabelValues("not_modified").Inc()
		return nil
	}
	metrics.FeedFetchTotal.WithLabelValues("updated").Inc()

	if err := s.writeRawXML(source.SID, result.Raw); err != nil {
		slog.ErrorContext(ctx, "refresher: failed to write raw xml", slog.String("sid", source.SID), slog.String("error", err.Error()))
		return err
	}

	if entity.NameNeedsAutoFill(source.Name) {
		name := result.Feed.Title
		if name == "" {
			name = result.Feed.Description
		}
		if name != "" {
			source.Name = name
		}
	}

	source.Size = int64(len(result.Raw))
	if result.Feed.UpdatedParsed != nil {
		updated := result.Feed.UpdatedParsed.UTC()
		source.LastUpdated = &updated
	}
	source.ETag = result.ETag

	return nil
}

func (s *Service) writeRawXML(sid string, raw []byte) error {
	dir := filepath.Join(s.dataFolder, "feeds")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating feeds dir: %w", err)
	}
	path := filepath.Join(dir, sid+".xml")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing raw feed: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming raw feed into place: %w", err)
	}
	return nil
}

// fanOut enqueues one translation job per dependent TranslatedFeed, each
// re-reading its own entity fresh when the job fires rather than capturing
// the in-memory source/dependent pointers. ListBySourceSID enumerates all
// dependents in one query.
func (s *Service) fanOut(ctx context.Context, source *entity.SourceFeed, force bool) {
	dependents, err := s.translatedFeeds.ListBySourceSID(ctx, source.SID)
	if err != nil {
		slog.ErrorContext(ctx, "refresher: listing dependents failed", slog.String("sid", source.SID), slog.String("error", err.Error()))
		return
	}

	for _, dependent := range dependents {
		dependent.Status = entity.ValidityUnknown
		if err := s.translatedFeeds.Update(ctx, dependent); err != nil {
			slog.WarnContext(ctx, "refresher: failed to reset dependent status", slog.String("sid", dependent.SID), slog.String("error", err.Error()))
		}

		dependentSID := dependent.SID
		sourceSID := source.SID
		s.queue.Schedule(detachedJobContext(ctx), dependentSID, orchestratorFanoutDelay, func(jobCtx context.Context) {
			s.runOrchestratorJob(jobCtx, sourceSID, dependentSID, force)
		})
	}
}

func (s *Service) runOrchestratorJob(ctx context.Context, sourceSID, dependentSID string, force bool) {
	if !s.singleFlight.TryAcquire(dependentSID) {
		slog.InfoContext(ctx, "refresher: orchestrator job already in flight, skipping", slog.String("sid", dependentSID))
		metrics.SingleFlightRejectionsTotal.WithLabelValues("orchestrator").Inc()
		return
	}
	defer s.singleFlight.Release(dependentSID)

	s.queue.RevokeByArg(dependentSID)

	src, err := s.sourceFeeds.Get(ctx, sourceSID)
	if err != nil || src == nil {
		slog.ErrorContext(ctx, "refresher: source feed vanished before orchestrator job ran", slog.String("sid", sourceSID))
		return
	}
	dependent, err := s.translatedFeeds.Get(ctx, dependentSID)
	if err != nil || dependent == nil {
		slog.ErrorContext(ctx, "refresher: translated feed vanished before orchestrator job ran", slog.String("sid", dependentSID))
		return
	}
	if err := s.orchestratorSvc.Run(ctx, src, dependent, force); err != nil {
		slog.ErrorContext(ctx, "refresher: orchestrator job failed", slog.String("sid", dependentSID), slog.String("error", err.Error()))
	}
}

func timePtr(t time.Time) *time.Time { return &t }

// detachedJobContext preserves the correlation id of ctx for a job that
// will run later, without inheriting ctx's cancellation (a scheduled job
// must not die when the Refresher invocation that scheduled it returns).
func detachedJobContext(ctx context.Context) context.Context {
	return correlation.WithID(context.Background(), correlation.FromContext(ctx))
}
