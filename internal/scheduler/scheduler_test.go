package scheduler

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsstranslator/internal/domain/entity"
	"rsstranslator/internal/feedfetch"
	"rsstranslator/internal/orchestrator"
	"rsstranslator/internal/refresher"
	"rsstranslator/internal/taskqueue"
)

type fakeSourceFeedRepo struct {
	mu    sync.Mutex
	feeds map[string]*entity.SourceFeed
}

func newFakeSourceFeedRepo(feeds ...*entity.SourceFeed) *fakeSourceFeedRepo {
	r := &fakeSourceFeedRepo{feeds: make(map[string]*entity.SourceFeed)}
	for _, f := range feeds {
		r.feeds[f.SID] = f
	}
	return r
}

func (r *fakeSourceFeedRepo) Get(ctx context.Context, sid string) (*entity.SourceFeed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.feeds[sid], nil
}

func (r *fakeSourceFeedRepo) ListAll(ctx context.Context) ([]*entity.SourceFeed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.SourceFeed, 0, len(r.feeds))
	for _, f := range r.feeds {
		out = append(out, f)
	}
	return out, nil
}

func (r *fakeSourceFeedRepo) Update(ctx context.Context, feed *entity.SourceFeed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feeds[feed.SID] = feed
	return nil
}

type fakeTranslatedFeedRepo struct{}

func (fakeTranslatedFeedRepo) Get(ctx context.Context, sid string) (*entity.TranslatedFeed, error) {
	return nil, nil
}
func (fakeTranslatedFeedRepo) ListBySourceSID(ctx context.Context, sourceSID string) ([]*entity.TranslatedFeed, error) {
	return nil, nil
}
func (fakeTranslatedFeedRepo) Update(ctx context.Context, feed *entity.TranslatedFeed) error {
	return nil
}

type noopCache struct{}

func (noopCache) Lookup(ctx context.Context, text, targetLanguage string) (*entity.TranslatedContent, error) {
	return nil, nil
}
func (noopCache) BulkPut(ctx context.Context, entries []*entity.TranslatedContent) error { return nil }

func newTestRefresher(t *testing.T, sourceRepo *fakeSourceFeedRepo) *refresher.Service {
	t.Helper()
	translatedRepo := fakeTranslatedFeedRepo{}
	orch := orchestrator.NewService(noopCache{}, translatedRepo, nil, nil, t.TempDir(), 2)
	return refresher.NewService(sourceRepo, translatedRepo, feedfetch.NewFetcher(http.DefaultClient), orch, taskqueue.NewSingleFlight(), taskqueue.NewQueue(), t.TempDir())
}

func TestStart_SchedulesOneJobPerSourceFeedMissingFromQueue(t *testing.T) {
	sourceRepo := newFakeSourceFeedRepo(
		&entity.SourceFeed{SID: "s1", URL: "http://example.invalid", UpdatePeriod: 30},
		&entity.SourceFeed{SID: "s2", URL: "http://example.invalid", UpdatePeriod: 60},
	)
	queue := taskqueue.NewQueue()
	sched := New(sourceRepo, newTestRefresher(t, sourceRepo), queue)

	require.NoError(t, sched.Start(context.Background()))
	defer sched.Stop()

	assert.True(t, queue.HasPending("s1"))
	assert.True(t, queue.HasPending("s2"))
}

func TestStart_SkipsFeedsAlreadyScheduled(t *testing.T) {
	sourceRepo := newFakeSourceFeedRepo(&entity.SourceFeed{SID: "s1", URL: "http://example.invalid", UpdatePeriod: 30})
	queue := taskqueue.NewQueue()
	queue.Schedule(context.Background(), "s1", time.Hour, func(ctx context.Context) {})

	sched := New(sourceRepo, newTestRefresher(t, sourceRepo), queue)
	require.NoError(t, sched.Start(context.Background()))
	defer sched.Stop()

	assert.True(t, queue.HasPending("s1"))
}

func TestStop_FlushesQueue(t *testing.T) {
	sourceRepo := newFakeSourceFeedRepo(&entity.SourceFeed{SID: "s1", URL: "http://example.invalid", UpdatePeriod: 30})
	queue := taskqueue.NewQueue()
	sched := New(sourceRepo, newTestRefresher(t, sourceRepo), queue)

	require.NoError(t, sched.Start(context.Background()))
	require.True(t, queue.HasPending("s1"))

	sched.Stop()
	assert.False(t, queue.HasPending("s1"))
}
