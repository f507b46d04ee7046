package refresher

import (
	"context"
	"sync"

	"rsstranslator/internal/domain/entity"
)

type fakeSourceFeedRepo struct {
	mu      sync.Mutex
	feeds   map[string]*entity.SourceFeed
	updates []*entity.SourceFeed
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
	r.updates = append(r.updates, feed)
	return nil
}

func (r *fakeSourceFeedRepo) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

type fakeTranslatedFeedRepo struct {
	mu         sync.Mutex
	byID       map[string]*entity.TranslatedFeed
	bySourceID map[string][]*entity.TranslatedFeed
	updates    []*entity.TranslatedFeed
}

func newFakeTranslatedFeedRepo() *fakeTranslatedFeedRepo {
	return &fakeTranslatedFeedRepo{
		byID:       make(map[string]*entity.TranslatedFeed),
		bySourceID: make(map[string][]*entity.TranslatedFeed),
	}
}

func (r *fakeTranslatedFeedRepo) addDependent(f *entity.TranslatedFeed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[f.SID] = f
	r.bySourceID[f.SourceSID] = append(r.bySourceID[f.SourceSID], f)
}

func (r *fakeTranslatedFeedRepo) Get(ctx context.Context, sid string) (*entity.TranslatedFeed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[sid], nil
}

func (r *fakeTranslatedFeedRepo) ListBySourceSID(ctx context.Context, sourceSID string) ([]*entity.TranslatedFeed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bySourceID[sourceSID], nil
}

func (r *fakeTranslatedFeedRepo) Update(ctx context.Context, feed *entity.TranslatedFeed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[feed.SID] = feed
	r.updates = append(r.updates, feed)
	return nil
}

func (r *fakeTranslatedFeedRepo) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}
