package orchestrator

import (
	"context"
	"sync"

	"rsstranslator/internal/domain/entity"
	"rsstranslator/internal/engine"
)

// fakeEngine is a scriptable engine.Engine for orchestrator tests. It
// records every Translate/Summarize call and returns whatever
// translateFn/summarizeFn produce, or a fixed canned result when those are
// nil.
type fakeEngine struct {
	mu sync.Mutex

	TranslateCalls int
	SummarizeCalls int

	TranslateFn func(text string) engine.Result
	SummarizeFn func(text string) engine.Result

	maxSize      int
	metersTokens bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{maxSize: 2000, metersTokens: true}
}

func (f *fakeEngine) Translate(ctx context.Context, text, targetLanguage, sourceLanguage string, kind engine.TextKind, titleContext string) (engine.Result, error) {
	f.mu.Lock()
	f.TranslateCalls++
	f.mu.Unlock()
	if f.TranslateFn != nil {
		return f.TranslateFn(text), nil
	}
	return engine.Result{Text: "TR:" + text, Tokens: 10, Characters: int64(len(text))}, nil
}

func (f *fakeEngine) Summarize(ctx context.Context, text, targetLanguage string) (engine.Result, error) {
	f.mu.Lock()
	f.SummarizeCalls++
	f.mu.Unlock()
	if f.SummarizeFn != nil {
		return f.SummarizeFn(text), nil
	}
	return engine.Result{Text: "SUM:" + text, Tokens: 5, Characters: int64(len(text))}, nil
}

func (f *fakeEngine) MaxSize() int       { return f.maxSize }
func (f *fakeEngine) MetersTokens() bool { return f.metersTokens }

// fakeCache is an in-memory repository.CacheRepository keyed by
// (text, targetLanguage), used to control and observe cache hits/misses
// without a database.
type fakeCache struct {
	mu      sync.Mutex
	rows    map[string]*entity.TranslatedContent
	puts    []*entity.TranslatedContent
	lookups int
}

func newFakeCache() *fakeCache {
	return &fakeCache{rows: make(map[string]*entity.TranslatedContent)}
}

func cacheKey(text, targetLanguage string) string { return text + "\x00" + targetLanguage }

func (c *fakeCache) Lookup(ctx context.Context, text, targetLanguage string) (*entity.TranslatedContent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups++
	if row, ok := c.rows[cacheKey(text, targetLanguage)]; ok {
		return row, nil
	}
	return nil, nil
}

func (c *fakeCache) BulkPut(ctx context.Context, entries []*entity.TranslatedContent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range entries {
		c.rows[cacheKey(e.OriginalContent, e.TranslatedLanguage)] = e
		c.puts = append(c.puts, e)
	}
	return nil
}

// fakeTranslatedFeedRepo captures whatever the Orchestrator last persisted.
type fakeTranslatedFeedRepo struct {
	mu      sync.Mutex
	updates []*entity.TranslatedFeed
}

func (r *fakeTranslatedFeedRepo) Get(ctx context.Context, sid string) (*entity.TranslatedFeed, error) {
	return nil, nil
}

func (r *fakeTranslatedFeedRepo) ListBySourceSID(ctx context.Context, sourceSID string) ([]*entity.TranslatedFeed, error) {
	return nil, nil
}

func (r *fakeTranslatedFeedRepo) Update(ctx context.Context, feed *entity.TranslatedFeed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, feed)
	return nil
}

func (r *fakeTranslatedFeedRepo) last() *entity.TranslatedFeed {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.updates) == 0 {
		return nil
	}
	return r.updates[len(r.updates)-1]
}
