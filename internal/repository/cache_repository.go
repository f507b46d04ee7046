package repository

import (
	"context"

	"rsstranslator/internal/domain/entity"
)

// CacheRepository is the persistence contract for translated-text
// memoization. Lookups are deterministic by hash; writes are batched and
// tolerate duplicate-key races from concurrent workers.
type CacheRepository interface {
	// Lookup returns the cached translation for (text, targetLanguage), or
	// nil if there is no row for that hash. Errors other than "not found"
	// propagate to the caller.
	Lookup(ctx context.Context, text, targetLanguage string) (*entity.TranslatedContent, error)

	// BulkPut inserts all entries. Duplicate-key conflicts (another worker
	// already wrote the same hash) are logged and swallowed by the
	// implementation; the caller never sees a cache-write failure.
	BulkPut(ctx context.Context, entries []*entity.TranslatedContent) error
}
