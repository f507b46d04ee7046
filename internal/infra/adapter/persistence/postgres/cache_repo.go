package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"rsstranslator/internal/domain/entity"
	"rsstranslator/internal/observability/metrics"
	"rsstranslator/internal/repository"
)

// CacheRepo implements repository.CacheRepository over Postgres. Writes
// use ON CONFLICT DO NOTHING: the hash primary key makes a duplicate write a
// race another worker already won, never an error the pipeline needs to see.
type CacheRepo struct{ db *sql.DB }

// NewCacheRepo creates a CacheRepo using db.
func NewCacheRepo(db *sql.DB) repository.CacheRepository {
	return &CacheRepo{db: db}
}

// Lookup returns the cached translation for (text, targetLanguage), or nil
// if there is no row for that hash.
func (r *CacheRepo) Lookup(ctx context.Context, text, targetLanguage string) (*entity.TranslatedContent, error) {
	hash := entity.HashContent(text, targetLanguage)

	const query = `SELECT hash, original_content, translated_language, translated_content, tokens, characters
FROM translated_content WHERE hash = $1`
	row := r.db.QueryRowContext(ctx, query, hash)

	var row_ entity.TranslatedContent
	err := row.Scan(&row_.Hash, &row_.OriginalContent, &row_.TranslatedLanguage, &row_.TranslatedContent, &row_.Tokens, &row_.Characters)
	if err == sql.ErrNoRows {
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, nil
	}
	if err != nil {
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("Lookup: %w", err)
	}
	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	return &row_, nil
}

// BulkPut inserts every entry, logging and swallowing duplicate-hash
// conflicts and write failures alike.
func (r *CacheRepo) BulkPut(ctx context.Context, entries []*entity.TranslatedContent) error {
	if len(entries) == 0 {
		return nil
	}

	const query = `INSERT INTO translated_content (hash, original_content, translated_language, translated_content, tokens, characters)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (hash) DO NOTHING`

	for _, e := range entries {
		res, err := r.db.ExecContext(ctx, query, e.Hash, e.OriginalContent, e.TranslatedLanguage, e.TranslatedContent, e.Tokens, e.Characters)
		if err != nil {
			// Write failures never propagate: the pipeline continues
			// without caching this entry.
			slog.WarnContext(ctx, "cache bulk_put: write failed, continuing without caching",
				slog.String("hash", e.Hash), slog.String("error", err.Error()))
			metrics.CacheWritesTotal.WithLabelValues("error").Inc()
			continue
		}
		if n, _ := res.RowsAffected(); n == 0 {
			slog.DebugContext(ctx, "cache bulk_put: duplicate hash, existing row kept as canonical",
				slog.String("hash", e.Hash))
			metrics.CacheWritesTotal.WithLabelValues("conflict").Inc()
			continue
		}
		metrics.CacheWritesTotal.WithLabelValues("ok").Inc()
	}
	return nil
}
