// Package postgres adapts the repository contracts (translation cache,
// SourceFeed, TranslatedFeed) to a Postgres-backed store via database/sql
// and the pgx driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rsstranslator/internal/domain/entity"
	"rsstranslator/internal/repository"
)

// SourceFeedRepo implements repository.SourceFeedRepository over Postgres.
type SourceFeedRepo struct{ db *sql.DB }

// NewSourceFeedRepo creates a SourceFeedRepo using db.
func NewSourceFeedRepo(db *sql.DB) repository.SourceFeedRepository {
	return &SourceFeedRepo{db: db}
}

const sourceFeedColumns = `sid, url, name, update_period, etag, last_updated, last_pull,
	size, valid, max_posts, translator_ref, summary_engine_ref, summary_detail,
	translation_display, quality, fetch_article`

func scanSourceFeed(scanner interface {
	Scan(dest ...interface{}) error
}) (*entity.SourceFeed, error) {
	var f entity.SourceFeed
	var lastUpdated, lastPull sql.NullTime
	if err := scanner.Scan(
		&f.SID, &f.URL, &f.Name, &f.UpdatePeriod, &f.ETag, &lastUpdated, &lastPull,
		&f.Size, &f.Valid, &f.MaxPosts, &f.TranslatorRef, &f.SummaryRef, &f.SummaryDetail,
		&f.Display, &f.Quality, &f.FetchArticle,
	); err != nil {
		return nil, err
	}
	if lastUpdated.Valid {
		f.LastUpdated = &lastUpdated.Time
	}
	if lastPull.Valid {
		f.LastPull = &lastPull.Time
	}
	return &f, nil
}

// Get returns the SourceFeed identified by sid, or entity.ErrNotFound.
func (r *SourceFeedRepo) Get(ctx context.Context, sid string) (*entity.SourceFeed, error) {
	query := fmt.Sprintf(`SELECT %s FROM source_feeds WHERE sid = $1`, sourceFeedColumns)
	row := r.db.QueryRowContext(ctx, query, sid)
	f, err := scanSourceFeed(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	return f, nil
}

// ListAll returns every SourceFeed, for scheduler startup reconciliation.
func (r *SourceFeedRepo) ListAll(ctx context.Context) ([]*entity.SourceFeed, error) {
	query := fmt.Sprintf(`SELECT %s FROM source_feeds ORDER BY sid`, sourceFeedColumns)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListAll: %w", err)
	}
	defer func() { _ = rows.Close() }()

	feeds := make([]*entity.SourceFeed, 0, 64)
	for rows.Next() {
		f, err := scanSourceFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("ListAll: Scan: %w", err)
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

// Update persists every mutable field of feed.
func (r *SourceFeedRepo) Update(ctx context.Context, feed *entity.SourceFeed) error {
	const query = `
UPDATE source_feeds SET
    url = $2, name = $3, update_period = $4, etag = $5, last_updated = $6,
    last_pull = $7, size = $8, valid = $9, max_posts = $10, translator_ref = $11,
    summary_engine_ref = $12, summary_detail = $13, translation_display = $14,
    quality = $15, fetch_article = $16
WHERE sid = $1`

	var lastUpdated, lastPull *time.Time
	lastUpdated = feed.LastUpdated
	lastPull = feed.LastPull

	_, err := r.db.ExecContext(ctx, query,
		feed.SID, feed.URL, feed.Name, feed.UpdatePeriod, feed.ETag, lastUpdated, lastPull,
		feed.Size, feed.Valid, feed.MaxPosts, feed.TranslatorRef, feed.SummaryRef, feed.SummaryDetail,
		feed.Display, feed.Quality, feed.FetchArticle,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return nil
}
