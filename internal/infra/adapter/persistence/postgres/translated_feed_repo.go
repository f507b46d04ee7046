package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rsstranslator/internal/domain/entity"
	"rsstranslator/internal/repository"
)

// TranslatedFeedRepo implements repository.TranslatedFeedRepository over
// Postgres.
type TranslatedFeedRepo struct{ db *sql.DB }

// NewTranslatedFeedRepo creates a TranslatedFeedRepo using db.
func NewTranslatedFeedRepo(db *sql.DB) repository.TranslatedFeedRepository {
	return &TranslatedFeedRepo{db: db}
}

const translatedFeedColumns = `sid, source_sid, target_language, translate_title, translate_body,
	summary, status, modified, size, total_tokens, total_characters`

func scanTranslatedFeed(scanner interface {
	Scan(dest ...interface{}) error
}) (*entity.TranslatedFeed, error) {
	var f entity.TranslatedFeed
	var modified sql.NullTime
	if err := scanner.Scan(
		&f.SID, &f.SourceSID, &f.TargetLanguage, &f.TranslateTitle, &f.TranslateBody,
		&f.Summary, &f.Status, &modified, &f.Size, &f.TotalTokens, &f.TotalCharacters,
	); err != nil {
		return nil, err
	}
	if modified.Valid {
		f.Modified = &modified.Time
	}
	return &f, nil
}

// Get returns the TranslatedFeed identified by sid, or entity.ErrNotFound.
func (r *TranslatedFeedRepo) Get(ctx context.Context, sid string) (*entity.TranslatedFeed, error) {
	query := fmt.Sprintf(`SELECT %s FROM translated_feeds WHERE sid = $1`, translatedFeedColumns)
	row := r.db.QueryRowContext(ctx, query, sid)
	f, err := scanTranslatedFeed(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	return f, nil
}

// ListBySourceSID returns every TranslatedFeed depending on sourceSID in one
// query, so the refresher's fan-out never pays an N+1.
func (r *TranslatedFeedRepo) ListBySourceSID(ctx context.Context, sourceSID string) ([]*entity.TranslatedFeed, error) {
	query := fmt.Sprintf(`SELECT %s FROM translated_feeds WHERE source_sid = $1 ORDER BY sid`, translatedFeedColumns)
	rows, err := r.db.QueryContext(ctx, query, sourceSID)
	if err != nil {
		return nil, fmt.Errorf("ListBySourceSID: %w", err)
	}
	defer func() { _ = rows.Close() }()

	feeds := make([]*entity.TranslatedFeed, 0, 8)
	for rows.Next() {
		f, err := scanTranslatedFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("ListBySourceSID: Scan: %w", err)
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

// Update persists every mutable field of feed, including the token and
// character accounting the orchestrator maintains.
func (r *TranslatedFeedRepo) Update(ctx context.Context, feed *entity.TranslatedFeed) error {
	const query = `
UPDATE translated_feeds SET
    source_sid = $2, target_language = $3, translate_title = $4, translate_body = $5,
    summary = $6, status = $7, modified = $8, size = $9, total_tokens = $10,
    total_characters = $11
WHERE sid = $1`

	_, err := r.db.ExecContext(ctx, query,
		feed.SID, feed.SourceSID, feed.TargetLanguage, feed.TranslateTitle, feed.TranslateBody,
		feed.Summary, feed.Status, feed.Modified, feed.Size, feed.TotalTokens, feed.TotalCharacters,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return nil
}
