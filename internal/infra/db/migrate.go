package db

import (
	"database/sql"
)

// MigrateUp creates the schema backing the three persistence-layer
// contracts the pipeline needs: source feeds, their dependent translated
// feeds, and the content-addressed translation cache. IF NOT EXISTS
// throughout, so repeated startup runs are harmless.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS source_feeds (
    sid                  TEXT PRIMARY KEY,
    url                  TEXT NOT NULL,
    name                 TEXT NOT NULL DEFAULT '',
    update_period        INT NOT NULL DEFAULT 60,
    etag                 TEXT NOT NULL DEFAULT '',
    last_updated         TIMESTAMPTZ,
    last_pull            TIMESTAMPTZ,
    size                 BIGINT NOT NULL DEFAULT 0,
    valid                SMALLINT NOT NULL DEFAULT 0,
    max_posts            INT NOT NULL DEFAULT 20,
    translator_ref       TEXT NOT NULL DEFAULT '',
    summary_engine_ref   TEXT NOT NULL DEFAULT '',
    summary_detail       DOUBLE PRECISION NOT NULL DEFAULT 0,
    translation_display  SMALLINT NOT NULL DEFAULT 0,
    quality              BOOLEAN NOT NULL DEFAULT FALSE,
    fetch_article        BOOLEAN NOT NULL DEFAULT FALSE
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS translated_feeds (
    sid              TEXT PRIMARY KEY,
    source_sid       TEXT NOT NULL REFERENCES source_feeds(sid) ON DELETE CASCADE,
    target_language  TEXT NOT NULL,
    translate_title  BOOLEAN NOT NULL DEFAULT TRUE,
    translate_body   BOOLEAN NOT NULL DEFAULT TRUE,
    summary          BOOLEAN NOT NULL DEFAULT FALSE,
    status           SMALLINT NOT NULL DEFAULT 0,
    modified         TIMESTAMPTZ,
    size             BIGINT NOT NULL DEFAULT 0,
    total_tokens     BIGINT NOT NULL DEFAULT 0,
    total_characters BIGINT NOT NULL DEFAULT 0
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS translated_content (
    hash                TEXT PRIMARY KEY,
    original_content    TEXT NOT NULL,
    translated_language TEXT NOT NULL,
    translated_content  TEXT NOT NULL,
    tokens              BIGINT NOT NULL DEFAULT 0,
    characters          BIGINT NOT NULL DEFAULT 0
)`); err != nil {
		return err
	}

	indexes := []string{
		// fan-out lookup must avoid an N+1 per source feed
		`CREATE INDEX IF NOT EXISTS idx_translated_feeds_source_sid ON translated_feeds(source_sid)`,
		// scheduler startup reconciliation scans every source feed
		`CREATE INDEX IF NOT EXISTS idx_source_feeds_valid ON source_feeds(valid)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops every table this migration created, in dependency
// order. Use with caution: deletes all stored feeds, translations, and the
// translation cache.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS translated_content CASCADE`,
		`DROP TABLE IF EXISTS translated_feeds CASCADE`,
		`DROP TABLE IF EXISTS source_feeds CASCADE`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
