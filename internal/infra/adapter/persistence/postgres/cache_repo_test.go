package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsstranslator/internal/domain/entity"
)

func cacheColumns() []string {
	return []string{"hash", "original_content", "translated_language", "translated_content", "tokens", "characters"}
}

func TestCacheRepoLookup_Hit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	hash := entity.HashContent("Hello World", "zh")
	mock.ExpectQuery("FROM translated_content WHERE hash").
		WithArgs(hash).
		WillReturnRows(sqlmock.NewRows(cacheColumns()).
			AddRow(hash, "Hello World", "zh", "你好，世界", 12, 4))

	repo := NewCacheRepo(db)
	row, err := repo.Lookup(context.Background(), "Hello World", "zh")
	require.NoError(t, err)

	require.NotNil(t, row)
	assert.Equal(t, hash, row.Hash)
	assert.Equal(t, "你好，世界", row.TranslatedContent)
	assert.Equal(t, int64(12), row.Tokens)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepoLookup_Miss(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM translated_content WHERE hash").
		WillReturnError(sql.ErrNoRows)

	repo := NewCacheRepo(db)
	row, err := repo.Lookup(context.Background(), "never seen", "zh")
	require.NoError(t, err, "a miss is not an error")
	assert.Nil(t, row)
}

func TestCacheRepoLookup_ErrorPropagates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM translated_content WHERE hash").
		WillReturnError(errors.New("connection reset"))

	repo := NewCacheRepo(db)
	_, err = repo.Lookup(context.Background(), "text", "zh")
	require.Error(t, err)
}

func TestCacheRepoBulkPut_InsertsAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	entries := []*entity.TranslatedContent{
		{Hash: "1", OriginalContent: "a", TranslatedLanguage: "zh", TranslatedContent: "甲", Tokens: 1, Characters: 1},
		{Hash: "2", OriginalContent: "b", TranslatedLanguage: "zh", TranslatedContent: "乙", Tokens: 1, Characters: 1},
	}
	mock.ExpectExec("INSERT INTO translated_content").
		WithArgs("1", "a", "zh", "甲", int64(1), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO translated_content").
		WithArgs("2", "b", "zh", "乙", int64(1), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewCacheRepo(db)
	require.NoError(t, repo.BulkPut(context.Background(), entries))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepoBulkPut_ConflictSwallowed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	// ON CONFLICT DO NOTHING reports zero rows affected; another worker's
	// row stays canonical and the caller never hears about it.
	mock.ExpectExec("INSERT INTO translated_content").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewCacheRepo(db)
	err = repo.BulkPut(context.Background(), []*entity.TranslatedContent{
		{Hash: "1", OriginalContent: "a", TranslatedLanguage: "zh", TranslatedContent: "甲"},
	})
	require.NoError(t, err)
}

func TestCacheRepoBulkPut_WriteFailureNeverPropagates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("INSERT INTO translated_content").
		WillReturnError(errors.New("disk full"))
	mock.ExpectExec("INSERT INTO translated_content").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewCacheRepo(db)
	err = repo.BulkPut(context.Background(), []*entity.TranslatedContent{
		{Hash: "1", OriginalContent: "a", TranslatedLanguage: "zh", TranslatedContent: "甲"},
		{Hash: "2", OriginalContent: "b", TranslatedLanguage: "zh", TranslatedContent: "乙"},
	})
	require.NoError(t, err, "a failed write must not stop the pipeline or the rest of the batch")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepoBulkPut_EmptyBatch(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewCacheRepo(db)
	require.NoError(t, repo.BulkPut(context.Background(), nil))
}
