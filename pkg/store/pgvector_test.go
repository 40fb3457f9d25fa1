package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carbaz/ai-technical-challenge/internal/models"
)

func expectSchema(mock sqlmock.Sqlmock) {
	mock.ExpectExec(regexp.QuoteMeta("CREATE EXTENSION IF NOT EXISTS vector")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS docs")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS docs_embedding_idx")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS docs_metadata_idx")).WillReturnResult(sqlmock.NewResult(0, 0))
}

func newMockPGVector(t *testing.T) (*PGVector, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	expectSchema(mock)
	vs, err := NewPGVector(context.Background(), db, PGVectorConfig{TableName: "docs", VectorDim: 3})
	require.NoError(t, err)
	return vs, mock, db
}

func TestPGVectorInitialize(t *testing.T) {
	_, mock, _ := newMockPGVector(t)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGVectorInitializeFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE EXTENSION IF NOT EXISTS vector")).WillReturnError(sql.ErrConnDone)
	_, err = NewPGVector(context.Background(), db, PGVectorConfig{TableName: "docs"})
	assert.ErrorContains(t, err, "failed to create vector extension")
}

func TestPGVectorUpsert(t *testing.T) {
	vs, mock, _ := newMockPGVector(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO docs (id, content, embedding, metadata)")).
		WithArgs("id-1", "hello", sqlmock.AnyArg(), `{"company":"acme","source":"a.txt"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO docs (id, content, embedding, metadata)")).
		WithArgs("id-2", "world", sqlmock.AnyArg(), "{}").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := vs.Upsert(context.Background(), []models.Record{
		{ID: "id-1", Content: "hello", Vector: []float32{1, 2, 3}, Metadata: map[string]any{"source": "a.txt", "company": "acme"}},
		{ID: "id-2", Content: "world", Vector: []float32{4, 5, 6}},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGVectorUpsertRollsBack(t *testing.T) {
	vs, mock, _ := newMockPGVector(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO docs").WillReturnError(sql.ErrTxDone)
	mock.ExpectRollback()

	err := vs.Upsert(context.Background(), []models.Record{{ID: "id-1", Content: "x", Vector: []float32{1, 2, 3}}})
	assert.ErrorContains(t, err, "failed to insert record id-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGVectorListIDs(t *testing.T) {
	vs, mock, _ := newMockPGVector(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM docs ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a").AddRow("b"))

	ids, err := vs.ListIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGVectorDeleteIDs(t *testing.T) {
	vs, mock, _ := newMockPGVector(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM docs WHERE id IN ($1, $2)")).
		WithArgs("a", "b").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, vs.DeleteIDs(context.Background(), []string{"a", "b"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGVectorDeleteIDsChunks(t *testing.T) {
	vs, mock, _ := newMockPGVector(t)

	ids := make([]string, deleteChunk+1)
	for i := range ids {
		ids[i] = "id"
	}
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM docs WHERE id IN").WillReturnResult(sqlmock.NewResult(0, deleteChunk))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM docs WHERE id IN ($1)")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, vs.DeleteIDs(context.Background(), ids))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGVectorDeleteWhere(t *testing.T) {
	vs, mock, _ := newMockPGVector(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM docs WHERE metadata @> $1::jsonb")).
		WithArgs(`{"company":"acme"}`).
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, vs.DeleteWhere(context.Background(), map[string]any{"company": "acme"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1, $2, $3", placeholders(3, 1, true))
	assert.Equal(t, "?, ?", placeholders(2, 1, false))
}
