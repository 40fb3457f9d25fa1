package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/Carbaz/ai-technical-challenge/internal/logging"
	"github.com/Carbaz/ai-technical-challenge/internal/models"
)

// deleteChunk caps the parameters bound by a single DELETE statement.
const deleteChunk = 1000

type PGVectorConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
	Logger     *slog.Logger
}

// PGVector keeps records in a Postgres table with a pgvector column.
type PGVector struct {
	config PGVectorConfig
	db     *sql.DB
}

// OpenPGVector connects through the pgx driver and initializes the schema.
func OpenPGVector(ctx context.Context, config PGVectorConfig) (*PGVector, error) {
	db, err := sql.Open("pgx", config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	vs, err := NewPGVector(ctx, db, config)
	if err != nil {
		db.Close()
		return nil, err
	}
	return vs, nil
}

// NewPGVector wraps an open database handle and initializes the schema.
func NewPGVector(ctx context.Context, db *sql.DB, config PGVectorConfig) (*PGVector, error) {
	if config.TableName == "" {
		config.TableName = "embeddings"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 1536 // Default for OpenAI embeddings
	}
	if config.Logger == nil {
		config.Logger = logging.Discard()
	}

	vs := &PGVector{config: config, db: db}
	if err := vs.initialize(ctx); err != nil {
		return nil, err
	}
	return vs, nil
}

func (vs *PGVector) initialize(ctx context.Context) error {
	// Enable pgvector extension
	if _, err := vs.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			embedding vector(%d),
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb
		)`, vs.config.TableName, vs.config.VectorDim)
	if _, err := vs.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		vs.config.TableName, vs.config.TableName)
	if _, err := vs.db.ExecContext(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	// Cleanup filters on metadata containment
	createMetaIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_metadata_idx
		ON %s
		USING gin (metadata)`,
		vs.config.TableName, vs.config.TableName)
	if _, err := vs.db.ExecContext(ctx, createMetaIndex); err != nil {
		return fmt.Errorf("failed to create metadata index: %w", err)
	}

	vs.config.Logger.Debug("pgvector table ready", "table", vs.config.TableName, "dim", vs.config.VectorDim)
	return nil
}

func (vs *PGVector) Upsert(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := vs.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, content, embedding, metadata)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata`,
		vs.config.TableName)

	for _, rec := range records {
		meta, err := marshalMetadata(rec.Metadata)
		if err != nil {
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}
		if _, err := tx.ExecContext(ctx, stmt, rec.ID, rec.Content, pgvector.NewVector(rec.Vector), meta); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (vs *PGVector) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := vs.db.QueryContext(ctx, fmt.Sprintf("SELECT id FROM %s ORDER BY id", vs.config.TableName))
	if err != nil {
		return nil, fmt.Errorf("failed to list ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (vs *PGVector) DeleteIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := vs.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(ids); start += deleteChunk {
		part := ids[start:min(start+deleteChunk, len(ids))]
		query := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", vs.config.TableName, placeholders(len(part), 1, true))
		if _, err := tx.ExecContext(ctx, query, toArgs(part)...); err != nil {
			return fmt.Errorf("failed to delete records: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteWhere removes every record whose metadata contains all filter pairs.
func (vs *PGVector) DeleteWhere(ctx context.Context, filter map[string]any) error {
	meta, err := marshalMetadata(filter)
	if err != nil {
		return fmt.Errorf("filter: %w", err)
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE metadata @> $1::jsonb", vs.config.TableName)
	res, err := vs.db.ExecContext(ctx, query, meta)
	if err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		vs.config.Logger.Debug("deleted by filter", "rows", n)
	}
	return nil
}

func (vs *PGVector) Close() error {
	if vs.db != nil {
		return vs.db.Close()
	}
	return nil
}

func marshalMetadata(meta map[string]any) (string, error) {
	if meta == nil {
		return "{}", nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	return string(b), nil
}
