package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Carbaz/ai-technical-challenge/internal/logging"
	"github.com/Carbaz/ai-technical-challenge/internal/models"
	_ "modernc.org/sqlite"
)

type SQLiteConfig struct {
	Path      string
	TableName string
	Logger    *slog.Logger
}

// SQLite keeps records in a local database file. Embeddings and metadata are
// stored as JSON text.
type SQLite struct {
	config SQLiteConfig
	db     *sql.DB
}

func OpenSQLite(ctx context.Context, config SQLiteConfig) (*SQLite, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("sqlite store needs a path")
	}
	if config.TableName == "" {
		config.TableName = "embeddings"
	}
	if config.Logger == nil {
		config.Logger = logging.Discard()
	}

	if dir := filepath.Dir(config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	// one connection serializes writers
	db.SetMaxOpenConns(1)

	s := &SQLite{config: config, db: db}
	if err := s.initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) initialize(ctx context.Context) error {
	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			embedding TEXT NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}'
		)`, s.config.TableName)
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

func (s *SQLite) Upsert(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, content, embedding, metadata)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			content = excluded.content,
			embedding = excluded.embedding,
			metadata = excluded.metadata`,
		s.config.TableName)

	for _, rec := range records {
		vec, err := json.Marshal(rec.Vector)
		if err != nil {
			return fmt.Errorf("record %s: failed to encode embedding: %w", rec.ID, err)
		}
		meta, err := marshalMetadata(rec.Metadata)
		if err != nil {
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}
		if _, err := tx.ExecContext(ctx, stmt, rec.ID, rec.Content, string(vec), meta); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLite) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT id FROM %s ORDER BY id", s.config.TableName))
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

func (s *SQLite) DeleteIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(ids); start += deleteChunk {
		part := ids[start:min(start+deleteChunk, len(ids))]
		query := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", s.config.TableName, placeholders(len(part), 1, false))
		if _, err := tx.ExecContext(ctx, query, toArgs(part)...); err != nil {
			return fmt.Errorf("failed to delete records: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteWhere removes every record whose metadata matches all filter pairs.
// Filter values must be scalars.
func (s *SQLite) DeleteWhere(ctx context.Context, filter map[string]any) error {
	if len(filter) == 0 {
		return fmt.Errorf("empty filter")
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	conds := make([]string, 0, len(keys))
	args := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		v, err := sqliteScalar(filter[k])
		if err != nil {
			return fmt.Errorf("filter key %q: %w", k, err)
		}
		conds = append(conds, "json_extract(metadata, ?) = ?")
		args = append(args, fmt.Sprintf("$.%q", k), v)
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s", s.config.TableName, strings.Join(conds, " AND "))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		s.config.Logger.Debug("deleted by filter", "rows", n)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// sqliteScalar maps a filter value onto what json_extract returns for it.
func sqliteScalar(v any) (any, error) {
	switch x := v.(type) {
	case string, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return x, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	default:
		return nil, fmt.Errorf("unsupported filter value of type %T", v)
	}
}
