package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Carbaz/ai-technical-challenge/internal/logging"
	"github.com/Carbaz/ai-technical-challenge/internal/types"
)

type Config struct {
	Backend   string // "pgvector" or "sqlite"
	ConnStr   string
	Path      string
	TableName string
	VectorDim int
	Logger    *slog.Logger
}

// Open connects to the configured backend and makes sure its schema exists.
func Open(ctx context.Context, config Config) (types.VectorStore, error) {
	if config.Logger == nil {
		config.Logger = logging.Discard()
	}

	switch config.Backend {
	case "", "pgvector":
		return OpenPGVector(ctx, PGVectorConfig{
			ConnString: config.ConnStr,
			TableName:  config.TableName,
			VectorDim:  config.VectorDim,
			Logger:     config.Logger,
		})
	case "sqlite":
		return OpenSQLite(ctx, SQLiteConfig{
			Path:      config.Path,
			TableName: config.TableName,
			Logger:    config.Logger,
		})
	default:
		return nil, fmt.Errorf("unknown vector store backend %q", config.Backend)
	}
}

// placeholders returns "$from, $from+1, ..." (numbered) or "?, ?, ..." for n
// parameters.
func placeholders(n, from int, numbered bool) string {
	parts := make([]string, n)
	for i := range parts {
		if numbered {
			parts[i] = fmt.Sprintf("$%d", from+i)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

func toArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
