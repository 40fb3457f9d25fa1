package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/Carbaz/ai-technical-challenge/internal/logging"
	"github.com/Carbaz/ai-technical-challenge/internal/models"
	"github.com/Carbaz/ai-technical-challenge/internal/types"
)

var ErrEmbeddingMismatch = errors.New("embedding count does not match chunk count")

type GatewayConfig struct {
	BatchSize     int
	MaxRetries    int
	RetryInterval time.Duration
	Logger        *slog.Logger
}

// Gateway writes embedded chunks to a vector store and wipes them again.
type Gateway struct {
	config GatewayConfig
	store  types.VectorStore
}

func NewGateway(store types.VectorStore, config GatewayConfig) *Gateway {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = 500 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = logging.Discard()
	}
	return &Gateway{config: config, store: store}
}

// EmbedDocuments embeds every chunk in one pass and stores each one as a new
// record. It returns the number of records written. No chunks means no
// embedding call and no write.
func (g *Gateway) EmbedDocuments(ctx context.Context, chunks []models.Document, embedder embeddings.Embedder) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = sanitizeUTF8(chunk.Content)
	}

	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("%w: %d vectors for %d chunks", ErrEmbeddingMismatch, len(vectors), len(chunks))
	}

	records := make([]models.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = models.Record{
			ID:       uuid.NewString(),
			Content:  texts[i],
			Vector:   vectors[i],
			Metadata: chunk.Metadata,
		}
	}

	// Insert documents in batches
	for start := 0; start < len(records); start += g.config.BatchSize {
		end := min(start+g.config.BatchSize, len(records))
		batch := records[start:end]
		if err := g.retry(ctx, "upsert", func() error { return g.store.Upsert(ctx, batch) }); err != nil {
			return start, fmt.Errorf("failed to store batch %d-%d: %w", start, end, err)
		}
		g.config.Logger.Debug("stored batch", "from", start, "to", end)
	}

	g.config.Logger.Info("stored embeddings", "records", len(records))
	return len(records), nil
}

// Cleanup deletes records. With a filter, a single filtered delete is issued.
// Without one, every id is listed and then deleted in one call; an empty store
// gets no delete call. The two steps are not atomic: records inserted in
// between survive.
func (g *Gateway) Cleanup(ctx context.Context, filter map[string]any) error {
	if len(filter) > 0 {
		if err := g.store.DeleteWhere(ctx, filter); err != nil {
			return fmt.Errorf("failed to delete embeddings matching %v: %w", filter, err)
		}
		g.config.Logger.Info("deleted embeddings by filter", "filter", filter)
		return nil
	}

	ids, err := g.store.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list embeddings: %w", err)
	}
	if len(ids) == 0 {
		g.config.Logger.Info("vector store already empty")
		return nil
	}

	if err := g.store.DeleteIDs(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete %d embeddings: %w", len(ids), err)
	}
	g.config.Logger.Info("deleted embeddings", "records", len(ids))
	return nil
}

func (g *Gateway) retry(ctx context.Context, what string, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = g.config.RetryInterval
	return backoff.RetryNotify(op,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(g.config.MaxRetries)), ctx),
		func(err error, wait time.Duration) {
			g.config.Logger.Warn("vector store call failed, retrying", "op", what, "error", err, "wait", wait)
		})
}

// sanitizeUTF8 drops invalid bytes so the store never rejects a chunk.
func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
