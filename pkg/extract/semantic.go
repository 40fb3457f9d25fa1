package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Carbaz/ai-technical-challenge/internal/models"
	"github.com/Carbaz/ai-technical-challenge/internal/types"
)

// Semantic hands the whole file to a language model and keeps the chunks it
// returns. One model call per file, no OCR.
type Semantic struct {
	chunker types.SemanticChunker
	logger  *slog.Logger
}

func NewSemantic(deps Deps) *Semantic {
	deps.applyDefaults()
	return &Semantic{chunker: deps.Chunker, logger: deps.Logger.With("component", "pdf-semantic")}
}

func (s *Semantic) Extract(ctx context.Context, path string) ([]models.Document, error) {
	chunks, err := s.chunker.ChunkFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("semantic chunking of %s: %w", path, err)
	}

	docs := make([]models.Document, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk = strings.TrimSpace(chunk); chunk == "" {
			continue
		}
		docs = append(docs, models.NewDocument(chunk, path))
	}

	s.logger.Debug("chunked pdf with llm", "source", path, "chunks", len(docs))
	return docs, nil
}
