package types

import (
	"context"

	"github.com/Carbaz/ai-technical-challenge/internal/models"
)

// Core interfaces

// Extractor turns one source file into documents.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]models.Document, error)
}

// VectorStore is the persistence contract the ingestion gateway relies on.
type VectorStore interface {
	Upsert(ctx context.Context, records []models.Record) error
	ListIDs(ctx context.Context) ([]string, error)
	DeleteIDs(ctx context.Context, ids []string) error
	DeleteWhere(ctx context.Context, filter map[string]any) error
	Close() error
}

// OCREngine recognizes text in an encoded image.
type OCREngine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// SemanticChunker asks a language model to split a whole file into chunks.
type SemanticChunker interface {
	ChunkFile(ctx context.Context, path string) ([]string, error)
}
