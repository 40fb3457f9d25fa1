// Package extract turns PDF files into documents. The processing level picks
// how: text layer only (LOW), text layer plus OCR of embedded images
// (MEDIUM), or semantic chunking by a language model (HIGH).
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Carbaz/ai-technical-challenge/internal/logging"
	"github.com/Carbaz/ai-technical-challenge/internal/models"
	"github.com/Carbaz/ai-technical-challenge/internal/types"
)

// ErrSourceIO marks a PDF that could not be opened at all.
var ErrSourceIO = errors.New("pdf could not be read")

// Deps carries what the extractors need. Only the collaborators required by
// the chosen level must be set.
type Deps struct {
	Open    Opener
	OCR     types.OCREngine
	Chunker types.SemanticChunker
	Debug   *DebugWriter
	Workers int
	Logger  *slog.Logger
}

func (d *Deps) applyDefaults() {
	if d.Open == nil {
		d.Open = OpenPDF
	}
	if d.Workers <= 0 {
		d.Workers = 1
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
}

// New returns the extractor for level.
func New(level models.ProcessingLevel, deps Deps) (types.Extractor, error) {
	deps.applyDefaults()

	switch level {
	case models.LevelLow:
		return NewDirect(deps), nil
	case models.LevelMedium:
		if deps.OCR == nil {
			return nil, errors.New("MEDIUM processing level needs an OCR engine")
		}
		return NewOCR(deps), nil
	case models.LevelHigh:
		if deps.Chunker == nil {
			return nil, errors.New("HIGH processing level needs a semantic chunker")
		}
		return NewSemantic(deps), nil
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidProcessingLevel, level)
	}
}

func openSource(ctx context.Context, open Opener, path string) (Source, error) {
	src, err := open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceIO, err)
	}
	return src, nil
}

func pageDocument(path string, page int, content string) models.Document {
	return models.NewDocument(content, path).WithMetadata(map[string]any{models.MetaPage: page})
}
