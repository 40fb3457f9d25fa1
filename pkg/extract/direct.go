package extract

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Carbaz/ai-technical-challenge/internal/models"
)

// Direct reads the text layer of each page. It never runs OCR or calls a
// language model.
type Direct struct {
	open   Opener
	logger *slog.Logger
}

func NewDirect(deps Deps) *Direct {
	deps.applyDefaults()
	return &Direct{open: deps.Open, logger: deps.Logger.With("component", "pdf-direct")}
}

// Extract returns one document per page that has text.
func (d *Direct) Extract(ctx context.Context, path string) ([]models.Document, error) {
	src, err := openSource(ctx, d.open, path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var docs []models.Document
	for n := 1; n <= src.NumPages(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := src.PageText(n)
		if err != nil {
			d.logger.Warn("skipping unreadable page", "source", path, "page", n, "error", err)
			continue
		}
		if text = strings.TrimSpace(text); text == "" {
			continue
		}
		docs = append(docs, pageDocument(path, n, text))
	}

	d.logger.Debug("extracted pdf text", "source", path, "pages", src.NumPages(), "documents", len(docs))
	return docs, nil
}
