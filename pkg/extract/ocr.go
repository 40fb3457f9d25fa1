package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Carbaz/ai-technical-challenge/internal/models"
	"github.com/Carbaz/ai-technical-challenge/internal/types"
	"github.com/Carbaz/ai-technical-challenge/pkg/imaging"
)

// ImageOutcome is the result of recognizing one page image. A failed image
// has Err set and contributes no text.
type ImageOutcome struct {
	Index int
	Name  string
	Text  string
	Err   error
}

// OCR combines the text layer of each page with the recognized text of the
// images embedded in it.
type OCR struct {
	open    Opener
	engine  types.OCREngine
	debug   *DebugWriter
	workers int
	logger  *slog.Logger
}

func NewOCR(deps Deps) *OCR {
	deps.applyDefaults()
	return &OCR{
		open:    deps.Open,
		engine:  deps.OCR,
		debug:   deps.Debug,
		workers: deps.Workers,
		logger:  deps.Logger.With("component", "pdf-ocr"),
	}
}

// Extract returns one document per page with any text, from the text layer or
// from OCR. A failing image never fails the page or the file.
func (o *OCR) Extract(ctx context.Context, path string) ([]models.Document, error) {
	src, err := openSource(ctx, o.open, path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var docs []models.Document
	for n := 1; n <= src.NumPages(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var parts []string

		text, err := src.PageText(n)
		if err != nil {
			o.logger.Warn("failed to read page text", "source", path, "page", n, "error", err)
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}

		images, err := src.PageImages(n)
		if err != nil {
			o.logger.Warn("failed to list page images", "source", path, "page", n, "error", err)
		}
		for _, outcome := range o.RecognizePage(ctx, path, n, images) {
			if outcome.Err != nil || outcome.Text == "" {
				continue
			}
			parts = append(parts, fmt.Sprintf("Text extracted from file: %q image: %q on page %d: %s",
				filepath.Base(path), outcome.Name, n, outcome.Text))
		}

		if len(parts) == 0 {
			continue
		}
		docs = append(docs, pageDocument(path, n, strings.Join(parts, "\n\n")))
	}

	o.logger.Debug("extracted pdf with ocr", "source", path, "pages", src.NumPages(), "documents", len(docs))
	return docs, nil
}

// RecognizePage runs OCR on every image of a page, in parallel, and returns
// the outcomes in image order.
func (o *OCR) RecognizePage(ctx context.Context, path string, page int, images []ImageSource) []ImageOutcome {
	outcomes := make([]ImageOutcome, len(images))

	var g errgroup.Group
	g.SetLimit(o.workers)
	for i, img := range images {
		g.Go(func() error {
			outcomes[i] = o.recognize(ctx, path, page, i+1, img)
			if err := outcomes[i].Err; err != nil {
				o.logger.Warn("failed to extract image text",
					"source", path, "page", page, "image", outcomes[i].Name, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (o *OCR) recognize(ctx context.Context, path string, page, index int, img ImageSource) (out ImageOutcome) {
	out = ImageOutcome{Index: index, Name: fmt.Sprintf("image_%d", index)}

	defer func() {
		if r := recover(); r != nil {
			out.Text = ""
			out.Err = fmt.Errorf("panic while processing image: %v", r)
		}
	}()

	if name := img.Name(); name != "" {
		out.Name = name
	}
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	raw, err := img.Load()
	if err != nil {
		out.Err = err
		return out
	}
	decoded, err := imaging.Decode(raw)
	if err != nil {
		out.Err = err
		return out
	}
	enhanced := imaging.Enhance(decoded)
	data, err := imaging.EncodePNG(enhanced)
	if err != nil {
		out.Err = err
		return out
	}

	text, err := o.engine.Recognize(ctx, data)
	if err != nil {
		out.Err = fmt.Errorf("ocr: %w", err)
		return out
	}
	out.Text = strings.TrimSpace(text)

	if o.debug != nil {
		o.debug.Save(path, page, index, decoded, enhanced, out.Text)
	}
	return out
}
