// Package pipeline runs one ingestion cycle over a source directory: scan,
// extract, chunk, tag and embed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync/atomic"

	"github.com/tmc/langchaingo/embeddings"
	"golang.org/x/sync/errgroup"

	"github.com/Carbaz/ai-technical-challenge/internal/logging"
	"github.com/Carbaz/ai-technical-challenge/internal/models"
	"github.com/Carbaz/ai-technical-challenge/internal/types"
	"github.com/Carbaz/ai-technical-challenge/pkg/loader"
	"github.com/Carbaz/ai-technical-challenge/pkg/processor"
	"github.com/Carbaz/ai-technical-challenge/pkg/store"
)

var ErrNotDirectory = errors.New("sources path is not a valid folder")

// EmbedderFactory builds the embedding client. It is only called when there
// is something to embed.
type EmbedderFactory func(ctx context.Context) (embeddings.Embedder, error)

// Deps is built once per process and shared by every run.
type Deps struct {
	Loader      *loader.Loader
	Extractor   types.Extractor
	Processor   *processor.Processor
	Gateway     *store.Gateway
	NewEmbedder EmbedderFactory
	Level       models.ProcessingLevel
	Workers     int
	// OnFile is called once per file when it is done, from worker
	// goroutines.
	OnFile func(path string, err error)
	Logger *slog.Logger
}

type Result struct {
	Files   int
	Skipped int
	Chunks  int
	Stored  int
}

type Pipeline struct {
	deps Deps
}

func New(deps Deps) (*Pipeline, error) {
	if deps.Loader == nil || deps.Extractor == nil || deps.Processor == nil || deps.Gateway == nil || deps.NewEmbedder == nil {
		return nil, errors.New("pipeline needs a loader, extractor, processor, gateway and embedder factory")
	}
	if deps.Workers <= 0 {
		deps.Workers = 1
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.OnFile == nil {
		deps.OnFile = func(string, error) {}
	}
	return &Pipeline{deps: deps}, nil
}

type sourceFile struct {
	path string
	pdf  bool
}

// Files lists what EmbedDirectory would process under dir, in processing
// order.
func (p *Pipeline) Files(dir string) ([]string, error) {
	files, err := p.scan(dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

func (p *Pipeline) scan(dir string) ([]sourceFile, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %q", ErrNotDirectory, dir)
	}

	texts, err := p.deps.Loader.Scan(dir, p.deps.Loader.Patterns()...)
	if err != nil {
		return nil, err
	}
	pdfs, err := p.deps.Loader.Scan(dir, loader.PDFPatterns...)
	if err != nil {
		return nil, err
	}

	files := make([]sourceFile, 0, len(texts)+len(pdfs))
	for _, path := range texts {
		files = append(files, sourceFile{path: path})
	}
	for _, path := range pdfs {
		files = append(files, sourceFile{path: path, pdf: true})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })
	return files, nil
}

// EmbedDirectory ingests every supported file under dir, tags each chunk with
// metadata and stores all of them in one batched write at the end. Files that
// fail are logged and skipped. A directory with nothing to embed returns
// without building an embedder or touching the store.
func (p *Pipeline) EmbedDirectory(ctx context.Context, dir string, metadata map[string]any) (Result, error) {
	log := p.deps.Logger.With("dir", dir)

	files, err := p.scan(dir)
	if err != nil {
		return Result{}, err
	}
	res := Result{Files: len(files)}
	log.Info("starting ingestion", "files", len(files), "level", p.deps.Level)

	perFile := make([][]models.Document, len(files))
	var skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.deps.Workers)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chunks, err := p.processFile(gctx, file)
			p.deps.OnFile(file.path, err)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				skipped.Add(1)
				log.Warn("skipping file", "source", file.path, "error", err)
				return nil
			}
			perFile[i] = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, fmt.Errorf("ingestion aborted: %w", err)
	}
	res.Skipped = int(skipped.Load())

	var chunks []models.Document
	for _, c := range perFile {
		chunks = append(chunks, c...)
	}
	chunks = processor.UpdateMetadata(chunks, metadata)
	res.Chunks = len(chunks)

	if len(chunks) == 0 {
		log.Info("nothing to embed", "files", res.Files, "skipped", res.Skipped)
		return res, nil
	}

	embedder, err := p.deps.NewEmbedder(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to create embedder: %w", err)
	}

	stored, err := p.deps.Gateway.EmbedDocuments(ctx, chunks, embedder)
	res.Stored = stored
	if err != nil {
		return res, err
	}

	log.Info("ingestion finished", "files", res.Files, "skipped", res.Skipped, "chunks", res.Chunks)
	return res, nil
}

// processFile returns the chunks for one file. PDF pages chunked by the
// language model are only re-split when they exceed the chunk size.
func (p *Pipeline) processFile(ctx context.Context, file sourceFile) ([]models.Document, error) {
	if !file.pdf {
		docs, err := p.deps.Loader.Load(ctx, file.path)
		if err != nil {
			return nil, err
		}
		return p.deps.Processor.Process(docs)
	}

	docs, err := p.deps.Extractor.Extract(ctx, file.path)
	if err != nil {
		return nil, err
	}
	if p.deps.Level == models.LevelHigh {
		return p.deps.Processor.Fit(docs)
	}
	return p.deps.Processor.Process(docs)
}
