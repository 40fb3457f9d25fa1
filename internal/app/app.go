// Package app wires configuration into the components shared by the command
// line tools.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"

	"github.com/Carbaz/ai-technical-challenge/internal/logging"
	"github.com/Carbaz/ai-technical-challenge/internal/models"
	"github.com/Carbaz/ai-technical-challenge/internal/types"
	"github.com/Carbaz/ai-technical-challenge/pkg/config"
	"github.com/Carbaz/ai-technical-challenge/pkg/extract"
	"github.com/Carbaz/ai-technical-challenge/pkg/llm"
	"github.com/Carbaz/ai-technical-challenge/pkg/loader"
	"github.com/Carbaz/ai-technical-challenge/pkg/ocr"
	"github.com/Carbaz/ai-technical-challenge/pkg/pipeline"
	"github.com/Carbaz/ai-technical-challenge/pkg/processor"
	"github.com/Carbaz/ai-technical-challenge/pkg/store"
)

// Setup loads and checks the configuration and builds the logger. Any error
// here is a configuration error and happens before I/O on sources or store.
func Setup(configPath string, logOut io.Writer, override func(*config.Config)) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Check(); err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, logOut)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("configuration loaded", "config", fmt.Sprintf("%+v", cfg.Redacted()))
	return cfg, logger, nil
}

// OpenStore connects to the configured vector store.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (types.VectorStore, error) {
	return store.Open(ctx, store.Config{
		Backend:   cfg.Store.Backend,
		ConnStr:   cfg.Store.DSN(),
		Path:      cfg.Store.Path,
		TableName: cfg.Store.TableName,
		VectorDim: cfg.Store.VectorDim,
		Logger:    logger,
	})
}

// storeRetries bounds retries of a failed batch write.
const storeRetries = 3

func NewGateway(vs types.VectorStore, cfg *config.Config, logger *slog.Logger) *store.Gateway {
	return store.NewGateway(vs, store.GatewayConfig{
		BatchSize:  cfg.Store.BatchSize,
		MaxRetries: storeRetries,
		Logger:     logger,
	})
}

// Ingestion holds a ready pipeline and what must be released after the run.
type Ingestion struct {
	Pipeline *pipeline.Pipeline
	closers  []io.Closer
}

func (in *Ingestion) Close() error {
	var errs []error
	for i := len(in.closers) - 1; i >= 0; i-- {
		errs = append(errs, in.closers[i].Close())
	}
	return errors.Join(errs...)
}

// NewIngestion builds the extractor for the configured processing level and
// the pipeline around it. onFile may be nil.
func NewIngestion(ctx context.Context, cfg *config.Config, gateway *store.Gateway, logger *slog.Logger, onFile func(string, error)) (*Ingestion, error) {
	level, err := models.ParseProcessingLevel(cfg.PDF.ProcessingLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	in := &Ingestion{}
	deps := extract.Deps{Workers: cfg.PDF.Workers, Logger: logger}

	switch level {
	case models.LevelMedium:
		engine, err := ocr.NewTesseract(ocr.TesseractConfig{Language: cfg.PDF.OCRLanguage})
		if err != nil {
			return nil, err
		}
		deps.OCR = engine
		if cfg.PDF.OCRDebug {
			debug, err := extract.NewDebugWriter(cfg.PDF.OCRDebugDir, logger)
			if err != nil {
				return nil, err
			}
			deps.Debug = debug
		}
	case models.LevelHigh:
		model, err := llm.NewGeminiModel(ctx, llm.GeminiConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
		if err != nil {
			return nil, err
		}
		in.closers = append(in.closers, model)
		deps.Chunker = llm.NewChunker(model, llm.ChunkerConfig{
			ChunkSize:    cfg.Processor.ChunkSize,
			ChunkOverlap: cfg.Processor.ChunkOverlap,
			RateLimit:    cfg.LLM.RateLimit,
			MaxRetries:   cfg.LLM.MaxRetries,
			Timeout:      cfg.LLM.Timeout,
			Logger:       logger,
		})
	}

	extractor, err := extract.New(level, deps)
	if err != nil {
		in.Close()
		return nil, err
	}

	proc := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    cfg.Processor.ChunkSize,
		ChunkOverlap: cfg.Processor.ChunkOverlap,
		Logger:       logger,
	})

	p, err := pipeline.New(pipeline.Deps{
		Loader:    loader.NewWithConfig(loader.LoaderConfig{Logger: logger}),
		Extractor: extractor,
		Processor: &proc,
		Gateway:   gateway,
		NewEmbedder: func(context.Context) (embeddings.Embedder, error) {
			return llm.NewEmbedderWithConfig(llm.EmbedderConfig{
				Provider:  cfg.Embedding.Provider,
				Model:     cfg.Embedding.Model,
				BaseURL:   cfg.Embedding.BaseURL,
				APIKey:    cfg.Embedding.APIKey,
				BatchSize: cfg.Embedding.BatchSize,
			})
		},
		Level:   level,
		Workers: cfg.Pipeline.Workers,
		OnFile:  onFile,
		Logger:  logger,
	})
	if err != nil {
		in.Close()
		return nil, err
	}
	in.Pipeline = p
	return in, nil
}
