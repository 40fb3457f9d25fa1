package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/Carbaz/ai-technical-challenge/internal/logging"
)

var (
	// ErrSchema is returned when the model answer does not have the expected
	// {"chunks": [{"page_content": ...}]} shape.
	ErrSchema = errors.New("llm response does not match the chunk schema")

	// ErrFileUnreadable is returned by a Model when the input file cannot be
	// read. It is never retried.
	ErrFileUnreadable = errors.New("file could not be read")
)

// Model sends a prompt together with a file to a language model and returns
// the raw JSON answer.
type Model interface {
	GenerateJSON(ctx context.Context, prompt, path string) (string, error)
}

type ChunkerConfig struct {
	ChunkSize     int
	ChunkOverlap  int
	RateLimit     float64 // requests per second
	MaxRetries    int
	RetryInterval time.Duration
	Timeout       time.Duration
	Logger        *slog.Logger
}

// Chunker asks a language model to split whole files into retrieval chunks.
type Chunker struct {
	config  ChunkerConfig
	model   Model
	limiter *rate.Limiter
}

func NewChunker(model Model, config ChunkerConfig) *Chunker {
	if config.ChunkSize <= 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap < 0 {
		config.ChunkOverlap = 0
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 1
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Minute
	}
	if config.Logger == nil {
		config.Logger = logging.Discard()
	}

	return &Chunker{
		config:  config,
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// ChunkFile returns the chunks the model proposes for the file at path.
// Failed calls and malformed answers are retried up to MaxRetries times.
func (c *Chunker) ChunkFile(ctx context.Context, path string) ([]string, error) {
	prompt := ChunkPrompt(c.config.ChunkSize, c.config.ChunkOverlap)
	logger := c.config.Logger.With("source", path)

	var chunks []string
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()

		raw, err := c.model.GenerateJSON(callCtx, prompt, path)
		if err != nil {
			if errors.Is(err, ErrFileUnreadable) {
				return backoff.Permanent(err)
			}
			return err
		}

		chunks, err = ParseChunks(raw)
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.RetryInterval
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.config.MaxRetries)), ctx)

	logger.Info("chunking with llm")
	err := backoff.RetryNotify(operation, retry, func(err error, wait time.Duration) {
		logger.Warn("llm chunking failed, retrying", "error", err, "wait", wait)
	})
	if err != nil {
		return nil, fmt.Errorf("llm chunking of %s: %w", path, err)
	}
	return chunks, nil
}

type chunkResponse struct {
	Chunks *[]struct {
		PageContent *string `json:"page_content"`
	} `json:"chunks"`
}

// ParseChunks validates a model answer and returns the chunk texts in order.
func ParseChunks(raw string) ([]string, error) {
	var resp chunkResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}
	if resp.Chunks == nil {
		return nil, fmt.Errorf("%w: missing chunks", ErrSchema)
	}

	chunks := make([]string, 0, len(*resp.Chunks))
	for i, item := range *resp.Chunks {
		if item.PageContent == nil {
			return nil, fmt.Errorf("%w: chunk %d has no page_content", ErrSchema, i)
		}
		chunks = append(chunks, *item.PageContent)
	}
	return chunks, nil
}
