package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/Carbaz/ai-technical-challenge/internal/models"
	"github.com/Carbaz/ai-technical-challenge/pkg/llm"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Check runs Validate and folds the result into a single error wrapping
// ErrInvalidConfig.
func (c *Config) Check() error {
	validationErrs := c.Validate()
	if len(validationErrs) == 0 {
		return nil
	}
	errs := make([]error, len(validationErrs))
	for i, e := range validationErrs {
		errs[i] = e
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate Log config
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unknown log level %q", c.Log.Level),
		})
	}

	if c.Log.Format != "text" && c.Log.Format != "json" {
		errors = append(errors, ValidationError{
			Field:   "log.format",
			Message: "format must be text or json",
		})
	}

	// Validate PDF config
	level, err := models.ParseProcessingLevel(c.PDF.ProcessingLevel)
	if err != nil {
		errors = append(errors, ValidationError{
			Field:   "pdf.processing_level",
			Message: err.Error(),
		})
	}

	if c.PDF.Workers < 1 {
		errors = append(errors, ValidationError{
			Field:   "pdf.workers",
			Message: "workers must be positive",
		})
	}

	// Validate Processor config
	if c.Processor.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "processor.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Processor.ChunkOverlap < 0 || c.Processor.ChunkOverlap >= c.Processor.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "processor.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	if c.Pipeline.Workers < 1 {
		errors = append(errors, ValidationError{
			Field:   "pipeline.workers",
			Message: "workers must be positive",
		})
	}

	// Validate Embedding config
	if c.Embedding.Provider != "openai" && c.Embedding.Provider != "ollama" {
		errors = append(errors, ValidationError{
			Field:   "embedding.provider",
			Message: "provider must be openai or ollama",
		})
	}

	if c.Embedding.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.Embedding.BaseURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "embedding.base_url",
				Message: "invalid embedding base URL",
			})
		}
	}

	if c.Embedding.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedding.batch_size",
			Message: "batch_size must be positive",
		})
	}

	// Validate LLM config. The key is only needed when semantic chunking runs.
	if level == models.LevelHigh && c.LLM.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.api_key",
			Message: "api_key is required for HIGH processing level",
		})
	}

	if c.LLM.BaseURL != "" {
		if _, err := llm.GeminiEndpoint(c.LLM.BaseURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "base_url must be a Gemini endpoint (host:port or https://host)",
			})
		}
	}

	if c.LLM.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	if c.LLM.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_retries",
			Message: "max_retries must not be negative",
		})
	}

	// Validate Store config
	switch c.Store.Backend {
	case "pgvector":
		if c.Store.URL == "" && c.Store.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "store.url",
				Message: "either url or host is required for pgvector",
			})
		}
		if c.Store.URL != "" {
			if _, err := url.Parse(c.Store.URL); err != nil {
				errors = append(errors, ValidationError{
					Field:   "store.url",
					Message: "invalid database URL",
				})
			}
		}
	case "sqlite":
		if c.Store.Path == "" {
			errors = append(errors, ValidationError{
				Field:   "store.path",
				Message: "path is required for sqlite",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "store.backend",
			Message: "backend must be pgvector or sqlite",
		})
	}

	if !identifierPattern.MatchString(c.Store.TableName) {
		errors = append(errors, ValidationError{
			Field:   "store.table_name",
			Message: fmt.Sprintf("invalid table name %q", c.Store.TableName),
		})
	}

	if c.Store.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "store.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	if c.Store.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "store.batch_size",
			Message: "batch_size must be positive",
		})
	}

	return errors
}
