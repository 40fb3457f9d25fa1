package processor

import (
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/Carbaz/ai-technical-challenge/internal/logging"
	"github.com/Carbaz/ai-technical-challenge/internal/models"
)

type ProcessorConfig struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
	Logger       *slog.Logger
}

// Processor splits documents into chunks that carry their parent's metadata.
type Processor struct {
	config   ProcessorConfig
	splitter Splitter
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize <= 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap < 0 {
		config.ChunkOverlap = 0
	}
	if config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = config.ChunkSize / 10
	}
	if len(config.Separators) == 0 {
		config.Separators = DefaultSeparators
	}
	if config.Logger == nil {
		config.Logger = logging.Discard()
	}

	return Processor{
		config: config,
		splitter: Splitter{
			ChunkSize:    config.ChunkSize,
			ChunkOverlap: config.ChunkOverlap,
			Separators:   config.Separators,
		},
	}
}

func (p *Processor) ChunkSize() int {
	return p.config.ChunkSize
}

func (p *Processor) ChunkOverlap() int {
	return p.config.ChunkOverlap
}

// Process splits every document and returns the chunks in input order.
func (p *Processor) Process(docs []models.Document) ([]models.Document, error) {
	in := make([]schema.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.IsBlank() {
			continue
		}
		in = append(in, schema.Document{PageContent: doc.Content, Metadata: doc.Metadata})
	}

	out, err := textsplitter.SplitDocuments(p.splitter, in)
	if err != nil {
		return nil, fmt.Errorf("failed to split documents: %w", err)
	}

	chunks := make([]models.Document, 0, len(out))
	for _, d := range out {
		chunks = append(chunks, models.Document{Content: d.PageContent}.WithMetadata(d.Metadata))
	}

	p.config.Logger.Debug("split documents", "documents", len(in), "chunks", len(chunks))
	return chunks, nil
}

// Fit re-splits only the documents longer than the chunk size and passes the
// rest through untouched.
func (p *Processor) Fit(docs []models.Document) ([]models.Document, error) {
	var out []models.Document
	for _, doc := range docs {
		if doc.IsBlank() {
			continue
		}
		if len([]rune(doc.Content)) <= p.config.ChunkSize {
			out = append(out, doc)
			continue
		}
		parts, err := p.Process([]models.Document{doc})
		if err != nil {
			return nil, err
		}
		out = append(out, parts...)
	}
	return out, nil
}
