package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/documentloaders"

	"github.com/Carbaz/ai-technical-challenge/internal/logging"
	"github.com/Carbaz/ai-technical-challenge/internal/models"
)

// ErrSourceIO marks a file that could not be read or decoded. Callers log it
// and move on to the next file.
var ErrSourceIO = errors.New("source file could not be loaded")

type LoaderConfig struct {
	TextPatterns []string
	HTMLPatterns []string
	Logger       *slog.Logger
}

// Loader reads text-like files (plain text, Markdown, HTML) into documents.
type Loader struct {
	config LoaderConfig
}

func NewWithConfig(config LoaderConfig) *Loader {
	if len(config.TextPatterns) == 0 {
		config.TextPatterns = TextPatterns
	}
	if len(config.HTMLPatterns) == 0 {
		config.HTMLPatterns = HTMLPatterns
	}
	if config.Logger == nil {
		config.Logger = logging.Discard()
	}
	return &Loader{config: config}
}

func New() *Loader {
	return NewWithConfig(LoaderConfig{})
}

// Patterns returns every glob the loader handles.
func (l *Loader) Patterns() []string {
	return append(append([]string{}, l.config.TextPatterns...), l.config.HTMLPatterns...)
}

// Load reads path with the loader matching its extension.
func (l *Loader) Load(ctx context.Context, path string) ([]models.Document, error) {
	var (
		doc models.Document
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		doc, err = l.LoadHTML(ctx, path)
	default:
		doc, err = l.LoadText(ctx, path)
	}
	if err != nil {
		return nil, err
	}
	if doc.IsBlank() {
		l.config.Logger.Debug("skipping empty document", "source", path)
		return nil, nil
	}
	return []models.Document{doc}, nil
}

// LoadText reads a UTF-8 text file into a single document.
func (l *Loader) LoadText(ctx context.Context, path string) (models.Document, error) {
	data, err := readUTF8(path)
	if err != nil {
		return models.Document{}, err
	}

	docs, err := documentloaders.NewText(bytes.NewReader(data)).Load(ctx)
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %s: %w", ErrSourceIO, path, err)
	}

	var content strings.Builder
	for _, d := range docs {
		content.WriteString(d.PageContent)
	}
	return models.NewDocument(content.String(), path), nil
}

// LoadDirectory loads every text and HTML file under root. Files that fail to
// load are logged and skipped; the returned error only reports a failed scan.
func (l *Loader) LoadDirectory(ctx context.Context, root string) ([]models.Document, error) {
	paths, err := l.Scan(root, l.Patterns()...)
	if err != nil {
		return nil, err
	}

	var docs []models.Document
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loaded, err := l.Load(ctx, path)
		if err != nil {
			l.config.Logger.Warn("skipping unreadable file", "source", path, "error", err)
			continue
		}
		docs = append(docs, loaded...)
	}

	l.config.Logger.Info("loaded text documents", "root", root, "files", len(paths), "documents", len(docs))
	return docs, nil
}

func readUTF8(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceIO, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrSourceIO, path)
	}
	return data, nil
}
