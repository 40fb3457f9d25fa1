package models

import (
	"errors"
	"fmt"
	"maps"
	"strings"
)

// Metadata keys set by the loaders and extractors.
const (
	MetaSource = "source"
	MetaPage   = "page"
	MetaTitle  = "title"
)

// Document is a piece of text plus the metadata describing where it came from.
// Documents are treated as values: helpers that change metadata return a copy.
type Document struct {
	Content  string
	Metadata map[string]any
}

func NewDocument(content, source string) Document {
	return Document{
		Content:  content,
		Metadata: map[string]any{MetaSource: source},
	}
}

func (d Document) Source() string {
	if s, ok := d.Metadata[MetaSource].(string); ok {
		return s
	}
	return ""
}

// IsBlank reports whether the document has nothing but whitespace.
func (d Document) IsBlank() bool {
	return strings.TrimSpace(d.Content) == ""
}

// WithMetadata returns a copy of d whose metadata is d's merged with extra.
// Keys in extra win.
func (d Document) WithMetadata(extra map[string]any) Document {
	meta := make(map[string]any, len(d.Metadata)+len(extra))
	maps.Copy(meta, d.Metadata)
	maps.Copy(meta, extra)
	return Document{Content: d.Content, Metadata: meta}
}

// WithContent returns a copy of d carrying content and a copy of d's metadata.
func (d Document) WithContent(content string) Document {
	return Document{Content: content, Metadata: maps.Clone(d.Metadata)}
}

// PageImage is a raster image pulled out of a PDF page. It only lives for the
// duration of the OCR pass.
type PageImage struct {
	Data       []byte
	PageNumber int
	ImageIndex int
	SourceName string
	Name       string

	// Format is the container of Data: "png", "jpg", "tif" or "jpx".
	Format string
	Width  int
	Height int
}

// Record is what the vector store persists for each chunk.
type Record struct {
	ID       string
	Content  string
	Vector   []float32
	Metadata map[string]any
}

type ProcessingLevel string

const (
	LevelLow    ProcessingLevel = "LOW"
	LevelMedium ProcessingLevel = "MEDIUM"
	LevelHigh   ProcessingLevel = "HIGH"
)

var ErrInvalidProcessingLevel = errors.New("invalid PDF processing level")

// ParseProcessingLevel accepts LOW, MEDIUM or HIGH in any letter case.
func ParseProcessingLevel(s string) (ProcessingLevel, error) {
	switch lvl := ProcessingLevel(strings.ToUpper(strings.TrimSpace(s))); lvl {
	case LevelLow, LevelMedium, LevelHigh:
		return lvl, nil
	default:
		return "", fmt.Errorf("%w: %q (want LOW, MEDIUM or HIGH)", ErrInvalidProcessingLevel, s)
	}
}

func (l ProcessingLevel) String() string {
	return string(l)
}
