package loader

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Carbaz/ai-technical-challenge/internal/models"
)

const blockSelector = "h1, h2, h3, h4, h5, h6, p, li, pre, blockquote, td, th, dt, dd, figcaption"

// LoadHTML reads an HTML file and keeps its visible text, one block per
// paragraph.
func (l *Loader) LoadHTML(_ context.Context, path string) (models.Document, error) {
	data, err := readUTF8(path)
	if err != nil {
		return models.Document{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %s: %w", ErrSourceIO, path, err)
	}

	title := cleanContent(doc.Find("title").First().Text())
	content := extractMainContent(doc)

	result := models.NewDocument(content, path)
	if title != "" {
		result = result.WithMetadata(map[string]any{models.MetaTitle: title})
	}
	return result, nil
}

func extractMainContent(doc *goquery.Document) string {
	doc.Find("script, style, noscript, template, nav, footer").Remove()

	// Try to find main content area
	selection := doc.Find("body")
	for _, selector := range []string{"main", "article", ".content", "#content"} {
		if selected := doc.Find(selector); selected.Length() > 0 {
			selection = selected.First()
			break
		}
	}

	var blocks []string
	selection.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		// leaf blocks only, nested ones are visited on their own
		if s.Find(blockSelector).Length() > 0 {
			return
		}
		if text := cleanContent(s.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})

	if len(blocks) == 0 {
		return cleanContent(selection.Text())
	}
	return strings.Join(blocks, "\n\n")
}

func cleanContent(content string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(content), " "))
}
