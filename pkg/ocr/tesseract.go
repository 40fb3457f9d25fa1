//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract is safe for concurrent use: every call gets its own client.
type Tesseract struct {
	config TesseractConfig
}

func NewTesseract(config TesseractConfig) (*Tesseract, error) {
	config.applyDefaults()

	// fail early if the language data is missing
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(strings.Split(config.Language, "+")...); err != nil {
		return nil, fmt.Errorf("failed to set OCR language %q: %w", config.Language, err)
	}

	return &Tesseract{config: config}, nil
}

// Recognize runs OCR on an encoded image (PNG, JPEG, TIFF, ...).
func (t *Tesseract) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Split(t.config.Language, "+")...); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(t.config.PageSegMode)); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}
