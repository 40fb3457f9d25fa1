//go:build ocr

package ocr_test

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carbaz/ai-technical-challenge/pkg/imaging"
	"github.com/Carbaz/ai-technical-challenge/pkg/ocr"
)

func TestTesseractBlankImage(t *testing.T) {
	engine, err := ocr.NewTesseract(ocr.TesseractConfig{})
	require.NoError(t, err)

	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = color.White.Y
	}
	data, err := imaging.EncodePNG(img)
	require.NoError(t, err)

	text, err := engine.Recognize(context.Background(), data)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestTesseractCancelled(t *testing.T) {
	engine, err := ocr.NewTesseract(ocr.TesseractConfig{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = engine.Recognize(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
