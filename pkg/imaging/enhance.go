// Package imaging prepares images extracted from PDFs for OCR.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// ContrastFactor is the contrast boost applied by Enhance.
const ContrastFactor = 2.0

// Enhance flattens any transparency onto white, converts to 8-bit grayscale
// and doubles the contrast around the mean luminance. It never modifies img.
func Enhance(img image.Image) *image.Gray {
	b := img.Bounds()

	flat := image.NewRGBA(b)
	draw.Draw(flat, b, image.White, image.Point{}, draw.Src)
	draw.Draw(flat, b, img, b.Min, draw.Over)

	gray := image.NewGray(b)
	draw.Draw(gray, b, flat, b.Min, draw.Src)

	return adjustContrast(gray, ContrastFactor)
}

// adjustContrast blends gray with a flat image of its mean luminance:
// out = mean + factor*(in-mean), truncated and clamped to [0, 255].
func adjustContrast(gray *image.Gray, factor float64) *image.Gray {
	b := gray.Bounds()
	if b.Empty() {
		return gray
	}

	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += float64(gray.GrayAt(x, y).Y)
		}
	}
	mean := float64(int(sum/float64(b.Dx()*b.Dy()) + 0.5))

	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := int(mean + factor*(float64(gray.GrayAt(x, y).Y)-mean))
			out.Pix[out.PixOffset(x, y)] = clamp8(v)
		}
	}
	return out
}

func clamp8(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}

// EncodePNG encodes img as PNG, the format handed to the OCR engine.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
