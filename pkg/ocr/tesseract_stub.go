//go:build !ocr

package ocr

import "context"

// Tesseract is a stub used when OCR support is not compiled in.
type Tesseract struct{}

// NewTesseract always returns ErrOCRNotEnabled in this build.
func NewTesseract(TesseractConfig) (*Tesseract, error) {
	return nil, ErrOCRNotEnabled
}

func (t *Tesseract) Recognize(context.Context, []byte) (string, error) {
	return "", ErrOCRNotEnabled
}
