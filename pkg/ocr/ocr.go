// Package ocr recognizes text in page images with the Tesseract engine.
//
// Tesseract support needs cgo and the Tesseract libraries, so it is only
// compiled in with the "ocr" build tag:
//
//	go build -tags ocr ./...
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr libtesseract-dev libleptonica-dev
package ocr

import "errors"

// ErrOCRNotEnabled is returned by NewTesseract when the binary was built
// without the "ocr" tag.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// PageSegModeSparseText finds as much text as possible in no particular
// order. It matches Tesseract's --psm 11.
const PageSegModeSparseText = 11

type TesseractConfig struct {
	// Language is a "+" separated list of Tesseract language codes.
	Language    string
	PageSegMode int
}

func (c *TesseractConfig) applyDefaults() {
	if c.Language == "" {
		c.Language = "eng"
	}
	if c.PageSegMode == 0 {
		c.PageSegMode = PageSegModeSparseText
	}
}
