package extract

import (
	"context"

	"github.com/Carbaz/ai-technical-challenge/internal/models"
	"github.com/Carbaz/ai-technical-challenge/pkg/pdfdoc"
)

// Source is an opened PDF as seen by the extractors.
type Source interface {
	NumPages() int
	PageText(n int) (string, error)
	PageImages(n int) ([]ImageSource, error)
	Close() error
}

// ImageSource is a lazily loaded page image.
type ImageSource interface {
	Name() string
	Load() (models.PageImage, error)
}

// Opener opens the PDF at path.
type Opener func(ctx context.Context, path string) (Source, error)

// OpenPDF opens path with pdfdoc.
func OpenPDF(_ context.Context, path string) (Source, error) {
	f, err := pdfdoc.Open(path)
	if err != nil {
		return nil, err
	}
	return pdfSource{f}, nil
}

type pdfSource struct {
	*pdfdoc.File
}

func (s pdfSource) PageImages(n int) ([]ImageSource, error) {
	images, err := s.File.PageImages(n)
	if err != nil {
		return nil, err
	}
	out := make([]ImageSource, len(images))
	for i, img := range images {
		out[i] = img
	}
	return out, nil
}
