package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Carbaz/ai-technical-challenge/internal/models"
)

var ErrUnsupportedImage = errors.New("unsupported image format")

// Decode turns an image pulled out of a PDF into an image.Image.
func Decode(img models.PageImage) (image.Image, error) {
	switch img.Format {
	case "jpx", "jp2":
		return nil, fmt.Errorf("%w: JPEG 2000", ErrUnsupportedImage)
	}
	if len(img.Data) == 0 {
		return nil, fmt.Errorf("image %s has no data", img.Name)
	}

	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", img.Name, err)
	}
	return decoded, nil
}
