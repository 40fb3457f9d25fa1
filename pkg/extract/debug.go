package extract

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carbaz/ai-technical-challenge/internal/logging"
	"github.com/Carbaz/ai-technical-challenge/pkg/imaging"
)

// DebugWriter dumps every OCRed image, before and after enhancement, next to
// the recognized text.
type DebugWriter struct {
	dir    string
	logger *slog.Logger
}

func NewDebugWriter(dir string, logger *slog.Logger) (*DebugWriter, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create OCR debug directory: %w", err)
	}
	return &DebugWriter{dir: dir, logger: logger}, nil
}

// Save writes <file>_page_<n>_img_<m>.png, ..._enhanced.png and ....txt.
// Failures are logged and otherwise ignored.
func (w *DebugWriter) Save(source string, page, index int, original, enhanced image.Image, text string) {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	prefix := filepath.Join(w.dir, fmt.Sprintf("%s_page_%d_img_%d", base, page, index))

	for path, img := range map[string]image.Image{
		prefix + ".png":          original,
		prefix + "_enhanced.png": enhanced,
	} {
		data, err := imaging.EncodePNG(img)
		if err == nil {
			err = os.WriteFile(path, data, 0o644)
		}
		if err != nil {
			w.logger.Warn("failed to save OCR debug image", "path", path, "error", err)
		}
	}

	if err := os.WriteFile(prefix+".txt", []byte(text), 0o644); err != nil {
		w.logger.Warn("failed to save OCR debug text", "path", prefix+".txt", "error", err)
	}
}
