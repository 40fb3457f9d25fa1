package loader

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Carbaz/ai-technical-challenge/internal/logging"
)

var (
	TextPatterns = []string{"**/*.txt", "**/*.md"}
	HTMLPatterns = []string{"**/*.html", "**/*.htm"}
	PDFPatterns  = []string{"**/*.pdf"}
)

// Scan walks root and returns, sorted, the regular files whose slash-separated
// path relative to root matches any of the patterns. Unreadable entries below
// root are skipped.
func Scan(root string, patterns ...string) ([]string, error) {
	return scanFS(os.DirFS(root), root, logging.Discard(), patterns...)
}

// Scan is the package Scan logging every skipped entry.
func (l *Loader) Scan(root string, patterns ...string) ([]string, error) {
	return scanFS(os.DirFS(root), root, l.config.Logger, patterns...)
}

func scanFS(fsys fs.FS, root string, logger *slog.Logger, patterns ...string) ([]string, error) {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}

	var matches []string
	err := fs.WalkDir(fsys, ".", func(rel string, d fs.DirEntry, err error) error {
		if err != nil {
			if rel == "." {
				return err
			}
			logger.Warn("skipping unreadable path", "path", filepath.Join(root, filepath.FromSlash(rel)), "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		for _, pattern := range patterns {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				matches = append(matches, filepath.Join(root, filepath.FromSlash(rel)))
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Strings(matches)
	return matches, nil
}
