package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carbaz/ai-technical-challenge/pkg/loader"
)

func writeFile(t *testing.T, root, rel string, data []byte) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	a := writeFile(t, root, "a.txt", []byte("a"))
	b := writeFile(t, root, "nested/deep/b.md", []byte("b"))
	writeFile(t, root, "nested/c.pdf", []byte("%PDF"))
	writeFile(t, root, "notes.txt.bak", []byte("x"))

	files, err := loader.Scan(root, loader.TextPatterns...)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, files)

	pdfs, err := loader.Scan(root, loader.PDFPatterns...)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "nested", "c.pdf")}, pdfs)
}

func TestScanInvalidPattern(t *testing.T) {
	_, err := loader.Scan(t.TempDir(), "[")
	assert.Error(t, err)
}

func TestScanMissingRoot(t *testing.T) {
	_, err := loader.Scan(filepath.Join(t.TempDir(), "missing"), loader.TextPatterns...)
	assert.Error(t, err)
}

func TestLoadText(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "doc.md", []byte("# Title\n\nBody text ñ."))

	doc, err := loader.New().LoadText(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody text ñ.", doc.Content)
	assert.Equal(t, path, doc.Source())
}

func TestLoadTextInvalidUTF8(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.txt", []byte{0xff, 0xfe, 0x00, 'a'})

	_, err := loader.New().LoadText(context.Background(), path)
	assert.ErrorIs(t, err, loader.ErrSourceIO)
}

func TestLoadDirectorySkipsBadFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "good.txt", []byte("good content"))
	writeFile(t, root, "bad.txt", []byte{0xff, 0xfe})
	writeFile(t, root, "empty.md", []byte("  \n"))
	writeFile(t, root, "page.html", []byte(`<html><head><title> Handbook </title></head>
<body><nav>menu</nav><main><h1>Policies</h1><p>Be   kind.</p><ul><li>One</li><li>Two</li></ul></main>
<script>var x = 1;</script></body></html>`))

	docs, err := loader.New().LoadDirectory(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "good content", docs[0].Content)
	assert.Equal(t, "Policies\n\nBe kind.\n\nOne\n\nTwo", docs[1].Content)
	assert.Equal(t, "Handbook", docs[1].Metadata["title"])
	assert.Equal(t, filepath.Join(root, "page.html"), docs[1].Source())
}

func TestLoadDirectoryEmpty(t *testing.T) {
	docs, err := loader.New().LoadDirectory(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, docs)
}
