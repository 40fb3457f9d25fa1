package extract_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carbaz/ai-technical-challenge/internal/models"
	"github.com/Carbaz/ai-technical-challenge/pkg/extract"
	"github.com/Carbaz/ai-technical-challenge/pkg/imaging"
)

// pngOfWidth encodes a blank image whose width identifies it to fakeOCR.
func pngOfWidth(t *testing.T, w int) []byte {
	t.Helper()
	data, err := imaging.EncodePNG(image.NewGray(image.Rect(0, 0, w, 2)))
	require.NoError(t, err)
	return data
}

type fakeImage struct {
	name    string
	data    []byte
	err     error
	explode bool
}

func (f fakeImage) Name() string { return f.name }

func (f fakeImage) Load() (models.PageImage, error) {
	if f.explode {
		panic("corrupt image stream")
	}
	if f.err != nil {
		return models.PageImage{}, f.err
	}
	return models.PageImage{Name: f.name, Data: f.data, Format: "png"}, nil
}

type fakePage struct {
	text    string
	textErr error
	images  []extract.ImageSource
}

type fakeSource struct {
	pages  []fakePage
	closed bool
}

func (s *fakeSource) NumPages() int { return len(s.pages) }

func (s *fakeSource) PageText(n int) (string, error) {
	return s.pages[n-1].text, s.pages[n-1].textErr
}

func (s *fakeSource) PageImages(n int) ([]extract.ImageSource, error) {
	return s.pages[n-1].images, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

func openerFor(src *fakeSource) extract.Opener {
	return func(context.Context, string) (extract.Source, error) {
		return src, nil
	}
}

// fakeOCR answers with the width of the image it was given and fails for
// the widths listed in fail.
type fakeOCR struct {
	mu    sync.Mutex
	calls int
	fail  map[int]bool
}

func (f *fakeOCR) Recognize(_ context.Context, data []byte) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	w := img.Bounds().Dx()
	if f.fail[w] {
		return "", fmt.Errorf("tesseract crashed on image %d", w)
	}
	return fmt.Sprintf("text of image %d", w), nil
}

type fakeChunker struct {
	mu     sync.Mutex
	calls  map[string]int
	chunks []string
	err    error
}

func (f *fakeChunker) ChunkFile(_ context.Context, path string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[path]++
	return f.chunks, f.err
}

func threeImagePage(t *testing.T) *fakeSource {
	return &fakeSource{pages: []fakePage{{
		text: "Quarterly report",
		images: []extract.ImageSource{
			fakeImage{name: "Im1", data: pngOfWidth(t, 1)},
			fakeImage{name: "Im2", data: pngOfWidth(t, 2)},
			fakeImage{name: "Im3", data: pngOfWidth(t, 3)},
		},
	}}}
}

func TestOCRSurvivesFailingImage(t *testing.T) {
	src := threeImagePage(t)
	engine := &fakeOCR{fail: map[int]bool{2: true}}

	ex, err := extract.New(models.LevelMedium, extract.Deps{Open: openerFor(src), OCR: engine, Workers: 3})
	require.NoError(t, err)

	docs, err := ex.Extract(context.Background(), "/data/acme/doc.pdf")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "Quarterly report\n\n"+
		"Text extracted from file: \"doc.pdf\" image: \"Im1\" on page 1: text of image 1\n\n"+
		"Text extracted from file: \"doc.pdf\" image: \"Im3\" on page 1: text of image 3",
		docs[0].Content)
	assert.Equal(t, "/data/acme/doc.pdf", docs[0].Source())
	assert.Equal(t, 1, docs[0].Metadata["page"])
	assert.Equal(t, 3, engine.calls)
	assert.True(t, src.closed)
}

func TestOCRIsolatesBrokenImages(t *testing.T) {
	src := &fakeSource{pages: []fakePage{{
		images: []extract.ImageSource{
			fakeImage{name: "Im1", explode: true},
			fakeImage{name: "Im2", err: errors.New("bad stream")},
			fakeImage{name: "Im3", data: []byte("not an image")},
			fakeImage{name: "Im4", data: pngOfWidth(t, 4)},
		},
	}}}
	engine := &fakeOCR{}
	ocr := extract.NewOCR(extract.Deps{Open: openerFor(src), OCR: engine, Workers: 2})

	outcomes := ocr.RecognizePage(context.Background(), "doc.pdf", 1, src.pages[0].images)
	require.Len(t, outcomes, 4)
	for i, outcome := range outcomes[:3] {
		assert.Error(t, outcome.Err, "image %d", i+1)
		assert.Empty(t, outcome.Text)
	}
	assert.NoError(t, outcomes[3].Err)
	assert.Equal(t, "text of image 4", outcomes[3].Text)
	assert.Equal(t, 1, engine.calls)

	docs, err := ocr.Extract(context.Background(), "doc.pdf")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Content, "text of image 4")
}

func TestOCRSkipsEmptyPages(t *testing.T) {
	src := &fakeSource{pages: []fakePage{
		{text: "  "},
		{text: "second", textErr: nil},
		{textErr: errors.New("bad font")},
	}}

	ex, err := extract.New(models.LevelMedium, extract.Deps{Open: openerFor(src), OCR: &fakeOCR{}})
	require.NoError(t, err)

	docs, err := ex.Extract(context.Background(), "doc.pdf")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "second", docs[0].Content)
	assert.Equal(t, 2, docs[0].Metadata["page"])
}

func TestLowLevelMakesNoModelCalls(t *testing.T) {
	src := threeImagePage(t)
	src.pages = append(src.pages, fakePage{text: "\n"}, fakePage{text: "page three"})
	engine := &fakeOCR{}
	chunker := &fakeChunker{}

	ex, err := extract.New(models.LevelLow, extract.Deps{Open: openerFor(src), OCR: engine, Chunker: chunker})
	require.NoError(t, err)

	docs, err := ex.Extract(context.Background(), "doc.pdf")
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "Quarterly report", docs[0].Content)
	assert.Equal(t, 1, docs[0].Metadata["page"])
	assert.Equal(t, "page three", docs[1].Content)
	assert.Equal(t, 3, docs[1].Metadata["page"])
	assert.Zero(t, engine.calls)
	assert.Empty(t, chunker.calls)
}

func TestMediumLevelMakesNoLLMCalls(t *testing.T) {
	engine := &fakeOCR{}
	chunker := &fakeChunker{}

	ex, err := extract.New(models.LevelMedium, extract.Deps{Open: openerFor(threeImagePage(t)), OCR: engine, Chunker: chunker})
	require.NoError(t, err)

	_, err = ex.Extract(context.Background(), "doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, 3, engine.calls)
	assert.Empty(t, chunker.calls)
}

func TestHighLevelOneCallPerFile(t *testing.T) {
	engine := &fakeOCR{}
	chunker := &fakeChunker{chunks: []string{"first chunk", "  ", "second chunk"}}

	ex, err := extract.New(models.LevelHigh, extract.Deps{OCR: engine, Chunker: chunker})
	require.NoError(t, err)

	for _, path := range []string{"a.pdf", "b.pdf"} {
		docs, err := ex.Extract(context.Background(), path)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "first chunk", docs[0].Content)
		assert.Equal(t, path, docs[1].Source())
	}

	assert.Equal(t, map[string]int{"a.pdf": 1, "b.pdf": 1}, chunker.calls)
	assert.Zero(t, engine.calls)
}

func TestHighLevelPropagatesChunkerError(t *testing.T) {
	chunker := &fakeChunker{err: errors.New("schema mismatch")}
	ex, err := extract.New(models.LevelHigh, extract.Deps{Chunker: chunker})
	require.NoError(t, err)

	_, err = ex.Extract(context.Background(), "a.pdf")
	assert.Error(t, err)
}

func TestNewValidatesDependencies(t *testing.T) {
	_, err := extract.New(models.ProcessingLevel("ULTRA"), extract.Deps{})
	assert.ErrorIs(t, err, models.ErrInvalidProcessingLevel)

	_, err = extract.New(models.LevelMedium, extract.Deps{})
	assert.Error(t, err)

	_, err = extract.New(models.LevelHigh, extract.Deps{})
	assert.Error(t, err)
}

func TestOpenFailureIsSourceIOError(t *testing.T) {
	failing := func(context.Context, string) (extract.Source, error) {
		return nil, errors.New("not a PDF file")
	}

	ex, err := extract.New(models.LevelLow, extract.Deps{Open: failing})
	require.NoError(t, err)

	_, err = ex.Extract(context.Background(), "broken.pdf")
	assert.ErrorIs(t, err, extract.ErrSourceIO)
}

func TestOpenPDFRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pdf")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	ex, err := extract.New(models.LevelLow, extract.Deps{})
	require.NoError(t, err)

	_, err = ex.Extract(context.Background(), path)
	assert.ErrorIs(t, err, extract.ErrSourceIO)
}

func TestDebugWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "debug")
	debug, err := extract.NewDebugWriter(dir, nil)
	require.NoError(t, err)

	ex, err := extract.New(models.LevelMedium, extract.Deps{
		Open:  openerFor(threeImagePage(t)),
		OCR:   &fakeOCR{},
		Debug: debug,
	})
	require.NoError(t, err)

	_, err = ex.Extract(context.Background(), "/in/report.pdf")
	require.NoError(t, err)

	for _, name := range []string{"report_page_1_img_2.png", "report_page_1_img_2_enhanced.png"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	text, err := os.ReadFile(filepath.Join(dir, "report_page_1_img_2.txt"))
	require.NoError(t, err)
	assert.Equal(t, "text of image 2", string(text))
}
