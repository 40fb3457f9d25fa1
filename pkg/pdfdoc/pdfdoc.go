// Package pdfdoc reads the text layer and the embedded images of PDF pages.
//
// Text comes from ledongthuc/pdf. Images come from pdfcpu, which renders
// every image XObject to an encoded container (PNG, JPEG, TIFF, JPX) so that
// the standard image decoders can read it.
package pdfdoc

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/unicode/norm"

	"github.com/Carbaz/ai-technical-challenge/internal/models"
)

// File is an open PDF. It is not safe for concurrent use.
type File struct {
	path   string
	file   *os.File
	reader *pdf.Reader

	imagesOnce sync.Once
	images     map[int][]model.Image
	imagesErr  error
}

func Open(path string) (*File, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	return &File{path: path, file: f, reader: r}, nil
}

func (d *File) Path() string {
	return d.path
}

func (d *File) NumPages() int {
	return d.reader.NumPage()
}

// PageText returns the text layer of page n (1-based).
func (d *File) PageText(n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read text of page %d: %v", n, r)
		}
	}()

	page := d.reader.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("failed to read text of page %d: %w", n, err)
	}
	return norm.NFC.String(text), nil
}

// PageImages lists the images of page n in natural resource name order
// (Im2 before Im10). Decoding is deferred to Image.Load.
func (d *File) PageImages(n int) ([]*Image, error) {
	d.imagesOnce.Do(d.loadImages)
	if d.imagesErr != nil {
		return nil, d.imagesErr
	}

	raw := d.images[n]
	images := make([]*Image, len(raw))
	for i, img := range raw {
		images[i] = &Image{
			raw:    img,
			page:   n,
			index:  i + 1,
			source: filepath.Base(d.path),
		}
	}
	return images, nil
}

func (d *File) loadImages() {
	f, err := os.Open(d.path)
	if err != nil {
		d.imagesErr = fmt.Errorf("failed to open pdf %s: %w", d.path, err)
		return
	}
	defer f.Close()

	defer func() {
		if r := recover(); r != nil {
			d.imagesErr = fmt.Errorf("failed to extract images from %s: %v", d.path, r)
		}
	}()

	pages, err := api.ExtractImagesRaw(f, nil, model.NewDefaultConfiguration())
	if err != nil {
		d.imagesErr = fmt.Errorf("failed to extract images from %s: %w", d.path, err)
		return
	}

	d.images = make(map[int][]model.Image)
	for _, page := range pages {
		for _, img := range page {
			d.images[img.PageNr] = append(d.images[img.PageNr], img)
		}
	}
	for _, imgs := range d.images {
		sort.SliceStable(imgs, func(i, j int) bool {
			if imgs[i].Name != imgs[j].Name {
				return naturalLess(imgs[i].Name, imgs[j].Name)
			}
			return imgs[i].ObjNr < imgs[j].ObjNr
		})
	}
}

// naturalLess compares names with digit runs taken as numbers.
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		da, db := isDigit(a[0]), isDigit(b[0])
		switch {
		case da && db:
			na, ra := splitDigits(a)
			nb, rb := splitDigits(b)
			if na != nb {
				// longer run of significant digits is the larger number
				ta, tb := strings.TrimLeft(na, "0"), strings.TrimLeft(nb, "0")
				if len(ta) != len(tb) {
					return len(ta) < len(tb)
				}
				if ta != tb {
					return ta < tb
				}
				return len(na) < len(nb)
			}
			a, b = ra, rb
		case a[0] != b[0]:
			return a[0] < b[0]
		default:
			a, b = a[1:], b[1:]
		}
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func splitDigits(s string) (digits, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func (d *File) Close() error {
	return d.file.Close()
}

// Image is one embedded image of a page.
type Image struct {
	raw    model.Image
	page   int
	index  int
	source string
}

func (i *Image) Name() string {
	return i.raw.Name
}

// Load reads the rendered image bytes.
func (i *Image) Load() (img models.PageImage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read image %s: %v", i.raw.Name, r)
		}
	}()

	if i.raw.Reader == nil {
		return models.PageImage{}, fmt.Errorf("image %s has no data", i.raw.Name)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, i.raw.Reader); err != nil {
		return models.PageImage{}, fmt.Errorf("failed to read image %s: %w", i.raw.Name, err)
	}

	return models.PageImage{
		Data:       buf.Bytes(),
		PageNumber: i.page,
		ImageIndex: i.index,
		SourceName: i.source,
		Name:       i.raw.Name,
		Format:     i.raw.FileType,
		Width:      i.raw.Width,
		Height:     i.raw.Height,
	}, nil
}
