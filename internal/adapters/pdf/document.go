// Package pdf exposes the positioned text of PDF pages as fragments for the
// row extractor.
package pdf

import (
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/okian/bandboard/internal/domain/model"
	"github.com/okian/bandboard/pkg/metrics"
)

const (
	// sameLine is how far apart two glyph baselines may be and still share a fragment.
	sameLine = 0.5
	// gapRatio is the horizontal gap, relative to font size, that starts a new fragment.
	gapRatio = 0.25
)

// Document is an open PDF file.
type Document struct {
	f *os.File
	r *lpdf.Reader
}

// newReader parses the cross-reference table of an open file.
var newReader = lpdf.NewReader

// Open opens the PDF at path. The caller must Close it. The file is closed
// again when parsing fails or panics.
func Open(path string) (doc *Document, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPdfOpen, path, err)
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %s: %v", ErrPdfOpen, path, p)
		}
		if err != nil {
			_ = f.Close()
			doc = nil
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPdfOpen, path, err)
	}
	r, err := newReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPdfOpen, path, err)
	}
	return &Document{f: f, r: r}, nil
}

// NumPages returns the page count.
func (d *Document) NumPages() int { return d.r.NumPage() }

// PageFragments returns the word fragments of page i, counted from 1.
func (d *Document) PageFragments(i int) (frags []model.TextFragment, err error) {
	defer func() {
		if p := recover(); p != nil {
			frags, err = nil, fmt.Errorf("%w: page %d: %v", ErrPdfPage, i, p)
		}
	}()
	page := d.r.Page(i)
	if page.V.IsNull() {
		return nil, fmt.Errorf("%w: page %d is missing", ErrPdfPage, i)
	}
	content := page.Content()
	metrics.RecordPdfPage()
	return mergeGlyphs(content.Text), nil
}

// Close releases the underlying file.
func (d *Document) Close() error {
	return d.f.Close()
}

// mergeGlyphs joins consecutive glyphs into word fragments. A fragment ends at
// whitespace, a baseline or font size change, or a horizontal gap.
func mergeGlyphs(glyphs []lpdf.Text) []model.TextFragment {
	var (
		out  []model.TextFragment
		cur  strings.Builder
		head lpdf.Text
		end  float64
	)
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		out = append(out, model.TextFragment{
			Text:   cur.String(),
			X:      head.X,
			Y:      head.Y,
			Height: head.FontSize,
		})
		cur.Reset()
	}

	for _, g := range glyphs {
		if strings.TrimFunc(g.S, unicode.IsSpace) == "" {
			flush()
			continue
		}
		if cur.Len() > 0 {
			gap := g.X - end
			if math.Abs(g.Y-head.Y) > sameLine ||
				g.FontSize != head.FontSize ||
				gap > g.FontSize*gapRatio ||
				gap < -g.FontSize {
				flush()
			}
		}
		if cur.Len() == 0 {
			head = g
		}
		cur.WriteString(g.S)
		end = g.X + g.W
	}
	flush()
	return out
}
