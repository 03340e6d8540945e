// Package extract turns source files into redaction documents.
package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/codeready-toolchain/docmask/pkg/redaction"
)

// defaultPageHeight is US Letter in points, used when MediaBox is missing.
const defaultPageHeight = 792

// PDFExtractor groups positioned glyphs into word tokens and line spans.
// Output boxes use a top-left origin.
type PDFExtractor struct {
	// WordGap is the horizontal gap, as a multiple of font size, that starts a new word.
	WordGap float64
	// RowTolerance is the baseline difference in points still treated as one line.
	RowTolerance float64
	// Spans also emits one span per line, with per-rune boxes.
	Spans bool
}

// NewPDFExtractor returns an extractor with defaults suited to body text.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{
		WordGap:      0.25,
		RowTolerance: 2.0,
	}
}

// ExtractFile opens and extracts the PDF at path.
func (e *PDFExtractor) ExtractFile(ctx context.Context, path string) (redaction.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return redaction.Document{}, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	return e.extract(ctx, r, path)
}

// Extract reads a PDF of the given size from ra.
func (e *PDFExtractor) Extract(ctx context.Context, ra io.ReaderAt, size int64, name string) (redaction.Document, error) {
	r, err := pdf.NewReader(ra, size)
	if err != nil {
		return redaction.Document{}, fmt.Errorf("failed to read PDF %s: %w", name, err)
	}
	return e.extract(ctx, r, name)
}

func (e *PDFExtractor) extract(ctx context.Context, r *pdf.Reader, name string) (redaction.Document, error) {
	doc := redaction.Document{Name: name}
	n := r.NumPage()
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return redaction.Document{}, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		page, err := e.page(i, p)
		if err != nil {
			slog.Warn("Skipping unreadable PDF page", "document", name, "page", i, "error", err)
			continue
		}
		doc.Pages = append(doc.Pages, page)
	}
	slog.Debug("PDF extracted", "document", name, "pages", len(doc.Pages))
	return doc, nil
}

// page recovers from parser panics on malformed content streams.
func (e *PDFExtractor) page(num int, p pdf.Page) (page redaction.Page, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("content stream: %v", rec)
		}
	}()
	return e.PageFromGlyphs(num, p.Content().Text, pageHeight(p)), nil
}

func pageHeight(p pdf.Page) float64 {
	box := p.V.Key("MediaBox")
	if box.IsNull() {
		box = p.V.Key("Parent").Key("MediaBox")
	}
	if box.Len() == 4 {
		if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
			return h
		}
	}
	return defaultPageHeight
}

type glyph struct {
	text pdf.Text
	box  redaction.Rect
}

// PageFromGlyphs groups glyphs into lines and words for page num.
func (e *PDFExtractor) PageFromGlyphs(num int, texts []pdf.Text, height float64) redaction.Page {
	page := redaction.Page{Number: num}
	for lineNo, row := range e.rows(texts) {
		var (
			words []redaction.Token
			cur   *redaction.Token
			last  *glyph
			span  redaction.Span
		)
		flush := func() {
			if cur != nil && cur.Text != "" {
				cur.Word = len(words)
				words = append(words, *cur)
			}
			cur = nil
		}

		for i := range row {
			g := glyph{text: row[i], box: glyphBox(row[i], height)}
			isSpace := strings.TrimSpace(g.text.S) == ""

			if cur != nil && (isSpace || e.gap(last, &g)) {
				flush()
				if span.Text != "" {
					appendRunes(&span, " ", redaction.Rect{})
				}
			}
			if isSpace {
				last = &g
				continue
			}
			if cur == nil {
				cur = &redaction.Token{Line: lineNo, BBox: g.box}
			}
			cur.Text += g.text.S
			cur.BBox = cur.BBox.Union(g.box)
			appendRunes(&span, g.text.S, g.box)
			last = &g
		}
		flush()

		page.Tokens = append(page.Tokens, words...)
		if e.Spans && span.Text != "" {
			for _, w := range words {
				span.BBox = span.BBox.Union(w.BBox)
			}
			page.Spans = append(page.Spans, span)
		}
	}
	return page
}

// rows buckets glyphs by baseline, top line first, and sorts each row by X.
func (e *PDFExtractor) rows(texts []pdf.Text) [][]pdf.Text {
	sorted := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if t.S != "" {
			sorted = append(sorted, t)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var rows [][]pdf.Text
	rowY := math.Inf(1)
	for _, t := range sorted {
		if len(rows) == 0 || math.Abs(rowY-t.Y) > e.RowTolerance {
			rows = append(rows, nil)
			rowY = t.Y
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], t)
	}
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
	}
	return rows
}

func (e *PDFExtractor) gap(prev, next *glyph) bool {
	if prev == nil {
		return false
	}
	size := prev.text.FontSize
	if size <= 0 {
		size = 10
	}
	return next.text.X-(prev.text.X+prev.text.W) > e.WordGap*size
}

// glyphBox converts a baseline-anchored glyph into a top-left-origin box
// covering ascent and descent.
func glyphBox(t pdf.Text, pageHeight float64) redaction.Rect {
	size := t.FontSize
	if size <= 0 {
		size = 10
	}
	baseline := pageHeight - t.Y
	return redaction.Rect{
		X0: t.X,
		Y0: baseline - size*0.8,
		X1: t.X + t.W,
		Y1: baseline + size*0.2,
	}
}

// appendRunes adds s to the span, splitting box evenly across its runes.
func appendRunes(span *redaction.Span, s string, box redaction.Rect) {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return
	}
	step := box.Width() / float64(n)
	i := 0
	for _, r := range s {
		span.Text += string(r)
		if box.IsZero() || unicode.IsSpace(r) {
			span.CharBoxes = append(span.CharBoxes, redaction.Rect{})
		} else {
			x := box.X0 + step*float64(i)
			span.CharBoxes = append(span.CharBoxes, redaction.Rect{X0: x, Y0: box.Y0, X1: x + step, Y1: box.Y1})
		}
		i++
	}
}
