// Package redaction turns extracted document text into redaction directives.
package redaction

import (
	"math"

	"github.com/codeready-toolchain/docmask/pkg/pii"
)

// Rect is an axis-aligned box in page coordinates with a top-left origin.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// IsZero reports whether r is the zero rectangle.
func (r Rect) IsZero() bool { return r == Rect{} }

// Union returns the smallest rectangle covering r and o. A zero rectangle
// is treated as empty.
func (r Rect) Union(o Rect) Rect {
	if r.IsZero() {
		return o
	}
	if o.IsZero() {
		return r
	}
	return Rect{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}

// Overlaps reports whether r and o share an area. Zero rectangles overlap
// nothing.
func (r Rect) Overlaps(o Rect) bool {
	if r.IsZero() || o.IsZero() {
		return false
	}
	return r.X0 < o.X1 && o.X0 < r.X1 && r.Y0 < o.Y1 && o.Y0 < r.Y1
}

// Token is a word-level unit of extracted text.
type Token struct {
	Text  string `json:"text"`
	BBox  Rect   `json:"bbox"`
	Block int    `json:"block"`
	Line  int    `json:"line"`
	Word  int    `json:"word"`
}

// Span is a run of text that may hold several PII occurrences.
// CharBoxes, when present, holds one box per rune of Text.
type Span struct {
	Text      string `json:"text"`
	BBox      Rect   `json:"bbox"`
	CharBoxes []Rect `json:"char_boxes,omitempty"`
}

// Page groups the tokens and spans extracted from one page.
type Page struct {
	Number int     `json:"number"`
	Tokens []Token `json:"tokens,omitempty"`
	Spans  []Span  `json:"spans,omitempty"`
}

// Document is an ordered list of pages.
type Document struct {
	Name  string `json:"name,omitempty"`
	Pages []Page `json:"pages"`
}

// SpanRef locates a match inside a span or text by rune offsets.
type SpanRef struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Directive tells a renderer to replace OriginalText with MaskedText.
// It is only produced when the two differ.
type Directive struct {
	Page         int          `json:"page"`
	Category     pii.Category `json:"category"`
	OriginalText string       `json:"original_text"`
	MaskedText   string       `json:"masked_text"`
	BBox         Rect         `json:"bbox"`
	Span         *SpanRef     `json:"span,omitempty"`
}

// PageResult holds the directives produced for one page.
type PageResult struct {
	Number     int         `json:"number"`
	Directives []Directive `json:"directives"`
}

// Result is the outcome of processing a whole document.
type Result struct {
	Document string               `json:"document,omitempty"`
	Pages    []PageResult         `json:"pages"`
	Counts   map[pii.Category]int `json:"counts"`
	Total    int                  `json:"total"`
}

// Directives returns every directive in page order.
func (r *Result) Directives() []Directive {
	var out []Directive
	for _, p := range r.Pages {
		out = append(out, p.Directives...)
	}
	return out
}

// CountByCategory tallies directives per category.
func CountByCategory(ds []Directive) map[pii.Category]int {
	counts := make(map[pii.Category]int)
	for _, d := range ds {
		counts[d.Category]++
	}
	return counts
}
