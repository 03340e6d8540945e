package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/docmask/pkg/redaction"
)

func TestDecodeTokens(t *testing.T) {
	input := `{
		"name": "letter",
		"pages": [
			{
				"number": 2,
				"tokens": [
					{"x0": 10, "y0": 20, "x1": 60, "y1": 32, "text": "123-45-6789", "block": 1, "line": 2, "word": 3},
					[70, 20, 140, 32, "john@example.com", 1, 2, 4],
					{"bbox": {"x0": 1, "y0": 2, "x1": 3, "y1": 4}, "text": "nested"}
				],
				"spans": [{"text": "call 555-123-4567", "bbox": {"x0": 0, "y0": 0, "x1": 100, "y1": 10}}]
			},
			{"tokens": [[0, 0, 1, 1, "x"]]}
		]
	}`

	doc, err := DecodeTokens(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "letter", doc.Name)
	require.Len(t, doc.Pages, 2)

	p := doc.Pages[0]
	assert.Equal(t, 2, p.Number)
	require.Len(t, p.Tokens, 3)
	assert.Equal(t, redaction.Token{
		Text:  "123-45-6789",
		BBox:  redaction.Rect{X0: 10, Y0: 20, X1: 60, Y1: 32},
		Block: 1, Line: 2, Word: 3,
	}, p.Tokens[0])
	assert.Equal(t, "john@example.com", p.Tokens[1].Text)
	assert.Equal(t, redaction.Rect{X0: 70, Y0: 20, X1: 140, Y1: 32}, p.Tokens[1].BBox)
	assert.Equal(t, 4, p.Tokens[1].Word)
	assert.Equal(t, redaction.Rect{X0: 1, Y0: 2, X1: 3, Y1: 4}, p.Tokens[2].BBox)
	require.Len(t, p.Spans, 1)
	assert.Equal(t, "call 555-123-4567", p.Spans[0].Text)

	assert.Equal(t, 2, doc.Pages[1].Number, "missing page numbers follow position")
	assert.Equal(t, "x", doc.Pages[1].Tokens[0].Text)
}

func TestDecodeTokensErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: "nope"},
		{name: "short tuple", input: `{"pages":[{"tokens":[[1,2,3]]}]}`},
		{name: "tuple text not a string", input: `{"pages":[{"tokens":[[1,2,3,4,5]]}]}`},
		{name: "object without text", input: `{"pages":[{"tokens":[{"x0":1}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTokens(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "doc.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"pages":[{"tokens":[[0,0,1,1,"hi"]]}]}`), 0o600))

		doc, err := LoadFile(context.Background(), path, false)
		require.NoError(t, err)
		assert.Equal(t, path, doc.Name)
		require.Len(t, doc.Pages, 1)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := LoadFile(context.Background(), filepath.Join(dir, "doc.docx"), false)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("missing json file", func(t *testing.T) {
		_, err := LoadFile(context.Background(), filepath.Join(dir, "absent.json"), false)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

// glyphs lays out s as fixed-width glyphs starting at x on baseline y.
func glyphs(s string, x, y, size float64) []pdf.Text {
	var out []pdf.Text
	for _, r := range s {
		out = append(out, pdf.Text{Font: "Helvetica", FontSize: size, X: x, Y: y, W: size * 0.5, S: string(r)})
		x += size * 0.5
	}
	return out
}

func TestPageFromGlyphs(t *testing.T) {
	var texts []pdf.Text
	// Second line first to check ordering by baseline.
	texts = append(texts, glyphs("SSN 123-45-6789", 72, 680, 10)...)
	texts = append(texts, glyphs("Email:", 72, 700, 10)...)
	// Word separated by a gap rather than a space glyph.
	texts = append(texts, glyphs("a@b.io", 72+6*5+20, 700, 10)...)

	ex := NewPDFExtractor()
	ex.Spans = true
	page := ex.PageFromGlyphs(1, texts, 792)

	require.Len(t, page.Tokens, 4)
	assert.Equal(t, "Email:", page.Tokens[0].Text)
	assert.Equal(t, "a@b.io", page.Tokens[1].Text)
	assert.Equal(t, "SSN", page.Tokens[2].Text)
	assert.Equal(t, "123-45-6789", page.Tokens[3].Text)

	assert.Equal(t, 0, page.Tokens[0].Line)
	assert.Equal(t, 1, page.Tokens[1].Word)
	assert.Equal(t, 1, page.Tokens[3].Line)

	ssn := page.Tokens[3].BBox
	assert.InDelta(t, 72+4*5, ssn.X0, 1e-9)
	assert.InDelta(t, 72+15*5, ssn.X1, 1e-9)
	assert.InDelta(t, 792-680-8, ssn.Y0, 1e-9)
	assert.InDelta(t, 792-680+2, ssn.Y1, 1e-9)

	require.Len(t, page.Spans, 2)
	assert.Equal(t, "Email: a@b.io", page.Spans[0].Text)
	assert.Equal(t, "SSN 123-45-6789", page.Spans[1].Text)
	assert.Len(t, page.Spans[1].CharBoxes, len([]rune(page.Spans[1].Text)))
	assert.True(t, page.Spans[1].CharBoxes[3].IsZero(), "space has no box")
}

func TestPageFromGlyphsFeedsRedactor(t *testing.T) {
	texts := glyphs("Phone 555-123-4567", 50, 500, 12)
	ex := NewPDFExtractor()
	ex.Spans = true
	page := ex.PageFromGlyphs(1, texts, 792)

	r := redaction.NewRedactor()
	ds, err := r.ProcessPage(context.Background(), page)
	require.NoError(t, err)

	// The word token and the line span cover the same glyphs.
	require.Len(t, page.Tokens, 2)
	require.Len(t, page.Spans, 1)
	require.Len(t, ds, 1)
	assert.Equal(t, "***-***-4567", ds[0].MaskedText)
	assert.InDelta(t, page.Tokens[1].BBox.X0, ds[0].BBox.X0, 1e-9)
	assert.InDelta(t, page.Tokens[1].BBox.X1, ds[0].BBox.X1, 1e-9)

	t.Run("without spans the token is redacted", func(t *testing.T) {
		ex.Spans = false
		page := ex.PageFromGlyphs(1, glyphs("SSN 123-45-6789", 50, 500, 12), 792)
		ds, err := r.ProcessPage(context.Background(), page)
		require.NoError(t, err)
		require.Len(t, ds, 1)
		assert.Equal(t, "***-**-6789", ds[0].MaskedText)
	})
}

func TestPageFromGlyphsEmpty(t *testing.T) {
	page := NewPDFExtractor().PageFromGlyphs(3, nil, 792)
	assert.Equal(t, 3, page.Number)
	assert.Empty(t, page.Tokens)
	assert.Empty(t, page.Spans)
}
