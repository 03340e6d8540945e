package redaction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/docmask/pkg/detector"
	"github.com/codeready-toolchain/docmask/pkg/pii"
)

var box = Rect{X0: 10, Y0: 100, X1: 90, Y1: 112}

func TestProcess(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name     string
		text     string
		wantCat  pii.Category
		wantMask string
		emitted  bool
	}{
		{name: "email", text: "john.doe@example.com", wantCat: pii.CategoryEmail, wantMask: "j*******@example.com", emitted: true},
		{name: "phone", text: "555-123-4567", wantCat: pii.CategoryPhone, wantMask: "***-***-4567", emitted: true},
		{name: "ssn", text: "123-45-6789", wantCat: pii.CategorySSN, wantMask: "***-**-6789", emitted: true},
		{name: "credit card", text: "4532015112830366", wantCat: pii.CategoryCreditCard, wantMask: "************0366", emitted: true},
		{name: "short number", text: "12345"},
		{name: "excluded word", text: "Confidential"},
		{name: "single char email local part is unchanged", text: "a@example.com"},
		{name: "already masked ssn", text: "***-**-6789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := r.Process(Token{Text: tt.text, BBox: box})
			require.Equal(t, tt.emitted, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantCat, d.Category)
			assert.Equal(t, tt.text, d.OriginalText)
			assert.Equal(t, tt.wantMask, d.MaskedText)
			assert.Equal(t, box, d.BBox)
			assert.Nil(t, d.Span)
		})
	}
}

func TestProcessSelectedCategories(t *testing.T) {
	r := NewRedactor(WithCategories(pii.NewCategorySet(pii.CategoryEmail)))

	_, ok := r.Process(Token{Text: "555-123-4567", BBox: box})
	assert.False(t, ok)

	d, ok := r.Process(Token{Text: "john.doe@example.com", BBox: box})
	require.True(t, ok)
	assert.Equal(t, pii.CategoryEmail, d.Category)
}

func TestProcessIsIdempotent(t *testing.T) {
	r := NewRedactor()
	for _, text := range []string{"john.doe@example.com", "555-123-4567", "123-45-6789", "4111111111111111", "12345678"} {
		t.Run(text, func(t *testing.T) {
			d, ok := r.Process(Token{Text: text})
			require.True(t, ok)
			_, again := r.Process(Token{Text: d.MaskedText})
			assert.False(t, again)
		})
	}
}

func TestProcessSpan(t *testing.T) {
	r := NewRedactor()
	text := "Call 555-123-4567 now"

	t.Run("char boxes narrow the cover", func(t *testing.T) {
		chars := make([]Rect, len([]rune(text)))
		for i := range chars {
			x := float64(i) * 5
			chars[i] = Rect{X0: x, Y0: 0, X1: x + 5, Y1: 10}
		}
		ds, err := r.ProcessSpan(context.Background(), 3, Span{Text: text, BBox: Rect{X1: 200, Y1: 10}, CharBoxes: chars})
		require.NoError(t, err)
		require.Len(t, ds, 1)

		d := ds[0]
		assert.Equal(t, 3, d.Page)
		assert.Equal(t, "***-***-4567", d.MaskedText)
		require.NotNil(t, d.Span)
		assert.Equal(t, SpanRef{Start: 5, End: 17}, *d.Span)
		assert.Equal(t, Rect{X0: 25, Y0: 0, X1: 85, Y1: 10}, d.BBox)
	})

	t.Run("span box without char boxes", func(t *testing.T) {
		spanBox := Rect{X0: 1, Y0: 2, X1: 300, Y1: 14}
		ds, err := r.ProcessSpan(context.Background(), 1, Span{Text: text, BBox: spanBox})
		require.NoError(t, err)
		require.Len(t, ds, 1)
		assert.Equal(t, spanBox, ds[0].BBox)
	})
}

type failingSource struct{}

func (failingSource) Name() string { return "failing" }

func (failingSource) FindCandidates(context.Context, string) ([]detector.Candidate, error) {
	return nil, errors.New("boom")
}

func TestProcessSpanSourceError(t *testing.T) {
	r := NewRedactor(WithSource(failingSource{}))
	_, err := r.ProcessSpan(context.Background(), 1, Span{Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing")
}

func TestProcessDocument(t *testing.T) {
	var pages []Page
	for i := 1; i <= 12; i++ {
		pages = append(pages, Page{
			Number: i,
			Tokens: []Token{
				{Text: "Name:", BBox: box},
				{Text: fmt.Sprintf("user%d@example.com", i), BBox: box},
				{Text: "123-45-6789", BBox: box},
			},
			Spans: []Span{{Text: "card 4111111111111111 on file"}},
		})
	}
	doc := Document{Name: "statement.pdf", Pages: pages}

	res, err := NewRedactor(WithWorkers(4)).ProcessDocument(context.Background(), doc)
	require.NoError(t, err)

	require.Len(t, res.Pages, 12)
	for i, p := range res.Pages {
		assert.Equal(t, i+1, p.Number, "page order is preserved")
		require.Len(t, p.Directives, 3)
		assert.Equal(t, pii.CategoryEmail, p.Directives[0].Category)
		assert.Equal(t, pii.CategorySSN, p.Directives[1].Category)
		assert.Equal(t, pii.CategoryCreditCard, p.Directives[2].Category)
		for _, d := range p.Directives {
			assert.Equal(t, p.Number, d.Page)
		}
	}
	assert.Equal(t, 36, res.Total)
	assert.Equal(t, 12, res.Counts[pii.CategorySSN])
	assert.Len(t, res.Directives(), 36)
	assert.Equal(t, "statement.pdf", res.Document)
}

func TestProcessDocumentLogsPageSummary(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	doc := Document{Pages: []Page{
		{Number: 1, Tokens: []Token{{Text: "123-45-6789", BBox: box}}},
		{Number: 2, Tokens: []Token{{Text: "Hello", BBox: box}}},
	}}
	_, err := NewRedactor(WithWorkers(2)).ProcessDocument(context.Background(), doc)
	require.NoError(t, err)

	logs := buf.String()
	assert.Contains(t, logs, `msg="Processing page" page=1 directives=1`)
	assert.Contains(t, logs, `msg="Processing page" page=2 directives=0`)
	assert.Contains(t, logs, `masked_text=***-**-6789 category=ssn`)
	assert.NotContains(t, logs, "123-45-6789")
	assert.Less(t, strings.Index(logs, "page=1"), strings.Index(logs, "page=2"), "pages are logged in order")
}

func TestProcessDocumentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := Document{Pages: []Page{{Number: 1, Tokens: []Token{{Text: "123-45-6789"}}}}}
	_, err := NewRedactor().ProcessDocument(ctx, doc)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessDocumentEmpty(t *testing.T) {
	res, err := NewRedactor().ProcessDocument(context.Background(), Document{})
	require.NoError(t, err)
	assert.Empty(t, res.Pages)
	assert.Zero(t, res.Total)
}

func TestRedactText(t *testing.T) {
	r := NewRedactor()

	t.Run("replaces every match", func(t *testing.T) {
		in := "Email john.doe@example.com, SSN 123-45-6789.\nCard: 4532015112830366"
		out, ds, err := r.RedactText(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, "Email j*******@example.com, SSN ***-**-6789.\nCard: ************0366", out)
		require.Len(t, ds, 3)
		assert.Equal(t, &SpanRef{Start: 6, End: 26}, ds[0].Span)
		assert.True(t, ds[0].BBox.IsZero())
	})

	t.Run("no matches returns input", func(t *testing.T) {
		in := "Nothing to see. Sincerely, Bob"
		out, ds, err := r.RedactText(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
		assert.Empty(t, ds)
	})

	t.Run("selected categories only", func(t *testing.T) {
		emailOnly := NewRedactor(WithCategories(pii.NewCategorySet(pii.CategoryEmail)))
		out, _, err := emailOnly.RedactText(context.Background(), "a.b@c.io 555-123-4567")
		require.NoError(t, err)
		assert.Equal(t, "a**@c.io 555-123-4567", out)
	})
}

func TestProcessPageDropsTokensCoveredBySpans(t *testing.T) {
	ssnBox := Rect{X0: 40, Y0: 100, X1: 95, Y1: 112}
	charBoxes := make([]Rect, len("SSN 123-45-6789"))
	for i := range charBoxes {
		x := 20 + float64(i)*5
		charBoxes[i] = Rect{X0: x, Y0: 100, X1: x + 5, Y1: 112}
	}
	page := Page{
		Number: 1,
		Tokens: []Token{
			{Text: "SSN", BBox: Rect{X0: 20, Y0: 100, X1: 35, Y1: 112}},
			{Text: "123-45-6789", BBox: ssnBox},
			{Text: "a@b.io", BBox: Rect{X0: 200, Y0: 100, X1: 230, Y1: 112}},
		},
		Spans: []Span{{Text: "SSN 123-45-6789", BBox: Rect{X0: 20, Y0: 100, X1: 95, Y1: 112}, CharBoxes: charBoxes}},
	}

	ds, err := NewRedactor().ProcessPage(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, ds, 2)

	assert.Equal(t, pii.CategoryEmail, ds[0].Category, "token outside any span directive is kept")
	assert.Equal(t, pii.CategorySSN, ds[1].Category)
	assert.Nil(t, ds[0].Span)
	assert.NotNil(t, ds[1].Span, "the span directive wins")
}

func TestRectOverlaps(t *testing.T) {
	a := Rect{X0: 0, Y0: 0, X1: 10, Y1: 10}
	assert.True(t, a.Overlaps(Rect{X0: 5, Y0: 5, X1: 15, Y1: 15}))
	assert.False(t, a.Overlaps(Rect{X0: 10, Y0: 0, X1: 20, Y1: 10}), "touching edges do not overlap")
	assert.False(t, a.Overlaps(Rect{}))
}

func TestRectUnion(t *testing.T) {
	a := Rect{X0: 1, Y0: 1, X1: 2, Y1: 2}
	b := Rect{X0: 0, Y0: 1.5, X1: 3, Y1: 4}
	assert.Equal(t, Rect{X0: 0, Y0: 1, X1: 3, Y1: 4}, a.Union(b))
	assert.Equal(t, a, Rect{}.Union(a))
	assert.Equal(t, a, a.Union(Rect{}))
}
