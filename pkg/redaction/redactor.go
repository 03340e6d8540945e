package redaction

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/codeready-toolchain/docmask/pkg/detector"
	"github.com/codeready-toolchain/docmask/pkg/masking"
	"github.com/codeready-toolchain/docmask/pkg/pii"
	"github.com/codeready-toolchain/docmask/pkg/telemetry"
)

const instrumentationName = "github.com/codeready-toolchain/docmask/pkg/redaction"

var (
	tracer = telemetry.Tracer(instrumentationName)
	meter  = telemetry.Meter(instrumentationName)
)

// Redactor classifies and masks tokens and spans. It holds no per-document
// state and is safe for concurrent use.
type Redactor struct {
	registry *pii.Registry
	source   detector.Source
	workers  int
	render   RenderConfig

	directives metric.Int64Counter
}

// Option configures a Redactor.
type Option func(*Redactor)

// WithCategories restricts detection to set.
func WithCategories(set pii.CategorySet) Option {
	return func(r *Redactor) {
		r.registry = pii.NewRegistry(set)
	}
}

// WithSource sets the candidate source used for span scanning. The default
// is a local source over the redactor's registry.
func WithSource(src detector.Source) Option {
	return func(r *Redactor) {
		r.source = src
	}
}

// WithWorkers bounds how many pages are processed concurrently.
func WithWorkers(n int) Option {
	return func(r *Redactor) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithRender sets the render configuration.
func WithRender(cfg RenderConfig) Option {
	return func(r *Redactor) {
		r.render = cfg
	}
}

// NewRedactor creates a redactor. Without options every category is active.
func NewRedactor(opts ...Option) *Redactor {
	r := &Redactor{
		registry: pii.NewRegistry(pii.AllCategorySet()),
		workers:  runtime.NumCPU(),
		render:   DefaultRenderConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.source == nil {
		r.source = detector.NewLocalSource(r.registry)
	}

	counter, err := meter.Int64Counter("docmask.directives",
		metric.WithDescription("Redaction directives emitted"))
	if err != nil {
		slog.Warn("Failed to create directives counter", "error", err)
	}
	r.directives = counter
	return r
}

// Registry returns the registry used for token classification.
func (r *Redactor) Registry() *pii.Registry { return r.registry }

// RenderConfig returns the render configuration.
func (r *Redactor) RenderConfig() RenderConfig { return r.render }

// SourceName returns the name of the candidate source used for spans.
func (r *Redactor) SourceName() string { return r.source.Name() }

// Process classifies a single token and returns a directive when masking
// changes its text. The bounding box is passed through untouched.
func (r *Redactor) Process(tok Token) (Directive, bool) {
	cat, ok := r.registry.Classify(tok.Text)
	if !ok {
		return Directive{}, false
	}
	masked := masking.Mask(tok.Text, cat)
	if !masking.Changed(tok.Text, masked) {
		return Directive{}, false
	}
	return Directive{
		Category:     cat,
		OriginalText: tok.Text,
		MaskedText:   masked,
		BBox:         tok.BBox,
	}, true
}

// ProcessSpan scans a span and returns one directive per masked candidate.
// When the span carries per-rune boxes the directive covers only the
// matched runes; otherwise it covers the whole span.
func (r *Redactor) ProcessSpan(ctx context.Context, page int, span Span) ([]Directive, error) {
	cands, err := r.source.FindCandidates(ctx, span.Text)
	if err != nil {
		return nil, fmt.Errorf("candidate source %s: %w", r.source.Name(), err)
	}

	var out []Directive
	for _, c := range cands {
		if !masking.Changed(c.Text, c.Masked) {
			continue
		}
		out = append(out, Directive{
			Page:         page,
			Category:     c.Category,
			OriginalText: c.Text,
			MaskedText:   c.Masked,
			BBox:         spanBox(span, c.RuneStart, c.RuneEnd),
			Span:         &SpanRef{Start: c.RuneStart, End: c.RuneEnd},
		})
	}
	return out, nil
}

func spanBox(span Span, start, end int) Rect {
	if end > len(span.CharBoxes) || start >= end {
		return span.BBox
	}
	var box Rect
	for _, b := range span.CharBoxes[start:end] {
		box = box.Union(b)
	}
	if box.IsZero() {
		return span.BBox
	}
	return box
}

// ProcessPage returns token directives first, then span directives, each in
// input order. A token directive already covered by a span directive is dropped.
func (r *Redactor) ProcessPage(ctx context.Context, page Page) ([]Directive, error) {
	var spanDirectives []Directive
	for _, span := range page.Spans {
		ds, err := r.ProcessSpan(ctx, page.Number, span)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page.Number, err)
		}
		spanDirectives = append(spanDirectives, ds...)
	}

	var out []Directive
	for _, tok := range page.Tokens {
		d, ok := r.Process(tok)
		if !ok || coveredBy(d, spanDirectives) {
			continue
		}
		d.Page = page.Number
		out = append(out, d)
	}
	return append(out, spanDirectives...), nil
}

// coveredBy reports whether a span directive already redacts the same text
// at the same place as d. Extractors emit words and the line they form from
// the same glyphs.
func coveredBy(d Directive, spanDirectives []Directive) bool {
	for _, sd := range spanDirectives {
		if sd.OriginalText == d.OriginalText && sd.BBox.Overlaps(d.BBox) {
			return true
		}
	}
	return false
}

// ProcessDocument processes pages concurrently and returns directives grouped
// by page in document order.
func (r *Redactor) ProcessDocument(ctx context.Context, doc Document) (*Result, error) {
	ctx, span := tracer.Start(ctx, "redaction.process_document")
	defer span.End()

	pages := make([]PageResult, len(doc.Pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, p := range doc.Pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ds, err := r.ProcessPage(gctx, p)
			if err != nil {
				return err
			}
			pages[i] = PageResult{Number: p.Number, Directives: ds}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	res := &Result{
		Document: doc.Name,
		Pages:    pages,
		Counts:   make(map[pii.Category]int),
	}
	// Page summaries are logged after the fan-in so they come out in page
	// order. Original text is never logged.
	for _, p := range pages {
		slog.Info("Processing page", "page", p.Number, "directives", len(p.Directives))
		for _, d := range p.Directives {
			res.Counts[d.Category]++
			res.Total++
			slog.Info("Masked", "page", p.Number, "masked_text", d.MaskedText, "category", d.Category.String())
		}
	}
	r.record(ctx, res.Counts)

	span.SetAttributes(
		attribute.Int("redaction.pages", len(pages)),
		attribute.Int("redaction.directives", res.Total),
		attribute.String("redaction.source", r.source.Name()),
	)
	return res, nil
}

// RedactText scans a whole text and returns it with every candidate replaced
// by its mask, together with the directives applied.
func (r *Redactor) RedactText(ctx context.Context, text string) (string, []Directive, error) {
	ctx, span := tracer.Start(ctx, "redaction.redact_text")
	defer span.End()

	cands, err := r.source.FindCandidates(ctx, text)
	if err != nil {
		span.RecordError(err)
		return "", nil, fmt.Errorf("candidate source %s: %w", r.source.Name(), err)
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Start < cands[j].Start })

	var (
		b          strings.Builder
		directives []Directive
		cursor     int
		counts     = make(map[pii.Category]int)
	)
	b.Grow(len(text))
	for _, c := range cands {
		if c.Start < cursor || !masking.Changed(c.Text, c.Masked) {
			continue
		}
		b.WriteString(text[cursor:c.Start])
		b.WriteString(c.Masked)
		cursor = c.End

		directives = append(directives, Directive{
			Category:     c.Category,
			OriginalText: c.Text,
			MaskedText:   c.Masked,
			Span:         &SpanRef{Start: c.RuneStart, End: c.RuneEnd},
		})
		counts[c.Category]++
	}
	b.WriteString(text[cursor:])
	r.record(ctx, counts)

	span.SetAttributes(attribute.Int("redaction.directives", len(directives)))
	return b.String(), directives, nil
}

// Render returns the render instruction for d.
func (r *Redactor) Render(d Directive) RenderInstruction {
	return r.render.Instruction(d)
}

func (r *Redactor) record(ctx context.Context, counts map[pii.Category]int) {
	if r.directives == nil {
		return
	}
	for cat, n := range counts {
		r.directives.Add(ctx, int64(n), metric.WithAttributes(attribute.String("category", cat.String())))
	}
}
