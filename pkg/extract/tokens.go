package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/codeready-toolchain/docmask/pkg/redaction"
)

// ErrUnsupportedFormat indicates an input file type with no extractor.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// tokenJSON accepts either an object with flat coordinates or the tuple
// form [x0, y0, x1, y1, "text", block, line, word].
type tokenJSON redaction.Token

func (t *tokenJSON) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return t.unmarshalTuple(data)
	}

	var obj struct {
		X0    float64         `json:"x0"`
		Y0    float64         `json:"y0"`
		X1    float64         `json:"x1"`
		Y1    float64         `json:"y1"`
		BBox  *redaction.Rect `json:"bbox"`
		Text  *string         `json:"text"`
		Block int             `json:"block"`
		Line  int             `json:"line"`
		Word  int             `json:"word"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Text == nil {
		return errors.New("token is missing text")
	}
	box := redaction.Rect{X0: obj.X0, Y0: obj.Y0, X1: obj.X1, Y1: obj.Y1}
	if obj.BBox != nil {
		box = *obj.BBox
	}
	*t = tokenJSON{Text: *obj.Text, BBox: box, Block: obj.Block, Line: obj.Line, Word: obj.Word}
	return nil
}

func (t *tokenJSON) unmarshalTuple(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) < 5 {
		return fmt.Errorf("token tuple has %d elements, want at least 5", len(raw))
	}
	var coords [4]float64
	for i := range coords {
		if err := json.Unmarshal(raw[i], &coords[i]); err != nil {
			return fmt.Errorf("token tuple element %d: %w", i, err)
		}
	}
	var text string
	if err := json.Unmarshal(raw[4], &text); err != nil {
		return fmt.Errorf("token tuple text: %w", err)
	}
	var nums [3]int
	for i := 0; i < 3 && 5+i < len(raw); i++ {
		if err := json.Unmarshal(raw[5+i], &nums[i]); err != nil {
			return fmt.Errorf("token tuple element %d: %w", 5+i, err)
		}
	}
	*t = tokenJSON{
		Text:  text,
		BBox:  redaction.Rect{X0: coords[0], Y0: coords[1], X1: coords[2], Y1: coords[3]},
		Block: nums[0],
		Line:  nums[1],
		Word:  nums[2],
	}
	return nil
}

type pageJSON struct {
	Number int              `json:"number"`
	Tokens []tokenJSON      `json:"tokens"`
	Spans  []redaction.Span `json:"spans"`
}

type documentJSON struct {
	Name  string     `json:"name"`
	Pages []pageJSON `json:"pages"`
}

// DecodeTokens reads a token document. Pages without a number are numbered
// by position starting at 1.
func DecodeTokens(r io.Reader) (redaction.Document, error) {
	var in documentJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&in); err != nil {
		return redaction.Document{}, fmt.Errorf("failed to decode token document: %w", err)
	}

	doc := redaction.Document{Name: in.Name, Pages: make([]redaction.Page, 0, len(in.Pages))}
	for i, p := range in.Pages {
		page := redaction.Page{Number: p.Number, Spans: p.Spans}
		if page.Number == 0 {
			page.Number = i + 1
		}
		page.Tokens = make([]redaction.Token, len(p.Tokens))
		for j, tok := range p.Tokens {
			page.Tokens[j] = redaction.Token(tok)
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}

// LoadFile extracts a document from a .pdf or .json file.
func LoadFile(ctx context.Context, path string, spans bool) (redaction.Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		ex := NewPDFExtractor()
		ex.Spans = spans
		return ex.ExtractFile(ctx, path)
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return redaction.Document{}, err
		}
		defer f.Close()
		doc, err := DecodeTokens(f)
		if err != nil {
			return redaction.Document{}, err
		}
		if doc.Name == "" {
			doc.Name = path
		}
		return doc, nil
	default:
		return redaction.Document{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}
