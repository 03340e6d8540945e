package detector

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/codeready-toolchain/docmask/pkg/masking"
	"github.com/codeready-toolchain/docmask/pkg/pii"
)

// Fully-qualified gRPC names of the detector service. Messages are
// google.protobuf.Struct values so no generated stubs are required.
const (
	ServiceName          = "docmask.detector.v1.Detector"
	findCandidatesMethod = "/" + ServiceName + "/FindCandidates"
)

// Request and response field names.
const (
	fieldText       = "text"
	fieldCategories = "categories"
	fieldCandidates = "candidates"
	fieldCategory   = "category"
)

func toRequest(text string, active pii.CategorySet) (*structpb.Struct, error) {
	cats := make([]any, 0, active.Len())
	for _, c := range active.Strings() {
		cats = append(cats, c)
	}
	return structpb.NewStruct(map[string]any{
		fieldText:       text,
		fieldCategories: cats,
	})
}

func fromRequest(req *structpb.Struct) (string, []string) {
	fields := req.GetFields()
	text := fields[fieldText].GetStringValue()
	var cats []string
	for _, v := range fields[fieldCategories].GetListValue().GetValues() {
		cats = append(cats, v.GetStringValue())
	}
	return text, cats
}

func toResponse(cands []Candidate) (*structpb.Struct, error) {
	list := make([]any, 0, len(cands))
	for _, c := range cands {
		list = append(list, map[string]any{
			fieldText:     c.Text,
			fieldCategory: c.Category.String(),
		})
	}
	return structpb.NewStruct(map[string]any{fieldCandidates: list})
}

// fromResponse turns untrusted remote output into located candidates. The
// remote only names strings and categories; offsets are found here and
// masks are always computed locally.
func fromResponse(text string, resp *structpb.Struct, active pii.CategorySet) ([]Candidate, error) {
	raw, ok := resp.GetFields()[fieldCandidates]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedResponse, fieldCandidates)
	}
	list := raw.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: %q is not a list", ErrMalformedResponse, fieldCandidates)
	}

	var out []Candidate
	for i, v := range list.GetValues() {
		entry := v.GetStructValue()
		if entry == nil {
			return nil, fmt.Errorf("%w: candidate %d is not an object", ErrMalformedResponse, i)
		}
		val := strings.TrimSpace(entry.GetFields()[fieldText].GetStringValue())
		if val == "" {
			return nil, fmt.Errorf("%w: candidate %d has empty text", ErrMalformedResponse, i)
		}
		cat, err := pii.ParseCategory(entry.GetFields()[fieldCategory].GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("%w: candidate %d: %v", ErrMalformedResponse, i, err)
		}
		if !active.Contains(cat) {
			continue
		}

		located := locate(text, val, cat)
		if len(located) == 0 {
			return nil, fmt.Errorf("%w: candidate %d not found in input", ErrMalformedResponse, i)
		}
		out = append(out, located...)
	}
	return resolveOverlaps(out), nil
}

// locate finds every isolated occurrence of val in text.
func locate(text, val string, cat pii.Category) []Candidate {
	var out []Candidate
	start := 0
	for {
		idx := strings.Index(text[start:], val)
		if idx < 0 {
			break
		}
		abs := start + idx
		end := abs + len(val)
		start = end
		if !pii.Isolated(text, abs, end) {
			continue
		}
		out = append(out, Candidate{
			Text:      val,
			Masked:    masking.Mask(val, cat),
			Category:  cat,
			Start:     abs,
			End:       end,
			RuneStart: utf8.RuneCountInString(text[:abs]),
			RuneEnd:   utf8.RuneCountInString(text[:end]),
		})
	}
	return out
}

// resolveOverlaps keeps the earliest-starting candidate of any overlap.
// Equal starts keep the longer candidate.
func resolveOverlaps(cands []Candidate) []Candidate {
	if len(cands) == 0 {
		return nil
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Start != cands[j].Start {
			return cands[i].Start < cands[j].Start
		}
		return cands[i].End > cands[j].End
	})
	out := make([]Candidate, 0, len(cands))
	cursor := 0
	for _, c := range cands {
		if c.Start < cursor {
			continue
		}
		out = append(out, c)
		cursor = c.End
	}
	return out
}
