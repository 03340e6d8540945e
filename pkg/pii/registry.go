package pii

import (
	"sort"
	"unicode/utf8"
)

// Match is one accepted occurrence of PII inside a longer text.
// Start and End are byte offsets; RuneStart and RuneEnd index runes.
type Match struct {
	Text      string
	Category  Category
	Start     int
	End       int
	RuneStart int
	RuneEnd   int
}

// Registry classifies text against an ordered list of recognizers.
// A Registry is immutable and safe for concurrent use.
type Registry struct {
	recognizers []Recognizer
	active      CategorySet
}

// NewRegistry builds a registry restricted to the active categories.
// Inactive categories are never matched.
func NewRegistry(active CategorySet) *Registry {
	recs := make([]Recognizer, 0, len(builtinRecognizers))
	for _, r := range builtinRecognizers {
		if active.Contains(r.Category) {
			recs = append(recs, r)
		}
	}
	return &Registry{recognizers: recs, active: active}
}

// Categories returns the active categories in priority order.
func (r *Registry) Categories() []Category {
	return r.active.List()
}

// Active returns the set of active categories.
func (r *Registry) Active() CategorySet {
	return r.active
}

// Classify returns the first category whose match rule covers the whole of
// text and whose validator accepts it. A validator rejection moves on to
// the next category rather than ending classification.
func (r *Registry) Classify(text string) (Category, bool) {
	if text == "" {
		return "", false
	}
	for _, rec := range r.recognizers {
		if !rec.Matches(text) {
			continue
		}
		if rec.Accepts(text) {
			return rec.Category, true
		}
	}
	return "", false
}

// FindAll returns non-overlapping matches across the active categories,
// ordered by position. The earliest start wins; equal starts fall back to
// category priority.
func (r *Registry) FindAll(text string) []Match {
	type candidate struct {
		start, end int
		cat        Category
	}

	var cands []candidate
	for _, rec := range r.recognizers {
		for _, loc := range rec.find(text) {
			cands = append(cands, candidate{start: loc[0], end: loc[1], cat: rec.Category})
		}
	}
	if len(cands) == 0 {
		return nil
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].start != cands[j].start {
			return cands[i].start < cands[j].start
		}
		return cands[i].cat.rank() < cands[j].cat.rank()
	})

	matches := make([]Match, 0, len(cands))
	cursor := 0
	for _, c := range cands {
		if c.start < cursor {
			continue
		}
		matches = append(matches, Match{
			Text:      text[c.start:c.end],
			Category:  c.cat,
			Start:     c.start,
			End:       c.end,
			RuneStart: utf8.RuneCountInString(text[:c.start]),
			RuneEnd:   utf8.RuneCountInString(text[:c.end]),
		})
		cursor = c.end
	}
	return matches
}
