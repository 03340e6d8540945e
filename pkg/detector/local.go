package detector

import (
	"context"

	"github.com/codeready-toolchain/docmask/pkg/masking"
	"github.com/codeready-toolchain/docmask/pkg/pii"
)

// LocalSource finds candidates with the in-process recognizer registry.
type LocalSource struct {
	registry *pii.Registry
}

// NewLocalSource creates a source backed by registry.
func NewLocalSource(registry *pii.Registry) *LocalSource {
	return &LocalSource{registry: registry}
}

// Name returns "local".
func (s *LocalSource) Name() string { return "local" }

// Registry returns the underlying registry.
func (s *LocalSource) Registry() *pii.Registry { return s.registry }

// FindCandidates never fails.
func (s *LocalSource) FindCandidates(_ context.Context, text string) ([]Candidate, error) {
	matches := s.registry.FindAll(text)
	if len(matches) == 0 {
		return nil, nil
	}
	out := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		out = append(out, Candidate{
			Text:      m.Text,
			Masked:    masking.Mask(m.Text, m.Category),
			Category:  m.Category,
			Start:     m.Start,
			End:       m.End,
			RuneStart: m.RuneStart,
			RuneEnd:   m.RuneEnd,
		})
	}
	return out, nil
}
