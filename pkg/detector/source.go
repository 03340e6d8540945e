// Package detector provides candidate sources for span-level PII detection.
// The local source is backed by the recognizer registry. Remote sources are
// reached over gRPC and are always wrapped in a Fallback so that any remote
// failure degrades to local detection.
package detector

import (
	"context"
	"errors"

	"github.com/codeready-toolchain/docmask/pkg/pii"
)

// ErrMalformedResponse indicates a remote source returned unusable candidates.
var ErrMalformedResponse = errors.New("malformed detector response")

// Candidate is a PII occurrence located inside a span of text.
// Start and End are byte offsets into the scanned text.
type Candidate struct {
	Text      string
	Masked    string
	Category  pii.Category
	Start     int
	End       int
	RuneStart int
	RuneEnd   int
}

// Source finds PII candidates inside a text span.
type Source interface {
	// Name identifies the source in logs.
	Name() string

	// FindCandidates returns non-overlapping candidates ordered by position.
	FindCandidates(ctx context.Context, text string) ([]Candidate, error)
}
