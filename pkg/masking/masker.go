package masking

import (
	"github.com/codeready-toolchain/docmask/pkg/pii"
)

// Masker turns a matched token into its format-preserving replacement.
type Masker interface {
	// Category returns the PII category this masker handles.
	Category() pii.Category

	// Mask returns the masked form of text.
	// Returns the input unchanged when it cannot be transformed.
	Mask(text string) string
}

// MaskFunc adapts a plain function to the Masker interface.
type MaskFunc func(text string) string

type funcMasker struct {
	category pii.Category
	fn       MaskFunc
}

func (m funcMasker) Category() pii.Category { return m.category }

func (m funcMasker) Mask(text string) string { return m.fn(text) }

// NewMasker wraps fn as the Masker for category c.
func NewMasker(c pii.Category, fn MaskFunc) Masker {
	return funcMasker{category: c, fn: fn}
}

// maskers is the dispatch table keyed by category.
var maskers = map[pii.Category]MaskFunc{
	pii.CategoryEmail:         MaskEmail,
	pii.CategoryPhone:         MaskPhone,
	pii.CategorySSN:           MaskSSN,
	pii.CategoryCreditCard:    maskKeepLast4,
	pii.CategoryBankAccount:   maskKeepLast4,
	pii.CategoryRoutingNumber: maskKeepLast4,
}

// Mask returns the masked replacement for text classified as c.
// Unknown categories return text unchanged.
func Mask(text string, c pii.Category) string {
	fn, ok := maskers[c]
	if !ok {
		return text
	}
	return fn(text)
}

// For returns the Masker registered for c.
func For(c pii.Category) (Masker, bool) {
	fn, ok := maskers[c]
	if !ok {
		return nil, false
	}
	return NewMasker(c, fn), true
}

// Changed reports whether masking altered the text.
func Changed(original, masked string) bool {
	return original != masked
}
