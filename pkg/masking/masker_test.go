package masking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/docmask/pkg/pii"
)

func TestMask(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		category pii.Category
		want     string
	}{
		{name: "email", input: "john.doe@example.com", category: pii.CategoryEmail, want: "j*******@example.com"},
		{name: "email single char local part", input: "a@example.com", category: pii.CategoryEmail, want: "a@example.com"},
		{name: "email leading at", input: "@example.com", category: pii.CategoryEmail, want: "@example.com"},
		{name: "email without at", input: "john.doe", category: pii.CategoryEmail, want: "john.doe"},
		{name: "email multi-byte local part", input: "élodie@example.fr", category: pii.CategoryEmail, want: "é*****@example.fr"},
		{name: "phone dashed", input: "555-123-4567", category: pii.CategoryPhone, want: "***-***-4567"},
		{name: "phone parens", input: "(555) 123-4567", category: pii.CategoryPhone, want: "(***) ***-4567"},
		{name: "phone country code", input: "+1-555-123-4567", category: pii.CategoryPhone, want: "+*-***-***-4567"},
		{name: "phone too few digits", input: "555-1234", category: pii.CategoryPhone, want: "555-1234"},
		{name: "ssn", input: "123-45-6789", category: pii.CategorySSN, want: "***-**-6789"},
		{name: "ssn wrong shape", input: "123456789", category: pii.CategorySSN, want: "123456789"},
		{name: "credit card", input: "4532015112830366", category: pii.CategoryCreditCard, want: "************0366"},
		{name: "credit card with separators", input: "4111-1111-1111-1111", category: pii.CategoryCreditCard, want: "************1111"},
		{name: "bank account", input: "12345678", category: pii.CategoryBankAccount, want: "****5678"},
		{name: "routing number", input: "021000021", category: pii.CategoryRoutingNumber, want: "*****0021"},
		{name: "short digit run fully masked", input: "1234", category: pii.CategoryBankAccount, want: "****"},
		{name: "no digits unchanged", input: "n/a", category: pii.CategoryRoutingNumber, want: "n/a"},
		{name: "empty", input: "", category: pii.CategoryCreditCard, want: ""},
		{name: "unknown category", input: "secret", category: pii.Category("passport"), want: "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Mask(tt.input, tt.category))
		})
	}
}

func TestMaskPhonePreservesLayout(t *testing.T) {
	inputs := []string{"555-123-4567", "(555) 123-4567", "555.123.4567", "+1 555 123 4567", "5551234567"}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			out := MaskPhone(in)
			require.Equal(t, len([]rune(in)), len([]rune(out)))

			outRunes := []rune(out)
			for i, r := range []rune(in) {
				if r >= '0' && r <= '9' {
					assert.True(t, outRunes[i] == MaskChar || outRunes[i] == r, "position %d", i)
				} else {
					assert.Equal(t, r, outRunes[i], "separator moved at %d", i)
				}
			}
			assert.Equal(t, in[len(in)-4:], out[len(out)-4:])
			assert.Equal(t, pii.CountDigits(in)-4, strings.Count(out, "*"))
		})
	}
}

func TestMaskIsIdempotentForStructuredRules(t *testing.T) {
	tests := []struct {
		input    string
		category pii.Category
	}{
		{"john.doe@example.com", pii.CategoryEmail},
		{"555-123-4567", pii.CategoryPhone},
		{"123-45-6789", pii.CategorySSN},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			once := Mask(tt.input, tt.category)
			assert.Equal(t, once, Mask(once, tt.category))
		})
	}
}

func TestMaskedOutputNoLongerClassifies(t *testing.T) {
	reg := pii.NewRegistry(pii.AllCategorySet())
	inputs := []string{
		"john.doe@example.com",
		"555-123-4567",
		"123-45-6789",
		"4532015112830366",
		"12345678",
		"12345678901234567",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			cat, ok := reg.Classify(in)
			require.True(t, ok)

			masked := Mask(in, cat)
			require.True(t, Changed(in, masked))

			got, ok := reg.Classify(masked)
			if ok {
				// Only the email rule still matches its own output; masking it again is a no-op.
				assert.Equal(t, pii.CategoryEmail, got)
				assert.Equal(t, masked, Mask(masked, got))
			}
		})
	}
}

func TestFor(t *testing.T) {
	m, ok := For(pii.CategorySSN)
	require.True(t, ok)
	assert.Equal(t, pii.CategorySSN, m.Category())
	assert.Equal(t, "***-**-6789", m.Mask("123-45-6789"))

	_, ok = For(pii.Category("unknown"))
	assert.False(t, ok)
}

func TestMaskDigitsKeep(t *testing.T) {
	assert.Equal(t, "******", MaskDigits("123456", 0))
	assert.Equal(t, "****56", MaskDigits("12-34-56", 2))
	assert.Equal(t, "***", MaskDigits("123", -1))
}
