package masking

import (
	"strings"
	"unicode/utf8"

	"github.com/codeready-toolchain/docmask/pkg/pii"
)

// MaskChar replaces every hidden character.
const MaskChar = '*'

// KeepLast is how many trailing digits the digit rules leave visible.
const KeepLast = 4

// MaskEmail keeps the first character of the local part and masks the rest
// of it. The domain is left untouched.
func MaskEmail(text string) string {
	at := strings.IndexByte(text, '@')
	if at <= 0 {
		return text
	}
	local := text[:at]
	first, size := utf8.DecodeRuneInString(local)

	var b strings.Builder
	b.Grow(len(text))
	b.WriteRune(first)
	b.WriteString(strings.Repeat(string(MaskChar), utf8.RuneCountInString(local[size:])))
	b.WriteString(text[at:])
	return b.String()
}

// MaskPhone masks all but the last four digits in place. Separators such
// as dashes, dots, spaces and parentheses keep their positions.
func MaskPhone(text string) string {
	total := pii.CountDigits(text)
	if total < 10 {
		return text
	}
	hide := total - KeepLast

	var b strings.Builder
	b.Grow(len(text))
	seen := 0
	for _, r := range text {
		if r < '0' || r > '9' {
			b.WriteRune(r)
			continue
		}
		if seen < hide {
			b.WriteRune(MaskChar)
		} else {
			b.WriteRune(r)
		}
		seen++
	}
	return b.String()
}

// MaskSSN turns AAA-GG-SSSS into ***-**-SSSS.
func MaskSSN(text string) string {
	parts := strings.Split(text, "-")
	if len(parts) != 3 {
		return text
	}
	return "***-**-" + parts[2]
}

// MaskDigits flattens text to its digits and masks all but the last keep.
// The result carries no separators. With keep or fewer digits everything is
// masked; with no digits at all text is returned as is.
func MaskDigits(text string, keep int) string {
	digits := pii.Digits(text)
	n := len(digits)
	if n == 0 {
		return text
	}
	if keep < 0 {
		keep = 0
	}
	if n <= keep {
		return strings.Repeat(string(MaskChar), n)
	}
	return strings.Repeat(string(MaskChar), n-keep) + digits[n-keep:]
}

func maskKeepLast4(text string) string {
	return MaskDigits(text, KeepLast)
}
