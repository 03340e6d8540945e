package pii

import (
	"regexp"
	"strings"
	"unicode"
)

// Validator is a predicate applied after a match rule succeeds.
// Returning false rejects the match for that category only.
type Validator func(text string) bool

// excludedWords are common document words that must never classify as PII.
var excludedWords = map[string]struct{}{
	"confidential": {},
	"question":     {},
	"sincerely":    {},
	"attention":    {},
	"important":    {},
}

// IsExcluded reports whether text is on the universal exclusion list.
// Comparison is case-insensitive and exact.
func IsExcluded(text string) bool {
	_, ok := excludedWords[strings.ToLower(text)]
	return ok
}

var (
	ssnShape  = regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`)
	cardShape = regexp.MustCompile(`^(?:` + creditCardPattern + `)$`)
)

func validEmail(text string) bool {
	at := strings.LastIndex(text, "@")
	if at < 0 {
		return false
	}
	return strings.Contains(text[at+1:], ".")
}

func validPhone(text string) bool {
	return CountDigits(text) >= 10
}

func validSSN(text string) bool {
	return ssnShape.MatchString(text)
}

func validCreditCard(text string) bool {
	digits := Digits(text)
	return len(digits) >= 13 && Luhn(digits)
}

// validBankAccount rejects issuer-shaped card numbers. A card-shaped number
// that failed the Luhn gate is a mistyped card, not an account number.
func validBankAccount(text string) bool {
	digits := Digits(text)
	if len(digits) < 8 || len(digits) > 17 {
		return false
	}
	return !cardShape.MatchString(digits)
}

func validRoutingNumber(text string) bool {
	return CountDigits(text) == 9
}

// Luhn reports whether a string of ASCII digits passes the mod-10 checksum.
// Non-digit input and the empty string fail.
func Luhn(digits string) bool {
	if digits == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		ch := digits[i]
		if ch < '0' || ch > '9' {
			return false
		}
		d := int(ch - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// Digits returns only the ASCII digits of text.
func Digits(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CountDigits returns the number of ASCII digits in text.
func CountDigits(text string) int {
	n := 0
	for _, r := range text {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
