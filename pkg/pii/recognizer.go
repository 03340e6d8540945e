package pii

import (
	"regexp"
	"unicode/utf8"
)

// Recognizer pairs a category with its match rule and validator.
type Recognizer struct {
	Category  Category
	Validator Validator

	// full matches a whole token; scan finds candidates inside longer text.
	full *regexp.Regexp
	scan *regexp.Regexp
}

func newRecognizer(c Category, pattern string, v Validator) Recognizer {
	return Recognizer{
		Category:  c,
		Validator: v,
		full:      regexp.MustCompile(`^(?:` + pattern + `)$`),
		scan:      regexp.MustCompile(pattern),
	}
}

// Matches reports whether the whole of text satisfies the match rule.
// The validator is not applied.
func (r Recognizer) Matches(text string) bool {
	return r.full.MatchString(text)
}

// Accepts runs the exclusion gate and the category validator.
func (r Recognizer) Accepts(text string) bool {
	if IsExcluded(text) {
		return false
	}
	return r.Validator == nil || r.Validator(text)
}

// find returns byte ranges of accepted, boundary-respecting matches in text.
// A rejected match only consumes its first rune, so a valid match starting
// inside it is still found.
func (r Recognizer) find(text string) [][2]int {
	var out [][2]int
	pos := 0
	for pos < len(text) {
		loc := r.scan.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if end > start && Isolated(text, start, end) && r.Accepts(text[start:end]) {
			out = append(out, [2]int{start, end})
			pos = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		pos = start + size
	}
	return out
}

// Isolated reports whether text[start:end] is not glued to a letter or digit
// on either side.
func Isolated(text string, start, end int) bool {
	if start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if isAlnum(prev) {
			return false
		}
	}
	if end < len(text) {
		next, _ := utf8.DecodeRuneInString(text[end:])
		if isAlnum(next) {
			return false
		}
	}
	return true
}

const (
	emailPattern         = `(?i)[a-z0-9._%+-]+@[a-z0-9-]+(?:\.[a-z0-9-]+)*\.[a-z]{2,}`
	phonePattern         = `(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`
	ssnPattern           = `\d{3}-\d{2}-\d{4}`
	creditCardPattern    = `4\d{12}(?:\d{3})?|5[1-5]\d{14}|3[47]\d{13}|6(?:011|5\d{2})\d{12}`
	bankAccountPattern   = `\d{8,17}`
	routingNumberPattern = `\d{9}`
)

// builtinRecognizers is the fixed priority list. BankAccount precedes
// RoutingNumber, so a bare 9-digit token is a bank account unless the
// bank account category is inactive.
var builtinRecognizers = []Recognizer{
	newRecognizer(CategoryEmail, emailPattern, validEmail),
	newRecognizer(CategoryPhone, phonePattern, validPhone),
	newRecognizer(CategorySSN, ssnPattern, validSSN),
	newRecognizer(CategoryCreditCard, creditCardPattern, validCreditCard),
	newRecognizer(CategoryBankAccount, bankAccountPattern, validBankAccount),
	newRecognizer(CategoryRoutingNumber, routingNumberPattern, validRoutingNumber),
}
