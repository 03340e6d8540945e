package pii

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnknownCategory indicates a category name could not be parsed.
var ErrUnknownCategory = errors.New("unknown PII category")

// Category identifies a kind of personally identifiable information.
type Category string

// Categories in classification priority order.
const (
	CategoryEmail         Category = "email"
	CategoryPhone         Category = "phone"
	CategorySSN           Category = "ssn"
	CategoryCreditCard    Category = "credit_card"
	CategoryBankAccount   Category = "bank_account"
	CategoryRoutingNumber Category = "routing_number"
)

// priority is the fixed order in which categories are tried.
var priority = []Category{
	CategoryEmail,
	CategoryPhone,
	CategorySSN,
	CategoryCreditCard,
	CategoryBankAccount,
	CategoryRoutingNumber,
}

// AllCategories returns every category in priority order.
func AllCategories() []Category {
	return slices.Clone(priority)
}

// IsValid checks if the category is one of the known values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryEmail, CategoryPhone, CategorySSN,
		CategoryCreditCard, CategoryBankAccount, CategoryRoutingNumber:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

// Label returns the human-facing name of the category.
func (c Category) Label() string {
	switch c {
	case CategoryEmail:
		return "Email"
	case CategoryPhone:
		return "Phone"
	case CategorySSN:
		return "SSN"
	case CategoryCreditCard:
		return "Credit Card"
	case CategoryBankAccount:
		return "Bank Account"
	case CategoryRoutingNumber:
		return "Routing Number"
	default:
		return string(c)
	}
}

// rank returns the priority position of c, or len(priority) when unknown.
func (c Category) rank() int {
	if i := slices.Index(priority, c); i >= 0 {
		return i
	}
	return len(priority)
}

// ParseCategory accepts the canonical name ("credit_card") as well as
// labels such as "Credit Card" or "credit-card", case-insensitively.
func ParseCategory(s string) (Category, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	c := Category(norm)
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// CategorySet is an immutable set of active categories.
// The zero value contains no categories.
type CategorySet struct {
	members map[Category]struct{}
}

// NewCategorySet builds a set from the given categories. Unknown values are ignored.
func NewCategorySet(cats ...Category) CategorySet {
	m := make(map[Category]struct{}, len(cats))
	for _, c := range cats {
		if c.IsValid() {
			m[c] = struct{}{}
		}
	}
	return CategorySet{members: m}
}

// AllCategorySet returns a set holding every category.
func AllCategorySet() CategorySet {
	return NewCategorySet(priority...)
}

// ParseCategorySet parses category names. An empty list selects every category.
func ParseCategorySet(names []string) (CategorySet, error) {
	if len(names) == 0 {
		return AllCategorySet(), nil
	}
	cats := make([]Category, 0, len(names))
	for _, n := range names {
		c, err := ParseCategory(n)
		if err != nil {
			return CategorySet{}, err
		}
		cats = append(cats, c)
	}
	return NewCategorySet(cats...), nil
}

// Contains reports whether c is in the set.
func (s CategorySet) Contains(c Category) bool {
	_, ok := s.members[c]
	return ok
}

// Len returns the number of categories in the set.
func (s CategorySet) Len() int {
	return len(s.members)
}

// List returns the members in priority order.
func (s CategorySet) List() []Category {
	out := make([]Category, 0, len(s.members))
	for _, c := range priority {
		if s.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}

// Strings returns the canonical names of the members in priority order.
func (s CategorySet) Strings() []string {
	list := s.List()
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.String()
	}
	return out
}
