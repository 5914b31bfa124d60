// Package assist turns free text into expense data and settlement data into
// readable text. Everything here is rule based and runs locally.
package assist

import (
	"context"
	"regexp"
	"strings"
)

// Expense categories.
const (
	CategoryFood          = "food"
	CategoryTravel        = "travel"
	CategoryRent          = "rent"
	CategoryUtilities     = "utilities"
	CategoryShopping      = "shopping"
	CategoryEntertainment = "entertainment"
	CategoryCollege       = "college"
	CategoryOther         = "other"
)

// Categorizer assigns a category to an expense description.
type Categorizer interface {
	Categorize(ctx context.Context, description string) (string, error)
}

type keywordRule struct {
	category string
	pattern  *regexp.Regexp
}

// KeywordCategorizer matches descriptions against keyword lists. Rules are
// tried in order and the first match wins.
type KeywordCategorizer struct {
	rules []keywordRule
}

// NewKeywordCategorizer returns a categorizer with the built-in keyword lists.
func NewKeywordCategorizer() *KeywordCategorizer {
	return &KeywordCategorizer{rules: []keywordRule{
		{CategoryFood, regexp.MustCompile(`pizza|food|biriyani|lunch|dinner|swiggy|zomato|restaurant`)},
		{CategoryTravel, regexp.MustCompile(`uber|ola|bus|train|flight|cab|taxi|auto`)},
		{CategoryRent, regexp.MustCompile(`rent|room|pg|hostel`)},
		{CategoryUtilities, regexp.MustCompile(`electricity|wifi|internet|water|gas|bill`)},
		{CategoryShopping, regexp.MustCompile(`shopping|amazon|flipkart|clothes|shoes|mall`)},
		{CategoryEntertainment, regexp.MustCompile(`movie|netflix|prime|party|club`)},
		{CategoryCollege, regexp.MustCompile(`college|fees|books|stationery|exam`)},
	}}
}

// Categorize never fails; unmatched descriptions are CategoryOther.
func (k *KeywordCategorizer) Categorize(_ context.Context, description string) (string, error) {
	d := strings.ToLower(description)
	for _, r := range k.rules {
		if r.pattern.MatchString(d) {
			return r.category, nil
		}
	}
	return CategoryOther, nil
}
