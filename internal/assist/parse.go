package assist

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Draft is an expense phrase found in free text.
type Draft struct {
	PayerName   string
	Amount      decimal.Decimal
	Description string
}

var paidPhrase = regexp.MustCompile(`(?i)(\w+)\s+paid\s+(\d+(?:\.\d+)?)\s+(?:for\s+)?([^.,]+)`)

// ParseExpenses extracts "<name> paid <amount> [for] <description>" phrases
// from text, in order of appearance. Phrases are separated by commas or
// periods.
//
//	ParseExpenses("I paid 1200 for hotel, Rohit paid 600 for dinner")
func ParseExpenses(text string) []Draft {
	matches := paidPhrase.FindAllStringSubmatch(text, -1)
	drafts := make([]Draft, 0, len(matches))
	for _, m := range matches {
		amount, err := decimal.NewFromString(m[2])
		if err != nil {
			continue
		}
		drafts = append(drafts, Draft{
			PayerName:   m[1],
			Amount:      amount,
			Description: strings.TrimSpace(m[3]),
		})
	}
	return drafts
}
