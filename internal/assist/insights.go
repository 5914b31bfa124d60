package assist

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
)

// InsightsWindow is how far back monthly insights look.
const InsightsWindow = 30 * 24 * time.Hour

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// Stats summarizes a set of expenses.
type Stats struct {
	Total decimal.Decimal
	Count int
	// ByCategory is ordered by total descending, then category name.
	ByCategory []CategoryTotal
}

// Summarize totals expenses overall and per category. Expenses without a
// category count as models.DefaultCategory.
func Summarize(expenses []*models.Expense) Stats {
	stats := Stats{Total: decimal.Zero, Count: len(expenses)}
	byCategory := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		stats.Total = stats.Total.Add(e.Amount)
		category := e.Category
		if category == "" {
			category = models.DefaultCategory
		}
		byCategory[category] = byCategory[category].Add(e.Amount)
	}

	stats.ByCategory = make([]CategoryTotal, 0, len(byCategory))
	for category, total := range byCategory {
		stats.ByCategory = append(stats.ByCategory, CategoryTotal{Category: category, Total: total})
	}
	slices.SortFunc(stats.ByCategory, func(a, b CategoryTotal) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return stats
}

// InsightsText renders stats as a short paragraph naming the two largest
// categories.
func InsightsText(stats Stats) string {
	lines := []string{
		fmt.Sprintf("Total spent this month: %s across %d expenses.", stats.Total.StringFixed(2), stats.Count),
	}

	if len(stats.ByCategory) > 0 {
		top := stats.ByCategory[0]
		lines = append(lines, fmt.Sprintf("Highest spending category: %s (%s).", top.Category, top.Total.StringFixed(2)))
		if len(stats.ByCategory) > 1 {
			second := stats.ByCategory[1]
			lines = append(lines, fmt.Sprintf("Second highest category: %s (%s).", second.Category, second.Total.StringFixed(2)))
		}
	} else {
		lines = append(lines, "No category breakdown available yet. Add more detailed descriptions.")
	}

	if stats.Total.IsPositive() {
		lines = append(lines, "Try setting a simple budget target for your top category and track it weekly.")
	}
	return strings.Join(lines, " ")
}
