package models

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/calculator"
)

// DefaultCategory is used when an expense has no description or the
// categorizer fails.
const DefaultCategory = "other"

// Expense represents one payment made on behalf of the group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// PayerID is the user who paid.
	PayerID string

	// Amount is the total paid.
	Amount decimal.Decimal

	// Splits lists how much of Amount each member owes, the payer included.
	Splits []Split

	// Description is free text entered by the user (e.g., "Dinner at Toit").
	Description string

	// Category is derived from Description (e.g., "food", "travel").
	Category string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Split is the portion of an expense owed by one member.
type Split struct {
	UserID string
	Share  decimal.Decimal
}

// Record converts the expense into the engine's input form.
func (e *Expense) Record() calculator.Expense {
	splits := make([]calculator.Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = calculator.Split{Member: calculator.MemberID(s.UserID), Share: s.Share}
	}
	return calculator.Expense{
		Payer:  calculator.MemberID(e.PayerID),
		Amount: e.Amount,
		Splits: splits,
	}
}
