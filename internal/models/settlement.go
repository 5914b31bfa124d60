package models

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/calculator"
)

// Settlement represents a payment between group members to clear debts.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// FromUserID is the user who paid (debtor settling up).
	FromUserID string

	// ToUserID is the user who received payment (creditor being paid).
	ToUserID string

	// Amount is the payment amount.
	Amount decimal.Decimal

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string

	// Note is an optional description for the settlement.
	Note string
}

// Record converts the payment into an engine expense: the sender "paid"
// Amount entirely on the receiver's behalf, which raises the sender's
// balance and lowers the receiver's by the same amount.
func (s *Settlement) Record() calculator.Expense {
	return calculator.Expense{
		Payer:  calculator.MemberID(s.FromUserID),
		Amount: s.Amount,
		Splits: []calculator.Split{{Member: calculator.MemberID(s.ToUserID), Share: s.Amount}},
	}
}
