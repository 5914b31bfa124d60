// Package calculator holds the money math of SettleUp: building per-member
// shares for an expense and turning a group's expenses into the transfers
// that settle it.
//
// Everything here is pure. Amounts are shopspring decimals so that
// aggregating thousands of expenses never drifts, and nothing in this
// package performs I/O or keeps state between calls.
package calculator

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// MemberID identifies a group member. The engine only compares ids for
// equality and, when breaking ties, orders them byte-wise.
type MemberID string

// Split is the part of an expense owed by one member.
type Split struct {
	Member MemberID
	Share  decimal.Decimal
}

// Expense is one recorded payment: Payer paid Amount, and each split member
// owes their Share of it. Shares are not required to sum to Amount.
type Expense struct {
	Payer  MemberID
	Amount decimal.Decimal
	Splits []Split
}

// MemberBalance is the position of one member across a set of expenses.
type MemberBalance struct {
	Member MemberID
	Paid   decimal.Decimal // total paid as payer
	Owed   decimal.Decimal // total of the member's shares
	Net    decimal.Decimal // Paid - Owed; positive = owed money, negative = owes money
}

// CalculateBalances aggregates paid and owed totals per member.
// Members that appear in no expense are absent. The result is ordered by
// member id.
func CalculateBalances(expenses []Expense) []MemberBalance {
	byMember := make(map[MemberID]*MemberBalance)
	get := func(id MemberID) *MemberBalance {
		b, ok := byMember[id]
		if !ok {
			b = &MemberBalance{Member: id}
			byMember[id] = b
		}
		return b
	}

	for _, e := range expenses {
		payer := get(e.Payer)
		payer.Paid = payer.Paid.Add(e.Amount)
		for _, s := range e.Splits {
			m := get(s.Member)
			m.Owed = m.Owed.Add(s.Share)
		}
	}

	balances := make([]MemberBalance, 0, len(byMember))
	for _, b := range byMember {
		b.Net = b.Paid.Sub(b.Owed)
		balances = append(balances, *b)
	}
	slices.SortFunc(balances, func(a, b MemberBalance) int {
		return strings.Compare(string(a.Member), string(b.Member))
	})
	return balances
}

// netBalances is the aggregation step of the engine: payer credited with the
// amount, every split member debited with their share.
func netBalances(expenses []Expense) map[MemberID]decimal.Decimal {
	net := make(map[MemberID]decimal.Decimal)
	for _, e := range expenses {
		net[e.Payer] = net[e.Payer].Add(e.Amount)
		for _, s := range e.Splits {
			net[s.Member] = net[s.Member].Sub(s.Share)
		}
	}
	return net
}
