package calculator

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Tolerance is the magnitude below which a balance counts as settled.
const Tolerance = 1e-9

// TransferPlaces is the number of decimal places transfer amounts are
// rounded to.
const TransferPlaces = 2

var tolerance = decimal.NewFromFloat(Tolerance)

// Transfer is one payment that moves a debtor and a creditor toward zero.
type Transfer struct {
	From   MemberID
	To     MemberID
	Amount decimal.Decimal
}

// position is a member's outstanding magnitude during matching: surplus for
// creditors, deficit for debtors. Always positive while in play.
type position struct {
	member    MemberID
	remaining decimal.Decimal
}

// ComputeSettlement returns the transfers that bring every member's net
// balance to zero.
//
// Creditors and debtors are each ordered largest first, ties broken by
// member id, and matched greedily with two cursors. Running balances keep
// full precision; only emitted amounts are rounded (half away from zero) to
// TransferPlaces. The result is deterministic for any ordering of the input
// but is not guaranteed to be the minimum possible number of transfers.
//
// A matched amount that rounds to 0.00 is not emitted, but it is still
// consumed from both balances. So the result is also empty when every
// outstanding balance is below half a cent, even if some lie outside
// Tolerance.
//
// An empty or already-settled input yields an empty, non-nil slice.
func ComputeSettlement(expenses []Expense) []Transfer {
	creditors, debtors := partition(netBalances(expenses))

	transfers := make([]Transfer, 0, len(creditors)+len(debtors))
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		c, d := &creditors[i], &debtors[j]

		amount := decimal.Min(c.remaining, d.remaining)
		if rounded := amount.Round(TransferPlaces); rounded.IsPositive() {
			transfers = append(transfers, Transfer{From: d.member, To: c.member, Amount: rounded})
		}

		c.remaining = c.remaining.Sub(amount)
		d.remaining = d.remaining.Sub(amount)

		if c.remaining.LessThanOrEqual(tolerance) {
			i++
		}
		if d.remaining.LessThanOrEqual(tolerance) {
			j++
		}
	}
	return transfers
}

// partition splits net balances into creditors and debtors, dropping
// anything within tolerance of zero, and sorts both sides.
func partition(net map[MemberID]decimal.Decimal) (creditors, debtors []position) {
	negTolerance := tolerance.Neg()
	for member, bal := range net {
		switch {
		case bal.GreaterThan(tolerance):
			creditors = append(creditors, position{member: member, remaining: bal})
		case bal.LessThan(negTolerance):
			debtors = append(debtors, position{member: member, remaining: bal.Neg()})
		}
	}
	slices.SortFunc(creditors, byRemainingDesc)
	slices.SortFunc(debtors, byRemainingDesc)
	return creditors, debtors
}

func byRemainingDesc(a, b position) int {
	if c := b.remaining.Cmp(a.remaining); c != 0 {
		return c
	}
	return strings.Compare(string(a.member), string(b.member))
}
