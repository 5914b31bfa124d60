package calculator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

var (
	ErrNoMembers       = errors.New("must have at least one member")
	ErrNegativeAmount  = errors.New("amount cannot be negative")
	ErrInvalidWeight   = errors.New("weights must be non-negative")
	ErrZeroTotalWeight = errors.New("total weight must be greater than zero")
	ErrDuplicateMember = errors.New("member listed more than once")
)

var hundred = decimal.NewFromInt(100)

// Weight assigns a relative portion of an expense to a member.
type Weight struct {
	Member MemberID
	Weight decimal.Decimal
}

// EqualSplit divides amount evenly among members in whole cents.
// The amount is first rounded to cents; leftover cents go one each to the
// first members in the given order, so the shares always sum to the
// rounded amount.
func EqualSplit(amount decimal.Decimal, members []MemberID) ([]Split, error) {
	weights := make([]Weight, len(members))
	for i, m := range members {
		weights[i] = Weight{Member: m, Weight: decimal.NewFromInt(1)}
	}
	return WeightedSplit(amount, weights)
}

// WeightedSplit divides amount among members proportionally to their
// weights, in whole cents, using largest-remainder allocation for the cents
// lost to truncation (earlier entries win ties).
// Formula: share = amount × (weight / total_weight)
func WeightedSplit(amount decimal.Decimal, weights []Weight) ([]Split, error) {
	if len(weights) == 0 {
		return nil, ErrNoMembers
	}
	if amount.IsNegative() {
		return nil, ErrNegativeAmount
	}

	seen := make(map[MemberID]bool, len(weights))
	totalWeight := decimal.Zero
	for _, w := range weights {
		if w.Weight.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidWeight, w.Member)
		}
		if seen[w.Member] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMember, w.Member)
		}
		seen[w.Member] = true
		totalWeight = totalWeight.Add(w.Weight)
	}
	if !totalWeight.IsPositive() {
		return nil, ErrZeroTotalWeight
	}

	totalCents := amount.Round(TransferPlaces).Mul(hundred)

	type portion struct {
		index     int
		cents     decimal.Decimal
		remainder decimal.Decimal
	}
	portions := make([]portion, len(weights))
	allocated := decimal.Zero
	for i, w := range weights {
		exact := totalCents.Mul(w.Weight).DivRound(totalWeight, 16)
		whole := exact.Floor()
		portions[i] = portion{index: i, cents: whole, remainder: exact.Sub(whole)}
		allocated = allocated.Add(whole)
	}

	leftover := totalCents.Sub(allocated).IntPart()
	if leftover > 0 {
		order := slices.Clone(portions)
		slices.SortStableFunc(order, func(a, b portion) int {
			return b.remainder.Cmp(a.remainder)
		})
		for k := int64(0); k < leftover; k++ {
			idx := order[k%int64(len(order))].index
			portions[idx].cents = portions[idx].cents.Add(decimal.NewFromInt(1))
		}
	}

	splits := make([]Split, len(weights))
	for i, w := range weights {
		splits[i] = Split{Member: w.Member, Share: portions[i].cents.Div(hundred)}
	}
	return splits, nil
}
