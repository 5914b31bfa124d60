package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shares(splits []Split) map[MemberID]string {
	out := make(map[MemberID]string, len(splits))
	for _, s := range splits {
		out[s.Member] = s.Share.StringFixed(2)
	}
	return out
}

func TestEqualSplit(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		members []MemberID
		want    map[MemberID]string
		wantErr error
	}{
		{
			name:    "divides evenly",
			amount:  "90",
			members: []MemberID{"Alice", "Bob", "Charlie"},
			want:    map[MemberID]string{"Alice": "30.00", "Bob": "30.00", "Charlie": "30.00"},
		},
		{
			name:    "leftover cent goes to the first member",
			amount:  "100",
			members: []MemberID{"Alice", "Bob", "Charlie"},
			want:    map[MemberID]string{"Alice": "33.34", "Bob": "33.33", "Charlie": "33.33"},
		},
		{
			name:    "two leftover cents",
			amount:  "0.05",
			members: []MemberID{"Alice", "Bob", "Charlie"},
			want:    map[MemberID]string{"Alice": "0.02", "Bob": "0.02", "Charlie": "0.01"},
		},
		{
			name:    "amount rounded to cents first",
			amount:  "10.005",
			members: []MemberID{"Alice", "Bob"},
			want:    map[MemberID]string{"Alice": "5.01", "Bob": "5.00"},
		},
		{
			name:    "zero amount",
			amount:  "0",
			members: []MemberID{"Alice", "Bob"},
			want:    map[MemberID]string{"Alice": "0.00", "Bob": "0.00"},
		},
		{
			name:    "no members should error",
			amount:  "10",
			members: nil,
			wantErr: ErrNoMembers,
		},
		{
			name:    "negative amount should error",
			amount:  "-10",
			members: []MemberID{"Alice"},
			wantErr: ErrNegativeAmount,
		},
		{
			name:    "duplicate member should error",
			amount:  "10",
			members: []MemberID{"Alice", "Alice"},
			wantErr: ErrDuplicateMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits, err := EqualSplit(decimal.RequireFromString(tt.amount), tt.members)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, shares(splits))

			sum := decimal.Zero
			for _, s := range splits {
				sum = sum.Add(s.Share)
			}
			assert.True(t, sum.Equal(decimal.RequireFromString(tt.amount).Round(2)), "shares sum to %s", sum)
		})
	}
}

func TestWeightedSplit(t *testing.T) {
	t.Run("proportional shares", func(t *testing.T) {
		splits, err := WeightedSplit(d("33"), []Weight{
			{Member: "Alice", Weight: d("2")},
			{Member: "Bob", Weight: d("1")},
		})
		require.NoError(t, err)
		assert.Equal(t, map[MemberID]string{"Alice": "22.00", "Bob": "11.00"}, shares(splits))
	})

	t.Run("largest remainder gets the cent", func(t *testing.T) {
		// 10 split 1:1:1:3 -> 1.666.., 1.666.., 1.666.., 5.00
		splits, err := WeightedSplit(d("10"), []Weight{
			{Member: "A", Weight: d("1")},
			{Member: "B", Weight: d("1")},
			{Member: "C", Weight: d("1")},
			{Member: "D", Weight: d("3")},
		})
		require.NoError(t, err)
		assert.Equal(t, map[MemberID]string{"A": "1.67", "B": "1.67", "C": "1.66", "D": "5.00"}, shares(splits))
	})

	t.Run("zero weight member owes nothing", func(t *testing.T) {
		splits, err := WeightedSplit(d("12"), []Weight{
			{Member: "A", Weight: d("1")},
			{Member: "B", Weight: d("0")},
		})
		require.NoError(t, err)
		assert.Equal(t, map[MemberID]string{"A": "12.00", "B": "0.00"}, shares(splits))
	})

	t.Run("all zero weights should error", func(t *testing.T) {
		_, err := WeightedSplit(d("12"), []Weight{{Member: "A", Weight: d("0")}})
		assert.ErrorIs(t, err, ErrZeroTotalWeight)
	})

	t.Run("negative weight should error", func(t *testing.T) {
		_, err := WeightedSplit(d("12"), []Weight{{Member: "A", Weight: d("-1")}})
		assert.ErrorIs(t, err, ErrInvalidWeight)
	})
}
