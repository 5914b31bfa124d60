package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mmynk/settleup/internal/calculator"
)

func newSplitCommand() *cobra.Command {
	var amount string
	var members, weights []string

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Divide an amount into cent-exact shares",
		Example: `  settlectl split --amount 100 --members alice,bob,cleo
  settlectl split --amount 90 --members alice,bob --weights 2,1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}

			ws := make([]calculator.Weight, len(members))
			for i, m := range members {
				ws[i] = calculator.Weight{Member: calculator.MemberID(m), Weight: decimal.NewFromInt(1)}
			}
			if len(weights) > 0 {
				if len(weights) != len(members) {
					return fmt.Errorf("got %d weights for %d members", len(weights), len(members))
				}
				for i, raw := range weights {
					if ws[i].Weight, err = decimal.NewFromString(raw); err != nil {
						return fmt.Errorf("invalid weight %q: %w", raw, err)
					}
				}
			}

			splits, err := calculator.WeightedSplit(total, ws)
			if err != nil {
				return err
			}
			for _, s := range splits {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", s.Member, s.Share.StringFixed(2)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "amount to divide (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringSliceVar(&members, "members", nil, "comma-separated members (required)")
	_ = cmd.MarkFlagRequired("members")
	cmd.Flags().StringSliceVar(&weights, "weights", nil, "comma-separated weights, one per member")

	return cmd
}
