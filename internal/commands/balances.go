package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmynk/settleup/internal/calculator"
)

func newBalancesCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Print what each member paid, owes, and their net balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, err := readLedger(file)
			if err != nil {
				return err
			}
			records, err := lf.records()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "MEMBER\tPAID\tOWED\tNET\t")
			for _, b := range calculator.CalculateBalances(records) {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
					lf.displayName(b.Member), b.Paid.StringFixed(2), b.Owed.StringFixed(2), b.Net.StringFixed(2))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "expenses file, YAML or JSON (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
