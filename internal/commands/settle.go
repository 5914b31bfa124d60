package commands

import (
	"fmt"
	"maps"

	"github.com/spf13/cobra"

	"github.com/mmynk/settleup/internal/assist"
	"github.com/mmynk/settleup/internal/calculator"
)

func newSettleCommand() *cobra.Command {
	var file, namesFile string
	var explain bool

	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Print the transfers that settle every balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, err := readLedger(file)
			if err != nil {
				return err
			}
			if namesFile != "" {
				names, err := readNames(namesFile)
				if err != nil {
					return err
				}
				if lf.Names == nil {
					lf.Names = names
				} else {
					maps.Copy(lf.Names, names)
				}
			}

			records, err := lf.records()
			if err != nil {
				return err
			}
			transfers := calculator.ComputeSettlement(records)

			out := cmd.OutOrStdout()
			if explain {
				names := make(map[calculator.MemberID]string)
				for _, t := range transfers {
					names[t.From] = lf.displayName(t.From)
					names[t.To] = lf.displayName(t.To)
				}
				_, err := fmt.Fprintln(out, assist.ExplainTransfers(transfers, names))
				return err
			}

			if len(transfers) == 0 {
				_, err := fmt.Fprintln(out, "All settled.")
				return err
			}
			for _, t := range transfers {
				if _, err := fmt.Fprintf(out, "%s -> %s %s\n",
					lf.displayName(t.From), lf.displayName(t.To), t.Amount.StringFixed(calculator.TransferPlaces)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "expenses file, YAML or JSON (required)")
	_ = cmd.MarkFlagRequired("file")
	cmd.Flags().StringVar(&namesFile, "names", "", "YAML or JSON map of member id to display name")
	cmd.Flags().BoolVar(&explain, "explain", false, "describe the transfers in plain language")

	return cmd
}
