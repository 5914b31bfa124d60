// Package commands implements settlectl, an offline front end to the
// settlement engine that reads expenses from a YAML or JSON file.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/mmynk/settleup/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "settlectl",
		Short:   "Work out who owes whom from a file of shared expenses",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newSettleCommand())
	rootCmd.AddCommand(newBalancesCommand())
	rootCmd.AddCommand(newSplitCommand())

	return rootCmd
}
