package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "metatx-relay",
	Short: "Meta-transaction fill relayer",
	Long: `Meta-transaction relayer for delegated exchange fills.

Signed fill orders are wrapped in delegated-execution envelopes by their
takers; this relayer validates an envelope against the chain, submits it from
a funded worker account, and confirms the resulting fill event.

Run it as a long-lived service ("run") or drive single envelopes through the
one-shot subcommands.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
