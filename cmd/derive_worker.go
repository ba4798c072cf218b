package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mselser95/metatx-relay/internal/worker"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var deriveWorkerCmd = &cobra.Command{
	Use:   "derive-worker",
	Short: "Print worker addresses derived from the mnemonic",
	Long: `Derives worker addresses from WORKER_MNEMONIC along the standard
Ethereum path and prints them with their indices. Use this to find the
accounts that need funding before pointing workers at them.`,
	RunE: runDeriveWorker,
}

//nolint:gochecknoglobals // Cobra boilerplate
var deriveCount int

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(deriveWorkerCmd)

	deriveWorkerCmd.Flags().IntVarP(&deriveCount, "count", "n", 5, "Number of indices to derive, starting at 0")
}

func runDeriveWorker(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found\n")
	}

	mnemonic := os.Getenv("WORKER_MNEMONIC")
	if mnemonic == "" {
		return fmt.Errorf("WORKER_MNEMONIC is required")
	}

	if deriveCount <= 0 {
		return fmt.Errorf("count must be positive, got %d", deriveCount)
	}

	for i := 0; i < deriveCount; i++ {
		addr, err := worker.DeriveAddress(mnemonic, i)
		if err != nil {
			return fmt.Errorf("derive index %d: %w", i, err)
		}
		fmt.Printf("%-4d %s  %s\n", i, worker.DerivationPath(i), addr.Hex())
	}

	return nil
}
