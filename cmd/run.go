package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/mselser95/metatx-relay/internal/app"
	"github.com/mselser95/metatx-relay/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the relayer service",
	Long: `Starts the relayer service, which will:
1. Derive the worker account from WORKER_MNEMONIC and WORKER_INDEX
2. Connect to the chain RPC endpoint
3. Track worker funding and expose readiness over HTTP
4. Follow chain heads over WebSocket when CHAIN_WS_URL is set`,
	RunE: runService,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runService(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found\n")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
