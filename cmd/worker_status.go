package cmd

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
	"github.com/mselser95/metatx-relay/internal/chain"
	"github.com/mselser95/metatx-relay/internal/worker"
	"github.com/mselser95/metatx-relay/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var workerStatusCmd = &cobra.Command{
	Use:   "worker-status",
	Short: "Check worker funding and readiness",
	Long: `Derives the worker account from WORKER_MNEMONIC and WORKER_INDEX,
fetches its balance, and reports whether it can cover a submission at the
configured gas price and usage estimate plus the configured reserve.`,
	RunE: runWorkerStatus,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(workerStatusCmd)
}

func runWorkerStatus(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found\n")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.WorkerMnemonic == "" {
		return fmt.Errorf("WORKER_MNEMONIC is required")
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	workerKey, err := worker.DerivePrivateKey(cfg.WorkerMnemonic, cfg.WorkerIndex)
	if err != nil {
		return fmt.Errorf("derive worker key: %w", err)
	}
	workerAddr := crypto.PubkeyToAddress(workerKey.PublicKey)

	ctx := cmd.Context()

	chainClient, err := chain.Dial(ctx, &chain.NodeConfig{
		RPCURL:    cfg.ChainRPCURL,
		WorkerKey: workerKey,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("dial chain: %w", err)
	}
	defer chainClient.Close()

	balance, err := chainClient.Balance(ctx, workerAddr)
	if err != nil {
		return fmt.Errorf("fetch balance: %w", err)
	}

	ready := worker.IsReady(balance, cfg.WorkerGasPriceWei, cfg.WorkerGasUsageEstimate, cfg.WorkerReserveWei)
	required := new(big.Int).Mul(cfg.WorkerGasPriceWei, cfg.WorkerGasUsageEstimate)
	required.Add(required, cfg.WorkerReserveWei)

	fmt.Printf("Worker:   %s (index %d, path %s)\n",
		workerAddr.Hex(), cfg.WorkerIndex, worker.DerivationPath(cfg.WorkerIndex))
	fmt.Printf("Balance:  %s wei\n", balance)
	fmt.Printf("Required: %s wei (gas price %s x usage %s + reserve %s)\n",
		required, cfg.WorkerGasPriceWei, cfg.WorkerGasUsageEstimate, cfg.WorkerReserveWei)
	fmt.Printf("Ready:    %t\n", ready)

	return nil
}
