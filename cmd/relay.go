package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
	"github.com/mselser95/metatx-relay/internal/chain"
	"github.com/mselser95/metatx-relay/internal/codec"
	"github.com/mselser95/metatx-relay/internal/events"
	"github.com/mselser95/metatx-relay/internal/journal"
	"github.com/mselser95/metatx-relay/internal/metatx"
	"github.com/mselser95/metatx-relay/internal/relayer"
	"github.com/mselser95/metatx-relay/internal/worker"
	"github.com/mselser95/metatx-relay/pkg/config"
	"github.com/mselser95/metatx-relay/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Validate and submit a signed envelope",
	Long: `Validates a taker-signed delegated-execution envelope against the
chain and submits it from the worker account.

Validation simulates the fill and rejects envelopes that would fill less than
the taker asked for. Use --dry-run to stop after validation. Use --wait to
poll for the receipt and report the confirmed fill amounts.`,
	RunE: runRelay,
}

//nolint:gochecknoglobals // Cobra boilerplate
var (
	relayEnvelopePath string
	relayDryRun       bool
	relayGasPrice     string
	relayWait         time.Duration
)

// receiptPollInterval paces receipt lookups under --wait.
const receiptPollInterval = 2 * time.Second

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(relayCmd)

	relayCmd.Flags().StringVarP(&relayEnvelopePath, "envelope", "e", "", "Path to the signed envelope JSON file (required)")
	relayCmd.Flags().BoolVar(&relayDryRun, "dry-run", false, "Validate only, do not submit")
	relayCmd.Flags().StringVar(&relayGasPrice, "gas-price", "", "Gas price in wei (default WORKER_GAS_PRICE_WEI)")
	relayCmd.Flags().DurationVarP(&relayWait, "wait", "w", 0, "Poll for the receipt up to this long (0 = don't wait)")
	_ = relayCmd.MarkFlagRequired("envelope")
}

func runRelay(cmd *cobra.Command, args []string) error {
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

	mtx, mtxSig, err := loadEnvelopeFile(relayEnvelopePath)
	if err != nil {
		return err
	}
	if len(mtxSig) == 0 {
		return fmt.Errorf("envelope is unsigned: relay needs the taker's signature")
	}

	gasPrice := cfg.WorkerGasPriceWei
	if relayGasPrice != "" {
		gasPrice, err = parseBig(relayGasPrice, "gas-price")
		if err != nil {
			return err
		}
	}

	// The envelope authorizes a gas-price band; refuse to pay outside it.
	if gasPrice.Cmp(mtx.MinGasPrice) < 0 || gasPrice.Cmp(mtx.MaxGasPrice) > 0 {
		return fmt.Errorf("gas price %s outside envelope band [%s, %s]",
			gasPrice, mtx.MinGasPrice, mtx.MaxGasPrice)
	}
	err = metatx.CheckGasPriceBounds(mtx, cfg.MaxGasPriceWei)
	if err != nil {
		return fmt.Errorf("envelope gas bounds: %w", err)
	}

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

	engine, err := relayer.New(&relayer.Config{
		Chain:             chainClient,
		VerifyingContract: mtx.VerifyingContract,
		GasEstimateBuffer: cfg.GasEstimateBuffer,
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	attemptJournal, err := setupCommandJournal(cfg, logger)
	if err != nil {
		return fmt.Errorf("setup journal: %w", err)
	}
	defer func() {
		_ = attemptJournal.Close()
	}()

	attempt := &journal.Attempt{
		ID:                journal.NewAttemptID(),
		Worker:            workerAddr.Hex(),
		VerifyingContract: mtx.VerifyingContract.Hex(),
		GasPriceWei:       gasPrice.String(),
		AttemptedAt:       time.Now().UTC(),
	}

	return relayEnvelope(ctx, engine, chainClient, attemptJournal, attempt, mtx, mtxSig, workerAddr, gasPrice)
}

func relayEnvelope(
	ctx context.Context,
	engine *relayer.Engine,
	chainClient *chain.Node,
	attemptJournal journal.Journal,
	attempt *journal.Attempt,
	mtx types.MetaTransaction,
	mtxSig types.Signature,
	workerAddr common.Address,
	gasPrice *big.Int,
) error {
	requested, err := engine.ExtractRequestedTakerAmount(mustDelegatedCallData(mtx, mtxSig))
	if err == nil {
		attempt.TakerAmountRequested = requested.String()
	}

	result, err := engine.ValidateDelegatedFill(ctx, mtx, mtxSig, workerAddr, relayer.CallOptions{
		GasPrice: gasPrice,
	})
	if err != nil {
		recordFailure(ctx, attemptJournal, attempt, err)
		return fmt.Errorf("validate envelope: %w", err)
	}

	attempt.TakerAmountFilled = result.TakerTokenFilledAmount.String()
	attempt.MakerAmountFilled = result.MakerTokenFilledAmount.String()

	if relayDryRun {
		attempt.Status = journal.StatusValidated
		_ = attemptJournal.RecordAttempt(ctx, attempt)
		fmt.Printf("Validation passed: fills %s taker / %s maker\n",
			result.TakerTokenFilledAmount, result.MakerTokenFilledAmount)
		return nil
	}

	callData, err := codec.EncodeDelegatedCall(mtx, mtxSig)
	if err != nil {
		recordFailure(ctx, attemptJournal, attempt, err)
		return fmt.Errorf("encode delegated call: %w", err)
	}

	gasLimit, err := engine.EstimateGasForCall(ctx, callData, workerAddr)
	if err != nil {
		recordFailure(ctx, attemptJournal, attempt, err)
		return fmt.Errorf("estimate gas: %w", err)
	}
	attempt.GasLimit = gasLimit

	txHash, err := engine.SubmitDelegatedFill(ctx, callData, workerAddr, chain.SubmissionOptions{
		GasLimit: gasLimit,
		GasPrice: gasPrice,
	})
	if err != nil {
		recordFailure(ctx, attemptJournal, attempt, err)
		return fmt.Errorf("submit envelope: %w", err)
	}

	attempt.TxHash = txHash.Hex()
	attempt.Status = journal.StatusSubmitted
	_ = attemptJournal.RecordAttempt(ctx, attempt)

	fmt.Printf("Submitted: %s\n", txHash.Hex())

	if relayWait <= 0 {
		return nil
	}

	return waitForFill(ctx, chainClient, txHash)
}

// mustDelegatedCallData encodes for journaling only; a failure here surfaces
// later through the validation path.
func mustDelegatedCallData(mtx types.MetaTransaction, sig types.Signature) []byte {
	data, err := codec.EncodeDelegatedCall(mtx, sig)
	if err != nil {
		return nil
	}
	return data
}

func recordFailure(ctx context.Context, attemptJournal journal.Journal, attempt *journal.Attempt, cause error) {
	attempt.Status = journal.StatusFailed

	var relayErr *types.RelayError
	if errors.As(cause, &relayErr) {
		attempt.FailureKind = string(relayErr.Kind)
	}

	_ = attemptJournal.RecordAttempt(ctx, attempt)
}

func waitForFill(ctx context.Context, chainClient *chain.Node, txHash common.Hash) error {
	deadline := time.Now().Add(relayWait)

	for {
		receipt, found, err := chainClient.Receipt(ctx, txHash)
		if err != nil {
			return fmt.Errorf("look up receipt: %w", err)
		}

		if found {
			if receipt.Status != 1 {
				return fmt.Errorf("transaction %s reverted on-chain", txHash.Hex())
			}

			event, err := events.FindQuoteFilledEvent(receipt.Logs)
			if err != nil {
				return fmt.Errorf("resolve fill event: %w", err)
			}

			fmt.Printf("Confirmed in block %d: filled %s taker / %s maker (order %s)\n",
				receipt.BlockNumber, event.TakerTokenFilledAmount,
				event.MakerTokenFilledAmount, event.OrderHash.Hex())
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("transaction %s not mined within %s", txHash.Hex(), relayWait)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(receiptPollInterval):
		}
	}
}

func setupCommandJournal(cfg *config.Config, logger *zap.Logger) (journal.Journal, error) {
	if cfg.JournalMode == "postgres" {
		return journal.NewPostgresJournal(&journal.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
	}
	return journal.NewConsoleJournal(logger), nil
}
