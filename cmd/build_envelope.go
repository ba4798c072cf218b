package cmd

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/mselser95/metatx-relay/internal/metatx"
	"github.com/mselser95/metatx-relay/pkg/config"
	"github.com/mselser95/metatx-relay/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var buildEnvelopeCmd = &cobra.Command{
	Use:   "build-envelope",
	Short: "Wrap a signed fill order in a delegated-execution envelope",
	Long: `Builds the delegated-execution envelope for a signed fill order and
prints it as JSON. The envelope is unsigned: hand it to the taker, who signs
it and returns it for relaying via "relay".`,
	RunE: runBuildEnvelope,
}

//nolint:gochecknoglobals // Cobra boilerplate
var (
	buildOrderPath   string
	buildTaker       string
	buildTakerAmount string
	buildChainID     int64
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(buildEnvelopeCmd)

	buildEnvelopeCmd.Flags().StringVarP(&buildOrderPath, "order", "o", "", "Path to the signed order JSON file (required)")
	buildEnvelopeCmd.Flags().StringVarP(&buildTaker, "taker", "t", "", "Taker address signing the envelope (required)")
	buildEnvelopeCmd.Flags().StringVarP(&buildTakerAmount, "taker-amount", "a", "", "Taker amount to fill, in base units (required)")
	buildEnvelopeCmd.Flags().Int64Var(&buildChainID, "chain-id", 137, "Chain ID of the envelope domain")
	_ = buildEnvelopeCmd.MarkFlagRequired("order")
	_ = buildEnvelopeCmd.MarkFlagRequired("taker")
	_ = buildEnvelopeCmd.MarkFlagRequired("taker-amount")
}

func runBuildEnvelope(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found\n")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.VerifyingContract == "" {
		return fmt.Errorf("EXCHANGE_PROXY_ADDRESS is required")
	}

	if !common.IsHexAddress(buildTaker) {
		return fmt.Errorf("taker %q is not a hex address", buildTaker)
	}

	order, orderSig, err := loadOrderFile(buildOrderPath)
	if err != nil {
		return err
	}

	takerAmount, err := parseBig(buildTakerAmount, "taker-amount")
	if err != nil {
		return err
	}

	builder, err := metatx.New(&metatx.Config{
		MaxGasPriceWei: cfg.MaxGasPriceWei,
	})
	if err != nil {
		return fmt.Errorf("create builder: %w", err)
	}

	mtx, err := builder.BuildFillMetaTransaction(
		order,
		orderSig,
		common.HexToAddress(buildTaker),
		takerAmount,
		big.NewInt(buildChainID),
		common.HexToAddress(cfg.VerifyingContract),
	)
	if err != nil {
		return fmt.Errorf("build envelope: %w", err)
	}

	out, err := json.MarshalIndent(types.WireFromMetaTransaction(mtx), "", "  ")
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	fmt.Println(string(out))

	return nil
}
