package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mselser95/metatx-relay/internal/codec"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var decodeCmd = &cobra.Command{
	Use:   "decode <calldata>",
	Short: "Decode fill or delegated calldata",
	Long: `Decodes 0x-prefixed exchange calldata and prints its contents.
Recognizes both direct fill calls and delegated-execution wrappers; wrapped
fill calls are unwrapped and printed too.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	data, err := parseHexBytes(args[0], "calldata")
	if err != nil {
		return err
	}

	switch codec.IdentifyCall(data) {
	case codec.CallFill:
		return printFillCall(data)

	case codec.CallDelegated:
		inner, sig, err := codec.DecodeDelegatedCall(data)
		if err != nil {
			return fmt.Errorf("decode delegated call: %w", err)
		}
		fmt.Printf("Delegated execution (signature %s)\n", hexutil.Encode(sig))
		if codec.IdentifyCall(inner) == codec.CallFill {
			return printFillCall(inner)
		}
		fmt.Printf("Wrapped calldata: %s\n", hexutil.Encode(inner))
		return nil

	default:
		return fmt.Errorf("unrecognized selector %s", hexutil.Encode(data[:min(len(data), 4)]))
	}
}

func printFillCall(data []byte) error {
	order, sig, takerAmount, err := codec.DecodeFillCall(data)
	if err != nil {
		return fmt.Errorf("decode fill call: %w", err)
	}

	fmt.Printf("Fill order:\n")
	fmt.Printf("  maker:        %s\n", order.Maker.Hex())
	fmt.Printf("  taker:        %s\n", order.Taker.Hex())
	fmt.Printf("  makerToken:   %s\n", order.MakerToken.Hex())
	fmt.Printf("  takerToken:   %s\n", order.TakerToken.Hex())
	fmt.Printf("  takerAmount:  %s\n", order.TakerAmount)
	fmt.Printf("  makerAmount:  %s\n", order.MakerAmount)
	fmt.Printf("  pool:         %s\n", order.Pool.Hex())
	fmt.Printf("  expiry:       %d\n", order.Expiry)
	fmt.Printf("  signature:    %s\n", hexutil.Encode(sig))
	fmt.Printf("  fill amount:  %s\n", takerAmount)

	return nil
}
