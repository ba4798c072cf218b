package cmd

import (
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	json "github.com/goccy/go-json"
	"github.com/mselser95/metatx-relay/pkg/types"
)

// orderFile is the JSON interchange shape of a signed fill order, as handed
// over by the quote source.
type orderFile struct {
	Maker       string `json:"maker"`
	Taker       string `json:"taker"`
	MakerToken  string `json:"makerToken"`
	TakerToken  string `json:"takerToken"`
	TakerAmount string `json:"takerAmount"`
	MakerAmount string `json:"makerAmount"`
	Pool        string `json:"pool"`
	Expiry      uint64 `json:"expiry"`
	Signature   string `json:"signature"`
}

func loadOrderFile(path string) (types.FillOrder, types.Signature, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.FillOrder{}, nil, fmt.Errorf("read order file: %w", err)
	}

	var f orderFile
	err = json.Unmarshal(raw, &f)
	if err != nil {
		return types.FillOrder{}, nil, fmt.Errorf("parse order file: %w", err)
	}

	takerAmount, err := parseBig(f.TakerAmount, "takerAmount")
	if err != nil {
		return types.FillOrder{}, nil, err
	}
	makerAmount, err := parseBig(f.MakerAmount, "makerAmount")
	if err != nil {
		return types.FillOrder{}, nil, err
	}

	sig, err := parseHexBytes(f.Signature, "signature")
	if err != nil {
		return types.FillOrder{}, nil, err
	}

	order := types.FillOrder{
		Maker:       common.HexToAddress(f.Maker),
		Taker:       common.HexToAddress(f.Taker),
		MakerToken:  common.HexToAddress(f.MakerToken),
		TakerToken:  common.HexToAddress(f.TakerToken),
		TakerAmount: takerAmount,
		MakerAmount: makerAmount,
		Pool:        common.HexToHash(f.Pool),
		Expiry:      f.Expiry,
	}

	return order, sig, nil
}

func loadEnvelopeFile(path string) (types.MetaTransaction, types.Signature, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.MetaTransaction{}, nil, fmt.Errorf("read envelope file: %w", err)
	}

	var wire types.MetaTransactionWire
	err = json.Unmarshal(raw, &wire)
	if err != nil {
		return types.MetaTransaction{}, nil, fmt.Errorf("parse envelope file: %w", err)
	}

	return wire.Decode()
}

func parseBig(raw string, name string) (*big.Int, error) {
	if raw == "" {
		return nil, fmt.Errorf("%s is required", name)
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("%s %q is not a decimal integer", name, raw)
	}
	return v, nil
}

func parseHexBytes(raw string, name string) ([]byte, error) {
	if raw == "" {
		return nil, fmt.Errorf("%s is required", name)
	}
	b, err := hexutil.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s is not 0x-prefixed hex: %w", name, err)
	}
	return b, nil
}
