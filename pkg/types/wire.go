package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// MetaTransactionWire is the JSON interchange shape of a delegated-execution
// envelope. Amounts travel as decimal strings and byte fields as 0x hex.
// Signature is the taker's signature over the envelope; absent on freshly
// built envelopes, required for relaying.
type MetaTransactionWire struct {
	Signer                string `json:"signer"`
	Sender                string `json:"sender"`
	MinGasPriceWei        string `json:"minGasPriceWei"`
	MaxGasPriceWei        string `json:"maxGasPriceWei"`
	ExpirationTimeSeconds string `json:"expirationTimeSeconds"`
	Salt                  string `json:"salt"`
	CallData              string `json:"callData"`
	ValueWei              string `json:"valueWei"`
	FeeToken              string `json:"feeToken"`
	FeeAmount             string `json:"feeAmount"`
	ChainID               string `json:"chainId"`
	VerifyingContract     string `json:"verifyingContract"`
	Signature             string `json:"signature,omitempty"`
}

// WireFromMetaTransaction converts an envelope to its interchange shape.
// The signature field is left empty; it belongs to the taker.
func WireFromMetaTransaction(mtx MetaTransaction) MetaTransactionWire {
	return MetaTransactionWire{
		Signer:                mtx.Signer.Hex(),
		Sender:                mtx.Sender.Hex(),
		MinGasPriceWei:        mtx.MinGasPrice.String(),
		MaxGasPriceWei:        mtx.MaxGasPrice.String(),
		ExpirationTimeSeconds: mtx.ExpirationTimeSeconds.String(),
		Salt:                  mtx.Salt.String(),
		CallData:              hexutil.Encode(mtx.CallData),
		ValueWei:              mtx.Value.String(),
		FeeToken:              mtx.FeeToken.Hex(),
		FeeAmount:             mtx.FeeAmount.String(),
		ChainID:               mtx.ChainID.String(),
		VerifyingContract:     mtx.VerifyingContract.Hex(),
	}
}

// Decode converts the interchange shape back to an envelope plus its
// signature. The signature may be empty; everything else is required.
func (w MetaTransactionWire) Decode() (MetaTransaction, Signature, error) {
	mtx := MetaTransaction{
		Signer:            common.HexToAddress(w.Signer),
		Sender:            common.HexToAddress(w.Sender),
		FeeToken:          common.HexToAddress(w.FeeToken),
		VerifyingContract: common.HexToAddress(w.VerifyingContract),
	}

	fields := []struct {
		name string
		raw  string
		dst  **big.Int
	}{
		{"minGasPriceWei", w.MinGasPriceWei, &mtx.MinGasPrice},
		{"maxGasPriceWei", w.MaxGasPriceWei, &mtx.MaxGasPrice},
		{"expirationTimeSeconds", w.ExpirationTimeSeconds, &mtx.ExpirationTimeSeconds},
		{"salt", w.Salt, &mtx.Salt},
		{"valueWei", w.ValueWei, &mtx.Value},
		{"feeAmount", w.FeeAmount, &mtx.FeeAmount},
		{"chainId", w.ChainID, &mtx.ChainID},
	}
	for _, f := range fields {
		v, err := parseWireBig(f.raw, f.name)
		if err != nil {
			return MetaTransaction{}, nil, err
		}
		*f.dst = v
	}

	callData, err := parseWireHex(w.CallData, "callData")
	if err != nil {
		return MetaTransaction{}, nil, err
	}
	mtx.CallData = callData

	var sig Signature
	if w.Signature != "" {
		sig, err = parseWireHex(w.Signature, "signature")
		if err != nil {
			return MetaTransaction{}, nil, err
		}
	}

	return mtx, sig, nil
}

func parseWireBig(raw string, name string) (*big.Int, error) {
	if raw == "" {
		return nil, fmt.Errorf("%s is required", name)
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("%s %q is not a decimal integer", name, raw)
	}
	return v, nil
}

func parseWireHex(raw string, name string) ([]byte, error) {
	if raw == "" {
		return nil, fmt.Errorf("%s is required", name)
	}
	b, err := hexutil.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s is not 0x-prefixed hex: %w", name, err)
	}
	return b, nil
}
