package codec

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/mselser95/metatx-relay/pkg/types"
)

// relayABIJSON is the fixed, versioned schema of the two exchange operations
// this relayer speaks plus the fill-confirmation event. Schema mismatches are
// hard decode failures, never best-effort guesses.
const relayABIJSON = `[
  {
    "type": "function",
    "name": "fillQuoteOrder",
    "inputs": [
      {"name": "order", "type": "tuple", "components": [
        {"name": "maker", "type": "address"},
        {"name": "taker", "type": "address"},
        {"name": "makerToken", "type": "address"},
        {"name": "takerToken", "type": "address"},
        {"name": "takerAmount", "type": "uint128"},
        {"name": "makerAmount", "type": "uint128"},
        {"name": "pool", "type": "bytes32"},
        {"name": "expiry", "type": "uint64"}
      ]},
      {"name": "signature", "type": "bytes"},
      {"name": "takerTokenFillAmount", "type": "uint128"}
    ],
    "outputs": [
      {"name": "takerTokenFilledAmount", "type": "uint128"},
      {"name": "makerTokenFilledAmount", "type": "uint128"}
    ]
  },
  {
    "type": "function",
    "name": "executeMetaTransaction",
    "inputs": [
      {"name": "mtx", "type": "tuple", "components": [
        {"name": "signer", "type": "address"},
        {"name": "sender", "type": "address"},
        {"name": "minGasPrice", "type": "uint256"},
        {"name": "maxGasPrice", "type": "uint256"},
        {"name": "expirationTimeSeconds", "type": "uint256"},
        {"name": "salt", "type": "uint256"},
        {"name": "callData", "type": "bytes"},
        {"name": "value", "type": "uint256"},
        {"name": "feeToken", "type": "address"},
        {"name": "feeAmount", "type": "uint256"}
      ]},
      {"name": "signature", "type": "bytes"}
    ],
    "outputs": [
      {"name": "returnResult", "type": "bytes"}
    ]
  },
  {
    "type": "event",
    "name": "QuoteFilled",
    "inputs": [
      {"name": "orderHash", "type": "bytes32", "indexed": false},
      {"name": "maker", "type": "address", "indexed": false},
      {"name": "taker", "type": "address", "indexed": false},
      {"name": "makerToken", "type": "address", "indexed": false},
      {"name": "takerToken", "type": "address", "indexed": false},
      {"name": "takerTokenFilledAmount", "type": "uint128", "indexed": false},
      {"name": "makerTokenFilledAmount", "type": "uint128", "indexed": false},
      {"name": "pool", "type": "bytes32", "indexed": false}
    ]
  }
]`

//nolint:gochecknoglobals // Static schema table, parsed once.
var relayABI = mustParseABI(relayABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse relay ABI: %v", err))
	}
	return parsed
}

// QuoteFilledTopic is the fixed topic hash identifying the fill-confirmation
// event in a transaction's log list.
func QuoteFilledTopic() common.Hash {
	return relayABI.Events["QuoteFilled"].ID
}

// FillSelector returns the 4-byte selector of the fill operation.
func FillSelector() []byte {
	return relayABI.Methods["fillQuoteOrder"].ID
}

// DelegatedSelector returns the 4-byte selector of the delegated-execution
// wrapper operation.
func DelegatedSelector() []byte {
	return relayABI.Methods["executeMetaTransaction"].ID
}

// CallKind tags which of the known operation schemas a byte payload matches.
type CallKind int

const (
	// CallUnknown marks a selector outside the known schema table.
	CallUnknown CallKind = iota
	// CallFill marks a fillQuoteOrder payload.
	CallFill
	// CallDelegated marks an executeMetaTransaction payload.
	CallDelegated
)

// IdentifyCall classifies calldata by selector without decoding the body.
func IdentifyCall(data []byte) CallKind {
	if len(data) < 4 {
		return CallUnknown
	}
	switch {
	case bytes.Equal(data[:4], FillSelector()):
		return CallFill
	case bytes.Equal(data[:4], DelegatedSelector()):
		return CallDelegated
	default:
		return CallUnknown
	}
}

// wireOrder mirrors the fill operation's tuple layout for ABI packing.
type wireOrder struct {
	Maker       common.Address
	Taker       common.Address
	MakerToken  common.Address
	TakerToken  common.Address
	TakerAmount *big.Int
	MakerAmount *big.Int
	Pool        [32]byte
	Expiry      uint64
}

// wireMetaTx mirrors the delegated-execution tuple layout for ABI packing.
// The ChainID/VerifyingContract domain fields are deliberately absent: they
// bind the signature, not the calldata.
type wireMetaTx struct {
	Signer                common.Address
	Sender                common.Address
	MinGasPrice           *big.Int
	MaxGasPrice           *big.Int
	ExpirationTimeSeconds *big.Int
	Salt                  *big.Int
	CallData              []byte
	Value                 *big.Int
	FeeToken              common.Address
	FeeAmount             *big.Int
}

// EncodeFillCall encodes a fillQuoteOrder call. Pure and deterministic.
func EncodeFillCall(order types.FillOrder, sig types.Signature, takerAmount *big.Int) ([]byte, error) {
	data, err := relayABI.Pack("fillQuoteOrder", wireOrder{
		Maker:       order.Maker,
		Taker:       order.Taker,
		MakerToken:  order.MakerToken,
		TakerToken:  order.TakerToken,
		TakerAmount: order.TakerAmount,
		MakerAmount: order.MakerAmount,
		Pool:        order.Pool,
		Expiry:      order.Expiry,
	}, []byte(sig), takerAmount)
	if err != nil {
		return nil, fmt.Errorf("pack fill call: %w", err)
	}
	return data, nil
}

// EncodeDelegatedCall encodes an executeMetaTransaction call wrapping mtx.
func EncodeDelegatedCall(mtx types.MetaTransaction, sig types.Signature) ([]byte, error) {
	data, err := relayABI.Pack("executeMetaTransaction", wireMetaTx{
		Signer:                mtx.Signer,
		Sender:                mtx.Sender,
		MinGasPrice:           mtx.MinGasPrice,
		MaxGasPrice:           mtx.MaxGasPrice,
		ExpirationTimeSeconds: mtx.ExpirationTimeSeconds,
		Salt:                  mtx.Salt,
		CallData:              mtx.CallData,
		Value:                 mtx.Value,
		FeeToken:              mtx.FeeToken,
		FeeAmount:             mtx.FeeAmount,
	}, []byte(sig))
	if err != nil {
		return nil, fmt.Errorf("pack delegated call: %w", err)
	}
	return data, nil
}

// DecodeFillCall is the exact inverse of EncodeFillCall for well-formed input.
func DecodeFillCall(data []byte) (types.FillOrder, types.Signature, *big.Int, error) {
	method := relayABI.Methods["fillQuoteOrder"]

	err := checkSelector(data, method.ID, "decode-fill-call")
	if err != nil {
		return types.FillOrder{}, nil, nil, err
	}

	vals, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return types.FillOrder{}, nil, nil, types.NewRelayError(
			types.KindMalformedCallData, "decode-fill-call", "unpack inputs", err)
	}

	order := abi.ConvertType(vals[0], new(wireOrder)).(*wireOrder)
	sig, sigOK := vals[1].([]byte)
	takerAmount, amountOK := vals[2].(*big.Int)
	if !sigOK || !amountOK {
		return types.FillOrder{}, nil, nil, types.NewRelayError(
			types.KindMalformedCallData, "decode-fill-call", "unexpected field types", nil)
	}

	return types.FillOrder{
		Maker:       order.Maker,
		Taker:       order.Taker,
		MakerToken:  order.MakerToken,
		TakerToken:  order.TakerToken,
		TakerAmount: order.TakerAmount,
		MakerAmount: order.MakerAmount,
		Pool:        order.Pool,
		Expiry:      order.Expiry,
	}, sig, takerAmount, nil
}

// DecodeDelegatedCall recovers the wrapped calldata and the envelope
// signature from an executeMetaTransaction payload.
func DecodeDelegatedCall(data []byte) ([]byte, types.Signature, error) {
	method := relayABI.Methods["executeMetaTransaction"]

	err := checkSelector(data, method.ID, "decode-delegated-call")
	if err != nil {
		return nil, nil, err
	}

	vals, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, types.NewRelayError(
			types.KindMalformedCallData, "decode-delegated-call", "unpack inputs", err)
	}

	mtx := abi.ConvertType(vals[0], new(wireMetaTx)).(*wireMetaTx)
	sig, ok := vals[1].([]byte)
	if !ok {
		return nil, nil, types.NewRelayError(
			types.KindMalformedCallData, "decode-delegated-call", "unexpected signature type", nil)
	}

	return mtx.CallData, sig, nil
}

// DecodeDelegatedReturn unwraps the return of a delegated-execution call.
// The wrapper declares returns(bytes), so the node ABI-encodes the inner
// call's return as offset+length+data; this recovers the inner bytes.
func DecodeDelegatedReturn(ret []byte) ([]byte, error) {
	method := relayABI.Methods["executeMetaTransaction"]

	vals, err := method.Outputs.Unpack(ret)
	if err != nil {
		return nil, types.NewRelayError(
			types.KindMalformedCallData, "decode-delegated-return", "unpack outputs", err)
	}

	inner, ok := vals[0].([]byte)
	if !ok {
		return nil, types.NewRelayError(
			types.KindMalformedCallData, "decode-delegated-return", "unexpected field type", nil)
	}

	return inner, nil
}

// DecodeFillReturn decodes the two filled amounts returned by a fill call.
// For a delegated call's return, unwrap with DecodeDelegatedReturn first.
func DecodeFillReturn(ret []byte) (types.FillResult, error) {
	method := relayABI.Methods["fillQuoteOrder"]

	vals, err := method.Outputs.Unpack(ret)
	if err != nil {
		return types.FillResult{}, types.NewRelayError(
			types.KindMalformedCallData, "decode-fill-return", "unpack outputs", err)
	}

	takerFilled, takerOK := vals[0].(*big.Int)
	makerFilled, makerOK := vals[1].(*big.Int)
	if !takerOK || !makerOK {
		return types.FillResult{}, types.NewRelayError(
			types.KindMalformedCallData, "decode-fill-return", "unexpected field types", nil)
	}

	return types.FillResult{
		TakerTokenFilledAmount: takerFilled,
		MakerTokenFilledAmount: makerFilled,
	}, nil
}

// DecodeQuoteFilledLog decodes the data payload of a QuoteFilled log.
// Topic matching is the caller's job (the event resolver).
func DecodeQuoteFilledLog(data []byte) (types.QuoteFilledEvent, error) {
	event := relayABI.Events["QuoteFilled"]

	vals, err := event.Inputs.Unpack(data)
	if err != nil {
		return types.QuoteFilledEvent{}, types.NewRelayError(
			types.KindMalformedCallData, "decode-quote-filled-log", "unpack event data", err)
	}

	orderHash, hashOK := vals[0].([32]byte)
	maker, makerOK := vals[1].(common.Address)
	taker, takerOK := vals[2].(common.Address)
	makerToken, makerTokenOK := vals[3].(common.Address)
	takerToken, takerTokenOK := vals[4].(common.Address)
	takerFilled, takerAmtOK := vals[5].(*big.Int)
	makerFilled, makerAmtOK := vals[6].(*big.Int)
	pool, poolOK := vals[7].([32]byte)
	if !hashOK || !makerOK || !takerOK || !makerTokenOK || !takerTokenOK ||
		!takerAmtOK || !makerAmtOK || !poolOK {
		return types.QuoteFilledEvent{}, types.NewRelayError(
			types.KindMalformedCallData, "decode-quote-filled-log", "unexpected field types", nil)
	}

	return types.QuoteFilledEvent{
		OrderHash:              orderHash,
		Maker:                  maker,
		Taker:                  taker,
		MakerToken:             makerToken,
		TakerToken:             takerToken,
		TakerTokenFilledAmount: takerFilled,
		MakerTokenFilledAmount: makerFilled,
		Pool:                   pool,
	}, nil
}

func checkSelector(data, want []byte, op string) error {
	if len(data) < 4 {
		return types.NewRelayError(types.KindMalformedCallData, op,
			fmt.Sprintf("calldata too short: %d bytes", len(data)), nil)
	}
	if !bytes.Equal(data[:4], want) {
		return types.NewRelayError(types.KindMalformedCallData, op,
			fmt.Sprintf("selector 0x%x, want 0x%x", data[:4], want), nil)
	}
	return nil
}
