package relayer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/mselser95/metatx-relay/internal/chain"
	"github.com/mselser95/metatx-relay/internal/codec"
	"github.com/mselser95/metatx-relay/pkg/types"
)

// DefaultGasEstimateBuffer is the safety multiplier applied to raw node gas
// estimates, absorbing state-dependent variance between estimation time and
// inclusion time. Preserved exactly; tune via config, not code.
const DefaultGasEstimateBuffer = 1.5

// Engine orchestrates building, simulating, submitting, and validating
// delegated fills against one chain client. It holds no mutable state of its
// own, so multiple engines may share a client concurrently.
type Engine struct {
	chain             chain.Client
	verifyingContract common.Address
	gasBuffer         float64
	logger            *zap.Logger
}

// Config holds engine configuration.
type Config struct {
	Chain             chain.Client
	VerifyingContract common.Address
	// GasEstimateBuffer defaults to DefaultGasEstimateBuffer.
	GasEstimateBuffer float64
	Logger            *zap.Logger
}

// CallOptions carries optional overrides for a validation simulation.
type CallOptions struct {
	GasPrice *big.Int
}

// New creates an engine.
func New(cfg *Config) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Chain == nil {
		return nil, errors.New("chain client cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	buffer := cfg.GasEstimateBuffer
	if buffer == 0 {
		buffer = DefaultGasEstimateBuffer
	}
	if buffer < 1.0 {
		return nil, fmt.Errorf("gas estimate buffer %v would under-provision gas", buffer)
	}

	return &Engine{
		chain:             cfg.Chain,
		verifyingContract: cfg.VerifyingContract,
		gasBuffer:         buffer,
		logger:            cfg.Logger,
	}, nil
}

// EstimateGasForCall estimates gas for calldata sent from the worker and
// returns ceil(estimate x buffer).
func (e *Engine) EstimateGasForCall(ctx context.Context, callData []byte, from common.Address) (uint64, error) {
	raw, err := e.chain.EstimateGas(ctx, types.ChainCallContext{
		To:   e.verifyingContract,
		Data: callData,
		From: from,
	})
	if err != nil {
		return 0, err
	}

	buffered := uint64(math.Ceil(float64(raw) * e.gasBuffer))
	GasEstimated.Observe(float64(buffered))

	e.logger.Debug("gas-estimated",
		zap.Uint64("raw", raw),
		zap.Uint64("buffered", buffered))

	return buffered, nil
}

// ValidateDelegatedFill simulates the delegated call and checks the decoded
// fill against the amount the requester authorized. The requester's minimum
// is the taker amount embedded in the envelope's own fill calldata, so an
// under-filling relayer cannot pass validation.
func (e *Engine) ValidateDelegatedFill(
	ctx context.Context,
	mtx types.MetaTransaction,
	mtxSig types.Signature,
	sender common.Address,
	opts CallOptions,
) (types.FillResult, error) {
	start := time.Now()
	defer func() {
		ValidationDuration.Observe(time.Since(start).Seconds())
	}()

	delegatedData, err := codec.EncodeDelegatedCall(mtx, mtxSig)
	if err != nil {
		ValidationsTotal.WithLabelValues("encode-error").Inc()
		return types.FillResult{}, types.NewRelayError(types.KindValidationFailed,
			"validate-delegated-fill", "encode delegated call", err)
	}

	ret, err := e.chain.Call(ctx, types.ChainCallContext{
		To:       e.verifyingContract,
		Data:     delegatedData,
		From:     sender,
		GasPrice: opts.GasPrice,
	})
	if err != nil {
		ValidationsTotal.WithLabelValues("simulation-error").Inc()
		return types.FillResult{}, types.NewRelayError(types.KindValidationFailed,
			"validate-delegated-fill", "simulate via "+e.verifyingContract.Hex(), err)
	}

	// The wrapper ABI-encodes the inner call's return as bytes; unwrap it
	// before reading the fill amounts.
	innerRet, err := codec.DecodeDelegatedReturn(ret)
	if err != nil {
		ValidationsTotal.WithLabelValues("decode-error").Inc()
		return types.FillResult{}, types.NewRelayError(types.KindValidationFailed,
			"validate-delegated-fill", "unwrap simulated return", err)
	}

	result, err := codec.DecodeFillReturn(innerRet)
	if err != nil {
		ValidationsTotal.WithLabelValues("decode-error").Inc()
		return types.FillResult{}, types.NewRelayError(types.KindValidationFailed,
			"validate-delegated-fill", "decode simulated return", err)
	}

	requested, err := requestedTakerAmount(mtx.CallData)
	if err != nil {
		ValidationsTotal.WithLabelValues("decode-error").Inc()
		return types.FillResult{}, types.NewRelayError(types.KindValidationFailed,
			"validate-delegated-fill", "decode requested amount", err)
	}

	if result.TakerTokenFilledAmount.Cmp(requested) < 0 {
		ValidationsTotal.WithLabelValues("insufficient-fill").Inc()
		return types.FillResult{}, types.NewRelayError(types.KindInsufficientFill,
			"validate-delegated-fill",
			fmt.Sprintf("filled %s < requested %s", result.TakerTokenFilledAmount, requested), nil)
	}

	ValidationsTotal.WithLabelValues("ok").Inc()
	e.logger.Info("delegated-fill-validated",
		zap.String("taker-filled", result.TakerTokenFilledAmount.String()),
		zap.String("maker-filled", result.MakerTokenFilledAmount.String()),
		zap.String("requested", requested.String()))

	return result, nil
}

// SubmitDelegatedFill submits pre-built delegated calldata from the worker
// address. No pre-validation happens here: callers either validated first or
// accept the submission risk. Not idempotent.
func (e *Engine) SubmitDelegatedFill(
	ctx context.Context,
	callData []byte,
	worker common.Address,
	opts chain.SubmissionOptions,
) (common.Hash, error) {
	txHash, err := e.chain.SubmitTransaction(ctx, types.ChainCallContext{
		To:   e.verifyingContract,
		Data: callData,
		From: worker,
	}, opts)
	if err != nil {
		SubmissionsTotal.WithLabelValues("error").Inc()
		return common.Hash{}, err
	}

	SubmissionsTotal.WithLabelValues("ok").Inc()
	e.logger.Info("delegated-fill-submitted",
		zap.String("tx-hash", txHash.Hex()),
		zap.String("worker", worker.Hex()))

	return txHash, nil
}

// ExtractRequestedTakerAmount decodes the taker amount a delegated payload
// asks for, without a validation round-trip.
func (e *Engine) ExtractRequestedTakerAmount(delegatedCallData []byte) (*big.Int, error) {
	innerData, _, err := codec.DecodeDelegatedCall(delegatedCallData)
	if err != nil {
		return nil, err
	}
	return requestedTakerAmount(innerData)
}

func requestedTakerAmount(fillCallData []byte) (*big.Int, error) {
	_, _, takerAmount, err := codec.DecodeFillCall(fillCallData)
	if err != nil {
		return nil, err
	}
	return takerAmount, nil
}
