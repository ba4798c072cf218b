package httpserver

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	"github.com/mselser95/metatx-relay/internal/chain"
	"github.com/mselser95/metatx-relay/internal/codec"
	"github.com/mselser95/metatx-relay/internal/journal"
	"github.com/mselser95/metatx-relay/internal/relayer"
	"github.com/mselser95/metatx-relay/pkg/types"
	"go.uber.org/zap"
)

// RelayEngine is what the relay endpoint needs from the engine. Satisfied by
// *relayer.Engine; narrowed so tests can script outcomes.
type RelayEngine interface {
	ValidateDelegatedFill(ctx context.Context, mtx types.MetaTransaction, mtxSig types.Signature, sender common.Address, opts relayer.CallOptions) (types.FillResult, error)
	EstimateGasForCall(ctx context.Context, callData []byte, from common.Address) (uint64, error)
	SubmitDelegatedFill(ctx context.Context, callData []byte, worker common.Address, opts chain.SubmissionOptions) (common.Hash, error)
}

// RelayHandler serves envelope intake: validate, submit, journal.
type RelayHandler struct {
	engine   RelayEngine
	journal  journal.Journal
	worker   common.Address
	gasPrice *big.Int
	logger   *zap.Logger
}

// NewRelayHandler creates the /api/relay handler. gasPrice is the price every
// accepted submission pays; envelopes whose band excludes it are rejected.
func NewRelayHandler(engine RelayEngine, attemptJournal journal.Journal, worker common.Address, gasPrice *big.Int, logger *zap.Logger) *RelayHandler {
	return &RelayHandler{
		engine:   engine,
		journal:  attemptJournal,
		worker:   worker,
		gasPrice: gasPrice,
		logger:   logger,
	}
}

// relayRequest is the POST /api/relay body.
type relayRequest struct {
	Envelope types.MetaTransactionWire `json:"envelope"`
	DryRun   bool                      `json:"dryRun,omitempty"`
}

// relayResponse is the success payload.
type relayResponse struct {
	AttemptID         string `json:"attemptId"`
	Status            string `json:"status"`
	TxHash            string `json:"txHash,omitempty"`
	TakerAmountFilled string `json:"takerAmountFilled"`
	MakerAmountFilled string `json:"makerAmountFilled"`
}

// relayErrorResponse is the failure payload.
type relayErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// HandleRelay accepts a signed envelope, validates it against the chain, and
// submits it from the worker account unless dryRun is set.
func (h *RelayHandler) HandleRelay(w http.ResponseWriter, r *http.Request) {
	var req relayRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeRelayError(w, http.StatusBadRequest, "invalid JSON body", "")
		return
	}

	mtx, sig, err := req.Envelope.Decode()
	if err != nil {
		writeRelayError(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	if len(sig) == 0 {
		writeRelayError(w, http.StatusBadRequest, "envelope is unsigned", "")
		return
	}

	if h.gasPrice.Cmp(mtx.MinGasPrice) < 0 || h.gasPrice.Cmp(mtx.MaxGasPrice) > 0 {
		writeRelayError(w, http.StatusBadRequest, "worker gas price outside envelope band", "")
		return
	}

	attempt := &journal.Attempt{
		ID:                journal.NewAttemptID(),
		Worker:            h.worker.Hex(),
		VerifyingContract: mtx.VerifyingContract.Hex(),
		GasPriceWei:       h.gasPrice.String(),
		AttemptedAt:       time.Now().UTC(),
	}

	ctx := r.Context()

	result, err := h.engine.ValidateDelegatedFill(ctx, mtx, sig, h.worker, relayer.CallOptions{
		GasPrice: h.gasPrice,
	})
	if err != nil {
		h.recordFailure(ctx, attempt, err)
		status := http.StatusUnprocessableEntity
		if types.IsKind(err, types.KindValidationFailed) {
			status = http.StatusBadGateway
		}
		writeRelayError(w, status, err.Error(), failureKind(err))
		return
	}

	attempt.TakerAmountFilled = result.TakerTokenFilledAmount.String()
	attempt.MakerAmountFilled = result.MakerTokenFilledAmount.String()

	if req.DryRun {
		attempt.Status = journal.StatusValidated
		h.record(ctx, attempt)
		writeJSON(w, http.StatusOK, relayResponse{
			AttemptID:         attempt.ID,
			Status:            string(journal.StatusValidated),
			TakerAmountFilled: attempt.TakerAmountFilled,
			MakerAmountFilled: attempt.MakerAmountFilled,
		})
		return
	}

	callData, err := codec.EncodeDelegatedCall(mtx, sig)
	if err != nil {
		h.recordFailure(ctx, attempt, err)
		writeRelayError(w, http.StatusBadRequest, err.Error(), failureKind(err))
		return
	}

	gasLimit, err := h.engine.EstimateGasForCall(ctx, callData, h.worker)
	if err != nil {
		h.recordFailure(ctx, attempt, err)
		writeRelayError(w, http.StatusBadGateway, err.Error(), failureKind(err))
		return
	}
	attempt.GasLimit = gasLimit

	txHash, err := h.engine.SubmitDelegatedFill(ctx, callData, h.worker, chain.SubmissionOptions{
		GasLimit: gasLimit,
		GasPrice: h.gasPrice,
	})
	if err != nil {
		h.recordFailure(ctx, attempt, err)
		writeRelayError(w, http.StatusBadGateway, err.Error(), failureKind(err))
		return
	}

	attempt.TxHash = txHash.Hex()
	attempt.Status = journal.StatusSubmitted
	h.record(ctx, attempt)

	writeJSON(w, http.StatusAccepted, relayResponse{
		AttemptID:         attempt.ID,
		Status:            string(journal.StatusSubmitted),
		TxHash:            txHash.Hex(),
		TakerAmountFilled: attempt.TakerAmountFilled,
		MakerAmountFilled: attempt.MakerAmountFilled,
	})
}

func (h *RelayHandler) record(ctx context.Context, attempt *journal.Attempt) {
	err := h.journal.RecordAttempt(ctx, attempt)
	if err != nil {
		h.logger.Error("journal-record-error",
			zap.String("attempt-id", attempt.ID),
			zap.Error(err))
	}
}

func (h *RelayHandler) recordFailure(ctx context.Context, attempt *journal.Attempt, cause error) {
	attempt.Status = journal.StatusFailed
	attempt.FailureKind = failureKind(cause)
	h.record(ctx, attempt)
}

func failureKind(err error) string {
	var relayErr *types.RelayError
	if errors.As(err, &relayErr) {
		return string(relayErr.Kind)
	}
	return ""
}

func writeRelayError(w http.ResponseWriter, status int, msg string, kind string) {
	writeJSON(w, status, relayErrorResponse{Error: msg, Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
