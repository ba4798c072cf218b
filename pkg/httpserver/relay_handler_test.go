package httpserver

import (
	"bytes"
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	"github.com/mselser95/metatx-relay/internal/chain"
	"github.com/mselser95/metatx-relay/internal/journal"
	"github.com/mselser95/metatx-relay/internal/relayer"
	"github.com/mselser95/metatx-relay/pkg/types"
	"go.uber.org/zap"
)

type fakeRelayEngine struct {
	validateResult types.FillResult
	validateErr    error
	gasLimit       uint64
	estimateErr    error
	txHash         common.Hash
	submitErr      error

	validateCalls int
	submitCalls   int
}

func (f *fakeRelayEngine) ValidateDelegatedFill(ctx context.Context, mtx types.MetaTransaction, mtxSig types.Signature, sender common.Address, opts relayer.CallOptions) (types.FillResult, error) {
	f.validateCalls++
	return f.validateResult, f.validateErr
}

func (f *fakeRelayEngine) EstimateGasForCall(ctx context.Context, callData []byte, from common.Address) (uint64, error) {
	return f.gasLimit, f.estimateErr
}

func (f *fakeRelayEngine) SubmitDelegatedFill(ctx context.Context, callData []byte, worker common.Address, opts chain.SubmissionOptions) (common.Hash, error) {
	f.submitCalls++
	return f.txHash, f.submitErr
}

type recordingJournal struct {
	attempts []*journal.Attempt
}

func (r *recordingJournal) RecordAttempt(ctx context.Context, attempt *journal.Attempt) error {
	r.attempts = append(r.attempts, attempt)
	return nil
}

func (r *recordingJournal) Close() error { return nil }

func signedTestEnvelope(t *testing.T) types.MetaTransactionWire {
	t.Helper()

	wire := types.WireFromMetaTransaction(types.MetaTransaction{
		Signer:                common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Sender:                common.Address{},
		MinGasPrice:           big.NewInt(0),
		MaxGasPrice:           big.NewInt(10_000_000_000_000),
		ExpirationTimeSeconds: big.NewInt(1_900_000_000),
		Salt:                  big.NewInt(42),
		CallData:              []byte{0x01, 0x02, 0x03},
		Value:                 big.NewInt(0),
		FeeToken:              common.Address{},
		FeeAmount:             big.NewInt(0),
		ChainID:               big.NewInt(137),
		VerifyingContract:     common.HexToAddress("0x2222222222222222222222222222222222222222"),
	})
	wire.Signature = "0xaabb"

	return wire
}

func postRelay(t *testing.T, h *RelayHandler, req relayRequest) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	rec := httptest.NewRecorder()
	h.HandleRelay(rec, httptest.NewRequest(http.MethodPost, "/api/relay", bytes.NewReader(body)))

	return rec
}

func TestRelayHandler_SubmitsValidEnvelope(t *testing.T) {
	engine := &fakeRelayEngine{
		validateResult: types.FillResult{
			TakerTokenFilledAmount: big.NewInt(1000),
			MakerTokenFilledAmount: big.NewInt(2000),
		},
		gasLimit: 150_000,
		txHash:   common.HexToHash("0xdead"),
	}
	rec := &recordingJournal{}
	h := NewRelayHandler(engine, rec, common.HexToAddress("0x3333333333333333333333333333333333333333"),
		big.NewInt(50_000_000_000), zap.NewNop())

	resp := postRelay(t, h, relayRequest{Envelope: signedTestEnvelope(t)})

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.Code, resp.Body.String())
	}

	var out relayResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Status != string(journal.StatusSubmitted) {
		t.Errorf("expected submitted status, got %q", out.Status)
	}
	if out.TakerAmountFilled != "1000" {
		t.Errorf("expected taker filled 1000, got %q", out.TakerAmountFilled)
	}

	if len(rec.attempts) != 1 {
		t.Fatalf("expected 1 journaled attempt, got %d", len(rec.attempts))
	}
	if rec.attempts[0].Status != journal.StatusSubmitted {
		t.Errorf("expected journaled status submitted, got %q", rec.attempts[0].Status)
	}
	if rec.attempts[0].GasLimit != 150_000 {
		t.Errorf("expected journaled gas limit 150000, got %d", rec.attempts[0].GasLimit)
	}
}

func TestRelayHandler_DryRunSkipsSubmission(t *testing.T) {
	engine := &fakeRelayEngine{
		validateResult: types.FillResult{
			TakerTokenFilledAmount: big.NewInt(1000),
			MakerTokenFilledAmount: big.NewInt(2000),
		},
	}
	rec := &recordingJournal{}
	h := NewRelayHandler(engine, rec, common.Address{}, big.NewInt(1), zap.NewNop())

	resp := postRelay(t, h, relayRequest{Envelope: signedTestEnvelope(t), DryRun: true})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if engine.submitCalls != 0 {
		t.Errorf("expected no submissions, got %d", engine.submitCalls)
	}
	if len(rec.attempts) != 1 || rec.attempts[0].Status != journal.StatusValidated {
		t.Error("expected one journaled validated attempt")
	}
}

func TestRelayHandler_InsufficientFillRejected(t *testing.T) {
	engine := &fakeRelayEngine{
		validateErr: types.NewRelayError(types.KindInsufficientFill, "validate-delegated-fill", "filled 1 < requested 2", nil),
	}
	rec := &recordingJournal{}
	h := NewRelayHandler(engine, rec, common.Address{}, big.NewInt(1), zap.NewNop())

	resp := postRelay(t, h, relayRequest{Envelope: signedTestEnvelope(t)})

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}

	var out relayErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Kind != string(types.KindInsufficientFill) {
		t.Errorf("expected INSUFFICIENT_FILL kind, got %q", out.Kind)
	}

	if len(rec.attempts) != 1 || rec.attempts[0].Status != journal.StatusFailed {
		t.Error("expected one journaled failed attempt")
	}
}

func TestRelayHandler_UnsignedEnvelopeRejected(t *testing.T) {
	engine := &fakeRelayEngine{}
	h := NewRelayHandler(engine, &recordingJournal{}, common.Address{}, big.NewInt(1), zap.NewNop())

	env := signedTestEnvelope(t)
	env.Signature = ""

	resp := postRelay(t, h, relayRequest{Envelope: env})

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if engine.validateCalls != 0 {
		t.Errorf("expected no validation calls, got %d", engine.validateCalls)
	}
}

func TestRelayHandler_GasPriceOutsideBandRejected(t *testing.T) {
	engine := &fakeRelayEngine{}
	// Worker gas price above the envelope's max.
	h := NewRelayHandler(engine, &recordingJournal{}, common.Address{},
		big.NewInt(20_000_000_000_000), zap.NewNop())

	resp := postRelay(t, h, relayRequest{Envelope: signedTestEnvelope(t)})

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if engine.validateCalls != 0 {
		t.Errorf("expected no validation calls, got %d", engine.validateCalls)
	}
}
