package metatx

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mselser95/metatx-relay/internal/codec"
	"github.com/mselser95/metatx-relay/pkg/types"
)

func fixedClock(unixMilli int64) Clock {
	return func() time.Time {
		return time.UnixMilli(unixMilli)
	}
}

func sampleOrder() types.FillOrder {
	return types.FillOrder{
		Maker:       common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Taker:       common.HexToAddress("0x2222222222222222222222222222222222222222"),
		MakerToken:  common.HexToAddress("0x3333333333333333333333333333333333333333"),
		TakerToken:  common.HexToAddress("0x4444444444444444444444444444444444444444"),
		TakerAmount: big.NewInt(100),
		MakerAmount: big.NewInt(200),
		Pool:        common.HexToHash("0x01"),
		Expiry:      1_800_000_000,
	}
}

func TestBuildFillMetaTransaction(t *testing.T) {
	builder, err := New(&Config{Clock: fixedClock(1_712_000_000_123)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	order := sampleOrder()
	taker := order.Taker
	chainID := big.NewInt(137)
	verifier := common.HexToAddress("0x5555555555555555555555555555555555555555")

	mtx, err := builder.BuildFillMetaTransaction(order, types.Signature{0x01}, taker, big.NewInt(75), chainID, verifier)
	if err != nil {
		t.Fatalf("BuildFillMetaTransaction() error = %v", err)
	}

	if mtx.Signer != taker {
		t.Errorf("signer = %v, want %v", mtx.Signer, taker)
	}
	if mtx.Sender != (common.Address{}) {
		t.Errorf("sender = %v, want zero address (any relayer)", mtx.Sender)
	}
	if mtx.MinGasPrice.Sign() != 0 {
		t.Errorf("min gas price = %v, want 0", mtx.MinGasPrice)
	}
	if mtx.MaxGasPrice.Cmp(DefaultMaxGasPriceWei) != 0 {
		t.Errorf("max gas price = %v, want %v", mtx.MaxGasPrice, DefaultMaxGasPriceWei)
	}
	if mtx.ExpirationTimeSeconds.Uint64() != order.Expiry {
		t.Errorf("expiration = %v, want order expiry %d", mtx.ExpirationTimeSeconds, order.Expiry)
	}
	if mtx.Salt.Int64() != 1_712_000_000_123 {
		t.Errorf("salt = %v, want injected clock millis", mtx.Salt)
	}
	if mtx.Value.Sign() != 0 || mtx.FeeAmount.Sign() != 0 || mtx.FeeToken != (common.Address{}) {
		t.Errorf("fee fields not zeroed: value=%v feeToken=%v feeAmount=%v", mtx.Value, mtx.FeeToken, mtx.FeeAmount)
	}
	if mtx.ChainID.Cmp(chainID) != 0 || mtx.VerifyingContract != verifier {
		t.Errorf("domain = %v/%v, want %v/%v", mtx.ChainID, mtx.VerifyingContract, chainID, verifier)
	}

	// The embedded calldata must decode back to the original fill terms.
	gotOrder, _, gotAmount, err := codec.DecodeFillCall(mtx.CallData)
	if err != nil {
		t.Fatalf("DecodeFillCall(mtx.CallData) error = %v", err)
	}
	if gotOrder.Maker != order.Maker || gotAmount.Cmp(big.NewInt(75)) != 0 {
		t.Errorf("embedded fill call does not match input order")
	}
}

func TestBuildDeterministicWithFixedClock(t *testing.T) {
	builder, _ := New(&Config{Clock: fixedClock(42)})

	a, err := builder.BuildFillMetaTransaction(sampleOrder(), types.Signature{0x01},
		common.Address{}, big.NewInt(1), big.NewInt(1), common.Address{})
	if err != nil {
		t.Fatalf("BuildFillMetaTransaction() error = %v", err)
	}
	b, _ := builder.BuildFillMetaTransaction(sampleOrder(), types.Signature{0x01},
		common.Address{}, big.NewInt(1), big.NewInt(1), common.Address{})

	if a.Salt.Cmp(b.Salt) != 0 || string(a.CallData) != string(b.CallData) {
		t.Errorf("builder output not deterministic under a fixed clock")
	}
}

func TestCheckGasPriceBounds(t *testing.T) {
	ceiling := big.NewInt(1000)

	tests := []struct {
		name    string
		min     int64
		max     int64
		wantErr bool
	}{
		{name: "zero-to-ceiling", min: 0, max: 1000, wantErr: false},
		{name: "inside-band", min: 5, max: 10, wantErr: false},
		{name: "min-above-max", min: 11, max: 10, wantErr: true},
		{name: "negative-min", min: -1, max: 10, wantErr: true},
		{name: "max-above-ceiling", min: 0, max: 1001, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mtx := types.MetaTransaction{
				MinGasPrice: big.NewInt(tt.min),
				MaxGasPrice: big.NewInt(tt.max),
			}
			err := CheckGasPriceBounds(mtx, ceiling)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckGasPriceBounds() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRejectsNonPositiveCeiling(t *testing.T) {
	_, err := New(&Config{MaxGasPriceWei: big.NewInt(0)})
	if err == nil {
		t.Error("New() accepted zero ceiling")
	}
}
