package metatx

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mselser95/metatx-relay/internal/codec"
	"github.com/mselser95/metatx-relay/pkg/types"
)

// DefaultMaxGasPriceWei is the envelope gas-price ceiling: 10K gwei. A sanity
// clamp far above any realistic network price, not a market quote. Changing
// it changes economic behavior, so deployments override it via config only.
//
//nolint:gochecknoglobals // Domain constant shared as a config default.
var DefaultMaxGasPriceWei = big.NewInt(10_000_000_000_000)

// Clock supplies the current time. Injected so envelope salts are
// deterministic in tests.
type Clock func() time.Time

// Builder assembles delegated-execution envelopes around fill calls.
type Builder struct {
	maxGasPriceWei *big.Int
	clock          Clock
}

// Config holds builder configuration.
type Config struct {
	// MaxGasPriceWei bounds mtx.MaxGasPrice. Defaults to DefaultMaxGasPriceWei.
	MaxGasPriceWei *big.Int
	// Clock defaults to time.Now.
	Clock Clock
}

// New creates a builder.
func New(cfg *Config) (*Builder, error) {
	ceiling := DefaultMaxGasPriceWei
	clock := Clock(time.Now)

	if cfg != nil {
		if cfg.MaxGasPriceWei != nil {
			ceiling = cfg.MaxGasPriceWei
		}
		if cfg.Clock != nil {
			clock = cfg.Clock
		}
	}

	if ceiling.Sign() <= 0 {
		return nil, errors.New("max gas price must be positive")
	}

	return &Builder{
		maxGasPriceWei: new(big.Int).Set(ceiling),
		clock:          clock,
	}, nil
}

// BuildFillMetaTransaction wraps a fill instruction in a delegated-execution
// envelope. The envelope expires exactly when the wrapped order does, and
// its salt is the current epoch-millisecond timestamp: monotonically unique
// per builder, not required to be unpredictable.
func (b *Builder) BuildFillMetaTransaction(
	order types.FillOrder,
	orderSig types.Signature,
	taker common.Address,
	takerAmount *big.Int,
	chainID *big.Int,
	verifyingContract common.Address,
) (types.MetaTransaction, error) {
	if takerAmount == nil || takerAmount.Sign() < 0 {
		return types.MetaTransaction{}, errors.New("taker amount must be non-negative")
	}

	callData, err := codec.EncodeFillCall(order, orderSig, takerAmount)
	if err != nil {
		return types.MetaTransaction{}, fmt.Errorf("encode fill call: %w", err)
	}

	mtx := types.MetaTransaction{
		Signer:                taker,
		Sender:                common.Address{}, // any relayer may submit
		MinGasPrice:           big.NewInt(0),
		MaxGasPrice:           new(big.Int).Set(b.maxGasPriceWei),
		ExpirationTimeSeconds: new(big.Int).SetUint64(order.Expiry),
		Salt:                  big.NewInt(b.clock().UnixMilli()),
		CallData:              callData,
		Value:                 big.NewInt(0),
		FeeToken:              common.Address{},
		FeeAmount:             big.NewInt(0),
		ChainID:               chainID,
		VerifyingContract:     verifyingContract,
	}

	err = CheckGasPriceBounds(mtx, b.maxGasPriceWei)
	if err != nil {
		return types.MetaTransaction{}, err
	}

	return mtx, nil
}

// CheckGasPriceBounds enforces 0 <= minGasPrice <= maxGasPrice <= ceiling.
// The band protects worker funds from envelopes that would authorize
// submission at absurd prices.
func CheckGasPriceBounds(mtx types.MetaTransaction, ceiling *big.Int) error {
	if mtx.MinGasPrice == nil || mtx.MaxGasPrice == nil {
		return errors.New("gas price bounds must be set")
	}
	if mtx.MinGasPrice.Sign() < 0 {
		return fmt.Errorf("min gas price %s is negative", mtx.MinGasPrice)
	}
	if mtx.MinGasPrice.Cmp(mtx.MaxGasPrice) > 0 {
		return fmt.Errorf("min gas price %s exceeds max gas price %s", mtx.MinGasPrice, mtx.MaxGasPrice)
	}
	if mtx.MaxGasPrice.Cmp(ceiling) > 0 {
		return fmt.Errorf("max gas price %s exceeds ceiling %s", mtx.MaxGasPrice, ceiling)
	}
	return nil
}
