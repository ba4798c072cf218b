package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/mselser95/metatx-relay/pkg/cache"
	"github.com/mselser95/metatx-relay/pkg/types"
)

// receiptCacheTTL bounds how long a mined receipt stays cached. Receipts are
// immutable once mined, so the TTL only caps memory, not staleness.
const receiptCacheTTL = 10 * time.Minute

// SubmissionOptions carries the execution parameters of a transaction
// submission. Nonce is optional: when nil the node's pending nonce is used,
// but serializing submissions per worker remains the caller's job.
type SubmissionOptions struct {
	GasLimit uint64
	GasPrice *big.Int
	Nonce    *uint64
}

// Client is the facade over a remote execution-layer node. Implementations
// must support concurrent outstanding requests without shared mutable state.
type Client interface {
	// Nonce returns the pending nonce of an address.
	Nonce(ctx context.Context, addr common.Address) (uint64, error)

	// Balance returns the native-currency balance of an address in wei.
	Balance(ctx context.Context, addr common.Address) (*big.Int, error)

	// BlockNumber returns the current block height.
	BlockNumber(ctx context.Context) (uint64, error)

	// EstimateGas estimates the gas a call would consume. Fails with an
	// ESTIMATION_FAILED kind when the node rejects simulation.
	EstimateGas(ctx context.Context, call types.ChainCallContext) (uint64, error)

	// Call executes a read-only simulation and returns the raw return data.
	// Node-reported execution failures carry a CALL_REVERTED kind with the
	// revert reason when available; transport failures stay unclassified.
	Call(ctx context.Context, call types.ChainCallContext) ([]byte, error)

	// SubmitTransaction signs and submits a transaction from the worker key.
	// Fails with a SUBMISSION_FAILED kind on node rejection; never retried.
	SubmitTransaction(ctx context.Context, call types.ChainCallContext, opts SubmissionOptions) (common.Hash, error)

	// Receipt looks up a transaction receipt. A not-yet-mined transaction
	// returns (nil, false, nil): absence, not failure.
	Receipt(ctx context.Context, txHash common.Hash) (*gethtypes.Receipt, bool, error)

	// SignerAddress returns the worker address the node signs with.
	SignerAddress() common.Address

	// Close releases the underlying connection.
	Close()
}

// Node implements Client over a go-ethereum RPC connection. The connection
// handle is owned by whichever engine created the Node.
type Node struct {
	client   *ethclient.Client
	chainID  *big.Int
	key      *ecdsa.PrivateKey
	signer   common.Address
	receipts cache.Cache
	logger   *zap.Logger
}

// NodeConfig holds node connection configuration.
type NodeConfig struct {
	RPCURL       string
	WorkerKey    *ecdsa.PrivateKey
	ReceiptCache cache.Cache // optional
	Logger       *zap.Logger
}

// Dial connects to the node and resolves its chain ID.
func Dial(ctx context.Context, cfg *NodeConfig) (*Node, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.RPCURL == "" {
		return nil, errors.New("RPC URL cannot be empty")
	}
	if cfg.WorkerKey == nil {
		return nil, errors.New("worker key cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("get chain ID: %w", err)
	}

	signer := crypto.PubkeyToAddress(cfg.WorkerKey.PublicKey)

	cfg.Logger.Info("chain-node-connected",
		zap.String("chain-id", chainID.String()),
		zap.String("worker", signer.Hex()))

	return &Node{
		client:   client,
		chainID:  chainID,
		key:      cfg.WorkerKey,
		signer:   signer,
		receipts: cfg.ReceiptCache,
		logger:   cfg.Logger,
	}, nil
}

// ChainID returns the connected chain's identifier.
func (n *Node) ChainID() *big.Int {
	return new(big.Int).Set(n.chainID)
}

// SignerAddress returns the worker address the node signs with.
func (n *Node) SignerAddress() common.Address {
	return n.signer
}

// Nonce returns the pending nonce of an address.
func (n *Node) Nonce(ctx context.Context, addr common.Address) (uint64, error) {
	defer observe("nonce")()

	nonce, err := n.client.PendingNonceAt(ctx, addr)
	if err != nil {
		RPCErrorsTotal.WithLabelValues("nonce").Inc()
		return 0, fmt.Errorf("get nonce for %s: %w", addr.Hex(), err)
	}
	return nonce, nil
}

// Balance returns the native-currency balance of an address in wei.
func (n *Node) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	defer observe("balance")()

	balance, err := n.client.BalanceAt(ctx, addr, nil)
	if err != nil {
		RPCErrorsTotal.WithLabelValues("balance").Inc()
		return nil, fmt.Errorf("get balance for %s: %w", addr.Hex(), err)
	}
	return balance, nil
}

// BlockNumber returns the current block height.
func (n *Node) BlockNumber(ctx context.Context) (uint64, error) {
	defer observe("block-number")()

	height, err := n.client.BlockNumber(ctx)
	if err != nil {
		RPCErrorsTotal.WithLabelValues("block-number").Inc()
		return 0, fmt.Errorf("get block number: %w", err)
	}

	BlockHeight.Set(float64(height))
	return height, nil
}

// EstimateGas estimates the gas a call would consume.
func (n *Node) EstimateGas(ctx context.Context, call types.ChainCallContext) (uint64, error) {
	defer observe("estimate-gas")()

	estimate, err := n.client.EstimateGas(ctx, callMsg(call))
	if err != nil {
		RPCErrorsTotal.WithLabelValues("estimate-gas").Inc()
		return 0, types.NewRelayError(types.KindEstimationFailed, "estimate-gas",
			"to "+call.To.Hex(), err)
	}
	return estimate, nil
}

// Call executes a read-only simulation and returns the raw return data.
func (n *Node) Call(ctx context.Context, call types.ChainCallContext) ([]byte, error) {
	defer observe("call")()

	ret, err := n.client.CallContract(ctx, callMsg(call), nil)
	if err != nil {
		RPCErrorsTotal.WithLabelValues("call").Inc()
		if isRevert(err) {
			return nil, types.NewRelayError(types.KindCallReverted, "call",
				revertDetail(call, err), err)
		}
		// Transport or node failure, not an execution result.
		return nil, fmt.Errorf("call %s: %w", call.To.Hex(), err)
	}
	return ret, nil
}

// isRevert reports whether the node classified the failure as an execution
// error. Only those carry rpc.DataError; transport failures do not.
func isRevert(err error) bool {
	var dataErr rpc.DataError
	return errors.As(err, &dataErr)
}

// SubmitTransaction signs and submits a transaction from the worker key.
// Not idempotent: resubmission may conflict on nonce or double-spend.
func (n *Node) SubmitTransaction(ctx context.Context, call types.ChainCallContext, opts SubmissionOptions) (common.Hash, error) {
	defer observe("submit-transaction")()

	var nonce uint64
	if opts.Nonce != nil {
		nonce = *opts.Nonce
	} else {
		var err error
		nonce, err = n.Nonce(ctx, n.signer)
		if err != nil {
			return common.Hash{}, types.NewRelayError(types.KindSubmissionFailed,
				"submit-transaction", "nonce lookup for "+n.signer.Hex(), err)
		}
	}

	value := call.Value
	if value == nil {
		value = big.NewInt(0)
	}

	tx := gethtypes.NewTransaction(nonce, call.To, value, opts.GasLimit, opts.GasPrice, call.Data)

	signedTx, err := gethtypes.SignTx(tx, gethtypes.NewEIP155Signer(n.chainID), n.key)
	if err != nil {
		return common.Hash{}, types.NewRelayError(types.KindSubmissionFailed,
			"submit-transaction", "sign", err)
	}

	err = n.client.SendTransaction(ctx, signedTx)
	if err != nil {
		RPCErrorsTotal.WithLabelValues("submit-transaction").Inc()
		return common.Hash{}, types.NewRelayError(types.KindSubmissionFailed,
			"submit-transaction", "to "+call.To.Hex(), err)
	}

	TransactionsSubmittedTotal.Inc()
	n.logger.Info("transaction-submitted",
		zap.String("tx-hash", signedTx.Hash().Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas-limit", opts.GasLimit),
		zap.String("gas-price-wei", opts.GasPrice.String()))

	return signedTx.Hash(), nil
}

// Receipt looks up a transaction receipt, serving mined receipts from cache.
func (n *Node) Receipt(ctx context.Context, txHash common.Hash) (*gethtypes.Receipt, bool, error) {
	if n.receipts != nil {
		if cached, found := n.receipts.Get(txHash.Hex()); found {
			if receipt, ok := cached.(*gethtypes.Receipt); ok {
				return receipt, true, nil
			}
		}
	}

	defer observe("receipt")()

	receipt, err := n.client.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		// Not yet mined. Absence, not failure.
		return nil, false, nil
	}
	if err != nil {
		RPCErrorsTotal.WithLabelValues("receipt").Inc()
		return nil, false, fmt.Errorf("get receipt for %s: %w", txHash.Hex(), err)
	}

	if n.receipts != nil {
		n.receipts.Set(txHash.Hex(), receipt, receiptCacheTTL)
	}

	return receipt, true, nil
}

// Close releases the underlying connection.
func (n *Node) Close() {
	n.client.Close()
}

func callMsg(call types.ChainCallContext) ethereum.CallMsg {
	to := call.To
	return ethereum.CallMsg{
		From:     call.From,
		To:       &to,
		Data:     call.Data,
		GasPrice: call.GasPrice,
		Value:    call.Value,
	}
}

// revertDetail extracts the revert reason the node attached to a failed
// call, when it attached one.
func revertDetail(call types.ChainCallContext, err error) string {
	detail := "to " + call.To.Hex()

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data := dataErr.ErrorData(); data != nil {
			detail = fmt.Sprintf("%s, revert data %v", detail, data)
		}
	}
	return detail
}

func observe(method string) func() {
	RPCRequestsTotal.WithLabelValues(method).Inc()
	start := time.Now()
	return func() {
		RPCDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}
}
