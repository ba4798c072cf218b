package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// FillOrder is a signed quote authorizing an exchange of takerAmount of the
// taker token for makerAmount of the maker token, valid until Expiry.
// Orders are produced by an external quote source and are never mutated here.
type FillOrder struct {
	Maker       common.Address
	Taker       common.Address
	MakerToken  common.Address
	TakerToken  common.Address
	TakerAmount *big.Int // uint128 on the wire
	MakerAmount *big.Int // uint128 on the wire
	Pool        common.Hash
	Expiry      uint64 // unix seconds
}

// Signature is an opaque byte-encoded authorization tied to a specific signer
// and message. Produced externally (EIP-712 signing is not this module's job).
type Signature []byte

// MetaTransaction is the delegated-execution envelope wrapped around a fill
// call. Sender may be the zero address, meaning any relayer may submit it.
type MetaTransaction struct {
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

	// EIP-712 domain of the envelope; not part of the calldata encoding.
	ChainID           *big.Int
	VerifyingContract common.Address
}

// FillResult is the decoded return of a fill call.
type FillResult struct {
	TakerTokenFilledAmount *big.Int
	MakerTokenFilledAmount *big.Int
}

// QuoteFilledEvent is the decoded fill-confirmation log emitted by the
// exchange contract. Only ever parsed, never constructed by this module.
type QuoteFilledEvent struct {
	OrderHash              common.Hash
	Maker                  common.Address
	Taker                  common.Address
	MakerToken             common.Address
	TakerToken             common.Address
	TakerTokenFilledAmount *big.Int
	MakerTokenFilledAmount *big.Int
	Pool                   common.Hash
}

// ChainCallContext bundles the per-call parameters of a single node
// interaction. Built fresh per operation and not retained.
type ChainCallContext struct {
	To   common.Address
	Data []byte
	From common.Address

	// Optional overrides.
	GasPrice *big.Int
	Value    *big.Int
}
