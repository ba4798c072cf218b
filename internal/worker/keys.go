package worker

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"

	"github.com/mselser95/metatx-relay/pkg/types"
)

// Worker keys live on the standard Ethereum account path, parameterized only
// by the account index: m/44'/60'/0'/0/{index}.
//
//nolint:gochecknoglobals // Fixed path prefix shared by both derive functions.
var pathPrefix = []uint32{
	hdkeychain.HardenedKeyStart + 44,
	hdkeychain.HardenedKeyStart + 60,
	hdkeychain.HardenedKeyStart + 0,
	0,
}

// DerivationPath returns the hierarchical path string for a worker index.
// Pure string computation; no validation beyond formatting.
func DerivationPath(index int) string {
	return fmt.Sprintf("m/44'/60'/0'/0/%d", index)
}

// DerivePrivateKey derives the worker private key for (mnemonic, index).
// Deterministic: identical inputs always yield the identical key. A negative
// index fails with INVALID_INDEX before any cryptographic work.
func DerivePrivateKey(mnemonic string, index int) (*ecdsa.PrivateKey, error) {
	if index < 0 {
		return nil, types.NewRelayError(types.KindInvalidIndex, "derive-private-key",
			fmt.Sprintf("index %d", index), nil)
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}

	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("derive master key: %w", err)
	}

	for _, segment := range append(append([]uint32{}, pathPrefix...), uint32(index)) {
		key, err = key.Derive(segment)
		if err != nil {
			return nil, fmt.Errorf("derive path segment %d: %w", segment, err)
		}
	}

	privKey, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("extract private key: %w", err)
	}

	return privKey.ToECDSA(), nil
}

// DeriveAddress derives the worker address for (mnemonic, index).
func DeriveAddress(mnemonic string, index int) (common.Address, error) {
	key, err := DerivePrivateKey(mnemonic, index)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}
