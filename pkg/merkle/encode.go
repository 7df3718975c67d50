package merkle

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// wordLength is the width of a uint256 field in the packed encoding
	wordLength = 32

	// leafInputLength is the packed size of one leaf pre-image:
	// 20-byte address + two 32-byte uint256 fields
	leafInputLength = common.AddressLength + 2*wordLength

	// pairInputLength is the packed size of two 32-byte node hashes
	pairInputLength = 2 * wordLength
)

// EncodeLeafInput packs an entitlement into the exact byte layout the
// distribution contract hashes on-chain:
//
//	abi.encodePacked(account, amount, generatedLoss)
//
// i.e. the raw 20 address bytes followed by two 32-byte big-endian
// uint256 values, with no padding or length prefixes (84 bytes total).
// This layout is a wire contract with the on-chain verifier and must not
// change independently of it.
//
// The address is fixed at 20 bytes by the common.Address type; amount and
// generatedLoss must be non-negative and fit in 256 bits.
func EncodeLeafInput(account common.Address, amount, generatedLoss *big.Int) ([]byte, error) {
	if err := checkUint256("amount", amount); err != nil {
		return nil, err
	}
	if err := checkUint256("generatedLoss", generatedLoss); err != nil {
		return nil, err
	}

	buf := make([]byte, 0, leafInputLength)
	buf = append(buf, account.Bytes()...)
	buf = append(buf, math.PaddedBigBytes(amount, wordLength)...)
	buf = append(buf, math.PaddedBigBytes(generatedLoss, wordLength)...)
	return buf, nil
}

// EncodePairInput packs two 32-byte node hashes in the order given
// (64 bytes total). Any ordering decision (the sorted-pair rule) is made
// by the caller, not here.
func EncodePairInput(a, b [32]byte) []byte {
	buf := make([]byte, pairInputLength)
	copy(buf[0:wordLength], a[:])
	copy(buf[wordLength:], b[:])
	return buf
}

// LeafHash computes the merkle leaf for one entitlement:
// keccak256(EncodeLeafInput(account, amount, generatedLoss)).
func LeafHash(account common.Address, amount, generatedLoss *big.Int) ([32]byte, error) {
	input, err := EncodeLeafInput(account, amount, generatedLoss)
	if err != nil {
		return [32]byte{}, err
	}
	return [32]byte(crypto.Keccak256Hash(input)), nil
}

// checkUint256 rejects values that cannot be represented as a Solidity
// uint256: nil, negative, or wider than 256 bits.
func checkUint256(name string, v *big.Int) error {
	if v == nil {
		return fmt.Errorf("%s cannot be nil", name)
	}
	if v.Sign() < 0 {
		return fmt.Errorf("%s cannot be negative: %s", name, v.String())
	}
	if v.BitLen() > 256 {
		return fmt.Errorf("%s exceeds 256 bits: %s", name, v.String())
	}
	return nil
}
