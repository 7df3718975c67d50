package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EntitlementRecord is one validated input row for an epoch: an account
// and the two uint256 values committed to on-chain for it.
// Records are immutable once produced by the loader.
type EntitlementRecord struct {
	Address       common.Address
	Amount        *big.Int
	GeneratedLoss *big.Int
}

// Claim is the persisted per-address artifact for one epoch. It carries
// everything a claimant needs to call the distribution contract: the
// entitlement values and the merkle inclusion proof.
//
// All uint256 values are decimal strings and all hashes are 0x-prefixed
// hex strings so no precision is lost in JSON.
type Claim struct {
	EpochID       uint64   `json:"epochId"`
	Address       string   `json:"address"`
	Amount        string   `json:"amount"`
	GeneratedLoss string   `json:"generatedLoss"`
	Proof         []string `json:"proof"`
}

// EpochMetadata is the persisted per-epoch artifact: the published root
// plus aggregate figures for reconciliation.
type EpochMetadata struct {
	ChainID            uint64 `json:"chainId"`
	EpochID            uint64 `json:"epochId"`
	MerkleRoot         string `json:"merkleRoot"`
	Count              int    `json:"count"`
	TotalAmount        string `json:"totalAmount"`
	TotalGeneratedLoss string `json:"totalGeneratedLoss"`
}

// NewClaim builds the persisted form of one record's entitlement and proof.
func NewClaim(epochID uint64, record *EntitlementRecord, proof [][32]byte) *Claim {
	proofHex := make([]string, len(proof))
	for i, sibling := range proof {
		proofHex[i] = common.Hash(sibling).Hex()
	}
	return &Claim{
		EpochID:       epochID,
		Address:       record.Address.Hex(),
		Amount:        record.Amount.String(),
		GeneratedLoss: record.GeneratedLoss.String(),
		Proof:         proofHex,
	}
}

// ProofHashes decodes the claim's proof back into 32-byte sibling hashes.
func (c *Claim) ProofHashes() ([][32]byte, error) {
	hashes := make([][32]byte, len(c.Proof))
	for i, h := range c.Proof {
		if !isHash32(h) {
			return nil, fmt.Errorf("proof element %d is not a 32-byte hex hash: %q", i, h)
		}
		hashes[i] = common.HexToHash(h)
	}
	return hashes, nil
}

// Values decodes the claim's decimal-string entitlement values.
func (c *Claim) Values() (amount, generatedLoss *big.Int, err error) {
	amount, err = ParseUint256(c.Amount)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid amount: %w", err)
	}
	generatedLoss, err = ParseUint256(c.GeneratedLoss)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid generatedLoss: %w", err)
	}
	return amount, generatedLoss, nil
}

// ParseUint256 parses a non-negative decimal string into a big.Int and
// rejects values wider than 256 bits.
func ParseUint256(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a decimal integer: %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative value not allowed: %q", s)
	}
	if v.BitLen() > 256 {
		return nil, fmt.Errorf("value exceeds 256 bits: %q", s)
	}
	return v, nil
}

// isHash32 reports whether s is a 0x-prefixed 32-byte hex string.
func isHash32(s string) bool {
	if len(s) != 2+2*common.HashLength {
		return false
	}
	if s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return false
	}
	for _, r := range s[2:] {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
			return false
		}
	}
	return true
}
