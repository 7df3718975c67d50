// Package distribution turns a validated, ordered record set into the
// per-epoch artifacts: a merkle root, one claim per record, and epoch
// metadata. It owns the tree for the duration of proof extraction and
// discards it once all claims are produced.
package distribution

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/entitlements-distributor-go/pkg/config"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/merkle"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/types"
)

// Distribution is the complete output for one epoch. Either every claim
// in it verified against Root before Build returned, or Build failed and
// nothing was produced - there is no partial output.
type Distribution struct {
	Root     [32]byte
	Claims   []*types.Claim
	Metadata *types.EpochMetadata
}

// Build computes the merkle commitment and all claims for one epoch.
// Records must already be validated and in canonical order (the loader
// sorts by address); their order determines the leaf order and the root.
//
// Claims are keyed by record index, not by leaf value, so duplicate
// leaf values (if the caller ever allowed them) would each still get a
// well-attributed proof.
func Build(chainID config.ChainId, epochID uint64, records []*types.EntitlementRecord) (*Distribution, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("cannot build distribution for epoch %d: no records", epochID)
	}

	leaves := make([][32]byte, len(records))
	for i, record := range records {
		leaf, err := merkle.LeafHash(record.Address, record.Amount, record.GeneratedLoss)
		if err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, record.Address.Hex(), err)
		}
		leaves[i] = leaf
	}

	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return nil, err
	}

	totalAmount := new(big.Int)
	totalGeneratedLoss := new(big.Int)
	claims := make([]*types.Claim, len(records))

	for i, record := range records {
		proof, err := tree.ProofAt(i)
		if err != nil {
			return nil, fmt.Errorf("proof extraction failed for record %d (%s): %w", i, record.Address.Hex(), err)
		}

		// Every proof must recompute the published root. A failure here
		// aborts the whole epoch.
		if !merkle.VerifyProof(proof.Leaf, proof.Siblings, tree.Root) {
			return nil, fmt.Errorf("proof for record %d (%s) does not verify against root", i, record.Address.Hex())
		}

		claims[i] = types.NewClaim(epochID, record, proof.Siblings)
		totalAmount.Add(totalAmount, record.Amount)
		totalGeneratedLoss.Add(totalGeneratedLoss, record.GeneratedLoss)
	}

	return &Distribution{
		Root:   tree.Root,
		Claims: claims,
		Metadata: &types.EpochMetadata{
			ChainID:            uint64(chainID),
			EpochID:            epochID,
			MerkleRoot:         common.Hash(tree.Root).Hex(),
			Count:              len(records),
			TotalAmount:        totalAmount.String(),
			TotalGeneratedLoss: totalGeneratedLoss.String(),
		},
	}, nil
}

// VerifyClaim checks one persisted claim against an epoch root by
// rebuilding the leaf from the claim's values and folding the proof.
// This is the same computation the distribution contract performs.
func VerifyClaim(claim *types.Claim, merkleRoot string) error {
	if claim == nil {
		return fmt.Errorf("claim cannot be nil")
	}
	if !common.IsHexAddress(claim.Address) {
		return fmt.Errorf("invalid claim address: %q", claim.Address)
	}

	amount, generatedLoss, err := claim.Values()
	if err != nil {
		return err
	}

	leaf, err := merkle.LeafHash(common.HexToAddress(claim.Address), amount, generatedLoss)
	if err != nil {
		return err
	}

	siblings, err := claim.ProofHashes()
	if err != nil {
		return err
	}

	root := common.HexToHash(merkleRoot)
	if !merkle.VerifyProof(leaf, siblings, root) {
		return fmt.Errorf("claim for %s does not verify against root %s", claim.Address, merkleRoot)
	}
	return nil
}
