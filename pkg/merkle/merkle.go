package merkle

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// BuildTree creates a binary merkle tree from the given leaves.
// Leaves are used in the exact order supplied - the caller is responsible
// for any canonical ordering (the distribution pipeline sorts records by
// address before hashing).
//
// Pairs are combined with CombinePair (keccak256 over the byte-sorted
// pair). If a layer has an odd number of nodes, the last node is paired
// with itself.
func BuildTree(leaves [][32]byte) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("cannot build merkle tree from empty leaf set")
	}

	// Copy so later mutation of the caller's slice cannot corrupt the tree
	layer0 := make([][32]byte, len(leaves))
	copy(layer0, leaves)

	// Build tree layers bottom-up
	layers := make([][][32]byte, 0)
	layers = append(layers, layer0)

	currentLayer := layer0
	for len(currentLayer) > 1 {
		nextLayer := make([][32]byte, 0, (len(currentLayer)+1)/2)

		for i := 0; i < len(currentLayer); i += 2 {
			left := currentLayer[i]

			// If odd number of nodes, duplicate the last one
			right := left
			if i+1 < len(currentLayer) {
				right = currentLayer[i+1]
			}

			nextLayer = append(nextLayer, CombinePair(left, right))
		}

		layers = append(layers, nextLayer)
		currentLayer = nextLayer
	}

	return &Tree{
		Leaves: layer0,
		Root:   currentLayer[0],
		layers: layers,
	}, nil
}

// CombinePair computes the parent hash of two nodes:
// keccak256(min(a,b) || max(a,b)) with byte-lexicographic comparison.
// Sorting the pair before hashing means proofs carry no left/right
// position, only sibling identity, matching the on-chain verifier.
// CombinePair(a, b) == CombinePair(b, a) for all inputs.
func CombinePair(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return [32]byte(crypto.Keccak256Hash(EncodePairInput(a, b)))
}

// ProofAt creates an inclusion proof for the leaf at the given index.
// The proof consists of sibling hashes along the path from leaf to root;
// a single-leaf tree yields an empty proof (root == leaf).
func (t *Tree) ProofAt(leafIndex int) (*Proof, error) {
	if leafIndex < 0 || leafIndex >= len(t.Leaves) {
		return nil, fmt.Errorf("leaf index %d out of bounds (tree has %d leaves)", leafIndex, len(t.Leaves))
	}

	siblings := make([][32]byte, 0, len(t.layers)-1)
	index := leafIndex

	// Traverse from leaf to root, collecting sibling hashes
	for layer := 0; layer < len(t.layers)-1; layer++ {
		currentLayer := t.layers[layer]

		var siblingIndex int
		if index%2 == 0 {
			siblingIndex = index + 1
		} else {
			siblingIndex = index - 1
		}

		// Last node of an odd-length layer pairs with itself
		if siblingIndex >= len(currentLayer) {
			siblingIndex = index
		}

		siblings = append(siblings, currentLayer[siblingIndex])

		// Move to parent index in next layer
		index = index / 2
	}

	return &Proof{
		LeafIndex: leafIndex,
		Leaf:      t.Leaves[leafIndex],
		Siblings:  siblings,
	}, nil
}

// ProofForLeaf creates an inclusion proof for the given leaf value.
// If the same leaf value occurs at multiple positions (duplicate input
// records), the first occurrence is proven; the resulting proofs are
// identical either way because duplicate leaves hash identically at
// every layer. Callers that need per-record attribution should use
// ProofAt with the record's index.
//
// A leaf not present in the tree is a consistency error: the caller
// queried a tree built from a different leaf set.
func (t *Tree) ProofForLeaf(leaf [32]byte) (*Proof, error) {
	for i, candidate := range t.Leaves {
		if candidate == leaf {
			return t.ProofAt(i)
		}
	}
	return nil, fmt.Errorf("leaf %x not found in tree", leaf)
}

// VerifyProof verifies that a leaf is included in the tree committed to
// by root. It folds the sibling hashes into the leaf with CombinePair;
// no position information is needed because pairs hash in sorted order.
//
// This mirrors the on-chain verifier and exists so generated proofs can
// be checked before they are published.
func VerifyProof(leaf [32]byte, siblings [][32]byte, root [32]byte) bool {
	computed := leaf
	for _, sibling := range siblings {
		computed = CombinePair(computed, sibling)
	}
	return computed == root
}
