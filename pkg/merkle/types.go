package merkle

// Tree is a binary merkle tree over entitlement leaves.
// The tree uses keccak256 hashing with sorted-pair combination for
// Solidity compatibility (OpenZeppelin MerkleProof convention).
type Tree struct {
	// Leaves contains the leaf hashes in the order supplied by the caller
	Leaves [][32]byte

	// Root is the merkle root hash
	Root [32]byte

	// layers stores all tree layers for proof extraction
	// layers[0] = leaves, layers[len-1] = root
	layers [][][32]byte
}

// Proof is an inclusion proof for one leaf.
// Because pairs are hashed in sorted order, the proof carries no
// left/right flags - only the sibling hashes from leaf to root.
type Proof struct {
	// LeafIndex is the index of the proven leaf in the leaf layer
	LeafIndex int

	// Leaf is the hash of the leaf being proven
	Leaf [32]byte

	// Siblings contains the sibling hashes from leaf to root.
	// Siblings[0] is the sibling of the leaf, Siblings[len-1] is near the root.
	Siblings [][32]byte
}
