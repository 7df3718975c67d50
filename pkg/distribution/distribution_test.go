package distribution

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/entitlements-distributor-go/pkg/config"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/merkle"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/types"
)

// createTestRecords creates n records with distinct ascending addresses
func createTestRecords(n int) []*types.EntitlementRecord {
	records := make([]*types.EntitlementRecord, n)
	for i := 0; i < n; i++ {
		addr := common.BigToAddress(big.NewInt(int64(i + 1)))
		records[i] = &types.EntitlementRecord{
			Address:       addr,
			Amount:        big.NewInt(int64(100 * (i + 1))),
			GeneratedLoss: big.NewInt(int64(7 * (i + 1))),
		}
	}
	return records
}

func TestBuild(t *testing.T) {
	testCases := []struct {
		name       string
		numRecords int
	}{
		{"Single record", 1},
		{"Two records", 2},
		{"Three records", 3},
		{"Ten records", 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			records := createTestRecords(tc.numRecords)

			dist, err := Build(config.ChainId_EthereumSepolia, 7, records)
			require.NoError(t, err)
			require.Len(t, dist.Claims, tc.numRecords)

			meta := dist.Metadata
			require.Equal(t, uint64(config.ChainId_EthereumSepolia), meta.ChainID)
			require.Equal(t, uint64(7), meta.EpochID)
			require.Equal(t, tc.numRecords, meta.Count)
			require.Equal(t, common.Hash(dist.Root).Hex(), meta.MerkleRoot)

			// Totals are the exact sums of the record values
			wantAmount := new(big.Int)
			wantLoss := new(big.Int)
			for _, r := range records {
				wantAmount.Add(wantAmount, r.Amount)
				wantLoss.Add(wantLoss, r.GeneratedLoss)
			}
			require.Equal(t, wantAmount.String(), meta.TotalAmount)
			require.Equal(t, wantLoss.String(), meta.TotalGeneratedLoss)

			// Every claim verifies against the published root, the same
			// way the contract would check it
			for i, claim := range dist.Claims {
				require.Equal(t, uint64(7), claim.EpochID)
				require.Equal(t, records[i].Address.Hex(), claim.Address)
				require.NoError(t, VerifyClaim(claim, meta.MerkleRoot))
			}
		})
	}
}

func TestBuildEmpty(t *testing.T) {
	dist, err := Build(config.ChainId_EthereumSepolia, 7, nil)
	require.Error(t, err)
	require.Nil(t, dist)
	require.Contains(t, err.Error(), "no records")
}

func TestBuildDeterminism(t *testing.T) {
	records := createTestRecords(9)

	dist1, err := Build(config.ChainId_EthereumMainnet, 3, records)
	require.NoError(t, err)
	dist2, err := Build(config.ChainId_EthereumMainnet, 3, records)
	require.NoError(t, err)

	require.Equal(t, dist1.Root, dist2.Root)
	require.Equal(t, dist1.Metadata, dist2.Metadata)
	for i := range dist1.Claims {
		require.Equal(t, dist1.Claims[i], dist2.Claims[i])
	}
}

func TestBuildRecordOrderChangesRoot(t *testing.T) {
	records := createTestRecords(4)

	dist1, err := Build(config.ChainId_EthereumAnvil, 1, records)
	require.NoError(t, err)

	// Swap across a pair boundary. A full reversal would not do: with
	// sorted-pair combine it reproduces the same root.
	swapped := []*types.EntitlementRecord{records[0], records[2], records[1], records[3]}
	dist2, err := Build(config.ChainId_EthereumAnvil, 1, swapped)
	require.NoError(t, err)

	require.NotEqual(t, dist1.Root, dist2.Root)
}

func TestBuildRejectsOversizedValues(t *testing.T) {
	records := createTestRecords(2)
	records[1].Amount = new(big.Int).Lsh(big.NewInt(1), 256)

	dist, err := Build(config.ChainId_EthereumSepolia, 7, records)
	require.Error(t, err)
	require.Nil(t, dist)
	require.Contains(t, err.Error(), "exceeds 256 bits")
}

func TestBuildSingleRecordRootIsLeaf(t *testing.T) {
	records := createTestRecords(1)

	dist, err := Build(config.ChainId_EthereumSepolia, 7, records)
	require.NoError(t, err)

	leaf, err := merkle.LeafHash(records[0].Address, records[0].Amount, records[0].GeneratedLoss)
	require.NoError(t, err)
	require.Equal(t, leaf, dist.Root)
	require.Empty(t, dist.Claims[0].Proof)
}

func TestVerifyClaim(t *testing.T) {
	records := createTestRecords(5)
	dist, err := Build(config.ChainId_EthereumSepolia, 7, records)
	require.NoError(t, err)

	root := dist.Metadata.MerkleRoot
	claim := dist.Claims[2]

	t.Run("Valid claim", func(t *testing.T) {
		require.NoError(t, VerifyClaim(claim, root))
	})

	t.Run("Nil claim", func(t *testing.T) {
		require.Error(t, VerifyClaim(nil, root))
	})

	t.Run("Tampered amount", func(t *testing.T) {
		tampered := *claim
		tampered.Amount = "999999"
		require.Error(t, VerifyClaim(&tampered, root))
	})

	t.Run("Tampered address", func(t *testing.T) {
		tampered := *claim
		tampered.Address = dist.Claims[3].Address
		require.Error(t, VerifyClaim(&tampered, root))
	})

	t.Run("Tampered proof element", func(t *testing.T) {
		tampered := *claim
		tampered.Proof = append([]string(nil), claim.Proof...)
		tampered.Proof[0] = fmt.Sprintf("0x%064x", 12345)
		require.Error(t, VerifyClaim(&tampered, root))
	})

	t.Run("Wrong root", func(t *testing.T) {
		require.Error(t, VerifyClaim(claim, fmt.Sprintf("0x%064x", 1)))
	})

	t.Run("Malformed address", func(t *testing.T) {
		tampered := *claim
		tampered.Address = "not-an-address"
		require.Error(t, VerifyClaim(&tampered, root))
	})
}
