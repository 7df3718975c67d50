package types

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestParseUint256(t *testing.T) {
	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	t.Run("Valid values", func(t *testing.T) {
		for _, s := range []string{"0", "1", "1000000000000000000", maxUint256.String()} {
			v, err := ParseUint256(s)
			require.NoError(t, err)
			require.Equal(t, s, v.String())
		}
	})

	t.Run("Rejected values", func(t *testing.T) {
		testCases := []struct {
			name  string
			input string
		}{
			{"Empty", ""},
			{"Negative", "-1"},
			{"Hex", "0x10"},
			{"Float", "1.5"},
			{"Garbage", "abc"},
			{"Overflow", new(big.Int).Add(maxUint256, big.NewInt(1)).String()},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := ParseUint256(tc.input)
				require.Error(t, err)
			})
		}
	})
}

func TestNewClaim(t *testing.T) {
	record := &EntitlementRecord{
		Address:       common.HexToAddress("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"),
		Amount:        big.NewInt(12345),
		GeneratedLoss: big.NewInt(678),
	}
	proof := [][32]byte{{0x01}, {0x02, 0xff}}

	claim := NewClaim(42, record, proof)
	require.Equal(t, uint64(42), claim.EpochID)
	require.Equal(t, record.Address.Hex(), claim.Address)
	require.Equal(t, "12345", claim.Amount)
	require.Equal(t, "678", claim.GeneratedLoss)
	require.Len(t, claim.Proof, 2)

	// Proof elements are full-width 0x-prefixed hashes
	for _, p := range claim.Proof {
		require.Len(t, p, 66)
		require.True(t, strings.HasPrefix(p, "0x"))
	}

	hashes, err := claim.ProofHashes()
	require.NoError(t, err)
	require.Equal(t, proof, hashes)

	amount, generatedLoss, err := claim.Values()
	require.NoError(t, err)
	require.Zero(t, amount.Cmp(record.Amount))
	require.Zero(t, generatedLoss.Cmp(record.GeneratedLoss))
}

func TestClaimProofHashesRejectsMalformed(t *testing.T) {
	testCases := []struct {
		name  string
		proof []string
	}{
		{"Missing prefix", []string{strings.Repeat("ab", 32)}},
		{"Too short", []string{"0xabcd"}},
		{"Non-hex", []string{"0x" + strings.Repeat("zz", 32)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			claim := &Claim{Proof: tc.proof}
			_, err := claim.ProofHashes()
			require.Error(t, err)
		})
	}
}

func TestClaimValuesRejectsMalformed(t *testing.T) {
	claim := &Claim{Amount: "not-a-number", GeneratedLoss: "1"}
	_, _, err := claim.Values()
	require.Error(t, err)

	claim = &Claim{Amount: "1", GeneratedLoss: "-2"}
	_, _, err = claim.Values()
	require.Error(t, err)
}
