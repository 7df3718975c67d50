package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Layr-Labs/entitlements-distributor-go/pkg/types"
)

const (
	testChainID = uint64(11155111)
	testEpochID = uint64(42)
)

// getTestRedisAddress returns the Redis address for testing.
// Uses REDIS_TEST_ADDRESS env var if set, otherwise defaults to localhost:6379.
func getTestRedisAddress() string {
	if addr := os.Getenv("REDIS_TEST_ADDRESS"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// newTestStore skips the test if Redis is not reachable. Each test run
// gets a unique key prefix so parallel runs don't collide, and the
// prefix is flushed on cleanup.
func newTestStore(t *testing.T) *RedisStore {
	t.Helper()

	cfg := &RedisConfig{
		Address:   getTestRedisAddress(),
		DB:        15, // Use DB 15 for tests to avoid conflicts
		KeyPrefix: fmt.Sprintf("test:%s:", uuid.New().String()[:8]),
	}

	store, err := NewRedisStore(cfg, zap.NewNop())
	if err != nil {
		t.Skipf("Redis not available at %s: %v", cfg.Address, err)
		return nil
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		iter := store.client.Scan(ctx, 0, cfg.KeyPrefix+"*", 0).Iterator()
		for iter.Next(ctx) {
			_ = store.client.Del(ctx, iter.Val()).Err()
		}
		_ = store.Close()
	})

	return store
}

func testClaim(i int) *types.Claim {
	return &types.Claim{
		EpochID:       testEpochID,
		Address:       fmt.Sprintf("0x%040x", i+1),
		Amount:        fmt.Sprintf("%d", 100*(i+1)),
		GeneratedLoss: fmt.Sprintf("%d", 10*(i+1)),
		Proof:         []string{fmt.Sprintf("0x%064x", i+1)},
	}
}

func TestRedisStoreEpochMetadata(t *testing.T) {
	store := newTestStore(t)

	loaded, err := store.LoadEpochMetadata(testChainID, testEpochID)
	require.NoError(t, err)
	require.Nil(t, loaded)

	meta := &types.EpochMetadata{
		ChainID:            testChainID,
		EpochID:            testEpochID,
		MerkleRoot:         fmt.Sprintf("0x%064x", 7),
		Count:              3,
		TotalAmount:        "600",
		TotalGeneratedLoss: "60",
	}
	require.NoError(t, store.SaveEpochMetadata(meta))

	loaded, err = store.LoadEpochMetadata(testChainID, testEpochID)
	require.NoError(t, err)
	require.Equal(t, meta, loaded)
}

func TestRedisStoreClaims(t *testing.T) {
	store := newTestStore(t)

	// Save out of order; listing must come back sorted by address
	for _, i := range []int{2, 0, 1} {
		require.NoError(t, store.SaveClaim(testChainID, testClaim(i)))
	}

	got, err := store.LoadClaim(testChainID, testEpochID, testClaim(0).Address)
	require.NoError(t, err)
	require.Equal(t, testClaim(0), got)

	// Lookup is case-insensitive
	got, err = store.LoadClaim(testChainID, testEpochID, "0X"+testClaim(0).Address[2:])
	require.NoError(t, err)
	require.Equal(t, testClaim(0), got)

	missing, err := store.LoadClaim(testChainID, testEpochID, fmt.Sprintf("0x%040x", 999))
	require.NoError(t, err)
	require.Nil(t, missing)

	listed, err := store.ListClaims(testChainID, testEpochID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	for i, claim := range listed {
		require.Equal(t, testClaim(i), claim)
	}

	empty, err := store.ListClaims(testChainID, testEpochID+1)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestRedisStoreClose(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.HealthCheck())
	require.NoError(t, store.Close())
	require.NoError(t, store.Close()) // idempotent

	require.Error(t, store.HealthCheck())
	require.Error(t, store.SaveClaim(testChainID, testClaim(0)))
	_, err := store.LoadEpochMetadata(testChainID, testEpochID)
	require.Error(t, err)
}

func TestRedisStoreNilRejection(t *testing.T) {
	store := newTestStore(t)

	require.Error(t, store.SaveEpochMetadata(nil))
	require.Error(t, store.SaveClaim(testChainID, nil))
	_, err := NewRedisStore(nil, zap.NewNop())
	require.Error(t, err)

	_, err = NewRedisStore(&RedisConfig{}, zap.NewNop())
	require.Error(t, err)
}
