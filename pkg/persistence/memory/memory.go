package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Layr-Labs/entitlements-distributor-go/pkg/persistence"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/types"
)

// MemoryStore is an in-memory implementation of IDistributionStore.
// This implementation is intended for TESTING ONLY.
//
// All data is stored in memory and will be lost when the process exits.
// Thread-safe using sync.RWMutex for concurrent access.
// Deep copies data to prevent external mutation.
type MemoryStore struct {
	mu sync.RWMutex

	// Epoch metadata: (chainID, epochID) -> EpochMetadata
	epochs map[epochKey]*types.EpochMetadata

	// Claims: (chainID, epochID) -> lowercase address -> Claim
	claims map[epochKey]map[string]*types.Claim

	// Closed flag
	closed bool
}

type epochKey struct {
	chainID uint64
	epochID uint64
}

var _ persistence.IDistributionStore = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory distribution store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		epochs: make(map[epochKey]*types.EpochMetadata),
		claims: make(map[epochKey]map[string]*types.Claim),
	}
}

// SaveEpochMetadata persists epoch metadata.
func (m *MemoryStore) SaveEpochMetadata(meta *types.EpochMetadata) error {
	if meta == nil {
		return fmt.Errorf("cannot save nil EpochMetadata")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("store is closed")
	}

	metaCopy := *meta
	m.epochs[epochKey{meta.ChainID, meta.EpochID}] = &metaCopy
	return nil
}

// LoadEpochMetadata retrieves epoch metadata, nil if absent.
func (m *MemoryStore) LoadEpochMetadata(chainID, epochID uint64) (*types.EpochMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("store is closed")
	}

	meta, ok := m.epochs[epochKey{chainID, epochID}]
	if !ok {
		return nil, nil
	}

	metaCopy := *meta
	return &metaCopy, nil
}

// SaveClaim persists one address's claim for an epoch.
func (m *MemoryStore) SaveClaim(chainID uint64, claim *types.Claim) error {
	if claim == nil {
		return fmt.Errorf("cannot save nil Claim")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("store is closed")
	}

	key := epochKey{chainID, claim.EpochID}
	if m.claims[key] == nil {
		m.claims[key] = make(map[string]*types.Claim)
	}

	m.claims[key][strings.ToLower(claim.Address)] = copyClaim(claim)
	return nil
}

// LoadClaim retrieves one address's claim, nil if absent.
func (m *MemoryStore) LoadClaim(chainID, epochID uint64, address string) (*types.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("store is closed")
	}

	claim, ok := m.claims[epochKey{chainID, epochID}][strings.ToLower(address)]
	if !ok {
		return nil, nil
	}

	return copyClaim(claim), nil
}

// ListClaims returns all claims for an epoch sorted by address.
func (m *MemoryStore) ListClaims(chainID, epochID uint64) ([]*types.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("store is closed")
	}

	byAddress := m.claims[epochKey{chainID, epochID}]

	claims := make([]*types.Claim, 0, len(byAddress))
	for _, claim := range byAddress {
		claims = append(claims, copyClaim(claim))
	}

	sort.Slice(claims, func(i, j int) bool {
		return strings.ToLower(claims[i].Address) < strings.ToLower(claims[j].Address)
	})

	return claims, nil
}

// Close marks the store as closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck reports whether the store is usable.
func (m *MemoryStore) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("store is closed")
	}
	return nil
}

// copyClaim deep-copies a claim so callers cannot mutate stored state.
func copyClaim(claim *types.Claim) *types.Claim {
	claimCopy := *claim
	claimCopy.Proof = append([]string(nil), claim.Proof...)
	return &claimCopy
}
