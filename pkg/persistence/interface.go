package persistence

import "github.com/Layr-Labs/entitlements-distributor-go/pkg/types"

// IDistributionStore defines the interface for persisting per-epoch
// distribution artifacts: one claim per address plus epoch metadata.
// All implementations must be thread-safe.
//
// Epochs are identified by (chainID, epochID). Addresses are matched
// case-insensitively; implementations key claims by the lowercase hex
// form of the address.
type IDistributionStore interface {
	// Epoch Metadata

	// SaveEpochMetadata persists the metadata for one epoch (root, count,
	// totals). Overwrites any existing metadata for the same epoch.
	SaveEpochMetadata(meta *types.EpochMetadata) error

	// LoadEpochMetadata retrieves the metadata for one epoch.
	// Returns nil if the epoch doesn't exist, error only on storage failure.
	LoadEpochMetadata(chainID, epochID uint64) (*types.EpochMetadata, error)

	// Claims

	// SaveClaim persists one address's claim for an epoch.
	// Overwrites any existing claim for the same (epoch, address).
	SaveClaim(chainID uint64, claim *types.Claim) error

	// LoadClaim retrieves the claim for one address in one epoch.
	// Returns nil if no claim exists, error only on storage failure.
	LoadClaim(chainID, epochID uint64, address string) (*types.Claim, error)

	// ListClaims returns all claims for one epoch sorted by address
	// (ascending, lowercase hex). Returns an empty slice if the epoch has
	// no claims, error only on storage failure.
	ListClaims(chainID, epochID uint64) ([]*types.Claim, error)

	// Lifecycle Management

	// Close cleanly shuts down the store.
	// Idempotent - safe to call multiple times.
	// After Close(), all other operations should return errors.
	Close() error

	// HealthCheck verifies the store is operational.
	// Returns nil if healthy, error describing the problem if not.
	HealthCheck() error
}
