package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/Layr-Labs/entitlements-distributor-go/pkg/types"
)

// MarshalClaim serializes a Claim to JSON bytes. Uint256 values are
// already decimal strings on the Claim type, so standard JSON marshaling
// is lossless.
func MarshalClaim(claim *types.Claim) ([]byte, error) {
	if claim == nil {
		return nil, fmt.Errorf("cannot marshal nil Claim")
	}

	data, err := json.Marshal(claim)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Claim to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalClaim deserializes a Claim from JSON bytes.
func UnmarshalClaim(data []byte) (*types.Claim, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var claim types.Claim
	if err := json.Unmarshal(data, &claim); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to Claim: %w", err)
	}

	return &claim, nil
}

// MarshalEpochMetadata serializes EpochMetadata to JSON bytes.
func MarshalEpochMetadata(meta *types.EpochMetadata) ([]byte, error) {
	if meta == nil {
		return nil, fmt.Errorf("cannot marshal nil EpochMetadata")
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal EpochMetadata to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalEpochMetadata deserializes EpochMetadata from JSON bytes.
func UnmarshalEpochMetadata(data []byte) (*types.EpochMetadata, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var meta types.EpochMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to EpochMetadata: %w", err)
	}

	return &meta, nil
}
