// Package fs implements the distribution store as a JSON directory tree.
// This is the primary artifact layout published for claimants:
//
//	<root>/<chainId>/<epochId>/epoch.json
//	<root>/<chainId>/<epochId>/claims/<address>.json
//
// Addresses in file names are lowercase hex. Files are written through a
// temp file and renamed so readers never observe partial JSON.
package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Layr-Labs/entitlements-distributor-go/pkg/persistence"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/types"
)

const (
	epochFileName = "epoch.json"
	claimsDirName = "claims"
)

// FilesystemStore is a JSON-file implementation of IDistributionStore.
type FilesystemStore struct {
	root   string
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

var _ persistence.IDistributionStore = (*FilesystemStore)(nil)

// NewFilesystemStore creates a store rooted at the given directory,
// creating it if needed.
func NewFilesystemStore(root string, logger *zap.Logger) (*FilesystemStore, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", absRoot, err)
	}

	logger.Sugar().Infow("Filesystem store initialized", "root", absRoot)

	return &FilesystemStore{
		root:   absRoot,
		logger: logger,
	}, nil
}

func (f *FilesystemStore) epochDir(chainID, epochID uint64) string {
	return filepath.Join(f.root, fmt.Sprintf("%d", chainID), fmt.Sprintf("%d", epochID))
}

func (f *FilesystemStore) claimPath(chainID, epochID uint64, address string) string {
	return filepath.Join(f.epochDir(chainID, epochID), claimsDirName, strings.ToLower(address)+".json")
}

// SaveEpochMetadata writes epoch.json for the epoch.
func (f *FilesystemStore) SaveEpochMetadata(meta *types.EpochMetadata) error {
	if meta == nil {
		return fmt.Errorf("cannot save nil EpochMetadata")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return fmt.Errorf("store is closed")
	}

	data, err := persistence.MarshalEpochMetadata(meta)
	if err != nil {
		return err
	}

	dir := f.epochDir(meta.ChainID, meta.EpochID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create epoch directory %s: %w", dir, err)
	}

	return writeFileAtomic(filepath.Join(dir, epochFileName), data)
}

// LoadEpochMetadata reads epoch.json, nil if the epoch doesn't exist.
func (f *FilesystemStore) LoadEpochMetadata(chainID, epochID uint64) (*types.EpochMetadata, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, fmt.Errorf("store is closed")
	}

	data, err := os.ReadFile(filepath.Join(f.epochDir(chainID, epochID), epochFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read epoch metadata: %w", err)
	}

	return persistence.UnmarshalEpochMetadata(data)
}

// SaveClaim writes claims/<address>.json for the claim's epoch.
func (f *FilesystemStore) SaveClaim(chainID uint64, claim *types.Claim) error {
	if claim == nil {
		return fmt.Errorf("cannot save nil Claim")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return fmt.Errorf("store is closed")
	}

	data, err := persistence.MarshalClaim(claim)
	if err != nil {
		return err
	}

	path := f.claimPath(chainID, claim.EpochID, claim.Address)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create claims directory: %w", err)
	}

	return writeFileAtomic(path, data)
}

// LoadClaim reads one address's claim, nil if absent.
func (f *FilesystemStore) LoadClaim(chainID, epochID uint64, address string) (*types.Claim, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, fmt.Errorf("store is closed")
	}

	data, err := os.ReadFile(f.claimPath(chainID, epochID, address))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read claim: %w", err)
	}

	return persistence.UnmarshalClaim(data)
}

// ListClaims reads every claim file for the epoch, sorted by address.
func (f *FilesystemStore) ListClaims(chainID, epochID uint64) ([]*types.Claim, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, fmt.Errorf("store is closed")
	}

	claimsDir := filepath.Join(f.epochDir(chainID, epochID), claimsDirName)
	entries, err := os.ReadDir(claimsDir)
	if os.IsNotExist(err) {
		return []*types.Claim{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read claims directory: %w", err)
	}

	claims := make([]*types.Claim, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(claimsDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read claim file %s: %w", entry.Name(), err)
		}

		claim, err := persistence.UnmarshalClaim(data)
		if err != nil {
			f.logger.Sugar().Warnw("Skipping unreadable claim file", "file", entry.Name(), "error", err)
			continue
		}

		claims = append(claims, claim)
	}

	sort.Slice(claims, func(i, j int) bool {
		return strings.ToLower(claims[i].Address) < strings.ToLower(claims[j].Address)
	})

	return claims, nil
}

// Close marks the store as closed.
func (f *FilesystemStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}

// HealthCheck verifies the root directory is writable.
func (f *FilesystemStore) HealthCheck() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return fmt.Errorf("store is closed")
	}

	probe, err := os.CreateTemp(f.root, ".healthcheck-*")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", f.root, err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return nil
}
