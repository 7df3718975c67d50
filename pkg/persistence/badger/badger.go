package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"

	"github.com/Layr-Labs/entitlements-distributor-go/pkg/persistence"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/types"
)

// Key layout for namespacing
const (
	keyPrefixEpoch       = "dist:epoch:"
	keyPrefixClaim       = "dist:claim:"
	keySchemaVersion     = "dist:metadata:schema_version"
	currentSchemaVersion = "v1"
)

// BadgerStore is a durable distribution store backed by Badger.
// Suitable for keeping generated epochs on a single host with ACID
// guarantees.
type BadgerStore struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

var _ persistence.IDistributionStore = (*BadgerStore)(nil)

// NewBadgerStore creates a new Badger-backed distribution store.
// The database is opened at the specified path with SyncWrites enabled
// for durability. A background goroutine is started for garbage
// collection.
func NewBadgerStore(dataPath string, logger *zap.Logger) (*BadgerStore, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.SyncWrites = true // fsync on every write
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bs := &BadgerStore{
		db:     db,
		logger: logger,
	}

	if err := bs.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bs.gcCancel = cancel
	bs.gcWg.Add(1)
	go bs.runGC(ctx)

	logger.Sugar().Infow("Badger store initialized", "path", absPath)

	return bs, nil
}

// initSchema initializes or validates the schema version
func (b *BadgerStore) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}

		if existingVersion != currentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
		}

		return nil
	})
}

// runGC runs periodic value log garbage collection in the background
func (b *BadgerStore) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && err != badgerdb.ErrNoRewrite {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func epochKey(chainID, epochID uint64) string {
	return fmt.Sprintf("%s%d:%d", keyPrefixEpoch, chainID, epochID)
}

func claimKey(chainID, epochID uint64, address string) string {
	return fmt.Sprintf("%s%d:%d:%s", keyPrefixClaim, chainID, epochID, strings.ToLower(address))
}

func claimPrefix(chainID, epochID uint64) string {
	return fmt.Sprintf("%s%d:%d:", keyPrefixClaim, chainID, epochID)
}

// SaveEpochMetadata persists epoch metadata
func (b *BadgerStore) SaveEpochMetadata(meta *types.EpochMetadata) error {
	if meta == nil {
		return fmt.Errorf("cannot save nil EpochMetadata")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("store is closed")
	}

	data, err := persistence.MarshalEpochMetadata(meta)
	if err != nil {
		return err
	}

	key := epochKey(meta.ChainID, meta.EpochID)
	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// LoadEpochMetadata retrieves epoch metadata, nil if absent
func (b *BadgerStore) LoadEpochMetadata(chainID, epochID uint64) (*types.EpochMetadata, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("store is closed")
	}

	data, err := b.get(epochKey(chainID, epochID))
	if err != nil {
		return nil, fmt.Errorf("failed to load EpochMetadata: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	return persistence.UnmarshalEpochMetadata(data)
}

// SaveClaim persists one address's claim
func (b *BadgerStore) SaveClaim(chainID uint64, claim *types.Claim) error {
	if claim == nil {
		return fmt.Errorf("cannot save nil Claim")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("store is closed")
	}

	data, err := persistence.MarshalClaim(claim)
	if err != nil {
		return err
	}

	key := claimKey(chainID, claim.EpochID, claim.Address)
	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// LoadClaim retrieves one address's claim, nil if absent
func (b *BadgerStore) LoadClaim(chainID, epochID uint64, address string) (*types.Claim, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("store is closed")
	}

	data, err := b.get(claimKey(chainID, epochID, address))
	if err != nil {
		return nil, fmt.Errorf("failed to load Claim: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	return persistence.UnmarshalClaim(data)
}

// ListClaims returns all claims for an epoch sorted by address
func (b *BadgerStore) ListClaims(chainID, epochID uint64) ([]*types.Claim, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("store is closed")
	}

	claims := make([]*types.Claim, 0)

	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(claimPrefix(chainID, epochID))

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			var data []byte
			err := item.Value(func(val []byte) error {
				data = append([]byte{}, val...) // Copy value
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to read value: %w", err)
			}

			claim, err := persistence.UnmarshalClaim(data)
			if err != nil {
				b.logger.Sugar().Warnw("Failed to unmarshal Claim, skipping",
					"key", string(item.Key()), "error", err)
				continue
			}

			claims = append(claims, claim)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list Claims: %w", err)
	}

	sort.Slice(claims, func(i, j int) bool {
		return strings.ToLower(claims[i].Address) < strings.ToLower(claims[j].Address)
	})

	return claims, nil
}

// get reads a single key, returning nil data when the key is absent
func (b *BadgerStore) get(key string) ([]byte, error) {
	var data []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badgerdb.ErrKeyNotFound {
			return nil // Not found is not an error
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...) // Copy value
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Close stops background GC and closes the database. Idempotent.
func (b *BadgerStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	b.gcCancel()
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}
	return nil
}

// HealthCheck verifies the database is operational
func (b *BadgerStore) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("store is closed")
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if err != nil && err != badgerdb.ErrKeyNotFound {
			return fmt.Errorf("health check read failed: %w", err)
		}
		return nil
	})
}
