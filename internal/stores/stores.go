// Package stores constructs the configured distribution store backend.
package stores

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Layr-Labs/entitlements-distributor-go/pkg/config"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/persistence"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/persistence/badger"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/persistence/fs"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/persistence/memory"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/persistence/redis"
)

// NewStore opens the store selected by the configuration. The caller
// owns the returned store and must Close it.
func NewStore(cfg *config.GeneratorConfig, logger *zap.Logger) (persistence.IDistributionStore, error) {
	switch cfg.StoreType {
	case config.StoreTypeFilesystem:
		return fs.NewFilesystemStore(cfg.OutputDir, logger)
	case config.StoreTypeBadger:
		return badger.NewBadgerStore(cfg.BadgerPath, logger)
	case config.StoreTypeRedis:
		return redis.NewRedisStore(&redis.RedisConfig{Address: cfg.RedisAddress}, logger)
	case config.StoreTypeMemory:
		logger.Sugar().Warnw("Using in-memory store - all data will be lost on exit; testing only")
		return memory.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.StoreType)
	}
}
