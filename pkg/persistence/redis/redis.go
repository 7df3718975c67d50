package redis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Layr-Labs/entitlements-distributor-go/pkg/persistence"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/types"
)

// Key layout for namespacing in Redis
const (
	keyPrefixEpoch       = "dist:epoch:"
	keyPrefixClaim       = "dist:claim:"
	keySchemaVersion     = "dist:metadata:schema_version"
	currentSchemaVersion = "v1"

	// Claims are additionally tracked in a per-epoch set because Redis
	// has no native prefix iteration for listing
	keyPrefixClaimIndex = "dist:claims:index:"
)

const opTimeout = 5 * time.Second

// RedisStore is a distribution store backed by Redis, suitable for
// serving claims from shared infrastructure (e.g. behind a claims API).
type RedisStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string // Custom prefix for all keys
	mu        sync.RWMutex
	closed    bool
}

var _ persistence.IDistributionStore = (*RedisStore)(nil)

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is an optional custom prefix for all keys (for
	// multi-tenant setups). If set, it is prepended to every key, e.g.
	// "myapp:" yields keys like "myapp:dist:epoch:1:42".
	KeyPrefix string
}

// NewRedisStore creates a new Redis-backed distribution store.
func NewRedisStore(cfg *RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rs := &RedisStore{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rs.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis store initialized", "address", cfg.Address, "db", cfg.DB)

	return rs, nil
}

// prefixKey adds the custom key prefix (if configured) to a key
func (r *RedisStore) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

// initSchema initializes or validates the schema version
func (r *RedisStore) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}
	return nil
}

func (r *RedisStore) epochKey(chainID, epochID uint64) string {
	return r.prefixKey(fmt.Sprintf("%s%d:%d", keyPrefixEpoch, chainID, epochID))
}

func (r *RedisStore) claimKey(chainID, epochID uint64, address string) string {
	return r.prefixKey(fmt.Sprintf("%s%d:%d:%s", keyPrefixClaim, chainID, epochID, strings.ToLower(address)))
}

func (r *RedisStore) claimIndexKey(chainID, epochID uint64) string {
	return r.prefixKey(fmt.Sprintf("%s%d:%d", keyPrefixClaimIndex, chainID, epochID))
}

// SaveEpochMetadata persists epoch metadata
func (r *RedisStore) SaveEpochMetadata(meta *types.EpochMetadata) error {
	if meta == nil {
		return fmt.Errorf("cannot save nil EpochMetadata")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("store is closed")
	}

	data, err := persistence.MarshalEpochMetadata(meta)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.client.Set(ctx, r.epochKey(meta.ChainID, meta.EpochID), data, 0).Err()
}

// LoadEpochMetadata retrieves epoch metadata, nil if absent
func (r *RedisStore) LoadEpochMetadata(chainID, epochID uint64) (*types.EpochMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.epochKey(chainID, epochID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load EpochMetadata: %w", err)
	}

	return persistence.UnmarshalEpochMetadata(data)
}

// SaveClaim persists one address's claim and records it in the epoch index
func (r *RedisStore) SaveClaim(chainID uint64, claim *types.Claim) error {
	if claim == nil {
		return fmt.Errorf("cannot save nil Claim")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("store is closed")
	}

	data, err := persistence.MarshalClaim(claim)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	address := strings.ToLower(claim.Address)

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.claimKey(chainID, claim.EpochID, address), data, 0)
	pipe.SAdd(ctx, r.claimIndexKey(chainID, claim.EpochID), address)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save Claim: %w", err)
	}
	return nil
}

// LoadClaim retrieves one address's claim, nil if absent
func (r *RedisStore) LoadClaim(chainID, epochID uint64, address string) (*types.Claim, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.claimKey(chainID, epochID, address)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load Claim: %w", err)
	}

	return persistence.UnmarshalClaim(data)
}

// ListClaims returns all claims for an epoch sorted by address
func (r *RedisStore) ListClaims(chainID, epochID uint64) ([]*types.Claim, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	addresses, err := r.client.SMembers(ctx, r.claimIndexKey(chainID, epochID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read claim index: %w", err)
	}

	sort.Strings(addresses)

	claims := make([]*types.Claim, 0, len(addresses))
	for _, address := range addresses {
		data, err := r.client.Get(ctx, r.claimKey(chainID, epochID, address)).Bytes()
		if err == redis.Nil {
			r.logger.Sugar().Warnw("Claim in index but missing, skipping", "address", address)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load Claim for %s: %w", address, err)
		}

		claim, err := persistence.UnmarshalClaim(data)
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal Claim, skipping", "address", address, "error", err)
			continue
		}

		claims = append(claims, claim)
	}

	return claims, nil
}

// Close shuts down the Redis client. Idempotent.
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}

// HealthCheck pings the Redis server
func (r *RedisStore) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
