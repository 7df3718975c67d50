package config

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for the proofs generator configuration
const (
	EnvDistChainID      = "DIST_CHAIN_ID"
	EnvDistEpochID      = "DIST_EPOCH_ID"
	EnvDistInput        = "DIST_INPUT"
	EnvDistOutputDir    = "DIST_OUTPUT_DIR"
	EnvDistStore        = "DIST_STORE"
	EnvDistBadgerPath   = "DIST_BADGER_PATH"
	EnvDistRedisAddress = "DIST_REDIS_ADDRESS"
	EnvDistVerbose      = "DIST_VERBOSE"
)

// StoreType selects the persistence backend for generated artifacts
type StoreType string

func (s StoreType) String() string {
	return string(s)
}

const (
	StoreTypeFilesystem StoreType = "fs"
	StoreTypeBadger     StoreType = "badger"
	StoreTypeRedis      StoreType = "redis"
	StoreTypeMemory     StoreType = "memory" // testing only
)

type ChainId uint64

const (
	ChainId_EthereumMainnet ChainId = 1
	ChainId_EthereumSepolia ChainId = 11155111
	ChainId_EthereumAnvil   ChainId = 31337
)

type ChainName string

const (
	ChainName_EthereumMainnet ChainName = "mainnet"
	ChainName_EthereumSepolia ChainName = "sepolia"
	ChainName_EthereumAnvil   ChainName = "devnet"
)

var ChainIdToName = map[ChainId]ChainName{
	ChainId_EthereumMainnet: ChainName_EthereumMainnet,
	ChainId_EthereumSepolia: ChainName_EthereumSepolia,
	ChainId_EthereumAnvil:   ChainName_EthereumAnvil,
}
var ChainNameToId = map[ChainName]ChainId{
	ChainName_EthereumMainnet: ChainId_EthereumMainnet,
	ChainName_EthereumSepolia: ChainId_EthereumSepolia,
	ChainName_EthereumAnvil:   ChainId_EthereumAnvil,
}

// GetSupportedChainIDs returns all supported chain IDs
func GetSupportedChainIDs() []ChainId {
	return []ChainId{
		ChainId_EthereumMainnet,
		ChainId_EthereumSepolia,
		ChainId_EthereumAnvil,
	}
}

// GetSupportedChainIDsString returns supported chain IDs as strings for CLI help
func GetSupportedChainIDsString() string {
	return fmt.Sprintf("%d (mainnet), %d (sepolia), %d (anvil)",
		ChainId_EthereumMainnet, ChainId_EthereumSepolia, ChainId_EthereumAnvil)
}

// GeneratorConfig represents the complete configuration for one
// proof-generation run. Chain id and epoch id are threaded through as
// explicit parameters - nothing below the CLI reads the environment.
type GeneratorConfig struct {
	// Epoch identity
	ChainID   ChainId   `json:"chain_id"`
	ChainName ChainName `json:"chain_name"`
	EpochID   uint64    `json:"epoch_id"`

	// Input
	InputPath string `json:"input_path"` // CSV file of entitlement records

	// Output
	StoreType    StoreType `json:"store_type"`
	OutputDir    string    `json:"output_dir"`    // filesystem store root
	BadgerPath   string    `json:"badger_path"`   // badger store directory
	RedisAddress string    `json:"redis_address"` // host:port for redis store

	// Operational settings
	Verbose bool `json:"verbose"`
}

// Validate validates the generator configuration and resolves the chain name.
func (c *GeneratorConfig) Validate() error {
	var allErrors field.ErrorList

	chainName, exists := ChainIdToName[c.ChainID]
	if !exists {
		allErrors = append(allErrors, field.NotSupported(field.NewPath("chainId"), int64(c.ChainID), chainIDStrings()))
	} else {
		c.ChainName = chainName
	}

	if c.InputPath == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("input"), "input CSV path is required"))
	}

	switch c.StoreType {
	case StoreTypeFilesystem:
		if c.OutputDir == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("outputDir"), "output directory is required for the fs store"))
		}
	case StoreTypeBadger:
		if c.BadgerPath == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("badgerPath"), "data directory is required for the badger store"))
		}
	case StoreTypeRedis:
		if c.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("redisAddress"), "address is required for the redis store"))
		}
	case StoreTypeMemory:
		// nothing to validate; testing only
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("store"), string(c.StoreType),
			[]string{string(StoreTypeFilesystem), string(StoreTypeBadger), string(StoreTypeRedis), string(StoreTypeMemory)}))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

func chainIDStrings() []string {
	ids := GetSupportedChainIDs()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = fmt.Sprintf("%d", id)
	}
	return out
}
