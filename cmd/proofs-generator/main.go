package main

import (
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/entitlements-distributor-go/internal/stores"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/config"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/distribution"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/loader"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "proofs-generator",
		Usage: "Generate merkle claims for an entitlement epoch",
		Description: `Builds the per-epoch merkle commitment over entitlement records and
persists one claim per address alongside the epoch metadata.

Input is a CSV of (address, amount, generated_loss) rows. Records are
canonically ordered by address, hashed with keccak256 into leaves, and
committed with the sorted-pair / duplicate-last tree construction the
distribution contract verifies on-chain.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:     "chain-id",
				Aliases:  []string{"chain"},
				Usage:    "Ethereum chain ID: " + config.GetSupportedChainIDsString(),
				EnvVars:  []string{config.EnvDistChainID},
				Required: true,
			},
			&cli.Uint64Flag{
				Name:     "epoch-id",
				Aliases:  []string{"epoch"},
				Usage:    "Epoch identifier for this distribution batch",
				EnvVars:  []string{config.EnvDistEpochID},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Path to the entitlement records CSV",
				EnvVars:  []string{config.EnvDistInput},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Value:   "./distributions",
				Usage:   "Output directory for the fs store",
				EnvVars: []string{config.EnvDistOutputDir},
			},
			&cli.StringFlag{
				Name:    "store",
				Value:   string(config.StoreTypeFilesystem),
				Usage:   "Store backend: fs, badger, redis, memory",
				EnvVars: []string{config.EnvDistStore},
			},
			&cli.StringFlag{
				Name:    "badger-path",
				Usage:   "Data directory for the badger store",
				EnvVars: []string{config.EnvDistBadgerPath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis server address (host:port) for the redis store",
				EnvVars: []string{config.EnvDistRedisAddress},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvDistVerbose},
			},
		},
		Action: runGenerator,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func parseConfig(c *cli.Context) (*config.GeneratorConfig, error) {
	cfg := &config.GeneratorConfig{
		ChainID:      config.ChainId(c.Uint64("chain-id")),
		EpochID:      c.Uint64("epoch-id"),
		InputPath:    c.String("input"),
		StoreType:    config.StoreType(c.String("store")),
		OutputDir:    c.String("out"),
		BadgerPath:   c.String("badger-path"),
		RedisAddress: c.String("redis-address"),
		Verbose:      c.Bool("verbose"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runGenerator(c *cli.Context) error {
	cfg, err := parseConfig(c)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Verbose})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	runID := uuid.New().String()
	sugar := l.Sugar().With(
		"run_id", runID,
		"chain_id", uint64(cfg.ChainID),
		"chain", string(cfg.ChainName),
		"epoch_id", cfg.EpochID,
	)

	sugar.Infow("Loading entitlement records", "input", cfg.InputPath)
	records, err := loader.LoadRecords(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}
	sugar.Infow("Records loaded", "count", len(records))

	dist, err := distribution.Build(cfg.ChainID, cfg.EpochID, records)
	if err != nil {
		return fmt.Errorf("failed to build distribution: %w", err)
	}
	sugar.Infow("Distribution built",
		"merkle_root", dist.Metadata.MerkleRoot,
		"count", dist.Metadata.Count,
		"total_amount", dist.Metadata.TotalAmount,
		"total_generated_loss", dist.Metadata.TotalGeneratedLoss,
	)

	store, err := stores.NewStore(cfg, l)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.HealthCheck(); err != nil {
		return fmt.Errorf("store health check failed: %w", err)
	}

	for _, claim := range dist.Claims {
		if err := store.SaveClaim(uint64(cfg.ChainID), claim); err != nil {
			return fmt.Errorf("failed to save claim for %s: %w", claim.Address, err)
		}
	}
	if err := store.SaveEpochMetadata(dist.Metadata); err != nil {
		return fmt.Errorf("failed to save epoch metadata: %w", err)
	}

	fmt.Printf("Distribution for chain %d epoch %d complete\n", cfg.ChainID, cfg.EpochID)
	fmt.Printf("  Merkle root:          %s\n", dist.Metadata.MerkleRoot)
	fmt.Printf("  Claims:               %d\n", dist.Metadata.Count)
	fmt.Printf("  Total amount:         %s\n", dist.Metadata.TotalAmount)
	fmt.Printf("  Total generated loss: %s\n", dist.Metadata.TotalGeneratedLoss)

	return nil
}
