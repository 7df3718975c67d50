package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/entitlements-distributor-go/internal/stores"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/config"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/distribution"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/logger"
	"github.com/Layr-Labs/entitlements-distributor-go/pkg/types"
)

func main() {
	app := &cli.App{
		Name:  "proofs-verify",
		Usage: "Verify persisted claims against an epoch's merkle root",
		Description: `Re-runs the on-chain verification for persisted claims: rebuilds each
leaf from the claim's values and folds its proof back to the epoch root.
Verifies the whole epoch by default, or a single address with --address.`,
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
				Usage:    "Epoch identifier to verify",
				EnvVars:  []string{config.EnvDistEpochID},
				Required: true,
			},
			&cli.StringFlag{
				Name:  "address",
				Usage: "Verify only this address's claim",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Value:   "./distributions",
				Usage:   "Output directory of the fs store",
				EnvVars: []string{config.EnvDistOutputDir},
			},
			&cli.StringFlag{
				Name:    "store",
				Value:   string(config.StoreTypeFilesystem),
				Usage:   "Store backend: fs, badger, redis",
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
		Action: runVerify,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runVerify(c *cli.Context) error {
	cfg := &config.GeneratorConfig{
		ChainID:      config.ChainId(c.Uint64("chain-id")),
		EpochID:      c.Uint64("epoch-id"),
		InputPath:    "-", // not used for verification
		StoreType:    config.StoreType(c.String("store")),
		OutputDir:    c.String("out"),
		BadgerPath:   c.String("badger-path"),
		RedisAddress: c.String("redis-address"),
		Verbose:      c.Bool("verbose"),
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Verbose})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	store, err := stores.NewStore(cfg, l)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = store.Close() }()

	meta, err := store.LoadEpochMetadata(uint64(cfg.ChainID), cfg.EpochID)
	if err != nil {
		return fmt.Errorf("failed to load epoch metadata: %w", err)
	}
	if meta == nil {
		return fmt.Errorf("no metadata found for chain %d epoch %d", cfg.ChainID, cfg.EpochID)
	}

	var claims []*types.Claim
	if address := c.String("address"); address != "" {
		claim, err := store.LoadClaim(uint64(cfg.ChainID), cfg.EpochID, address)
		if err != nil {
			return fmt.Errorf("failed to load claim: %w", err)
		}
		if claim == nil {
			return fmt.Errorf("no claim found for %s in chain %d epoch %d", address, cfg.ChainID, cfg.EpochID)
		}
		claims = []*types.Claim{claim}
	} else {
		claims, err = store.ListClaims(uint64(cfg.ChainID), cfg.EpochID)
		if err != nil {
			return fmt.Errorf("failed to list claims: %w", err)
		}
	}

	if len(claims) == 0 {
		return fmt.Errorf("no claims found for chain %d epoch %d", cfg.ChainID, cfg.EpochID)
	}

	failures := 0
	for _, claim := range claims {
		if err := distribution.VerifyClaim(claim, meta.MerkleRoot); err != nil {
			failures++
			l.Sugar().Errorw("Claim failed verification", "address", claim.Address, "error", err)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d claims failed verification against root %s", failures, len(claims), meta.MerkleRoot)
	}

	fmt.Printf("All %d claims verified against root %s\n", len(claims), meta.MerkleRoot)
	return nil
}
