// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tomtom215/easyflix/internal/config"
	"github.com/tomtom215/easyflix/internal/database"
	"github.com/tomtom215/easyflix/internal/logging"
	"github.com/tomtom215/easyflix/internal/transport"
)

const usageText = `Usage: easyflix <subcommand> [flags]

Subcommands:
  exec    run one command and print the response envelope
  serve   run the HTTP server and snapshot worker
  seed    load the default catalog and bootstrap the admin

Run "easyflix <subcommand> -h" for subcommand flags.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usageText)
		return 2
	}

	var err error
	switch args[0] {
	case "exec":
		return runExec(args[1:], stdout, stderr)
	case "serve":
		err = runServe(args[1:], stderr)
	case "seed":
		err = runSeed(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usageText)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown subcommand %q\n\n%s", args[0], usageText)
		return 2
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		logging.Error().Err(err).Str("subcommand", args[0]).Msg("Command failed")
		return 1
	}
	return 0
}

// loadConfig loads and validates configuration, then initializes logging.
func loadConfig(stderr io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: stderr,
	})
	return cfg, nil
}

// newStore opens the store without seeding. create allows a missing
// database file on top of cfg.Database.CreateIfMissing.
func newStore(cfg *config.Config, create bool) (*database.DB, error) {
	dbCfg := cfg.Database
	dbCfg.CreateIfMissing = dbCfg.CreateIfMissing || create
	db, err := database.New(&dbCfg,
		database.WithPageLimits(cfg.API.DefaultPageSize, cfg.API.MaxPageSize),
		database.WithLocation(cfg.Aggregation.Location()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// openDatabase opens the store, seeding and bootstrapping as configured.
func openDatabase(ctx context.Context, cfg *config.Config, create bool) (*database.DB, error) {
	db, err := newStore(cfg, create)
	if err != nil {
		return nil, err
	}

	if cfg.Database.SeedCatalog {
		if _, err := seedCatalog(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := bootstrapAdmin(ctx, db, cfg.Admin); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// newTransportCodec builds the envelope codec and checks that it round-trips
// before any request is served with it.
func newTransportCodec(cfg *config.Config) (*transport.Codec, error) {
	codec, err := transport.NewCodec(cfg.TransportCodecConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create transport codec: %w", err)
	}
	if err := codec.SelfTest(); err != nil {
		return nil, fmt.Errorf("transport codec self-test failed: %w", err)
	}
	return codec, nil
}

func seedCatalog(ctx context.Context, db *database.DB) (int, error) {
	n, err := db.SeedCatalog(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to seed catalog: %w", err)
	}
	if n > 0 {
		logging.Info().Int("titles", n).Msg("Seeded default catalog")
	}
	return n, nil
}

func bootstrapAdmin(ctx context.Context, db *database.DB, admin config.AdminConfig) error {
	if admin.Username == "" {
		return nil
	}
	created, err := db.EnsureAdmin(ctx, admin.Username, admin.Password, admin.Role)
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	if created {
		logging.Info().Str("username", logging.SanitizeUsername(admin.Username)).Msg("Created admin account")
	}
	return nil
}

func closeDatabase(db *database.DB) {
	if err := db.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing database")
	}
}

func runSeed(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("seed", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(stderr)
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := newStore(cfg, true)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	n, err := seedCatalog(ctx, db)
	if err != nil {
		return err
	}
	if err := bootstrapAdmin(ctx, db, cfg.Admin); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "seeded %d titles\n", n)
	return nil
}
