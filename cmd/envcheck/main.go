// cmd/envcheck/main.go
//
// envcheck – inspect and serve the environment table a UI suite runs
// against.
//
// Boot sequence
// -------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Load suite config (defaults → conf/.env → conf/suite.yaml →
//     UIAUTO_ overrides).
//
//  3. Start the daily rotating logger.
//
//  4. Load the environment table (SQL when a DSN is set, file otherwise)
//     and expand `vault:` credential references when Vault is enabled.
//
//  5. Build the resolver and apply --env.
//
// Every subcommand but `version` runs the sequence through
// PersistentPreRunE, so commands only see a ready resolver.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/uiauto/internal/config"
	"github.com/yanizio/uiauto/internal/database"
	"github.com/yanizio/uiauto/internal/envconfig"
	"github.com/yanizio/uiauto/internal/envtable"
	"github.com/yanizio/uiauto/internal/logger"
	"github.com/yanizio/uiauto/internal/vault"
)

var (
	version = "dev"
	commit  = "none"
)

const serverEnvPath = "/usr/local/etc/uiauto/suite.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

// app carries flag values and the state built during boot.
type app struct {
	envFlag   string
	tableFlag string
	dsnFlag   string
	noCache   bool

	cfg *config.Config
	log *zap.SugaredLogger
	res *envconfig.Resolver
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "envcheck",
		Short: "Resolve environments, URLs, and credentials for UI test suites",
		Long: `envcheck loads the suite's environment table and answers the questions a
test run asks: which environment is active, what its base URL is, where a
named page lives, and which account to log in with.

TEST_ENV, BASE_URL, ENV_PREFIX, SUBDOMAIN, and <KEY>_USERNAME / <KEY>_PASSWORD
are honoured on every lookup.`,
		Version:           fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:      true,
		PersistentPreRunE: a.boot,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.envFlag, "env", "", "environment to select (overrides TEST_ENV)")
	pf.StringVar(&a.tableFlag, "table", "", "environment table file (overrides suite.table_file)")
	pf.StringVar(&a.dsnFlag, "dsn", "", "MySQL DSN of the table store (overrides suite.table_dsn)")
	pf.BoolVar(&a.noCache, "no-cache", false, "disable the resolver's environment cache")

	root.AddCommand(
		a.validateCmd(),
		a.envsCmd(),
		a.baseURLCmd(),
		a.urlCmd(),
		a.credsCmd(),
		a.fixtureCmd(),
		a.serveCmd(),
		versionCmd(root),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

/*──────────────────────────── boot ─────────────────────────────*/

func (a *app) boot(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	log, err := logger.New(cfg.Abs(cfg.Logging.Dir), cfg.Logging.Tee && runningInTTY(), cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	a.log = log

	table, err := a.loadTable(cmd.Context())
	if err != nil {
		log.Errorw("environment table load failed", "err", err)
		return err
	}

	a.res = envconfig.New(table, envconfig.Options{
		Logger:             log,
		DefaultEnvironment: cfg.Suite.DefaultEnvironment,
		DisableCache:       a.noCache || !cfg.Suite.CacheEnabled,
	})

	if a.envFlag != "" {
		if err := a.res.SetActiveEnvironment(a.envFlag); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) loadTable(ctx context.Context) (envconfig.Table, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	dsn := a.cfg.Suite.TableDSN
	if a.dsnFlag != "" {
		dsn = a.dsnFlag
	}
	path := a.cfg.Abs(a.cfg.Suite.TableFile)
	if a.tableFlag != "" {
		path = a.tableFlag
		dsn = ""
	}

	var (
		table envconfig.Table
		err   error
	)
	if dsn != "" {
		db, derr := database.Open(ctx, dsn)
		if derr != nil {
			return nil, derr
		}
		defer db.Close()
		table, err = envtable.LoadSQL(ctx, db)
		a.log.Infow("environment table loaded", "source", "sql", "environments", len(table))
	} else {
		table, err = envtable.LoadFile(path)
		a.log.Infow("environment table loaded", "source", path, "environments", len(table))
	}
	if err != nil {
		return nil, err
	}

	if a.cfg.Vault.Enabled {
		cli, err := vault.New(ctx, a.log)
		if err != nil {
			return nil, err
		}
		n, err := envtable.ExpandSecrets(ctx, table, cli, a.cfg.Vault.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("expand vault references: %w", err)
		}
		a.log.Infow("vault references expanded", "fields", n)
	}
	return table, nil
}
