// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from four layers (highest
precedence last):

  1. Built-in defaults, so a suite runs with nothing but a table file.
  2. Optional `.env` file at `<root>/conf/.env`.
  3. Optional `conf/suite.yaml`.
  4. Environment variables prefixed `UIAUTO_`, where `__` maps to “.”
     (e.g., `UIAUTO_SUITE__TABLE_FILE → suite.table_file`).

After merging, the tree is unmarshalled into strongly-typed structs,
validated, enriched with the runtime root path, and cached in an
`atomic.Pointer` for lock-free reads.  `Reload()` calls `Load()` again and
swaps the pointer.

Instrumentation
---------------
  • DEBUG spans – root discovery, YAML read, env overlay.
  • ERROR spans – YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span  – final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface before the file logger is installed.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/suite.yaml`, so
    `go test ./...` works from any package directory.
  • TEST_ENV, BASE_URL, and the credential slots are not read here.  The
    resolver reads them on every call.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const (
	envPrefix = "UIAUTO_"
	envRoot   = envPrefix + "ROOT"
	suiteFile = "suite.yaml"
)

var current atomic.Pointer[Config]

var defaults = map[string]any{
	"suite.default_environment": "QA",
	"suite.table_file":          "conf/environments.yaml",
	"suite.cache_enabled":       true,
	"logging.dir":               "logs",
	"logging.level":             "info",
	"fixtures.dir":              "testdata",
	"fixtures.cache_size":       64,
	"http.listen_addr":          "127.0.0.1:8089",
	"vault.enabled":             false,
	"vault.cache_ttl":           5 * time.Minute,
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves UIAUTO_ROOT or climbs directories until conf/suite.yaml
// is found.  Falls back to the working directory.
func rootDir() string {
	if r := os.Getenv(envRoot); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", suiteFile)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads defaults, .env, YAML, env overrides, validates, and caches
// Config.
func Load() (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("config default %s: %w", key, err)
		}
	}

	yamlPath := filepath.Join(root, "conf", suiteFile)
	switch _, err := os.Stat(yamlPath); {
	case err == nil:
		if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, fmt.Errorf("load %s: %w", yamlPath, err)
		}
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	case errors.Is(err, fs.ErrNotExist):
		zap.S().Debugw("config yaml absent, using defaults", "file", yamlPath)
	default:
		return nil, fmt.Errorf("stat %s: %w", yamlPath, err)
	}

	// Env overrides: UIAUTO_SUITE__TABLE_FILE → suite.table_file
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"root", cfg.Paths.Root,
		"default_environment", cfg.Suite.DefaultEnvironment,
		"table_file", cfg.Suite.TableFile,
		"table_dsn_set", cfg.Suite.TableDSN != "",
		"vault", cfg.Vault.Enabled,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }
