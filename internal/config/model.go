// internal/config/model.go
//
// Typed configuration model for the test suite.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from its overlay layers:
//
//   • built-in defaults                        – see defaults below,
//   • optional `.env`                          – dotenv values,
//   • optional `conf/suite.yaml`               – primary static file,
//   • `UIAUTO_`-prefixed environment overrides – highest precedence.
//
// The environment table itself is not part of this tree.  `Suite.TableFile`
// or `Suite.TableDSN` says where to read it from.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Relative file paths are resolved against `Paths.Root` by Abs.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import (
	"path/filepath"
	"time"
)

//
// Suite section
//

// Suite selects the environment table and resolver behaviour.
type Suite struct {
	DefaultEnvironment string `koanf:"default_environment" validate:"required"`
	TableFile          string `koanf:"table_file"          validate:"required_without=TableDSN"`
	TableDSN           string `koanf:"table_dsn"`
	CacheEnabled       bool   `koanf:"cache_enabled"`
}

//
// Logging section
//

// Logging controls the daily JSON log.
type Logging struct {
	Dir   string `koanf:"dir"   validate:"required"`
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	Tee   bool   `koanf:"tee"`
}

//
// Fixtures section
//

// Fixtures points at data-driven test inputs.
type Fixtures struct {
	Dir       string `koanf:"dir"        validate:"required"`
	CacheSize int    `koanf:"cache_size" validate:"gte=1"`
}

//
// HTTP section
//

// HTTP holds status-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
}

//
// Vault section
//

// Vault toggles `vault:` reference expansion in the credential table.
// Address and token come from VAULT_ADDR and VAULT_TOKEN.
type Vault struct {
	Enabled  bool          `koanf:"enabled"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // UIAUTO_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	Suite    Suite    `koanf:"suite"`
	Logging  Logging  `koanf:"logging"`
	Fixtures Fixtures `koanf:"fixtures"`
	HTTP     HTTP     `koanf:"http"`
	Vault    Vault    `koanf:"vault"`
	Paths    Paths    `koanf:"-"`
}

// Abs resolves p against the suite root unless it is already absolute.
func (c *Config) Abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Paths.Root, p)
}
