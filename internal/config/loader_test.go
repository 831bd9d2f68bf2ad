package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func suiteRoot(t *testing.T, yaml string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "conf"), 0o755))
	if yaml != "" {
		require.NoError(t, os.WriteFile(filepath.Join(root, "conf", suiteFile), []byte(yaml), 0o600))
	}
	t.Setenv(envRoot, root)
	return root
}

func TestLoad_Defaults(t *testing.T) {
	root := suiteRoot(t, "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Paths.Root)
	assert.Equal(t, "QA", cfg.Suite.DefaultEnvironment)
	assert.True(t, cfg.Suite.CacheEnabled)
	assert.Equal(t, 64, cfg.Fixtures.CacheSize)
	assert.Equal(t, 5*time.Minute, cfg.Vault.CacheTTL)
	assert.Equal(t, filepath.Join(root, "conf", "environments.yaml"), cfg.Abs(cfg.Suite.TableFile))
	assert.Same(t, cfg, Get())
}

func TestLoad_YAMLAndEnvOverlay(t *testing.T) {
	suiteRoot(t, `
suite:
  default_environment: dev
  table_file: /srv/tables/envs.yaml
  cache_enabled: false
logging:
  level: debug
vault:
  enabled: true
  cache_ttl: 30s
`)
	t.Setenv("UIAUTO_SUITE__DEFAULT_ENVIRONMENT", "staging")
	t.Setenv("UIAUTO_HTTP__LISTEN_ADDR", "0.0.0.0:9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Suite.DefaultEnvironment, "env beats yaml")
	assert.Equal(t, "/srv/tables/envs.yaml", cfg.Abs(cfg.Suite.TableFile))
	assert.False(t, cfg.Suite.CacheEnabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "0.0.0.0:9000", cfg.HTTP.ListenAddr)
	assert.True(t, cfg.Vault.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Vault.CacheTTL)
}

func TestLoad_ValidationFailure(t *testing.T) {
	suiteRoot(t, "logging:\n  level: chatty\n")

	_, err := Load()
	assert.ErrorContains(t, err, "logging.level")
}

func TestLoad_BadYAML(t *testing.T) {
	suiteRoot(t, "suite: [unclosed\n")

	_, err := Load()
	assert.Error(t, err)
}
