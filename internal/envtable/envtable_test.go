// internal/envtable/envtable_test.go
//
// Unit-tests for the table loaders.  SQL paths run against sqlmock.
//
// Run: go test ./internal/envtable -v

package envtable

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/uiauto/internal/envconfig"
)

const tableYAML = `environments:
  QA:
    url_parts:
      protocol: https
      environment_prefix: qa2
      subdomain: repohighway
      domain: devservices.dh.com
    paths:
      login: /go.aspx
      home: /home
    credentials:
      RBCClient:
        username: MIJIRBC
        password: vault:secret/qa/clients#rbc
  dev:
    name: Development
    base_url: https://dev.example.com
    paths:
      login: login
    credentials:
      admin:
        username: admin
        password: hunter2
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

/*──────────────────────────── file ────────────────────────────*/

func TestLoadFile(t *testing.T) {
	table, err := LoadFile(writeFile(t, "environments.yaml", tableYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"QA", "dev"}, table.Names())

	qa := table["QA"]
	assert.Equal(t, "QA", qa.Name, "name defaults to map key")
	require.NotNil(t, qa.URLParts)
	assert.Equal(t, "qa2", qa.URLParts.EnvironmentPrefix)
	assert.Equal(t, "/go.aspx", qa.Paths["login"])
	assert.Equal(t, "MIJIRBC", qa.Credentials["RBCClient"].Username)

	dev := table["dev"]
	assert.Equal(t, "Development", dev.Name)
	assert.Nil(t, dev.URLParts)
	assert.Equal(t, "https://dev.example.com", dev.LegacyBaseURL)

	assert.NoError(t, envconfig.Validate(table))
}

func TestLoadFile_JSON(t *testing.T) {
	body := `{"environments": {"local": {"base_url": "http://localhost:8080",
		"paths": {"home": "/"}, "credentials": {"me": {"username": "u", "password": "p"}}}}}`
	table, err := LoadFile(writeFile(t, "environments.json", body))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", table["local"].LegacyBaseURL)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFile(writeFile(t, "other.yaml", "suite:\n  name: x\n"))
	assert.ErrorContains(t, err, "environments")
}

/*──────────────────────────── sql ─────────────────────────────*/

func TestLoadSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(qEnvironments)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "label", "protocol", "environment_prefix", "subdomain", "domain", "base_url"}).
			AddRow("QA", "QA", "https", "qa2", "repohighway", "devservices.dh.com", nil).
			AddRow("dev", "Development", nil, nil, nil, nil, "https://dev.example.com"))
	mock.ExpectQuery(regexp.QuoteMeta(qPaths)).
		WillReturnRows(sqlmock.NewRows([]string{"environment", "path_key", "path"}).
			AddRow("QA", "login", "/go.aspx").
			AddRow("dev", "login", "login"))
	mock.ExpectQuery(regexp.QuoteMeta(qCredentials)).
		WillReturnRows(sqlmock.NewRows([]string{"environment", "credential_key", "username", "password"}).
			AddRow("QA", "RBCClient", "MIJIRBC", "Assetuse@1").
			AddRow("dev", "admin", "admin", "hunter2"))

	table, err := LoadSQL(context.Background(), sqlx.NewDb(db, "sqlmock"))
	require.NoError(t, err)

	require.NotNil(t, table["QA"].URLParts)
	assert.Equal(t, "devservices.dh.com", table["QA"].URLParts.Domain)
	assert.Nil(t, table["dev"].URLParts)
	assert.Equal(t, "Development", table["dev"].Name)
	assert.Equal(t, "Assetuse@1", table["QA"].Credentials["RBCClient"].Password)
	assert.NoError(t, envconfig.Validate(table))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadSQL_OrphanRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(qEnvironments)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "label", "protocol", "environment_prefix", "subdomain", "domain", "base_url"}).
			AddRow("QA", "QA", "https", "qa2", "repohighway", "devservices.dh.com", nil))
	mock.ExpectQuery(regexp.QuoteMeta(qPaths)).
		WillReturnRows(sqlmock.NewRows([]string{"environment", "path_key", "path"}).
			AddRow("staging", "login", "/login"))

	_, err = LoadSQL(context.Background(), sqlx.NewDb(db, "sqlmock"))
	assert.ErrorContains(t, err, `unknown environment "staging"`)
}

func TestLoadSQL_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(qEnvironments)).WillReturnError(errors.New("boom"))

	_, err = LoadSQL(context.Background(), sqlx.NewDb(db, "sqlmock"))
	assert.ErrorContains(t, err, "boom")
}

/*──────────────────────────── secrets ─────────────────────────*/

type fakeSecrets map[string]string

func (f fakeSecrets) GetKV(_ context.Context, path, key string, _ time.Duration) (string, error) {
	v, ok := f[path+"#"+key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func TestParseSecretRef(t *testing.T) {
	path, key, ok, err := ParseSecretRef("vault:secret/qa/clients#rbc")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "secret/qa/clients", path)
	assert.Equal(t, "rbc", key)

	_, _, ok, err = ParseSecretRef("Assetuse@1")
	assert.NoError(t, err)
	assert.False(t, ok)

	for _, bad := range []string{"vault:secret/qa", "vault:#rbc", "vault:secret/qa#"} {
		_, _, ok, err = ParseSecretRef(bad)
		assert.True(t, ok, bad)
		assert.Error(t, err, bad)
	}
}

func TestExpandSecrets(t *testing.T) {
	table, err := LoadFile(writeFile(t, "environments.yaml", tableYAML))
	require.NoError(t, err)

	n, err := ExpandSecrets(context.Background(), table,
		fakeSecrets{"secret/qa/clients#rbc": "Assetuse@1"}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Assetuse@1", table["QA"].Credentials["RBCClient"].Password)
	assert.Equal(t, "hunter2", table["dev"].Credentials["admin"].Password)
}

func TestExpandSecrets_Failures(t *testing.T) {
	table, err := LoadFile(writeFile(t, "environments.yaml", tableYAML))
	require.NoError(t, err)

	_, err = ExpandSecrets(context.Background(), table, nil, 0)
	assert.ErrorContains(t, err, "no secret source")

	_, err = ExpandSecrets(context.Background(), table, fakeSecrets{}, 0)
	assert.ErrorContains(t, err, `credential "RBCClient" password`)
}
