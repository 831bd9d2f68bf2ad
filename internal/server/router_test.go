package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/uiauto/internal/envconfig"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	table := envconfig.Table{
		"QA": {
			Name: "QA",
			URLParts: &envconfig.URLParts{
				Protocol:          "https",
				EnvironmentPrefix: "qa2",
				Subdomain:         "repohighway",
				Domain:            "devservices.dh.com",
			},
			Paths:       map[string]string{"login": "/go.aspx"},
			Credentials: map[string]envconfig.Credential{"RBCClient": {Username: "MIJIRBC", Password: "Assetuse@1"}},
		},
		"dev": {
			Name:          "Development",
			LegacyBaseURL: "https://dev.example.com",
			Paths:         map[string]string{"login": "login"},
			Credentials:   map[string]envconfig.Credential{"admin": {Username: "admin", Password: "hunter2"}},
		},
	}
	res := envconfig.New(table, envconfig.Options{Overrides: envconfig.MapOverrides{}})
	return NewRouter(res, nil)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(t, testRouter(t), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestEnvironments(t *testing.T) {
	rec := get(t, testRouter(t), "/environments")
	require.Equal(t, http.StatusOK, rec.Code)

	var got environmentsView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "QA", got.Active)
	assert.Equal(t, []string{"QA", "dev"}, got.Environments)
}

func TestEnvironment_NeverLeaksSecrets(t *testing.T) {
	h := testRouter(t)
	for _, path := range []string{"/environments/QA", "/environments/active"} {
		rec := get(t, h, path)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var got environmentView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "https://qa2repohighway.devservices.dh.com", got.BaseURL)
		assert.Equal(t, []string{"RBCClient"}, got.CredentialKeys)
		assert.False(t, strings.Contains(rec.Body.String(), "Assetuse@1"), path)
		assert.False(t, strings.Contains(rec.Body.String(), "MIJIRBC"), path)
	}
}

func TestURL(t *testing.T) {
	rec := get(t, testRouter(t), "/environments/dev/urls/login")
	require.Equal(t, http.StatusOK, rec.Code)

	var got urlView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "https://dev.example.com/login", got.URL)
	assert.Equal(t, "dev", got.Environment)
}

func TestNotFound(t *testing.T) {
	h := testRouter(t)

	rec := get(t, h, "/environments/staging")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body errorView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"QA", "dev"}, body.Valid)

	rec = get(t, h, "/environments/QA/urls/checkout")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsExposed(t *testing.T) {
	h := testRouter(t)
	_ = get(t, h, "/environments/QA")
	rec := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "envconfig_cache_misses_total")
}
