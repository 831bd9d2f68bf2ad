// internal/envconfig/overrides.go
//
// External override slots.
//
// Context
// -------
// Test orchestration shapes a run by exporting environment variables:
//
//	TEST_ENV                 → active environment name
//	BASE_URL                 → full base URL, returned verbatim
//	ENV_PREFIX, SUBDOMAIN    → URL part overrides
//	<KEY>_USERNAME/_PASSWORD → per-field credential overrides
//
// where <KEY> is DeriveOverrideKey(credentialKey).  Slots are read on every
// call, never snapshotted, so an orchestrator may change them mid-run.
//
// Notes
// -----
//   - A slot that is present but blank counts as absent everywhere.
//   - MapOverrides exists for tests and for callers that embed the resolver
//     without touching the process environment.
package envconfig

import (
	"os"
	"strings"
)

// Override slot names.
const (
	EnvActiveEnvironment = "TEST_ENV"
	EnvBaseURL           = "BASE_URL"
	EnvURLPrefix         = "ENV_PREFIX"
	EnvSubdomain         = "SUBDOMAIN"

	usernameSuffix = "_USERNAME"
	passwordSuffix = "_PASSWORD"
)

// Overrides is a source of override slot values.
type Overrides interface {
	Lookup(key string) (string, bool)
}

// EnvOverrides reads slots from the process environment.
type EnvOverrides struct{}

// Lookup implements Overrides.
func (EnvOverrides) Lookup(key string) (string, bool) { return os.LookupEnv(key) }

// MapOverrides serves slots from a fixed map.
type MapOverrides map[string]string

// Lookup implements Overrides.
func (m MapOverrides) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// DeriveOverrideKey maps a credential key to its override slot prefix:
// upper-case, then every rune outside [A-Z0-9] becomes "_".
//
//	RBCClient  → RBCCLIENT
//	tdf-client → TDF_CLIENT
func DeriveOverrideKey(credentialKey string) string {
	upper := strings.ToUpper(credentialKey)
	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

// UsernameSlot returns the username override slot for credentialKey.
func UsernameSlot(credentialKey string) string {
	return DeriveOverrideKey(credentialKey) + usernameSuffix
}

// PasswordSlot returns the password override slot for credentialKey.
func PasswordSlot(credentialKey string) string {
	return DeriveOverrideKey(credentialKey) + passwordSuffix
}

// lookupSlot returns a slot value that is present and not blank.  The value
// itself is returned untrimmed; passwords may carry spaces.
func lookupSlot(src Overrides, key string) (string, bool) {
	if src == nil {
		return "", false
	}
	v, ok := src.Lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}
