package envconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveOverrideKey(t *testing.T) {
	cases := map[string]string{
		"RBCClient":    "RBCCLIENT",
		"TDFClient":    "TDFCLIENT",
		"admin":        "ADMIN",
		"tdf-client":   "TDF_CLIENT",
		"power user":   "POWER_USER",
		"client.v2":    "CLIENT_V2",
		"a--b":         "A__B",
		"café":         "CAF_",
		"":             "",
		"already_SAFE": "ALREADY_SAFE",
	}
	for in, want := range cases {
		assert.Equal(t, want, DeriveOverrideKey(in), "input %q", in)
	}
}

func TestSlots(t *testing.T) {
	assert.Equal(t, "RBCCLIENT_USERNAME", UsernameSlot("RBCClient"))
	assert.Equal(t, "TDF_CLIENT_PASSWORD", PasswordSlot("tdf-client"))
}

func TestEnvOverrides_ReadsProcessEnvironment(t *testing.T) {
	t.Setenv(EnvBaseURL, "http://from-env.test")

	v, ok := EnvOverrides{}.Lookup(EnvBaseURL)
	assert.True(t, ok)
	assert.Equal(t, "http://from-env.test", v)

	r := New(sampleTable(), Options{})
	got, err := r.BaseURL("QA")
	assert.NoError(t, err)
	assert.Equal(t, "http://from-env.test", got)
}

func TestLookupSlot_KeepsSpacesInValue(t *testing.T) {
	v, ok := lookupSlot(MapOverrides{"X": " pass word "}, "X")
	assert.True(t, ok)
	assert.Equal(t, " pass word ", v)

	_, ok = lookupSlot(nil, "X")
	assert.False(t, ok)
}
