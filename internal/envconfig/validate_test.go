package envconfig

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_WellFormed(t *testing.T) {
	require.NoError(t, Validate(sampleTable()))

	r := newTestResolver(nil)
	assert.NoError(t, r.ValidateConfig())
}

func TestValidate_Violations(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(Table)
		kind   error
		env    string
		key    string
		field  string
	}{
		{
			name: "empty credential set",
			mutate: func(tb Table) {
				e := tb["prod"]
				e.Credentials = map[string]Credential{}
				tb["prod"] = e
			},
			kind: ErrEmptyCredentialSet,
			env:  "prod",
		},
		{
			name: "empty path set",
			mutate: func(tb Table) {
				e := tb["local"]
				e.Paths = nil
				tb["local"] = e
			},
			kind: ErrEmptyPathSet,
			env:  "local",
		},
		{
			name: "blank url part",
			mutate: func(tb Table) {
				e := tb["QA"]
				e.URLParts = &URLParts{Protocol: "https", EnvironmentPrefix: "qa2", Subdomain: "repohighway"}
				tb["QA"] = e
			},
			kind:  ErrMissingField,
			env:   "QA",
			field: "url_parts.domain",
		},
		{
			name: "no base url at all",
			mutate: func(tb Table) {
				e := tb["dev"]
				e.LegacyBaseURL = ""
				tb["dev"] = e
			},
			kind:  ErrMissingField,
			env:   "dev",
			field: "base_url",
		},
		{
			name: "blank name",
			mutate: func(tb Table) {
				e := tb["local"]
				e.Name = " "
				tb["local"] = e
			},
			kind:  ErrMissingField,
			env:   "local",
			field: "name",
		},
		{
			name: "credential without password",
			mutate: func(tb Table) {
				tb["QA"].Credentials["TDFClient"] = Credential{Username: "MIJITDF"}
			},
			kind:  ErrIncompleteCredentialPair,
			env:   "QA",
			key:   "TDFClient",
			field: "password",
		},
		{
			name: "credential without username",
			mutate: func(tb Table) {
				tb["QA"].Credentials["RBCClient"] = Credential{Password: "x"}
			},
			kind:  ErrIncompleteCredentialPair,
			env:   "QA",
			key:   "RBCClient",
			field: "username",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tb := sampleTable()
			tc.mutate(tb)

			err := Validate(tb)
			require.ErrorIs(t, err, tc.kind)

			var rerr *ResolveError
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, tc.env, rerr.Environment)
			assert.Equal(t, tc.key, rerr.Key)
			assert.Equal(t, tc.field, rerr.Field)

			r := New(tb, Options{Overrides: MapOverrides{}})
			assert.ErrorIs(t, r.ValidateConfig(), tc.kind)
		})
	}
}

func TestValidate_FirstViolationInNameOrder(t *testing.T) {
	tb := sampleTable()
	e := tb["prod"]
	e.Paths = nil
	tb["prod"] = e
	e = tb["QA"]
	e.Credentials = nil
	tb["QA"] = e

	// "QA" sorts before "prod".
	err := Validate(tb)
	require.ErrorIs(t, err, ErrEmptyCredentialSet)
	assert.Contains(t, err.Error(), `"QA"`)
}
