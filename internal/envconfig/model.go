// internal/envconfig/model.go
//
// Environment table model.
//
// Context
// -------
// One `Environment` describes a deployment target the UI suite can drive:
// how to build its base URL, which named paths exist, and which named
// credential pairs log into it.  The table is loaded once (see
// internal/envtable) and handed to a `Resolver`, which deep-copies it so
// later mutation by the loader cannot leak into resolution.
//
// Notes
// -----
//   - Struct tags carry `koanf` for file loading and `validate` for the
//     startup guard in validate.go.
//   - `Credential.String` redacts the password so a stray %v in a log line
//     never leaks it.
//   - Oxford commas, two spaces after periods.
package envconfig

import "sort"

// URLParts is the structured form of a base URL.  The prefix and subdomain
// are concatenated without a separator:  {https, qa2, repohighway,
// devservices.dh.com} → https://qa2repohighway.devservices.dh.com.
type URLParts struct {
	Protocol          string `koanf:"protocol"           json:"protocol"           validate:"required"`
	EnvironmentPrefix string `koanf:"environment_prefix" json:"environment_prefix" validate:"required"`
	Subdomain         string `koanf:"subdomain"          json:"subdomain"          validate:"required"`
	Domain            string `koanf:"domain"             json:"domain"             validate:"required"`
}

// Credential is one named username/password pair.
type Credential struct {
	Username string `koanf:"username" json:"username" validate:"required"`
	Password string `koanf:"password" json:"-"        validate:"required"`
}

// String implements fmt.Stringer without exposing the password.
func (c Credential) String() string {
	return "username=" + c.Username + " password=[redacted]"
}

// Environment is one named deployment target.
type Environment struct {
	Name          string                `koanf:"name"`
	URLParts      *URLParts             `koanf:"url_parts"`
	LegacyBaseURL string                `koanf:"base_url"`
	Paths         map[string]string     `koanf:"paths"`
	Credentials   map[string]Credential `koanf:"credentials"`
}

// PathKeys returns the path keys in sorted order.
func (e *Environment) PathKeys() []string { return sortedKeys(e.Paths) }

// CredentialKeys returns the credential keys in sorted order.
func (e *Environment) CredentialKeys() []string { return sortedKeys(e.Credentials) }

// clone returns a deep copy so cached values never alias table storage.
func (e Environment) clone() *Environment {
	out := e
	if e.URLParts != nil {
		parts := *e.URLParts
		out.URLParts = &parts
	}
	out.Paths = make(map[string]string, len(e.Paths))
	for k, v := range e.Paths {
		out.Paths[k] = v
	}
	out.Credentials = make(map[string]Credential, len(e.Credentials))
	for k, v := range e.Credentials {
		out.Credentials[k] = v
	}
	return &out
}

// Table maps environment names to their definitions.
type Table map[string]Environment

// Names returns every environment name in sorted order.
func (t Table) Names() []string { return sortedKeys(t) }

// Clone deep-copies the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for name, env := range t {
		out[name] = *env.clone()
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
