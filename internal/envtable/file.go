// internal/envtable/file.go
//
// Environment table from a YAML or JSON file.
//
// Context
// -------
// The table is data, not code.  Suites keep it in `conf/environments.yaml`
// (JSON works too, the YAML parser accepts it):
//
//	environments:
//	  QA:
//	    name: QA
//	    url_parts:
//	      protocol: https
//	      environment_prefix: qa2
//	      subdomain: repohighway
//	      domain: devservices.dh.com
//	    paths:
//	      login: /go.aspx
//	    credentials:
//	      RBCClient:
//	        username: MIJIRBC
//	        password: vault:secret/qa/clients#rbc
//
// `name` defaults to the map key.  Legacy environments use `base_url`
// instead of `url_parts`.  Validation is left to envconfig.Validate so the
// caller decides when to fail.
//
// Notes
// -----
//   - Koanf splits keys on ".", so environment, path, and credential keys
//     must not contain dots.  Values may.
package envtable

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"

	"github.com/yanizio/uiauto/internal/envconfig"
)

const rootKey = "environments"

// LoadFile reads the environment table at path.
func LoadFile(path string) (envconfig.Table, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load environment table %s: %w", path, err)
	}
	if !k.Exists(rootKey) {
		return nil, fmt.Errorf("environment table %s: missing %q root key", path, rootKey)
	}

	var envs map[string]envconfig.Environment
	if err := k.Unmarshal(rootKey, &envs); err != nil {
		return nil, fmt.Errorf("decode environment table %s: %w", path, err)
	}

	table := make(envconfig.Table, len(envs))
	for key, env := range envs {
		if env.Name == "" {
			env.Name = key
		}
		table[key] = env
	}
	return table, nil
}
