package envtable

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yanizio/uiauto/internal/envconfig"
)

// SecretPrefix marks a credential field stored in Vault:
// "vault:<mount>/<path>#<key>".
const SecretPrefix = "vault:"

// SecretSource fetches one key of a KV-v2 secret.  *vault.Client satisfies
// it.
type SecretSource interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

// ParseSecretRef splits "vault:secret/qa#password" into its path and key.
// ok is false when v is not a Vault reference.
func ParseSecretRef(v string) (path, key string, ok bool, err error) {
	if !strings.HasPrefix(v, SecretPrefix) {
		return "", "", false, nil
	}
	ref := strings.TrimPrefix(v, SecretPrefix)
	i := strings.LastIndexByte(ref, '#')
	if i <= 0 || i == len(ref)-1 {
		return "", "", true, fmt.Errorf("malformed secret reference %q (want vault:<path>#<key>)", v)
	}
	return ref[:i], ref[i+1:], true, nil
}

// ExpandSecrets replaces every Vault reference in the table's credential
// fields with the secret value, in place.  It returns how many fields were
// expanded.
func ExpandSecrets(ctx context.Context, t envconfig.Table, src SecretSource, ttl time.Duration) (int, error) {
	expanded := 0
	for _, name := range t.Names() {
		env := t[name]
		for _, key := range env.CredentialKeys() {
			cred := env.Credentials[key]

			user, n, err := expand(ctx, src, ttl, cred.Username)
			if err != nil {
				return expanded, fmt.Errorf("environment %q credential %q username: %w", name, key, err)
			}
			expanded += n

			pass, n, err := expand(ctx, src, ttl, cred.Password)
			if err != nil {
				return expanded, fmt.Errorf("environment %q credential %q password: %w", name, key, err)
			}
			expanded += n

			env.Credentials[key] = envconfig.Credential{Username: user, Password: pass}
		}
	}
	return expanded, nil
}

func expand(ctx context.Context, src SecretSource, ttl time.Duration, v string) (string, int, error) {
	path, key, ok, err := ParseSecretRef(v)
	if err != nil {
		return "", 0, err
	}
	if !ok {
		return v, 0, nil
	}
	if src == nil {
		return "", 0, fmt.Errorf("secret reference %q but no secret source configured", v)
	}
	val, err := src.GetKV(ctx, path, key, ttl)
	if err != nil {
		return "", 0, err
	}
	return val, 1, nil
}
