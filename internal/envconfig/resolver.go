// internal/envconfig/resolver.go
//
// Environment, URL, and credential resolution.
//
// Context
// -------
// A Resolver owns three pieces of state:
//
//   - the environment table (deep copy, read-only after New),
//   - the explicitly selected environment name (may be unset), and
//   - a lookup cache keyed "env:<name>".
//
// Parallel test workers that need different environments each build their
// own Resolver; nothing here is process-global.  Within one instance every
// method is safe for concurrent use.  SetActiveEnvironment swaps the name
// and purges the cache under one write lock, so no reader can observe the
// new name paired with an entry cached before the switch.
//
// Precedence
// ----------
//
//	active name : explicit → TEST_ENV → Options.DefaultEnvironment ("QA")
//	base url    : BASE_URL → url_parts → base_url → ErrMissingBaseURL
//	url prefix  : argument → ENV_PREFIX → url_parts.environment_prefix
//	subdomain   : SUBDOMAIN → url_parts.subdomain
//	credentials : <KEY>_USERNAME / <KEY>_PASSWORD, each field on its own
//
// Notes
// -----
//   - Override slots are read on every call.  Only the table lookup is
//     cached; URLs and credentials are recomputed each time.
//   - ClearCache keeps the explicitly selected environment.
//   - Passwords are never logged.
package envconfig

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yanizio/uiauto/internal/metrics"
)

// DefaultEnvironment is used when neither an explicit selection nor the
// TEST_ENV slot names an environment.
const DefaultEnvironment = "QA"

const cachePrefix = "env:"

// Options tune a Resolver.  The zero value reads overrides from the process
// environment, logs nowhere, and caches.
type Options struct {
	Overrides          Overrides
	Logger             *zap.SugaredLogger
	DefaultEnvironment string
	DisableCache       bool
}

// Resolver maps environment names to URLs and credentials.  Zero value is
// invalid; use New.
type Resolver struct {
	table      Table
	overrides  Overrides
	log        *zap.SugaredLogger
	defaultEnv string

	mu      sync.RWMutex
	active  string // explicit selection, "" when unset
	caching bool
	cache   map[string]*Environment
}

// New builds a Resolver over a private copy of table.
func New(table Table, opts Options) *Resolver {
	r := &Resolver{
		table:      table.Clone(),
		overrides:  opts.Overrides,
		log:        opts.Logger,
		defaultEnv: opts.DefaultEnvironment,
		caching:    !opts.DisableCache,
		cache:      make(map[string]*Environment),
	}
	if r.overrides == nil {
		r.overrides = EnvOverrides{}
	}
	if r.log == nil {
		r.log = zap.NewNop().Sugar()
	}
	if r.defaultEnv == "" {
		r.defaultEnv = DefaultEnvironment
	}
	return r
}

/*──────────────────────────── active environment ──────────────────────────*/

// ActiveEnvironment returns the explicit selection, else the TEST_ENV slot,
// else the default name.  It never fails and does not check the table.
func (r *Resolver) ActiveEnvironment() string {
	r.mu.RLock()
	active := r.active
	r.mu.RUnlock()

	if active != "" {
		return active
	}
	if v, ok := lookupSlot(r.overrides, EnvActiveEnvironment); ok {
		return strings.TrimSpace(v)
	}
	return r.defaultEnv
}

// SetActiveEnvironment selects name and drops every cached entry.
func (r *Resolver) SetActiveEnvironment(name string) error {
	if _, ok := r.table[name]; !ok {
		return r.fail(r.unknownEnvironment(name))
	}

	r.mu.Lock()
	prev := r.active
	r.active = name
	r.purgeLocked()
	r.mu.Unlock()

	metrics.ActiveSwitches.Inc()
	r.log.Infow("active environment changed", "from", prev, "to", name)
	return nil
}

// Environments lists every known environment name in sorted order.
func (r *Resolver) Environments() []string { return r.table.Names() }

/*──────────────────────────────── resolution ──────────────────────────────*/

// Resolve returns the Environment for name, or for the active environment
// when name is empty.  While caching is enabled repeated calls return the
// same pointer.  Callers must treat the result as read-only.
func (r *Resolver) Resolve(name string) (*Environment, error) {
	name = r.nameOrActive(name)
	key := cachePrefix + name

	r.mu.RLock()
	caching := r.caching
	if caching {
		if env, ok := r.cache[key]; ok {
			r.mu.RUnlock()
			metrics.ResolverCacheHits.Inc()
			return env, nil
		}
	}
	r.mu.RUnlock()

	def, ok := r.table[name]
	if !ok {
		return nil, r.fail(r.unknownEnvironment(name))
	}
	env := def.clone()
	metrics.ResolverCacheMisses.Inc()
	r.log.Debugw("environment resolved", "environment", name, "cached", caching)

	if !caching {
		return env, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.caching {
		return env, nil
	}
	// Another goroutine may have stored first; keep its pointer.
	if existing, ok := r.cache[key]; ok {
		return existing, nil
	}
	r.cache[key] = env
	return env, nil
}

// BuildBaseURL renders parts as protocol://<prefix><subdomain>.<domain>.
// A non-empty prefixOverride beats the ENV_PREFIX slot, which beats the
// table prefix.  SUBDOMAIN replaces the table subdomain.  Slots are read on
// every call.
func (r *Resolver) BuildBaseURL(parts URLParts, prefixOverride string) string {
	prefix := parts.EnvironmentPrefix
	if v, ok := lookupSlot(r.overrides, EnvURLPrefix); ok {
		prefix = v
	}
	if prefixOverride != "" {
		prefix = prefixOverride
	}

	subdomain := parts.Subdomain
	if v, ok := lookupSlot(r.overrides, EnvSubdomain); ok {
		subdomain = v
	}

	url := ComposeBaseURL(parts.Protocol, prefix, subdomain, parts.Domain)
	r.log.Debugw("base url built",
		"protocol", parts.Protocol,
		"prefix", prefix,
		"subdomain", subdomain,
		"domain", parts.Domain,
		"url", url,
	)
	return url
}

// BaseURL resolves the base URL for name (active environment when empty).
// The environment is resolved first so an unknown name fails even while
// BASE_URL is set.
func (r *Resolver) BaseURL(name string) (string, error) {
	env, err := r.Resolve(name)
	if err != nil {
		return "", err
	}

	if v, ok := lookupSlot(r.overrides, EnvBaseURL); ok {
		r.log.Debugw("base url from override", "slot", EnvBaseURL, "url", v)
		return v, nil
	}
	switch {
	case env.URLParts != nil:
		return r.BuildBaseURL(*env.URLParts, ""), nil
	case env.LegacyBaseURL != "":
		r.log.Debugw("base url from legacy field", "environment", r.nameOrActive(name), "url", env.LegacyBaseURL)
		return env.LegacyBaseURL, nil
	default:
		return "", r.fail(&ResolveError{Kind: ErrMissingBaseURL, Environment: r.nameOrActive(name)})
	}
}

// Path returns the path stored under pathKey.
func (r *Resolver) Path(pathKey, name string) (string, error) {
	env, err := r.Resolve(name)
	if err != nil {
		return "", err
	}
	p, ok := env.Paths[pathKey]
	if !ok {
		return "", r.fail(&ResolveError{
			Kind:        ErrUnknownPath,
			Environment: r.nameOrActive(name),
			Key:         pathKey,
			Available:   env.PathKeys(),
		})
	}
	return p, nil
}

// URL joins BaseURL and Path with exactly one slash between them.
func (r *Resolver) URL(pathKey, name string) (string, error) {
	base, err := r.BaseURL(name)
	if err != nil {
		return "", err
	}
	p, err := r.Path(pathKey, name)
	if err != nil {
		return "", err
	}
	url := JoinURL(base, p)
	r.log.Debugw("url resolved", "environment", r.nameOrActive(name), "path_key", pathKey, "url", url)
	return url, nil
}

// Credentials returns the pair stored under credentialKey with any
// per-field overrides applied.
func (r *Resolver) Credentials(credentialKey, name string) (Credential, error) {
	env, err := r.Resolve(name)
	if err != nil {
		return Credential{}, err
	}
	cred, ok := env.Credentials[credentialKey]
	if !ok {
		return Credential{}, r.fail(&ResolveError{
			Kind:        ErrUnknownCredential,
			Environment: r.nameOrActive(name),
			Key:         credentialKey,
			Available:   env.CredentialKeys(),
		})
	}

	userOverride, passOverride := false, false
	if v, ok := lookupSlot(r.overrides, UsernameSlot(credentialKey)); ok {
		cred.Username = v
		userOverride = true
	}
	if v, ok := lookupSlot(r.overrides, PasswordSlot(credentialKey)); ok {
		cred.Password = v
		passOverride = true
	}

	r.log.Infow("credentials resolved",
		"environment", r.nameOrActive(name),
		"credential", credentialKey,
		"username", cred.Username,
		"username_override", userOverride,
		"password_override", passOverride,
	)
	return cred, nil
}

/*────────────────────────────────── cache ─────────────────────────────────*/

// SetCachingEnabled toggles the lookup cache.  Disabling drops every entry.
func (r *Resolver) SetCachingEnabled(enabled bool) {
	r.mu.Lock()
	r.caching = enabled
	if !enabled {
		r.purgeLocked()
	}
	r.mu.Unlock()
	r.log.Debugw("resolver caching toggled", "enabled", enabled)
}

// CachingEnabled reports whether the lookup cache is on.
func (r *Resolver) CachingEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.caching
}

// ClearCache drops every cached entry.  The explicit active environment is
// kept; only SetActiveEnvironment changes it.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	r.purgeLocked()
	r.mu.Unlock()
	r.log.Debugw("resolver cache cleared")
}

func (r *Resolver) purgeLocked() {
	r.cache = make(map[string]*Environment)
}

/*──────────────────────────────── helpers ─────────────────────────────────*/

func (r *Resolver) nameOrActive(name string) string {
	if name != "" {
		return name
	}
	return r.ActiveEnvironment()
}

func (r *Resolver) unknownEnvironment(name string) *ResolveError {
	return &ResolveError{
		Kind:        ErrUnknownEnvironment,
		Environment: name,
		Available:   r.table.Names(),
	}
}

// fail records err and hands it back unchanged.
func (r *Resolver) fail(err error) error {
	metrics.ResolverErrors.WithLabelValues(kindLabel(err)).Inc()
	r.log.Warnw("resolution failed", "err", err)
	return err
}
