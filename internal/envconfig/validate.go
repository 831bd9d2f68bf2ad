// internal/envconfig/validate.go
//
// Startup guard for the environment table.
//
// Context
// -------
// `Validate` walks every environment in name order and returns the first
// broken invariant:
//
//   - ErrMissingField              – blank name, incomplete url_parts, or
//     neither url_parts nor base_url.
//   - ErrEmptyPathSet              – no paths.
//   - ErrEmptyCredentialSet        – no credentials.
//   - ErrIncompleteCredentialPair  – a credential missing username or
//     password.
//
// Field-level checks on URLParts and Credential reuse the `validate` tags
// through go-playground/validator; field names in errors follow the
// `koanf` tag so they match the table file.
//
// Run it once at startup, not per lookup.
package envconfig

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("koanf"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate returns nil when every environment in t satisfies the table
// invariants, or the first violation found.
func Validate(t Table) error {
	for _, name := range t.Names() {
		if err := validateEnvironment(name, t[name]); err != nil {
			return err
		}
	}
	return nil
}

// ValidateConfig runs Validate over the resolver's table and logs the
// outcome.
func (r *Resolver) ValidateConfig() error {
	if err := Validate(r.table); err != nil {
		r.log.Errorw("environment table invalid", "err", err)
		return r.fail(err)
	}
	r.log.Infow("environment table valid", "environments", r.table.Names())
	return nil
}

func validateEnvironment(name string, env Environment) error {
	if strings.TrimSpace(env.Name) == "" {
		return &ResolveError{Kind: ErrMissingField, Environment: name, Field: "name"}
	}

	switch {
	case env.URLParts != nil:
		if err := structValidator.Struct(env.URLParts); err != nil {
			return &ResolveError{Kind: ErrMissingField, Environment: name, Field: "url_parts." + firstField(err)}
		}
	case env.LegacyBaseURL == "":
		return &ResolveError{Kind: ErrMissingField, Environment: name, Field: "base_url"}
	}

	if len(env.Paths) == 0 {
		return &ResolveError{Kind: ErrEmptyPathSet, Environment: name}
	}
	if len(env.Credentials) == 0 {
		return &ResolveError{Kind: ErrEmptyCredentialSet, Environment: name}
	}
	for _, key := range env.CredentialKeys() {
		if err := structValidator.Struct(env.Credentials[key]); err != nil {
			return &ResolveError{
				Kind:        ErrIncompleteCredentialPair,
				Environment: name,
				Key:         key,
				Field:       firstField(err),
			}
		}
	}
	return nil
}

func firstField(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return "unknown"
}
