package envconfig

import (
	"errors"
	"fmt"
	"strings"
)

// Lookup failures.
var (
	ErrUnknownEnvironment = errors.New("unknown environment")
	ErrMissingBaseURL     = errors.New("missing base url")
	ErrUnknownPath        = errors.New("unknown path")
	ErrUnknownCredential  = errors.New("unknown credential")
)

// Table validation failures, returned only by Validate.
var (
	ErrMissingField             = errors.New("missing field")
	ErrEmptyPathSet             = errors.New("empty path set")
	ErrEmptyCredentialSet       = errors.New("empty credential set")
	ErrIncompleteCredentialPair = errors.New("incomplete credential pair")
)

// ResolveError carries the offending environment, key, or field alongside
// one of the sentinels above.  Match the kind with errors.Is.
type ResolveError struct {
	Kind        error
	Environment string
	Key         string   // path or credential key
	Field       string   // missing field, validation only
	Available   []string // valid alternatives, when meaningful
}

func (e *ResolveError) Error() string {
	var b strings.Builder
	switch e.Kind {
	case ErrUnknownEnvironment:
		fmt.Fprintf(&b, "unknown environment %q", e.Environment)
	case ErrMissingBaseURL:
		fmt.Fprintf(&b, "environment %q: no base url (url_parts or base_url required)", e.Environment)
	case ErrUnknownPath:
		fmt.Fprintf(&b, "environment %q: unknown path %q", e.Environment, e.Key)
	case ErrUnknownCredential:
		fmt.Fprintf(&b, "environment %q: unknown credential %q", e.Environment, e.Key)
	case ErrMissingField:
		fmt.Fprintf(&b, "environment %q: missing required field %q", e.Environment, e.Field)
	case ErrEmptyPathSet:
		fmt.Fprintf(&b, "environment %q: no paths defined", e.Environment)
	case ErrEmptyCredentialSet:
		fmt.Fprintf(&b, "environment %q: no credentials defined", e.Environment)
	case ErrIncompleteCredentialPair:
		fmt.Fprintf(&b, "environment %q: credential %q missing %s", e.Environment, e.Key, e.Field)
	default:
		fmt.Fprintf(&b, "environment %q: %v", e.Environment, e.Kind)
	}
	if len(e.Available) > 0 {
		b.WriteString(" (valid: ")
		b.WriteString(strings.Join(e.Available, ", "))
		b.WriteString(")")
	}
	return b.String()
}

func (e *ResolveError) Unwrap() error { return e.Kind }

// kindLabel is the metrics label for an error produced by this package.
func kindLabel(err error) string {
	switch {
	case errors.Is(err, ErrUnknownEnvironment):
		return "unknown_environment"
	case errors.Is(err, ErrMissingBaseURL):
		return "missing_base_url"
	case errors.Is(err, ErrUnknownPath):
		return "unknown_path"
	case errors.Is(err, ErrUnknownCredential):
		return "unknown_credential"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrEmptyPathSet):
		return "empty_path_set"
	case errors.Is(err, ErrEmptyCredentialSet):
		return "empty_credential_set"
	case errors.Is(err, ErrIncompleteCredentialPair):
		return "incomplete_credential_pair"
	default:
		return "other"
	}
}
