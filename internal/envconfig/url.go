package envconfig

import "strings"

// ComposeBaseURL renders protocol://<prefix><subdomain>.<domain>.  A
// trailing "://" or ":" on protocol is tolerated.
func ComposeBaseURL(protocol, prefix, subdomain, domain string) string {
	protocol = strings.TrimSuffix(protocol, "://")
	protocol = strings.TrimSuffix(protocol, ":")
	return protocol + "://" + prefix + subdomain + "." + domain
}

// JoinURL strips one trailing slash from base and forces path to start with
// exactly one slash.  It is a string join; the result is not parsed.
func JoinURL(base, path string) string {
	base = strings.TrimSuffix(base, "/")
	return base + "/" + strings.TrimLeft(path, "/")
}
