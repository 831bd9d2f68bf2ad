// internal/middleware/security.go
//
// Response-header middleware for the status server.
//
// Injects headers on every response:
//
//   • Cache-Control           –  environment data must never be cached
//   • X-Frame-Options         –  click-jacking defence
//   • X-Content-Type-Options  –  MIME-sniffing defence
//   • Referrer-Policy         –  no Referer at all
//
// Notes
// -----
// • Headers are set *before* next.ServeHTTP; a handler may still override
//   any of them.
// • Oxford commas, two spaces after periods.

// Package middleware holds small, composable HTTP wrappers.
package middleware

import "net/http"

// Security sets protective headers for every response.
func Security(next http.Handler) http.Handler {
	const (
		noStore = "no-store"
		xfo     = "DENY"
		nosn    = "nosniff"
		refer   = "no-referrer"
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", noStore)
		h.Set("X-Frame-Options", xfo)
		h.Set("X-Content-Type-Options", nosn)
		h.Set("Referrer-Policy", refer)
		next.ServeHTTP(w, r)
	})
}
