// internal/auth/redirect.go
package auth

import (
	"net/url"
	"strings"
)

// SafeNext returns next when it is a local absolute path, otherwise fallback.
// It keeps post-login redirects on this site.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return fallback
	}
	// Protocol-relative and backslash forms are treated as external by browsers
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") || strings.ContainsAny(next, "\r\n") {
		return fallback
	}

	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}
