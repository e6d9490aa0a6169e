package gate

import (
	"path"
	"strings"

	"golang.org/x/exp/slices"
)

// Class is the access classification of a request path
type Class int

const (
	// Unprotected paths lie outside every protected area
	Unprotected Class = iota
	// EntryPoint paths lie inside a protected area but stay reachable without a session
	EntryPoint
	// Protected paths require a validated credential
	Protected
)

// String returns the label used in logs and metrics
func (c Class) String() string {
	switch c {
	case Unprotected:
		return "unprotected"
	case EntryPoint:
		return "protected-entry-point"
	case Protected:
		return "protected-resource"
	default:
		return "unknown"
	}
}

// Area is a protected path prefix and the authentication entry points beneath it
type Area struct {
	// Root is the path prefix of the area, e.g. "/admin"
	Root string

	// EntryPoints are sub-paths of Root that bypass the gate, e.g. "/admin/login"
	EntryPoints []string
}

// Policy decides which paths the gate guards and where it sends unauthenticated callers
type Policy struct {
	// Areas are the protected areas, checked in order
	Areas []Area

	// LoginPath is the redirect target for unauthenticated callers
	LoginPath string
}

// DefaultPolicy guards /admin and exempts its login, registration and auth callback paths
func DefaultPolicy() Policy {
	return Policy{
		Areas: []Area{{
			Root:        "/admin",
			EntryPoints: []string{"/admin/login", "/admin/register", "/admin/auth"},
		}},
		LoginPath: "/admin/login",
	}
}

// Classify returns the classification of a request path
func (p Policy) Classify(requestPath string) Class {
	cleaned := path.Clean("/" + requestPath)

	for _, area := range p.Areas {
		if !within(cleaned, area.Root) {
			continue
		}
		if slices.ContainsFunc(area.EntryPoints, func(entry string) bool {
			return within(cleaned, entry)
		}) {
			return EntryPoint
		}
		return Protected
	}

	return Unprotected
}

// within reports whether p equals prefix or lies beneath it on a segment boundary
func within(p, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return false
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}
