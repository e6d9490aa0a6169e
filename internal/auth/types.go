// internal/auth/types.go
package auth

import (
	"context"
	"net/http"
)

// Identity represents an authenticated identity
type Identity struct {
	// Subject is the unique identifier for this identity
	Subject string

	// Provider is the validator that produced the identity (e.g., "oidc", "session_api")
	Provider string

	// Attributes contains additional identity information
	Attributes map[string]interface{}
}

// Result is the outcome of a successful credential validation
type Result struct {
	// Identity is the validated identity, never nil on success
	Identity *Identity

	// Cookies holds refreshed credential state that must be written back to the client
	Cookies []*http.Cookie
}

// Validator validates the credential carried by a request's cookies
// against the issuing identity service.
type Validator interface {
	// Name returns the name of this validator
	Name() string

	// Validate returns the caller's identity, or an error wrapping one of
	// ErrCredentialAbsent, ErrCredentialInvalid or ErrValidatorUnreachable.
	Validate(ctx context.Context, cookies []*http.Cookie) (*Result, error)
}

// EntryPoints serves the authentication entry points of a protected area
type EntryPoints interface {
	// Login starts an authentication flow
	Login(w http.ResponseWriter, r *http.Request)

	// Register starts a sign-up flow
	Register(w http.ResponseWriter, r *http.Request)

	// Callback completes an authentication flow
	Callback(w http.ResponseWriter, r *http.Request)

	// Logout discards the caller's session
	Logout(w http.ResponseWriter, r *http.Request)
}
