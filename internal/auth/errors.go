// internal/auth/errors.go
package auth

import "errors"

var (
	// ErrCredentialAbsent is returned when the request carries no credential cookie
	ErrCredentialAbsent = errors.New("credential absent")

	// ErrCredentialInvalid is returned when the credential is malformed, expired,
	// fails verification or resolves to an empty identity
	ErrCredentialInvalid = errors.New("credential invalid or expired")

	// ErrValidatorUnreachable is returned when the identity service cannot be reached
	ErrValidatorUnreachable = errors.New("identity service unreachable")
)

// Cause maps a validation error to a short label for logs and metrics
func Cause(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrCredentialAbsent):
		return "absent"
	case errors.Is(err, ErrCredentialInvalid):
		return "invalid"
	case errors.Is(err, ErrValidatorUnreachable):
		return "unreachable"
	default:
		return "unknown"
	}
}
