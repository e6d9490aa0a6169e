package gate

import (
	"net/http"
	"net/url"

	"portfolio/internal/auth"
)

// Request is the part of an inbound request the gate reads
type Request struct {
	// Path is the decoded request path used for classification
	Path string

	// EscapedPath is the path as sent on the wire; empty means Path has no escapes
	EscapedPath string

	// RawQuery is the encoded query string without the leading "?"
	RawQuery string

	// Cookies is the credential carrier
	Cookies []*http.Cookie
}

// FromHTTP captures the gate's view of an HTTP request
func FromHTTP(r *http.Request) Request {
	return Request{
		Path:        r.URL.Path,
		EscapedPath: r.URL.EscapedPath(),
		RawQuery:    r.URL.RawQuery,
		Cookies:     r.Cookies(),
	}
}

// Target returns the original escaped path with its query string
func (r Request) Target() string {
	path := r.EscapedPath
	if path == "" {
		path = (&url.URL{Path: r.Path}).EscapedPath()
	}
	if r.RawQuery == "" {
		return path
	}
	return path + "?" + r.RawQuery
}

// Kind enumerates the mutually exclusive gate outcomes
type Kind int

const (
	// PassThrough forwards the request unchanged
	PassThrough Kind = iota
	// PassThroughWithCookies forwards the request and writes refreshed credential cookies
	PassThroughWithCookies
	// Redirect sends the caller to the login entry point
	Redirect
)

// String returns the label used in logs and metrics
func (k Kind) String() string {
	switch k {
	case PassThrough:
		return "pass"
	case PassThroughWithCookies:
		return "pass_with_cookies"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Outcome is the gate's decision for one request
type Outcome struct {
	// Kind selects which of the fields below are meaningful
	Kind Kind

	// Class is the classification that led to the decision
	Class Class

	// Identity is set when a protected request was authenticated
	Identity *auth.Identity

	// Cookies holds refreshed credential state for PassThroughWithCookies
	Cookies []*http.Cookie

	// Location is the redirect target for Redirect
	Location string

	// Cause is the validation failure behind a Redirect
	Cause error
}

// LoginRedirect builds the login URL that returns the caller to req after authenticating
func LoginRedirect(loginPath string, req Request) string {
	return loginPath + "?next=" + url.QueryEscape(req.Target())
}
