// internal/auth/sessionapi/validator.go
package sessionapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"portfolio/internal/auth"
	"portfolio/internal/auth/session"
	"portfolio/internal/observability/logging"
)

const (
	defaultTimeout = 8 * time.Second
	maxBodyBytes   = 1 << 20
)

// HTTPDoer is satisfied by *http.Client and allows easy mocking in tests
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Config holds remote session validation configuration
type Config struct {
	// URL is the session-state endpoint
	URL string

	// LoginURL is the external login page
	LoginURL string

	// Cookies are the names of the credential cookies forwarded to URL
	Cookies []string

	// Timeout bounds a single session lookup when no client is supplied
	Timeout time.Duration

	// SiteURL is the public origin used to build absolute return addresses
	SiteURL *url.URL

	// DefaultNext is where a completed login lands without a next parameter
	DefaultNext string

	// Client overrides the HTTP client
	Client HTTPDoer
}

// sessionUser is the session endpoint's response body
type sessionUser struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Role    string `json:"role,omitempty"`
}

// Validator asks a remote session service whether the caller's cookies
// still describe a live session
type Validator struct {
	logger      *logging.Logger
	client      HTTPDoer
	sessionURL  string
	loginURL    *url.URL
	siteURL     *url.URL
	cookies     []string
	defaultNext string
}

// New creates a session API validator
func New(config Config, logger *logging.Logger) (*Validator, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("session API authentication enabled but no session URL provided")
	}
	if _, err := url.ParseRequestURI(config.URL); err != nil {
		return nil, fmt.Errorf("invalid session URL: %w", err)
	}
	if len(config.Cookies) == 0 {
		return nil, fmt.Errorf("session API authentication enabled but no credential cookies configured")
	}

	loginURL, err := url.Parse(config.LoginURL)
	if err != nil || loginURL.Scheme == "" || loginURL.Host == "" {
		return nil, fmt.Errorf("invalid session API login URL %q", config.LoginURL)
	}

	client := config.Client
	if client == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	defaultNext := config.DefaultNext
	if defaultNext == "" {
		defaultNext = "/admin"
	}

	return &Validator{
		logger:      logger.WithModule("auth.sessionapi"),
		client:      client,
		sessionURL:  config.URL,
		loginURL:    loginURL,
		siteURL:     config.SiteURL,
		cookies:     config.Cookies,
		defaultNext: defaultNext,
	}, nil
}

// Name returns the name of this validator
func (v *Validator) Name() string {
	return auth.ProviderSessionAPI
}

// Validate forwards the configured credential cookies to the session
// endpoint. Cookies set by the endpoint are returned as refreshed state.
func (v *Validator) Validate(ctx context.Context, cookies []*http.Cookie) (*auth.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.sessionURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrValidatorUnreachable, err)
	}
	req.Header.Set("Accept", "application/json")

	forwarded := 0
	for _, name := range v.cookies {
		if cookie := session.Find(cookies, name); cookie != nil && cookie.Value != "" {
			req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
			forwarded++
		}
	}
	if forwarded == 0 {
		return nil, auth.ErrCredentialAbsent
	}

	res, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrValidatorUnreachable, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusOK:
	case res.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: session endpoint returned %d", auth.ErrValidatorUnreachable, res.StatusCode)
	default:
		return nil, fmt.Errorf("%w: session endpoint returned %d", auth.ErrCredentialInvalid, res.StatusCode)
	}

	var user sessionUser
	if err := json.NewDecoder(io.LimitReader(res.Body, maxBodyBytes)).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: decode session: %v", auth.ErrCredentialInvalid, err)
	}
	if user.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", auth.ErrCredentialInvalid)
	}

	logging.FromContext(ctx, v.logger).Debug("Session validated", "subject", user.Subject)

	return &auth.Result{
		Identity: &auth.Identity{
			Subject:  user.Subject,
			Provider: v.Name(),
			Attributes: map[string]interface{}{
				"email": user.Email,
				"name":  user.Name,
				"role":  user.Role,
			},
		},
		Cookies: res.Cookies(),
	}, nil
}
