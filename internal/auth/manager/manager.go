// internal/auth/manager/manager.go
package manager

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"portfolio/internal/auth"
	"portfolio/internal/auth/gate"
	"portfolio/internal/auth/oidc"
	"portfolio/internal/auth/sessionapi"
	"portfolio/internal/config"
	"portfolio/internal/observability/logging"
	"portfolio/internal/observability/metrics"
)

// Provider validates credentials and serves the matching entry points
type Provider interface {
	auth.Validator
	auth.EntryPoints
}

// Paths are the mount points of the authentication entry points
type Paths struct {
	Login    string
	Register string
	Callback string
	Logout   string
}

// Manager ties the configured provider to the gate guarding the admin area
type Manager struct {
	logger   *logging.Logger
	provider Provider
	gate     *gate.Gate
	paths    Paths
}

// NewManager creates a new authentication manager. Every entry point except
// logout must be exempt from the gate or the login flow cannot complete.
func NewManager(provider Provider, policy gate.Policy, paths Paths, logger *logging.Logger, metrics *metrics.Collector) (*Manager, error) {
	if provider == nil {
		return nil, fmt.Errorf("no authentication provider configured")
	}

	for _, p := range []string{paths.Login, paths.Register, paths.Callback} {
		if class := policy.Classify(p); class == gate.Protected {
			return nil, fmt.Errorf("entry point %q is classified as %s", p, class)
		}
	}

	return &Manager{
		logger:   logger.WithModule("auth.manager"),
		provider: provider,
		gate:     gate.New(policy, provider, logger, metrics),
		paths:    paths,
	}, nil
}

// Middleware guards next with the gate
func (m *Manager) Middleware(next http.Handler) http.Handler {
	m.logger.Debug("Added gate to middleware chain", "validator", m.provider.Name())
	return m.gate.Middleware(next)
}

// Gate returns the gate guarding the admin area
func (m *Manager) Gate() *gate.Gate {
	return m.gate
}

// EntryPoints returns the provider's authentication handlers
func (m *Manager) EntryPoints() auth.EntryPoints {
	return m.provider
}

// Paths returns the entry point mount points
func (m *Manager) Paths() Paths {
	return m.paths
}

// NewManagerFromConfig creates a Manager with the provider selected by the application config
func NewManagerFromConfig(ctx context.Context, cfg *config.Config, logger *logging.Logger, metrics *metrics.Collector) (*Manager, error) {
	logger = logger.WithModule("auth.factory")

	root := strings.TrimSuffix(cfg.Admin.Root, "/")
	policy := gate.Policy{
		Areas:     []gate.Area{{Root: root, EntryPoints: cfg.Admin.EntryPoints}},
		LoginPath: cfg.Admin.LoginPath,
	}
	paths := Paths{
		Login:    cfg.Admin.LoginPath,
		Register: root + "/register",
		Callback: root + "/auth/callback",
		Logout:   root + "/logout",
	}

	var provider Provider
	switch cfg.Auth.Provider {
	case auth.ProviderOIDC:
		oidcProvider, err := oidc.New(ctx, oidc.Config{
			Issuer:       cfg.Auth.OIDC.Issuer,
			ClientID:     cfg.Auth.OIDC.ClientID,
			ClientSecret: cfg.Auth.OIDC.ClientSecret,
			RedirectURL:  cfg.Auth.OIDC.RedirectURL,
			Scopes:       cfg.Auth.OIDC.Scopes,
			CookieName:   cfg.Auth.OIDC.CookieName,
			CookieSecret: cfg.Auth.OIDC.CookieSecret,
			DefaultNext:  root,
		}, logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OIDC provider: %w", err)
		}
		paths.Callback = oidcProvider.CallbackPath()
		provider = oidcProvider
		logger.Info("OIDC authentication enabled", "issuer", cfg.Auth.OIDC.Issuer)

	case auth.ProviderSessionAPI:
		sessionProvider, err := sessionapi.New(sessionapi.Config{
			URL:         cfg.Auth.SessionAPI.URL,
			LoginURL:    cfg.Auth.SessionAPI.LoginURL,
			Cookies:     cfg.Auth.SessionAPI.Cookies,
			Timeout:     cfg.Auth.SessionAPI.Timeout,
			SiteURL:     cfg.Site.BaseURL,
			DefaultNext: root,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize session API provider: %w", err)
		}
		provider = sessionProvider
		logger.Info("Session API authentication enabled", "url", logging.RedactStringURL(cfg.Auth.SessionAPI.URL))

	default:
		return nil, fmt.Errorf("unknown auth provider: %q", cfg.Auth.Provider)
	}

	return NewManager(provider, policy, paths, logger, metrics)
}
