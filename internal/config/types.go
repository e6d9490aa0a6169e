// internal/config/types.go
package config

import (
	"net/url"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	// Server holds HTTP server configuration
	Server struct {
		// Address is the address to listen on
		Address string
		// ShutdownTimeout is the maximum time to wait for a graceful shutdown
		ShutdownTimeout time.Duration
	}

	// Metrics holds metrics server configuration
	Metrics struct {
		// Address is the address to listen on for the metrics server
		Address string
	}

	// TLS holds TLS configuration
	TLS struct {
		// Enabled indicates whether TLS is enabled
		Enabled bool
		// CertPath is the path to the TLS certificate
		CertPath string
		// KeyPath is the path to the TLS key
		KeyPath string
	}

	// Site holds public site metadata
	Site struct {
		// Name is the site name used in page titles
		Name string
		// BaseURL is the canonical origin used for SEO links and the sitemap
		BaseURL *url.URL
		// Description is the default meta description
		Description string
	}

	// Content holds configuration for the blog content store
	Content struct {
		// StoreURL is the base URL of the content store API
		StoreURL *url.URL
		// Token is the bearer token for the content store
		Token string
		// Timeout is the maximum time to wait for the content store
		Timeout time.Duration

		// Cache holds the redis read-through cache configuration
		Cache struct {
			// Enabled indicates whether fetched content is cached
			Enabled bool
			// RedisURL is the redis connection URL
			RedisURL string
			// TTL is how long cached content stays fresh
			TTL time.Duration
		}
	}

	// Admin holds the protected area configuration
	Admin struct {
		// Root is the path prefix of the protected area
		Root string
		// EntryPoints are sub-paths reachable without a session
		EntryPoints []string
		// LoginPath is where unauthenticated callers are redirected
		LoginPath string
	}

	// Auth holds authentication configuration
	Auth struct {
		// Provider selects the credential validator (oidc, session_api)
		Provider string

		// OIDC holds OIDC authentication configuration
		OIDC struct {
			// Issuer is the OIDC issuer URL
			Issuer string
			// ClientID is the OIDC client ID
			ClientID string
			// ClientSecret is the OIDC client secret
			ClientSecret string
			// RedirectURL is the redirect URL for OIDC authentication
			RedirectURL string
			// Scopes is a list of OIDC scopes to request
			Scopes []string
			// CookieName is the name of the session cookie
			CookieName string
			// CookieSecret is the secret key for cookie encryption
			CookieSecret string
		}

		// SessionAPI holds remote session-state validation configuration
		SessionAPI struct {
			// URL is the session-state endpoint
			URL string
			// LoginURL is the external login page
			LoginURL string
			// Cookies are the names of the credential cookies to forward
			Cookies []string
			// Timeout is the maximum time to wait for the session endpoint
			Timeout time.Duration
		}
	}

	// Observability holds observability configuration
	Observability struct {
		// LogLevel is the minimum log level to emit
		LogLevel string
	}
}
