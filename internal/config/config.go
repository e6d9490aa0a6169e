// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads the configuration from all sources and returns the merged result
func Load(configPath string) (*Config, error) {
	v := viper.New()

	Settings.PopulateViperDefaults(v)

	v.SetEnvPrefix("PORTFOLIO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// A missing file is tolerated, a malformed one is not
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if err := checkRequired(v); err != nil {
		return nil, err
	}

	config := &Config{}
	var err error

	// Server
	config.Server.Address = v.GetString("SERVER_ADDR")
	if config.Server.ShutdownTimeout, err = duration(v, "SHUTDOWN_TIMEOUT"); err != nil {
		return nil, err
	}
	config.Metrics.Address = v.GetString("METRICS_ADDR")

	// TLS
	config.TLS.Enabled = v.GetBool("TLS_ENABLED")
	config.TLS.CertPath = v.GetString("TLS_CERT_PATH")
	config.TLS.KeyPath = v.GetString("TLS_KEY_PATH")

	// Site
	config.Site.Name = v.GetString("SITE_NAME")
	config.Site.Description = v.GetString("SITE_DESCRIPTION")
	if config.Site.BaseURL, err = absoluteURL(v, "SITE_BASE_URL"); err != nil {
		return nil, err
	}

	// Content store
	if config.Content.StoreURL, err = absoluteURL(v, "CONTENT_STORE_URL"); err != nil {
		return nil, err
	}
	config.Content.Token = v.GetString("CONTENT_STORE_TOKEN")
	if config.Content.Timeout, err = duration(v, "CONTENT_STORE_TIMEOUT"); err != nil {
		return nil, err
	}
	config.Content.Cache.Enabled = v.GetBool("CONTENT_CACHE_ENABLED")
	config.Content.Cache.RedisURL = v.GetString("CONTENT_CACHE_REDIS_URL")
	if config.Content.Cache.TTL, err = duration(v, "CONTENT_CACHE_TTL"); err != nil {
		return nil, err
	}

	// Admin area
	config.Admin.Root = strings.TrimSuffix(v.GetString("ADMIN_ROOT"), "/")
	config.Admin.EntryPoints = list(v, "ADMIN_ENTRY_POINTS")
	config.Admin.LoginPath = v.GetString("ADMIN_LOGIN_PATH")

	// Authentication
	config.Auth.Provider = strings.ToLower(v.GetString("AUTH_PROVIDER"))

	config.Auth.OIDC.Issuer = v.GetString("AUTH_OIDC_ISSUER")
	config.Auth.OIDC.ClientID = v.GetString("AUTH_OIDC_CLIENT_ID")
	config.Auth.OIDC.ClientSecret = v.GetString("AUTH_OIDC_CLIENT_SECRET")
	config.Auth.OIDC.RedirectURL = v.GetString("AUTH_OIDC_REDIRECT_URL")
	config.Auth.OIDC.Scopes = list(v, "AUTH_OIDC_SCOPES")
	config.Auth.OIDC.CookieName = v.GetString("AUTH_OIDC_COOKIE_NAME")
	config.Auth.OIDC.CookieSecret = v.GetString("AUTH_OIDC_COOKIE_SECRET")

	config.Auth.SessionAPI.URL = v.GetString("AUTH_SESSION_API_URL")
	config.Auth.SessionAPI.LoginURL = v.GetString("AUTH_SESSION_API_LOGIN_URL")
	config.Auth.SessionAPI.Cookies = list(v, "AUTH_SESSION_API_COOKIES")
	if config.Auth.SessionAPI.Timeout, err = duration(v, "AUTH_SESSION_API_TIMEOUT"); err != nil {
		return nil, err
	}

	// Observability
	config.Observability.LogLevel = v.GetString("LOG_LEVEL")

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// checkRequired reports the first required setting left empty
func checkRequired(v *viper.Viper) error {
	for _, s := range Settings {
		if s.Required && strings.TrimSpace(v.GetString(s.Name)) == "" {
			return fmt.Errorf("%s is required (env %s)", s.Name, s.Env)
		}
	}
	return nil
}

// duration parses a duration setting
func duration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", strings.ToLower(key), err)
	}
	return d, nil
}

// absoluteURL parses a URL setting that must carry a scheme and host
func absoluteURL(v *viper.Viper, key string) (*url.URL, error) {
	u, err := url.Parse(v.GetString(key))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", strings.ToLower(key), err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid %s: absolute URL required", strings.ToLower(key))
	}
	return u, nil
}

// list reads a string slice setting, accepting comma-separated values from the environment
func list(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// validateConfig performs validation on the loaded configuration
func validateConfig(cfg *Config) error {
	if cfg.TLS.Enabled {
		if cfg.TLS.CertPath == "" {
			return fmt.Errorf("TLS certificate path is required when TLS is enabled")
		}
		if cfg.TLS.KeyPath == "" {
			return fmt.Errorf("TLS key path is required when TLS is enabled")
		}
		if _, err := os.Stat(cfg.TLS.CertPath); os.IsNotExist(err) {
			return fmt.Errorf("TLS certificate file not found: %s", cfg.TLS.CertPath)
		}
		if _, err := os.Stat(cfg.TLS.KeyPath); os.IsNotExist(err) {
			return fmt.Errorf("TLS key file not found: %s", cfg.TLS.KeyPath)
		}
	}

	if cfg.Content.Cache.Enabled && cfg.Content.Cache.RedisURL == "" {
		return fmt.Errorf("redis URL is required when the content cache is enabled")
	}

	if err := validateAdminConfig(cfg); err != nil {
		return err
	}

	return validateAuthConfig(cfg)
}

// validateAdminConfig checks that the protected area paths are consistent
func validateAdminConfig(cfg *Config) error {
	root := cfg.Admin.Root
	if !strings.HasPrefix(root, "/") || root == "/" {
		return fmt.Errorf("admin root must be an absolute path below /: %q", root)
	}

	within := func(p string) bool {
		return p == root || strings.HasPrefix(p, root+"/")
	}

	for _, entry := range cfg.Admin.EntryPoints {
		if !within(entry) {
			return fmt.Errorf("admin entry point %q is outside %q", entry, root)
		}
	}

	if !within(cfg.Admin.LoginPath) {
		return fmt.Errorf("admin login path %q is outside %q", cfg.Admin.LoginPath, root)
	}

	// The login page must itself be exempt or every redirect loops
	for _, entry := range cfg.Admin.EntryPoints {
		if cfg.Admin.LoginPath == entry || strings.HasPrefix(cfg.Admin.LoginPath, entry+"/") {
			return nil
		}
	}
	return fmt.Errorf("admin login path %q must be one of the entry points", cfg.Admin.LoginPath)
}

// validateAuthConfig validates authentication configuration
func validateAuthConfig(cfg *Config) error {
	switch cfg.Auth.Provider {
	case "oidc":
		if cfg.Auth.OIDC.Issuer == "" {
			return fmt.Errorf("OIDC issuer is required when OIDC is enabled")
		}
		if cfg.Auth.OIDC.ClientID == "" {
			return fmt.Errorf("OIDC client ID is required when OIDC is enabled")
		}
		if cfg.Auth.OIDC.ClientSecret == "" {
			return fmt.Errorf("OIDC client secret is required when OIDC is enabled")
		}
		if cfg.Auth.OIDC.RedirectURL == "" {
			return fmt.Errorf("OIDC redirect URL is required when OIDC is enabled")
		}
		if len(cfg.Auth.OIDC.CookieSecret) < 32 {
			return fmt.Errorf("OIDC cookie secret must be at least 32 bytes long")
		}
	case "session_api":
		if cfg.Auth.SessionAPI.URL == "" {
			return fmt.Errorf("session API URL is required when the session_api provider is used")
		}
		if cfg.Auth.SessionAPI.LoginURL == "" {
			return fmt.Errorf("session API login URL is required when the session_api provider is used")
		}
		if len(cfg.Auth.SessionAPI.Cookies) == 0 {
			return fmt.Errorf("at least one session API cookie name is required")
		}
	default:
		return fmt.Errorf("unknown auth provider: %q", cfg.Auth.Provider)
	}

	return nil
}
