// internal/config/settings.go
package config

import "github.com/spf13/viper"

// SettingType represents the type of a setting
type SettingType string

const (
	// String type for string settings
	String SettingType = "string"
	// Bool type for boolean settings
	Bool SettingType = "bool"
	// Int type for integer settings
	Int SettingType = "int"
	// StringSlice type for string slice settings
	StringSlice SettingType = "stringSlice"
)

// Setting defines a configuration setting
type Setting struct {
	// Name is the name of the setting
	Name string
	// Short is a short description of the setting
	Short string
	// Type is the type of the setting
	Type SettingType
	// Default is the default value of the setting
	Default interface{}
	// Env is the environment variable name for the setting
	Env string
	// Required indicates whether the setting is required
	Required bool
}

// SettingList is a list of settings
type SettingList []Setting

// PopulateViperDefaults sets default values for all settings in Viper
func (sl SettingList) PopulateViperDefaults(v *viper.Viper) {
	for _, s := range sl {
		v.SetDefault(s.Name, s.Default)
	}
}

// Lookup returns the setting with the given name
func (sl SettingList) Lookup(name string) (Setting, bool) {
	for _, s := range sl {
		if s.Name == name {
			return s, true
		}
	}
	return Setting{}, false
}

// Settings defines all application settings
var Settings = SettingList{
	// Server settings
	{
		Name:    "SERVER_ADDR",
		Short:   "Address on which the server listens",
		Type:    String,
		Default: ":8080",
		Env:     "PORTFOLIO_SERVER_ADDR",
	},
	{
		Name:    "METRICS_ADDR",
		Short:   "Address on which the metrics server listens",
		Type:    String,
		Default: ":9090",
		Env:     "PORTFOLIO_METRICS_ADDR",
	},
	{
		Name:    "SHUTDOWN_TIMEOUT",
		Short:   "Maximum time to wait for graceful shutdown",
		Type:    String,
		Default: "30s",
		Env:     "PORTFOLIO_SHUTDOWN_TIMEOUT",
	},

	// TLS settings
	{
		Name:    "TLS_ENABLED",
		Short:   "Enable TLS for the server",
		Type:    Bool,
		Default: false,
		Env:     "PORTFOLIO_TLS_ENABLED",
	},
	{
		Name:    "TLS_CERT_PATH",
		Short:   "Path to TLS certificate file",
		Type:    String,
		Default: "",
		Env:     "PORTFOLIO_TLS_CERT_PATH",
	},
	{
		Name:    "TLS_KEY_PATH",
		Short:   "Path to TLS key file",
		Type:    String,
		Default: "",
		Env:     "PORTFOLIO_TLS_KEY_PATH",
	},

	// Site settings
	{
		Name:    "SITE_NAME",
		Short:   "Site name used in page titles",
		Type:    String,
		Default: "Portfolio",
		Env:     "PORTFOLIO_SITE_NAME",
	},
	{
		Name:    "SITE_BASE_URL",
		Short:   "Canonical origin of the site",
		Type:    String,
		Default: "http://localhost:8080",
		Env:     "PORTFOLIO_SITE_BASE_URL",
	},
	{
		Name:    "SITE_DESCRIPTION",
		Short:   "Default meta description",
		Type:    String,
		Default: "Engineering portfolio and blog",
		Env:     "PORTFOLIO_SITE_DESCRIPTION",
	},

	// Content store settings
	{
		Name:     "CONTENT_STORE_URL",
		Short:    "Base URL of the content store API",
		Type:     String,
		Default:  "",
		Env:      "PORTFOLIO_CONTENT_STORE_URL",
		Required: true,
	},
	{
		Name:    "CONTENT_STORE_TOKEN",
		Short:   "Bearer token for the content store",
		Type:    String,
		Default: "",
		Env:     "PORTFOLIO_CONTENT_STORE_TOKEN",
	},
	{
		Name:    "CONTENT_STORE_TIMEOUT",
		Short:   "Timeout for content store requests",
		Type:    String,
		Default: "10s",
		Env:     "PORTFOLIO_CONTENT_STORE_TIMEOUT",
	},
	{
		Name:    "CONTENT_CACHE_ENABLED",
		Short:   "Cache content store responses in redis",
		Type:    Bool,
		Default: false,
		Env:     "PORTFOLIO_CONTENT_CACHE_ENABLED",
	},
	{
		Name:    "CONTENT_CACHE_REDIS_URL",
		Short:   "Redis URL for the content cache",
		Type:    String,
		Default: "redis://localhost:6379/0",
		Env:     "PORTFOLIO_CONTENT_CACHE_REDIS_URL",
	},
	{
		Name:    "CONTENT_CACHE_TTL",
		Short:   "Freshness of cached content",
		Type:    String,
		Default: "5m",
		Env:     "PORTFOLIO_CONTENT_CACHE_TTL",
	},

	// Admin area
	{
		Name:    "ADMIN_ROOT",
		Short:   "Path prefix of the protected admin area",
		Type:    String,
		Default: "/admin",
		Env:     "PORTFOLIO_ADMIN_ROOT",
	},
	{
		Name:    "ADMIN_ENTRY_POINTS",
		Short:   "Admin sub-paths reachable without a session",
		Type:    StringSlice,
		Default: []string{"/admin/login", "/admin/register", "/admin/auth"},
		Env:     "PORTFOLIO_ADMIN_ENTRY_POINTS",
	},
	{
		Name:    "ADMIN_LOGIN_PATH",
		Short:   "Login entry point for unauthenticated callers",
		Type:    String,
		Default: "/admin/login",
		Env:     "PORTFOLIO_ADMIN_LOGIN_PATH",
	},

	// Authentication
	{
		Name:    "AUTH_PROVIDER",
		Short:   "Credential validator (oidc, session_api)",
		Type:    String,
		Default: "oidc",
		Env:     "PORTFOLIO_AUTH_PROVIDER",
	},
	{
		Name:    "AUTH_OIDC_ISSUER",
		Short:   "OIDC issuer URL",
		Type:    String,
		Default: "",
		Env:     "PORTFOLIO_AUTH_OIDC_ISSUER",
	},
	{
		Name:    "AUTH_OIDC_CLIENT_ID",
		Short:   "OIDC client ID",
		Type:    String,
		Default: "",
		Env:     "PORTFOLIO_AUTH_OIDC_CLIENT_ID",
	},
	{
		Name:    "AUTH_OIDC_CLIENT_SECRET",
		Short:   "OIDC client secret",
		Type:    String,
		Default: "",
		Env:     "PORTFOLIO_AUTH_OIDC_CLIENT_SECRET",
	},
	{
		Name:    "AUTH_OIDC_REDIRECT_URL",
		Short:   "OIDC redirect URL",
		Type:    String,
		Default: "",
		Env:     "PORTFOLIO_AUTH_OIDC_REDIRECT_URL",
	},
	{
		Name:    "AUTH_OIDC_SCOPES",
		Short:   "OIDC scopes",
		Type:    StringSlice,
		Default: []string{"openid", "email", "profile", "offline_access"},
		Env:     "PORTFOLIO_AUTH_OIDC_SCOPES",
	},
	{
		Name:    "AUTH_OIDC_COOKIE_NAME",
		Short:   "Name of the OIDC session cookie",
		Type:    String,
		Default: "portfolio_session",
		Env:     "PORTFOLIO_AUTH_OIDC_COOKIE_NAME",
	},
	{
		Name:    "AUTH_OIDC_COOKIE_SECRET",
		Short:   "Secret key for OIDC session cookie encryption",
		Type:    String,
		Default: "",
		Env:     "PORTFOLIO_AUTH_OIDC_COOKIE_SECRET",
	},
	{
		Name:    "AUTH_SESSION_API_URL",
		Short:   "Session-state endpoint of the identity service",
		Type:    String,
		Default: "",
		Env:     "PORTFOLIO_AUTH_SESSION_API_URL",
	},
	{
		Name:    "AUTH_SESSION_API_LOGIN_URL",
		Short:   "External login page of the identity service",
		Type:    String,
		Default: "",
		Env:     "PORTFOLIO_AUTH_SESSION_API_LOGIN_URL",
	},
	{
		Name:    "AUTH_SESSION_API_COOKIES",
		Short:   "Credential cookies forwarded to the session endpoint",
		Type:    StringSlice,
		Default: []string{"session"},
		Env:     "PORTFOLIO_AUTH_SESSION_API_COOKIES",
	},
	{
		Name:    "AUTH_SESSION_API_TIMEOUT",
		Short:   "Timeout for session endpoint requests",
		Type:    String,
		Default: "8s",
		Env:     "PORTFOLIO_AUTH_SESSION_API_TIMEOUT",
	},

	// Observability
	{
		Name:    "LOG_LEVEL",
		Short:   "Logging level",
		Type:    String,
		Default: "info",
		Env:     "PORTFOLIO_LOG_LEVEL",
	},
}
