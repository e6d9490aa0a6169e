// internal/auth/oidc/provider.go
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"portfolio/internal/auth"
	"portfolio/internal/auth/session"
	"portfolio/internal/observability/logging"
	"portfolio/internal/observability/metrics"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/exp/slices"
	"golang.org/x/oauth2"
)

const (
	defaultCookieName = "portfolio_session"
	defaultSessionTTL = 24 * time.Hour
)

// Config holds OIDC provider configuration
type Config struct {
	// Issuer is the OIDC issuer URL
	Issuer string

	// ClientID is the OIDC client ID
	ClientID string

	// ClientSecret is the OIDC client secret
	ClientSecret string

	// RedirectURL is the callback URL registered with the issuer
	RedirectURL string

	// Scopes is a list of OIDC scopes to request
	Scopes []string

	// CookieName is the name of the session cookie
	CookieName string

	// CookieSecret is the secret key for cookie encryption
	CookieSecret string

	// DefaultNext is where a completed login lands without a next parameter
	DefaultNext string

	// SessionTTL bounds the session cookie when the issuer gives no refresh expiry
	SessionTTL time.Duration
}

// SessionData is the sealed content of the session cookie
type SessionData struct {
	Subject      string    `json:"sub"`
	IDToken      string    `json:"id_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry"`
}

// Provider validates sealed OIDC sessions and serves the login entry points
type Provider struct {
	logger      *logging.Logger
	metrics     *metrics.Collector
	verifier    *oidc.IDTokenVerifier
	oauth       oauth2.Config
	codec       *session.Codec
	cookieName  string
	defaultNext string
	sessionTTL  time.Duration
	now         func() time.Time
}

// New discovers the issuer and creates a provider
func New(ctx context.Context, config Config, logger *logging.Logger, metrics *metrics.Collector) (*Provider, error) {
	if config.Issuer == "" {
		return nil, fmt.Errorf("OIDC authentication enabled but no issuer provided")
	}

	logger.Debug("Initializing OIDC provider", "issuer", config.Issuer)
	discovered, err := oidc.NewProvider(ctx, config.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OIDC provider: %w", err)
	}

	var endpoints struct {
		JWKSURL string `json:"jwks_uri"`
	}
	if err := discovered.Claims(&endpoints); err != nil {
		return nil, fmt.Errorf("failed to read OIDC discovery document: %w", err)
	}
	if endpoints.JWKSURL == "" {
		return nil, fmt.Errorf("OIDC discovery document has no jwks_uri")
	}

	verifier := newTrackingVerifier(ctx, config.Issuer, endpoints.JWKSURL, config.ClientID)
	return newProvider(config, verifier, discovered.Endpoint(), logger, metrics)
}

// newProvider wires a provider from an explicit verifier and token endpoint
func newProvider(config Config, verifier *oidc.IDTokenVerifier, endpoint oauth2.Endpoint, logger *logging.Logger, metrics *metrics.Collector) (*Provider, error) {
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("OIDC authentication enabled but clientID or clientSecret not provided")
	}
	if config.RedirectURL == "" {
		return nil, fmt.Errorf("OIDC authentication enabled but no redirect URL provided")
	}

	redirect, err := url.Parse(config.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("invalid OIDC redirect URL: %w", err)
	}

	codec, err := session.NewCodec(config.CookieSecret, redirect.Scheme == "https")
	if err != nil {
		return nil, fmt.Errorf("invalid OIDC cookie secret: %w", err)
	}

	cookieName := config.CookieName
	if cookieName == "" {
		cookieName = defaultCookieName
	}

	scopes := config.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}
	if !slices.Contains(scopes, oidc.ScopeOpenID) {
		scopes = append([]string{oidc.ScopeOpenID}, scopes...)
	}

	defaultNext := config.DefaultNext
	if defaultNext == "" {
		defaultNext = "/admin"
	}

	sessionTTL := config.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}

	return &Provider{
		logger:   logger.WithModule("auth.oidc"),
		metrics:  metrics,
		verifier: verifier,
		oauth: oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  config.RedirectURL,
			Scopes:       scopes,
		},
		codec:       codec,
		cookieName:  cookieName,
		defaultNext: defaultNext,
		sessionTTL:  sessionTTL,
		now:         time.Now,
	}, nil
}

// Name returns the name of this validator
func (p *Provider) Name() string {
	return auth.ProviderOIDC
}

// CallbackPath returns the path component of the redirect URL
func (p *Provider) CallbackPath() string {
	return extractCallbackPath(p.oauth.RedirectURL)
}

// Validate opens the session cookie and verifies its ID token with the
// issuer's keys. An expired ID token is refreshed once; the resealed
// session is returned as a refreshed cookie.
func (p *Provider) Validate(ctx context.Context, cookies []*http.Cookie) (*auth.Result, error) {
	cookie := session.Find(cookies, p.cookieName)
	if cookie == nil || cookie.Value == "" {
		return nil, auth.ErrCredentialAbsent
	}

	var data SessionData
	if err := p.codec.Open(cookie.Value, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrCredentialInvalid, err)
	}
	if !data.Expiry.IsZero() && p.now().After(data.Expiry) {
		return nil, fmt.Errorf("%w: session expired", auth.ErrCredentialInvalid)
	}

	idToken, err := p.verify(ctx, data.IDToken)
	if errors.Is(err, auth.ErrValidatorUnreachable) {
		return nil, err
	}
	if err == nil {
		identity, err := p.identity(idToken)
		if err != nil {
			return nil, err
		}
		return &auth.Result{Identity: identity}, nil
	}

	var expired *oidc.TokenExpiredError
	if !errors.As(err, &expired) || data.RefreshToken == "" {
		return nil, fmt.Errorf("%w: %v", auth.ErrCredentialInvalid, err)
	}

	return p.refresh(ctx, data)
}

// refresh exchanges the refresh token for a new ID token
func (p *Provider) refresh(ctx context.Context, data SessionData) (*auth.Result, error) {
	logger := logging.FromContext(ctx, p.logger)
	logger.Info("ID token expired, attempting to refresh", "subject", data.Subject)

	token, err := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: data.RefreshToken}).Token()
	if err != nil {
		var retrieve *oauth2.RetrieveError
		if errors.As(err, &retrieve) {
			return nil, fmt.Errorf("%w: refresh rejected: %v", auth.ErrCredentialInvalid, err)
		}
		return nil, fmt.Errorf("%w: refresh failed: %v", auth.ErrValidatorUnreachable, err)
	}

	idToken, rawIDToken, err := p.verifyTokenResponse(ctx, token)
	if err != nil {
		return nil, err
	}

	identity, err := p.identity(idToken)
	if err != nil {
		return nil, err
	}

	refreshed := SessionData{
		Subject:      idToken.Subject,
		IDToken:      rawIDToken,
		RefreshToken: data.RefreshToken,
		Expiry:       p.sessionExpiry(token),
	}
	// Some issuers rotate refresh tokens on every use
	if token.RefreshToken != "" {
		refreshed.RefreshToken = token.RefreshToken
	}

	cookie, err := p.sessionCookie(refreshed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrCredentialInvalid, err)
	}

	logger.Info("Session refreshed", "subject", identity.Subject)
	return &auth.Result{Identity: identity, Cookies: []*http.Cookie{cookie}}, nil
}

// verifyTokenResponse extracts and verifies the ID token of a token response
func (p *Provider) verifyTokenResponse(ctx context.Context, token *oauth2.Token) (*oidc.IDToken, string, error) {
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, "", fmt.Errorf("%w: no ID token in token response", auth.ErrCredentialInvalid)
	}

	idToken, err := p.verify(ctx, rawIDToken)
	if errors.Is(err, auth.ErrValidatorUnreachable) {
		return nil, "", err
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", auth.ErrCredentialInvalid, err)
	}
	return idToken, rawIDToken, nil
}

// verify checks an ID token. A failure to retrieve the issuer's keys is
// reported as ErrValidatorUnreachable; any other error is returned as is.
func (p *Provider) verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error) {
	slot := &keyFetchSlot{}
	idToken, err := p.verifier.Verify(context.WithValue(ctx, keyFetchKey{}, slot), rawIDToken)
	if err != nil && slot.err != nil {
		return nil, fmt.Errorf("%w: fetching issuer keys: %v", auth.ErrValidatorUnreachable, slot.err)
	}
	return idToken, err
}

// identity builds an identity from verified ID token claims
func (p *Provider) identity(idToken *oidc.IDToken) (*auth.Identity, error) {
	var claims struct {
		Subject string `json:"sub"`
		Email   string `json:"email,omitempty"`
		Name    string `json:"name,omitempty"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: failed to parse claims: %v", auth.ErrCredentialInvalid, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", auth.ErrCredentialInvalid)
	}

	return &auth.Identity{
		Subject:  claims.Subject,
		Provider: p.Name(),
		Attributes: map[string]interface{}{
			"email": claims.Email,
			"name":  claims.Name,
		},
	}, nil
}

// sessionExpiry derives the session lifetime from refresh_expires_in when the issuer sends it
func (p *Provider) sessionExpiry(token *oauth2.Token) time.Time {
	if refreshExpiresIn := token.Extra("refresh_expires_in"); refreshExpiresIn != nil {
		seconds, err := strconv.Atoi(fmt.Sprintf("%v", refreshExpiresIn))
		if err == nil && seconds > 0 {
			return p.now().Add(time.Duration(seconds) * time.Second)
		}
	}
	return p.now().Add(p.sessionTTL)
}

// sessionCookie seals data into the session cookie
func (p *Provider) sessionCookie(data SessionData) (*http.Cookie, error) {
	return p.codec.Cookie(p.cookieName, data, data.Expiry.Sub(p.now()))
}

// extractCallbackPath extracts the path component from a URL
func extractCallbackPath(urlStr string) string {
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Path == "" {
		return "/callback"
	}
	return strings.TrimSuffix(parsedURL.Path, "/")
}
