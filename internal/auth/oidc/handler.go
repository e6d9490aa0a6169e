// internal/auth/oidc/handler.go
package oidc

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"portfolio/internal/auth"
	"portfolio/internal/observability/logging"

	"golang.org/x/oauth2"
)

// Temporary cookies carried through the authorization code flow
const (
	stateCookie    = "oidc_state"
	verifierCookie = "oidc_code_verifier"
	nextCookie     = "oidc_next"
	flowCookieTTL  = 10 * time.Minute
)

// Login starts the authorization code flow, or returns an already
// authenticated caller straight to next
func (p *Provider) Login(w http.ResponseWriter, r *http.Request) {
	p.startAuthenticationFlow(w, r)
}

// Register starts the authorization code flow on the issuer's sign-up page
func (p *Provider) Register(w http.ResponseWriter, r *http.Request) {
	p.startAuthenticationFlow(w, r, oauth2.SetAuthURLParam("prompt", "create"))
}

// Callback completes the authorization code flow and establishes the session
func (p *Provider) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx, p.logger)

	logger.Debug("Start OIDC callback handling")

	if issuerErr := r.URL.Query().Get("error"); issuerErr != "" {
		logger.Warn("Issuer returned an error", "error", issuerErr, "description", r.URL.Query().Get("error_description"))
		p.metrics.RecordAuthentication("oidc_callback", false)
		http.Error(w, "Authentication failed", http.StatusUnauthorized)
		return
	}

	// Verify the state parameter to prevent CSRF attacks
	state := r.URL.Query().Get("state")
	stateValue, err := r.Cookie(stateCookie)
	if state == "" || err != nil || stateValue.Value != state {
		logger.Error("State mismatch or cookie missing", "cookie_exists", err == nil, "param_exists", state != "")
		p.metrics.RecordAuthentication("oidc_callback", false)
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	}

	codeVerifier, err := r.Cookie(verifierCookie)
	if err != nil {
		logger.Error("No code verifier cookie", logging.Err(err))
		http.Error(w, "Code verifier not found", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		logger.Error("No code parameter in callback")
		http.Error(w, "No code received", http.StatusBadRequest)
		return
	}

	token, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier.Value))
	if err != nil {
		logger.Error("Failed to exchange token", logging.Err(err))
		p.metrics.RecordAuthentication("oidc_callback", false)
		http.Error(w, "Failed to exchange token", http.StatusBadGateway)
		return
	}

	idToken, rawIDToken, err := p.verifyTokenResponse(ctx, token)
	if err != nil {
		logger.Error("Failed to verify ID token", logging.Err(err))
		p.metrics.RecordAuthentication("oidc_callback", false)
		if errors.Is(err, auth.ErrValidatorUnreachable) {
			http.Error(w, "Identity provider unavailable", http.StatusBadGateway)
			return
		}
		http.Error(w, "Failed to verify ID token", http.StatusUnauthorized)
		return
	}

	data := SessionData{
		Subject:      idToken.Subject,
		IDToken:      rawIDToken,
		RefreshToken: token.RefreshToken,
		Expiry:       p.sessionExpiry(token),
	}

	cookie, err := p.sessionCookie(data)
	if err != nil {
		logger.Error("Failed to save session cookie", logging.Err(err))
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, cookie)
	p.clearFlowCookies(w)

	next := p.defaultNext
	if stored, err := r.Cookie(nextCookie); err == nil {
		if unescaped, err := url.QueryUnescape(stored.Value); err == nil {
			next = auth.SafeNext(unescaped, p.defaultNext)
		}
	}

	logger.Info("Session established", "subject", data.Subject)
	p.metrics.RecordAuthentication("oidc_callback", true)

	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout clears the session cookie and returns to the home page
func (p *Provider) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, p.codec.Clear(p.cookieName))
	logging.FromContext(r.Context(), p.logger).Debug("Session cookie cleared")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// startAuthenticationFlow redirects to the issuer with PKCE and a fresh state
func (p *Provider) startAuthenticationFlow(w http.ResponseWriter, r *http.Request, opts ...oauth2.AuthCodeOption) {
	ctx := r.Context()
	logger := logging.FromContext(ctx, p.logger)
	next := auth.SafeNext(r.URL.Query().Get("next"), p.defaultNext)

	if result, err := p.Validate(ctx, r.Cookies()); err == nil {
		for _, cookie := range result.Cookies {
			http.SetCookie(w, cookie)
		}
		logger.Debug("Already authenticated, skipping login", "subject", result.Identity.Subject)
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}

	state, err := randomString(24)
	if err != nil {
		logger.Error("Failed to generate state parameter", logging.Err(err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	codeVerifier := oauth2.GenerateVerifier()

	p.setFlowCookie(w, stateCookie, state)
	p.setFlowCookie(w, verifierCookie, codeVerifier)
	p.setFlowCookie(w, nextCookie, url.QueryEscape(next))

	opts = append(opts, oauth2.S256ChallengeOption(codeVerifier))
	authURL := p.oauth.AuthCodeURL(state, opts...)

	logger.Info("Redirecting to OIDC provider for authentication")
	http.Redirect(w, r, authURL, http.StatusFound)
}

// setFlowCookie sets a short-lived cookie for the authorization code flow
func (p *Provider) setFlowCookie(w http.ResponseWriter, name, value string) {
	cookie := p.codec.Clear(name)
	cookie.Value = value
	cookie.MaxAge = int(flowCookieTTL.Seconds())
	http.SetCookie(w, cookie)
}

// clearFlowCookies clears the authorization code flow cookies
func (p *Provider) clearFlowCookies(w http.ResponseWriter) {
	for _, name := range []string{stateCookie, verifierCookie, nextCookie} {
		http.SetCookie(w, p.codec.Clear(name))
	}
}

// randomString generates a random URL-safe string of the specified length
func randomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes)[:length], nil
}
