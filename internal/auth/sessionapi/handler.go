// internal/auth/sessionapi/handler.go
package sessionapi

import (
	"net/http"
	"net/url"

	"portfolio/internal/auth"
	"portfolio/internal/observability/logging"
)

// Login sends the caller to the external login page carrying the absolute
// address of the sanitized next target
func (v *Validator) Login(w http.ResponseWriter, r *http.Request) {
	v.redirectToLogin(w, r, "")
}

// Register sends the caller to the external login page in sign-up mode
func (v *Validator) Register(w http.ResponseWriter, r *http.Request) {
	v.redirectToLogin(w, r, "register")
}

// Callback lands a returning caller on the next target
func (v *Validator) Callback(w http.ResponseWriter, r *http.Request) {
	next := auth.SafeNext(r.URL.Query().Get("next"), v.defaultNext)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout expires the credential cookies locally and returns to the home page
func (v *Validator) Logout(w http.ResponseWriter, r *http.Request) {
	for _, name := range v.cookies {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	}
	logging.FromContext(r.Context(), v.logger).Debug("Session cookies cleared")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (v *Validator) redirectToLogin(w http.ResponseWriter, r *http.Request, mode string) {
	next := auth.SafeNext(r.URL.Query().Get("next"), v.defaultNext)

	target := *v.loginURL
	query := target.Query()
	query.Set("next", v.absolute(next))
	if mode != "" {
		query.Set("mode", mode)
	}
	target.RawQuery = query.Encode()

	logging.FromContext(r.Context(), v.logger).Info("Redirecting to external login", "mode", mode)
	http.Redirect(w, r, target.String(), http.StatusFound)
}

// absolute resolves a local path against the site origin
func (v *Validator) absolute(next string) string {
	if v.siteURL == nil {
		return next
	}
	ref, err := url.Parse(next)
	if err != nil {
		return v.siteURL.String()
	}
	return v.siteURL.ResolveReference(ref).String()
}
