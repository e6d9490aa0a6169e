package sessionapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/auth"
	"portfolio/internal/observability/logging"
)

type failingDoer struct{}

func (failingDoer) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func newValidator(t *testing.T, sessionURL string, client HTTPDoer) *Validator {
	t.Helper()

	site, err := url.Parse("https://portfolio.example.com")
	require.NoError(t, err)

	v, err := New(Config{
		URL:      sessionURL,
		LoginURL: "https://id.example.com/login?client=portfolio",
		Cookies:  []string{"session", "session_refresh"},
		SiteURL:  site,
		Client:   client,
	}, logging.Discard())
	require.NoError(t, err)
	return v
}

func TestValidateForwardsCredentialCookies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		if c, err := r.Cookie("session"); assert.NoError(t, err) {
			assert.Equal(t, "abc", c.Value)
		}
		_, err := r.Cookie("tracking")
		assert.ErrorIs(t, err, http.ErrNoCookie)

		http.SetCookie(w, &http.Cookie{Name: "session", Value: "rotated", Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"alice","email":"alice@example.com","role":"admin"}`))
	}))
	defer server.Close()

	v := newValidator(t, server.URL, nil)

	result, err := v.Validate(context.Background(), []*http.Cookie{
		{Name: "session", Value: "abc"},
		{Name: "tracking", Value: "x"},
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", result.Identity.Subject)
	assert.Equal(t, auth.ProviderSessionAPI, result.Identity.Provider)
	assert.Equal(t, "admin", result.Identity.Attributes["role"])
	require.Len(t, result.Cookies, 1)
	assert.Equal(t, "rotated", result.Cookies[0].Value)
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		cookies []*http.Cookie
		want    error
	}{
		{name: "no credential cookie", cookies: []*http.Cookie{{Name: "tracking", Value: "x"}}, want: auth.ErrCredentialAbsent},
		{name: "empty credential cookie", cookies: []*http.Cookie{{Name: "session", Value: ""}}, want: auth.ErrCredentialAbsent},
		{name: "unauthorized", status: http.StatusUnauthorized, want: auth.ErrCredentialInvalid},
		{name: "not found", status: http.StatusNotFound, want: auth.ErrCredentialInvalid},
		{name: "server error", status: http.StatusBadGateway, want: auth.ErrValidatorUnreachable},
		{name: "empty subject", status: http.StatusOK, body: `{"sub":""}`, want: auth.ErrCredentialInvalid},
		{name: "malformed body", status: http.StatusOK, body: `not json`, want: auth.ErrCredentialInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			cookies := tt.cookies
			if cookies == nil {
				cookies = []*http.Cookie{{Name: "session", Value: "abc"}}
			}

			_, err := newValidator(t, server.URL, nil).Validate(context.Background(), cookies)
			assert.ErrorIs(t, err, tt.want)
			if errors.Is(tt.want, auth.ErrCredentialAbsent) {
				assert.False(t, called, "session endpoint must not be called without credentials")
			}
		})
	}
}

func TestValidateUnreachable(t *testing.T) {
	v := newValidator(t, "https://id.example.com/session", failingDoer{})

	_, err := v.Validate(context.Background(), []*http.Cookie{{Name: "session", Value: "abc"}})
	assert.ErrorIs(t, err, auth.ErrValidatorUnreachable)
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{name: "missing url", config: Config{LoginURL: "https://id.example.com/login", Cookies: []string{"s"}}},
		{name: "relative url", config: Config{URL: "session", LoginURL: "https://id.example.com/login", Cookies: []string{"s"}}},
		{name: "missing cookies", config: Config{URL: "https://id.example.com/session", LoginURL: "https://id.example.com/login"}},
		{name: "relative login url", config: Config{URL: "https://id.example.com/session", LoginURL: "/login", Cookies: []string{"s"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config, logging.Discard())
			assert.Error(t, err)
		})
	}
}
