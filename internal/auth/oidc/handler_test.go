package oidc

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/auth/session"
)

func startLogin(t *testing.T, f *fixture, target string, handler http.HandlerFunc) (*httptest.ResponseRecorder, *url.URL) {
	t.Helper()

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return rec, location
}

func TestLoginRedirectsToIssuer(t *testing.T) {
	f := newFixture(t, nil)

	rec, location := startLogin(t, f, "/admin/login?next=%2Fadmin%2Freports%3Fmonth%3D3", f.provider.Login)

	assert.Equal(t, "id.example.test", location.Host)
	assert.Equal(t, "/authorize", location.Path)

	query := location.Query()
	assert.Equal(t, testClientID, query.Get("client_id"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	assert.NotEmpty(t, query.Get("code_challenge"))
	assert.Empty(t, query.Get("prompt"))

	cookies := rec.Result().Cookies()
	state := session.Find(cookies, stateCookie)
	require.NotNil(t, state)
	assert.Equal(t, query.Get("state"), state.Value)
	assert.NotNil(t, session.Find(cookies, verifierCookie))

	next := session.Find(cookies, nextCookie)
	require.NotNil(t, next)
	assert.Equal(t, url.QueryEscape("/admin/reports?month=3"), next.Value)
	assert.Equal(t, int(flowCookieTTL.Seconds()), next.MaxAge)
}

func TestLoginSanitizesNext(t *testing.T) {
	f := newFixture(t, nil)

	for _, next := range []string{"https://evil.example", "//evil.example", "admin", ""} {
		t.Run(next, func(t *testing.T) {
			rec, _ := startLogin(t, f, "/admin/login?next="+url.QueryEscape(next), f.provider.Login)

			cookie := session.Find(rec.Result().Cookies(), nextCookie)
			require.NotNil(t, cookie)
			assert.Equal(t, url.QueryEscape("/admin"), cookie.Value)
		})
	}
}

func TestRegisterRequestsSignUp(t *testing.T) {
	f := newFixture(t, nil)

	_, location := startLogin(t, f, "/admin/register", f.provider.Register)
	assert.Equal(t, "create", location.Query().Get("prompt"))
}

func TestLoginWithValidSessionSkipsIssuer(t *testing.T) {
	f := newFixture(t, nil)
	idToken := mint(t, f.key, "alice", testClientID, time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/admin/login?next=%2Fadmin%2Fposts", nil)
	req.AddCookie(f.cookie(t, SessionData{Subject: "alice", IDToken: idToken}))
	rec := httptest.NewRecorder()

	f.provider.Login(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/posts", rec.Header().Get("Location"))
	assert.Nil(t, session.Find(rec.Result().Cookies(), stateCookie))
}

func TestCallbackEstablishesSession(t *testing.T) {
	key, _ := keys(t)
	var verifier string

	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "auth-code", r.PostForm.Get("code"))
		assert.Equal(t, verifier, r.PostForm.Get("code_verifier"))

		writeToken(w, map[string]any{
			"access_token":  "at-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "rt-1",
			"id_token":      mint(t, key, "alice", testClientID, time.Now().Add(time.Hour)),
		})
	})

	login, location := startLogin(t, f, "/admin/login?next=%2Fadmin%2Freports%3Fmonth%3D3", f.provider.Login)
	flow := login.Result().Cookies()
	verifier = session.Find(flow, verifierCookie).Value

	req := httptest.NewRequest(http.MethodGet,
		"/admin/auth/callback?code=auth-code&state="+url.QueryEscape(location.Query().Get("state")), nil)
	for _, cookie := range flow {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()

	f.provider.Callback(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/reports?month=3", rec.Header().Get("Location"))

	data := sessionFromRecorder(t, f, rec)
	assert.Equal(t, "alice", data.Subject)
	assert.Equal(t, "rt-1", data.RefreshToken)
	assert.True(t, data.Expiry.After(time.Now()))

	for _, name := range []string{stateCookie, verifierCookie, nextCookie} {
		cleared := session.Find(rec.Result().Cookies(), name)
		require.NotNil(t, cleared, name)
		assert.Equal(t, -1, cleared.MaxAge, name)
	}
}

func TestCallbackRejections(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		cookies []*http.Cookie
		want    int
	}{
		{
			name:   "issuer error",
			target: "/admin/auth/callback?error=access_denied",
			want:   http.StatusUnauthorized,
		},
		{
			name:   "missing state cookie",
			target: "/admin/auth/callback?code=c&state=s",
			want:   http.StatusBadRequest,
		},
		{
			name:    "state mismatch",
			target:  "/admin/auth/callback?code=c&state=s",
			cookies: []*http.Cookie{{Name: stateCookie, Value: "other"}, {Name: verifierCookie, Value: "v"}},
			want:    http.StatusBadRequest,
		},
		{
			name:    "missing verifier",
			target:  "/admin/auth/callback?code=c&state=s",
			cookies: []*http.Cookie{{Name: stateCookie, Value: "s"}},
			want:    http.StatusBadRequest,
		},
		{
			name:    "missing code",
			target:  "/admin/auth/callback?state=s",
			cookies: []*http.Cookie{{Name: stateCookie, Value: "s"}, {Name: verifierCookie, Value: "v"}},
			want:    http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			for _, cookie := range tt.cookies {
				req.AddCookie(cookie)
			}
			rec := httptest.NewRecorder()

			f.provider.Callback(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			assert.Nil(t, session.Find(rec.Result().Cookies(), defaultCookieName))
		})
	}
}

func TestCallbackExchangeFailure(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/auth/callback?code=c&state=s", nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: "s"})
	req.AddCookie(&http.Cookie{Name: verifierCookie, Value: "v"})
	rec := httptest.NewRecorder()

	f.provider.Callback(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCallbackRejectsForeignIDToken(t *testing.T) {
	_, foreign := keys(t)
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeToken(w, map[string]any{
			"access_token": "at-1",
			"token_type":   "Bearer",
			"id_token":     mint(t, foreign, "mallory", testClientID, time.Now().Add(time.Hour)),
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/auth/callback?code=c&state=s", nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: "s"})
	req.AddCookie(&http.Cookie{Name: verifierCookie, Value: "v"})
	rec := httptest.NewRecorder()

	f.provider.Callback(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, session.Find(rec.Result().Cookies(), defaultCookieName))
}

func TestLogoutClearsSession(t *testing.T) {
	f := newFixture(t, nil)

	rec := httptest.NewRecorder()
	f.provider.Logout(rec, httptest.NewRequest(http.MethodPost, "/admin/logout", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	cleared := session.Find(rec.Result().Cookies(), defaultCookieName)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestRandomString(t *testing.T) {
	a, err := randomString(24)
	require.NoError(t, err)
	b, err := randomString(24)
	require.NoError(t, err)

	assert.Len(t, a, 24)
	assert.NotEqual(t, a, b)
}
