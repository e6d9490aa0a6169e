package site

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/auth"
	"portfolio/internal/auth/gate"
	"portfolio/internal/auth/manager"
	"portfolio/internal/content"
	"portfolio/internal/observability/logging"
	"portfolio/internal/observability/metrics"
	"portfolio/internal/seo"
)

type memoryStore struct {
	posts       []content.Post
	err         error
	invalidated int
}

func (s *memoryStore) ListPosts(context.Context) ([]content.Post, error) {
	return s.posts, s.err
}

func (s *memoryStore) GetPost(_ context.Context, slug string) (*content.Post, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.posts {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, content.ErrNotFound
}

func (s *memoryStore) Invalidate(context.Context) error {
	s.invalidated++
	return nil
}

// cookieProvider accepts the session cookie "valid" and rotates it on every request
type cookieProvider struct{}

func (cookieProvider) Name() string { return "test" }

func (cookieProvider) Validate(_ context.Context, cookies []*http.Cookie) (*auth.Result, error) {
	for _, c := range cookies {
		if c.Name == "session" && c.Value == "valid" {
			return &auth.Result{
				Identity: &auth.Identity{Subject: "alice", Attributes: map[string]interface{}{"email": "alice@example.com"}},
				Cookies:  []*http.Cookie{{Name: "session", Value: "valid", Path: "/"}},
			}, nil
		}
	}
	return nil, auth.ErrCredentialAbsent
}

func (cookieProvider) Login(w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, "login page next="+r.URL.Query().Get("next"))
}

func (cookieProvider) Register(w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, "register page")
}

func (cookieProvider) Callback(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (cookieProvider) Logout(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

var published = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T, store *memoryStore) *Router {
	t.Helper()

	base, err := url.Parse("https://jane.example.com")
	require.NoError(t, err)

	authManager, err := manager.NewManager(cookieProvider{}, gate.DefaultPolicy(), manager.Paths{
		Login:    "/admin/login",
		Register: "/admin/register",
		Callback: "/admin/auth/callback",
		Logout:   "/admin/logout",
	}, logging.Discard(), metrics.NewCollector())
	require.NoError(t, err)

	router, err := New(Config{
		SiteName:  "Jane Doe",
		AdminRoot: "/admin",
		SEO:       seo.NewBuilder("Jane Doe", base, "Engineer and writer"),
		Store:     store,
		Auth:      authManager,
	}, logging.Discard())
	require.NoError(t, err)
	return router
}

func defaultStore() *memoryStore {
	return &memoryStore{posts: []content.Post{
		{Slug: "hello-world", Title: "Hello World", Summary: "First post", Body: "<p>Hi <em>there</em></p>", PublishedAt: published},
		{Slug: "second", Title: "Second", PublishedAt: published.AddDate(0, 0, -1)},
	}}
}

func serve(router http.Handler, method, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

var validSession = &http.Cookie{Name: "session", Value: "valid"}

func TestPublicPages(t *testing.T) {
	router := newTestRouter(t, defaultStore())

	tests := []struct {
		path  string
		title string
		want  []string
	}{
		{path: "/", title: "<title>Jane Doe</title>", want: []string{`href="/blog/hello-world"`, "Hello World"}},
		{path: "/about", title: "<title>About | Jane Doe</title>", want: []string{`<link rel="canonical" href="https://jane.example.com/about">`}},
		{path: "/experience", title: "<title>Experience | Jane Doe</title>"},
		{path: "/blog", title: "<title>Blog | Jane Doe</title>", want: []string{"First post", `href="/blog/second"`}},
		{path: "/blog/hello-world", title: "<title>Hello World | Jane Doe</title>", want: []string{
			"<p>Hi <em>there</em></p>",
			`<meta property="og:type" content="article">`,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(router, http.MethodGet, tt.path)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
			body := rec.Body.String()
			assert.Contains(t, body, tt.title)
			for _, want := range tt.want {
				assert.Contains(t, body, want)
			}
		})
	}
}

func TestHomeLimitsLatestPosts(t *testing.T) {
	store := &memoryStore{}
	for _, slug := range []string{"a", "b", "c", "d"} {
		store.posts = append(store.posts, content.Post{Slug: slug, Title: "Post " + slug, PublishedAt: published})
	}

	body := serve(newTestRouter(t, store), http.MethodGet, "/").Body.String()
	assert.Equal(t, latestPosts, strings.Count(body, `href="/blog/`))
}

func TestHomeSurvivesContentOutage(t *testing.T) {
	router := newTestRouter(t, &memoryStore{err: errors.New("cms down")})

	rec := serve(router, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestContentErrors(t *testing.T) {
	down := newTestRouter(t, &memoryStore{err: errors.New("cms down")})
	up := newTestRouter(t, defaultStore())

	assert.Equal(t, http.StatusBadGateway, serve(down, http.MethodGet, "/blog").Code)
	assert.Equal(t, http.StatusBadGateway, serve(down, http.MethodGet, "/blog/hello-world").Code)
	assert.Equal(t, http.StatusBadGateway, serve(down, http.MethodGet, "/sitemap.xml").Code)

	rec := serve(up, http.MethodGet, "/blog/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `<meta name="robots" content="noindex, nofollow">`)
}

func TestUnknownPublicPath(t *testing.T) {
	router := newTestRouter(t, defaultStore())

	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/nope").Code)
	// Shares the admin prefix but not the segment
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/administrator").Code)
}

func TestSitemapAndRobots(t *testing.T) {
	router := newTestRouter(t, defaultStore())

	rec := serve(router, http.MethodGet, "/sitemap.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<loc>https://jane.example.com/about</loc>")
	assert.Contains(t, rec.Body.String(), "<loc>https://jane.example.com/blog/hello-world</loc>")

	rec = serve(router, http.MethodGet, "/robots.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Disallow: /admin\n")
	assert.Contains(t, rec.Body.String(), "Sitemap: https://jane.example.com/sitemap.xml")
}

func TestHealthz(t *testing.T) {
	rec := serve(newTestRouter(t, defaultStore()), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAdminRequiresSession(t *testing.T) {
	router := newTestRouter(t, defaultStore())

	for path, location := range map[string]string{
		"/admin":                 "/admin/login?next=%2Fadmin",
		"/admin/dashboard":       "/admin/login?next=%2Fadmin%2Fdashboard",
		"/admin/reports?month=3": "/admin/login?next=%2Fadmin%2Freports%3Fmonth%3D3",
		"/admin/logout":          "/admin/login?next=%2Fadmin%2Flogout",
	} {
		rec := serve(router, http.MethodGet, path)
		assert.Equal(t, http.StatusTemporaryRedirect, rec.Code, path)
		assert.Equal(t, location, rec.Header().Get("Location"), path)
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"), path)
	}
}

func TestAdminEntryPointsAreExempt(t *testing.T) {
	router := newTestRouter(t, defaultStore())

	rec := serve(router, http.MethodGet, "/admin/login?next=%2Fadmin%2Fdashboard")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "login page next=/admin/dashboard", rec.Body.String())

	rec = serve(router, http.MethodGet, "/admin/register")
	assert.Equal(t, "register page", rec.Body.String())

	rec = serve(router, http.MethodGet, "/admin/auth/callback")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	// Unknown paths beneath an entry point are exempt and simply not found
	rec = serve(router, http.MethodGet, "/admin/auth/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardWithSession(t *testing.T) {
	router := newTestRouter(t, defaultStore())

	rec := serve(router, http.MethodGet, "/admin", validSession)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "Signed in as alice@example.com")
	assert.Contains(t, rec.Body.String(), "2 published posts")
	assert.Contains(t, rec.Body.String(), `<meta name="robots" content="noindex, nofollow">`)

	// Refreshed credential state reaches the client
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, "session", rec.Result().Cookies()[0].Name)

	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/admin/unknown", validSession).Code)
}

func TestInvalidateCache(t *testing.T) {
	store := defaultStore()
	router := newTestRouter(t, store)

	rec := serve(router, http.MethodPost, "/admin/cache/invalidate")
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, 0, store.invalidated)

	rec = serve(router, http.MethodPost, "/admin/cache/invalidate", validSession)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
	assert.Equal(t, 1, store.invalidated)
}

func TestLogoutWithSession(t *testing.T) {
	rec := serve(newTestRouter(t, defaultStore()), http.MethodPost, "/admin/logout", validSession)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}
