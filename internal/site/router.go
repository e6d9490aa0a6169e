// internal/site/router.go
package site

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"portfolio/internal/auth"
	"portfolio/internal/auth/manager"
	"portfolio/internal/content"
	"portfolio/internal/observability"
	"portfolio/internal/observability/logging"
	"portfolio/internal/seo"

	"github.com/gorilla/mux"
)

const latestPosts = 3

// staticPages are listed in the sitemap
var staticPages = []string{"/", "/about", "/experience", "/blog"}

// Invalidator is implemented by stores that cache content
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Config holds router configuration
type Config struct {
	// SiteName is shown in the layout and page titles
	SiteName string

	// AdminRoot is the path prefix of the protected area
	AdminRoot string

	// SEO builds page metadata, the sitemap and robots.txt
	SEO *seo.Builder

	// Store serves blog posts
	Store content.Store

	// Auth guards the admin area and serves its entry points
	Auth *manager.Manager
}

// Router serves the public pages and the gated admin area
type Router struct {
	*mux.Router
	config   Config
	admin    *mux.Router
	pages    *renderer
	logger   *logging.Logger
	robots   string
	rootPath string
}

// New creates a new router
func New(config Config, logger *logging.Logger) (*Router, error) {
	pages, err := newRenderer()
	if err != nil {
		return nil, err
	}

	root := strings.TrimSuffix(config.AdminRoot, "/")
	r := &Router{
		Router:   mux.NewRouter(),
		config:   config,
		admin:    mux.NewRouter(),
		pages:    pages,
		logger:   logger.WithModule("site.router"),
		robots:   config.SEO.Robots(root),
		rootPath: root,
	}

	r.setupRoutes()
	r.setupAdminRoutes()

	return r, nil
}

// setupRoutes configures the public routes
func (r *Router) setupRoutes() {
	r.Use(routeLabel)

	r.Path("/").Methods(http.MethodGet, http.MethodHead).HandlerFunc(r.home)
	r.Path("/about").Methods(http.MethodGet, http.MethodHead).HandlerFunc(r.static("about", "About"))
	r.Path("/experience").Methods(http.MethodGet, http.MethodHead).HandlerFunc(r.static("experience", "Experience"))
	r.Path("/blog").Methods(http.MethodGet, http.MethodHead).HandlerFunc(r.blog)
	r.Path("/blog/{slug}").Methods(http.MethodGet, http.MethodHead).HandlerFunc(r.post)
	r.Path("/sitemap.xml").Methods(http.MethodGet, http.MethodHead).HandlerFunc(r.sitemap)
	r.Path("/robots.txt").Methods(http.MethodGet, http.MethodHead).HandlerFunc(r.robotsTxt)
	r.Path("/healthz").Methods(http.MethodGet).HandlerFunc(healthz)

	// Everything at or beneath the admin root goes through the gate,
	// including paths the admin router does not know
	gated := r.config.Auth.Middleware(r.admin)
	r.Path(r.rootPath).Handler(gated)
	r.PathPrefix(r.rootPath + "/").Handler(gated)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.logger.Debug("Request received for undefined route", "path", req.URL.Path)
		r.renderError(w, req, http.StatusNotFound, "The page you are looking for does not exist.")
	})
}

// setupAdminRoutes configures the routes behind the gate
func (r *Router) setupAdminRoutes() {
	entry := r.config.Auth.EntryPoints()
	paths := r.config.Auth.Paths()

	r.admin.Use(routeLabel)

	r.admin.Path(r.rootPath).Methods(http.MethodGet).HandlerFunc(r.dashboard)
	r.admin.Path(paths.Login).Methods(http.MethodGet).HandlerFunc(entry.Login)
	r.admin.Path(paths.Register).Methods(http.MethodGet).HandlerFunc(entry.Register)
	r.admin.Path(paths.Callback).Methods(http.MethodGet).HandlerFunc(entry.Callback)
	r.admin.Path(paths.Logout).Methods(http.MethodGet, http.MethodPost).HandlerFunc(entry.Logout)
	r.admin.Path(r.rootPath + "/cache/invalidate").Methods(http.MethodPost).HandlerFunc(r.invalidate)

	r.admin.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.renderError(w, req, http.StatusNotFound, "The page you are looking for does not exist.")
	})
	r.admin.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})
}

// routeLabel reports the matched route template to the request metrics
func routeLabel(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if route := mux.CurrentRoute(req); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				observability.SetRoute(req.Context(), tpl)
			}
		}
		next.ServeHTTP(w, req)
	})
}

func (r *Router) home(w http.ResponseWriter, req *http.Request) {
	data := r.data(r.config.SEO.Page("", "/", ""))

	// A content outage must not take the home page down
	posts, err := r.config.Store.ListPosts(req.Context())
	if err != nil {
		logging.FromContext(req.Context(), r.logger).Warn("Failed to list posts for home page", logging.Err(err))
	}
	if len(posts) > latestPosts {
		posts = posts[:latestPosts]
	}
	data.Posts = posts

	r.render(w, req, http.StatusOK, "home", data)
}

func (r *Router) static(page, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		r.render(w, req, http.StatusOK, page, r.data(r.config.SEO.Page(title, req.URL.Path, "")))
	}
}

func (r *Router) blog(w http.ResponseWriter, req *http.Request) {
	posts, err := r.config.Store.ListPosts(req.Context())
	if err != nil {
		r.contentError(w, req, err)
		return
	}

	data := r.data(r.config.SEO.Page("Blog", "/blog", ""))
	data.Posts = posts
	r.render(w, req, http.StatusOK, "blog", data)
}

func (r *Router) post(w http.ResponseWriter, req *http.Request) {
	post, err := r.config.Store.GetPost(req.Context(), mux.Vars(req)["slug"])
	if err != nil {
		r.contentError(w, req, err)
		return
	}

	data := r.data(r.config.SEO.Post(*post))
	data.Post = post
	// Post bodies are authored HTML from the site's own CMS
	data.Body = template.HTML(post.Body)
	r.render(w, req, http.StatusOK, "post", data)
}

func (r *Router) sitemap(w http.ResponseWriter, req *http.Request) {
	posts, err := r.config.Store.ListPosts(req.Context())
	if err != nil {
		r.contentError(w, req, err)
		return
	}

	body, err := r.config.SEO.Sitemap(staticPages, posts)
	if err != nil {
		logging.FromContext(req.Context(), r.logger).Error("Failed to build sitemap", logging.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(body)
}

func (r *Router) robotsTxt(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(r.robots))
}

func healthz(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (r *Router) dashboard(w http.ResponseWriter, req *http.Request) {
	data := r.data(r.config.SEO.Private("Dashboard"))
	data.Identity = auth.IdentityFromContext(req.Context())

	posts, err := r.config.Store.ListPosts(req.Context())
	if err != nil {
		logging.FromContext(req.Context(), r.logger).Warn("Failed to list posts for dashboard", logging.Err(err))
	}
	data.Posts = posts

	w.Header().Set("Cache-Control", "no-store")
	r.render(w, req, http.StatusOK, "dashboard", data)
}

func (r *Router) invalidate(w http.ResponseWriter, req *http.Request) {
	logger := logging.FromContext(req.Context(), r.logger)

	if invalidator, ok := r.config.Store.(Invalidator); ok {
		if err := invalidator.Invalidate(req.Context()); err != nil {
			logger.Error("Failed to invalidate content cache", logging.Err(err))
			r.renderError(w, req, http.StatusBadGateway, "The content cache could not be refreshed.")
			return
		}
		subject := ""
		if identity := auth.IdentityFromContext(req.Context()); identity != nil {
			subject = identity.Subject
		}
		logger.Info("Content cache invalidated", "subject", subject)
	}

	http.Redirect(w, req, r.rootPath, http.StatusSeeOther)
}

// contentError maps a store failure to 404 or 502
func (r *Router) contentError(w http.ResponseWriter, req *http.Request, err error) {
	if errors.Is(err, content.ErrNotFound) {
		r.renderError(w, req, http.StatusNotFound, "The page you are looking for does not exist.")
		return
	}

	logging.FromContext(req.Context(), r.logger).Error("Content store request failed", logging.Err(err))
	r.renderError(w, req, http.StatusBadGateway, "Content is temporarily unavailable.")
}

func (r *Router) renderError(w http.ResponseWriter, req *http.Request, status int, message string) {
	data := r.data(r.config.SEO.Private(http.StatusText(status)))
	data.Status = status
	data.Message = message
	r.render(w, req, status, "error", data)
}

func (r *Router) render(w http.ResponseWriter, req *http.Request, status int, page string, data pageData) {
	if err := r.pages.render(w, status, page, data); err != nil {
		logging.FromContext(req.Context(), r.logger).Error("Failed to render page", "page", page, logging.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (r *Router) data(meta seo.Metadata) pageData {
	return pageData{
		Meta:       meta,
		SiteName:   r.config.SiteName,
		AdminRoot:  r.rootPath,
		LogoutPath: r.config.Auth.Paths().Logout,
	}
}
