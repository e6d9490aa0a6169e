// internal/site/render.go
package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"portfolio/internal/auth"
	"portfolio/internal/content"
	"portfolio/internal/seo"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"home", "about", "experience", "blog", "post", "dashboard", "error"}

// pageData is the value every page template renders
type pageData struct {
	Meta       seo.Metadata
	SiteName   string
	Year       int
	Posts      []content.Post
	Post       *content.Post
	Body       template.HTML
	Identity   *auth.Identity
	AdminRoot  string
	LogoutPath string
	Status     int
	Message    string
}

// renderer executes the layout with one page template
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	funcs := template.FuncMap{"postPath": seo.PostPath}

	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		page, err := template.Must(layout.Clone()).ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", name, err)
		}
		pages[name] = page
	}
	return &renderer{pages: pages}, nil
}

// render writes page with status; nothing is written when execution fails
func (r *renderer) render(w http.ResponseWriter, status int, page string, data pageData) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render page %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}
