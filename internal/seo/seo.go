// Package seo builds page metadata, the sitemap and robots.txt.
package seo

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"portfolio/internal/content"
)

// OpenGraph holds the og: properties of a page
type OpenGraph struct {
	Type          string
	Title         string
	Description   string
	URL           string
	SiteName      string
	PublishedTime string
}

// Metadata is the head metadata of a rendered page
type Metadata struct {
	Title       string
	Description string
	Canonical   string
	OpenGraph   OpenGraph
	NoIndex     bool
}

// Builder derives metadata from the site identity
type Builder struct {
	siteName    string
	description string
	baseURL     *url.URL
}

// NewBuilder creates a metadata builder for the site at baseURL
func NewBuilder(siteName string, baseURL *url.URL, description string) *Builder {
	return &Builder{siteName: siteName, description: description, baseURL: baseURL}
}

// Title formats a page title as "<page> | <site>"
func (b *Builder) Title(page string) string {
	if page == "" || page == b.siteName {
		return b.siteName
	}
	return page + " | " + b.siteName
}

// URL returns the canonical absolute address of a site path
func (b *Builder) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return b.baseURL.ResolveReference(&url.URL{Path: path}).String()
}

// Page returns metadata for a static page
func (b *Builder) Page(title, path, description string) Metadata {
	if description == "" {
		description = b.description
	}
	canonical := b.URL(path)
	return Metadata{
		Title:       b.Title(title),
		Description: description,
		Canonical:   canonical,
		OpenGraph: OpenGraph{
			Type:        "website",
			Title:       b.Title(title),
			Description: description,
			URL:         canonical,
			SiteName:    b.siteName,
		},
	}
}

// Post returns metadata for a blog post
func (b *Builder) Post(post content.Post) Metadata {
	meta := b.Page(post.Title, PostPath(post.Slug), post.Summary)
	meta.OpenGraph.Type = "article"
	if !post.PublishedAt.IsZero() {
		meta.OpenGraph.PublishedTime = post.PublishedAt.UTC().Format(time.RFC3339)
	}
	return meta
}

// Private returns metadata for pages that must stay out of search indexes
func (b *Builder) Private(title string) Metadata {
	return Metadata{Title: b.Title(title), NoIndex: true}
}

// PostPath returns the site path of a post
func PostPath(slug string) string {
	return "/blog/" + url.PathEscape(slug)
}

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Sitemap renders a sitemap listing the static pages and every post
func (b *Builder) Sitemap(pages []string, posts []content.Post) ([]byte, error) {
	set := urlSet{XMLNS: sitemapNamespace}
	for _, page := range pages {
		set.URLs = append(set.URLs, sitemapURL{Loc: b.URL(page)})
	}
	for _, post := range posts {
		entry := sitemapURL{Loc: b.URL(PostPath(post.Slug))}
		if modified := post.LastModified(); !modified.IsZero() {
			entry.LastMod = modified.UTC().Format("2006-01-02")
		}
		set.URLs = append(set.URLs, entry)
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode sitemap: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// Robots renders robots.txt allowing everything except the disallowed prefixes
func (b *Builder) Robots(disallow ...string) string {
	var sb strings.Builder
	sb.WriteString("User-agent: *\n")
	if len(disallow) == 0 {
		sb.WriteString("Allow: /\n")
	}
	for _, prefix := range disallow {
		fmt.Fprintf(&sb, "Disallow: %s\n", prefix)
	}
	fmt.Fprintf(&sb, "\nSitemap: %s\n", b.URL("/sitemap.xml"))
	return sb.String()
}
