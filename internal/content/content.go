// Package content reads blog posts from a headless CMS.
package content

import (
	"context"
	"errors"
	"regexp"
	"time"
)

// ErrNotFound is returned when a post does not exist
var ErrNotFound = errors.New("post not found")

// Post is a published blog post
type Post struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	Body        string    `json:"body"`
	Tags        []string  `json:"tags,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// LastModified returns the most recent of the publish and update times
func (p Post) LastModified() time.Time {
	if p.UpdatedAt.After(p.PublishedAt) {
		return p.UpdatedAt
	}
	return p.PublishedAt
}

// Store reads posts
type Store interface {
	// ListPosts returns all published posts, newest first
	ListPosts(ctx context.Context) ([]Post, error)

	// GetPost returns the post with the given slug, or ErrNotFound
	GetPost(ctx context.Context, slug string) (*Post, error)
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidSlug reports whether slug can name a post
func ValidSlug(slug string) bool {
	return len(slug) <= 200 && slugPattern.MatchString(slug)
}
