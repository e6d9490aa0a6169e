package logging

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// RedactedURL wraps a url.URL for logging without exposing sensitive information
type RedactedURL struct {
	url *url.URL
}

// LogValue implements slog.LogValuer to avoid revealing passwords
func (u RedactedURL) LogValue() slog.Value {
	if u.url == nil {
		return slog.StringValue("")
	}
	return slog.StringValue(u.url.Redacted())
}

// RedactURL returns a safely loggable URL value
func RedactURL(url *url.URL) RedactedURL {
	return RedactedURL{url: url}
}

// RedactedStringURL is a string containing a URL for safe logging
type RedactedStringURL string

// LogValue implements slog.LogValuer to avoid revealing passwords
func (s RedactedStringURL) LogValue() slog.Value {
	u, err := url.Parse(string(s))
	if err != nil {
		return slog.StringValue(string(s))
	}
	return slog.StringValue(u.Redacted())
}

// RedactStringURL returns a safely loggable URL string, e.g. a redis DSN
func RedactStringURL(s string) slog.LogValuer {
	return RedactedStringURL(s)
}

// CookieNames logs the names of a cookie set, never the values
type CookieNames []*http.Cookie

// LogValue implements slog.LogValuer
func (c CookieNames) LogValue() slog.Value {
	names := make([]string, 0, len(c))
	for _, cookie := range c {
		if cookie != nil {
			names = append(names, cookie.Name)
		}
	}
	return slog.StringValue(strings.Join(names, ","))
}
