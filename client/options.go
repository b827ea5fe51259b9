// Package client session configuration.
//
// Sessions use the functional options pattern. All options have sensible
// defaults, so a session needs nothing beyond a base URL:
//
//	s, _ := client.NewSession("https://api.example.com")
//
// Or customized:
//
//	s, _ := client.NewSession("https://api.example.com",
//	    client.WithHeader("User-Agent", "seshttp/1.0"),
//	    client.WithTimeout(60*time.Second),
//	    client.WithoutCookies(),
//	)
package client

import (
	"log/slog"
	"time"
)

// Defaults holds the session-level request defaults merged into every
// outgoing request at the lowest precedence.
type Defaults struct {
	// Headers are default request headers, compared case-insensitively
	// against per-call overrides.
	Headers map[string]string

	// Query pairs are emitted before any per-call pairs, in the order given.
	Query []Param

	// ContentType is applied when neither the request nor its body helper
	// set one.
	ContentType string
}

// Config holds all configuration options for a Session.
type Config struct {
	Defaults Defaults

	// PersistCookies controls whether Set-Cookie responses are kept in the
	// jar. When false, responses are still parsed for API completeness but
	// the jar stays empty. Default: true.
	PersistCookies bool

	// FollowRedirects controls whether the session follows 3xx responses,
	// re-reading the jar at every hop. Default: true.
	FollowRedirects bool

	// MaxRedirects caps the redirect hop count. Default: 10.
	MaxRedirects int

	// Timeout is the default per-request timeout handed to the Transport.
	// Default: 30 seconds.
	Timeout time.Duration

	// Transport performs the actual I/O. Default: NewHTTPTransport().
	Transport Transport

	// Auth is applied to every request unless overridden per call.
	Auth Auth

	// Logger receives debug events (skipped cookies, redirect hops).
	// Nil disables logging.
	Logger *slog.Logger
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() *Config {
	return &Config{
		PersistCookies:  true,
		FollowRedirects: true,
		MaxRedirects:    10,
		Timeout:         30 * time.Second,
	}
}

// Option is a function that modifies a Config.
type Option func(*Config)

// WithHeader adds one default header.
func WithHeader(name, value string) Option {
	return func(c *Config) {
		if c.Defaults.Headers == nil {
			c.Defaults.Headers = make(map[string]string)
		}
		c.Defaults.Headers[name] = value
	}
}

// WithHeaders sets the default headers.
func WithHeaders(headers map[string]string) Option {
	return func(c *Config) {
		c.Defaults.Headers = make(map[string]string, len(headers))
		for name, value := range headers {
			c.Defaults.Headers[name] = value
		}
	}
}

// WithQuery sets the default query pairs, preserving their order.
func WithQuery(pairs ...Param) Option {
	return func(c *Config) {
		c.Defaults.Query = append([]Param(nil), pairs...)
	}
}

// WithContentType sets the default content type applied when a request does
// not pick its own.
func WithContentType(contentType string) Option {
	return func(c *Config) {
		c.Defaults.ContentType = contentType
	}
}

// WithoutCookies disables cookie persistence. Set-Cookie headers are still
// parsed but immediately discarded, which is useful for stateless probing.
func WithoutCookies() Option {
	return func(c *Config) {
		c.PersistCookies = false
	}
}

// WithTimeout sets the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithTransport sets the Transport collaborator that performs the I/O.
func WithTransport(t Transport) Option {
	return func(c *Config) {
		c.Transport = t
	}
}

// WithRedirects enables redirect following with the given hop cap.
func WithRedirects(maxRedirects int) Option {
	return func(c *Config) {
		c.FollowRedirects = true
		c.MaxRedirects = maxRedirects
	}
}

// WithoutRedirects disables automatic redirect following.
func WithoutRedirects() Option {
	return func(c *Config) {
		c.FollowRedirects = false
	}
}

// WithAuth sets session-level authentication.
func WithAuth(auth Auth) Option {
	return func(c *Config) {
		c.Auth = auth
	}
}

// WithLogger attaches a logger for debug events.
func WithLogger(log *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}
