// Package seshttp provides a client-side HTTP session layer: cookies,
// default headers, default query parameters, and a base URL carried forward
// transparently across a sequence of requests.
//
// Basic usage:
//
//	s, err := seshttp.New("https://api.example.com",
//	    seshttp.WithHeader("User-Agent", "my-app/1.0"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := s.Get(ctx, "/users/42")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Text())
//
// Cookies set by the server are stored in the session's jar and attached to
// every subsequent matching request automatically. The actual network I/O
// happens behind the Transport interface; the default transport is built on
// net/http.
package seshttp

import "github.com/davrell/seshttp/client"

// Core types, re-exported from the client package.
type (
	Session          = client.Session
	Request          = client.Request
	Response         = client.Response
	Param            = client.Param
	Cookie           = client.Cookie
	CookieJar        = client.CookieJar
	Option           = client.Option
	Transport        = client.Transport
	Auth             = client.Auth
	FormData         = client.FormData
	URLError         = client.URLError
	HeaderValueError = client.HeaderValueError
)

// Session options.
var (
	WithHeader       = client.WithHeader
	WithHeaders      = client.WithHeaders
	WithQuery        = client.WithQuery
	WithContentType  = client.WithContentType
	WithoutCookies   = client.WithoutCookies
	WithTimeout      = client.WithTimeout
	WithTransport    = client.WithTransport
	WithRedirects    = client.WithRedirects
	WithoutRedirects = client.WithoutRedirects
	WithAuth         = client.WithAuth
	WithLogger       = client.WithLogger
)

// Auth constructors.
var (
	NewBasicAuth  = client.NewBasicAuth
	NewBearerAuth = client.NewBearerAuth
	NewDigestAuth = client.NewDigestAuth
)

// New creates a session rooted at baseURL. Pass an empty base URL to require
// absolute targets on every request.
func New(baseURL string, opts ...Option) (*Session, error) {
	return client.NewSession(baseURL, opts...)
}

// NewHTTPTransport creates the default net/http-backed transport, for use
// with WithTransport when retry or backoff tuning is wanted.
var NewHTTPTransport = client.NewHTTPTransport
