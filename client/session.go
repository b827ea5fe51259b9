// Package client implements a stateful HTTP session layer: a cookie jar,
// session-level request defaults, and a request builder that merges both
// with per-call overrides before handing the result to a Transport.
//
// The session carries state forward across otherwise-independent requests
// the way a browser does:
//
//	s, _ := client.NewSession("https://example.com")
//
//	// Login - cookies are persisted
//	s.PostJSON(ctx, "/login", creds)
//
//	// Subsequent requests include the session cookie
//	resp, _ := s.Get(ctx, "/dashboard")
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
)

// Session bundles request defaults and a cookie jar across the lifetime of
// one logical client session. All network I/O is delegated to the Transport
// collaborator; transport errors are propagated to the caller unchanged and
// never retried here.
type Session struct {
	mu       sync.Mutex
	baseURL  string
	defaults Defaults

	jar       *CookieJar
	transport Transport
	config    *Config
	auth      Auth
	log       *slog.Logger
}

// NewSession creates a session rooted at the given base URL. An empty base
// URL is allowed; every request must then use an absolute target.
func NewSession(baseURL string, opts ...Option) (*Session, error) {
	if baseURL != "" {
		if _, err := ResolveTarget(baseURL, ""); err != nil {
			return nil, err
		}
	}

	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	transport := config.Transport
	if transport == nil {
		transport = NewHTTPTransport()
	}

	jar := NewCookieJar()
	jar.SetLogger(config.Logger)

	defaults := config.Defaults
	if defaults.Headers == nil {
		defaults.Headers = make(map[string]string)
	}

	return &Session{
		baseURL:   baseURL,
		defaults:  defaults,
		jar:       jar,
		transport: transport,
		config:    config,
		auth:      config.Auth,
		log:       config.Logger,
	}, nil
}

// Do builds, sends, and post-processes one request. URL and header
// validation errors are reported before any network call; transport errors
// come back unchanged.
func (s *Session) Do(ctx context.Context, req *Request) (*Response, error) {
	out, err := s.build(req)
	if err != nil {
		return nil, err
	}

	auth := req.Auth
	if auth == nil {
		auth = s.auth
	}
	if auth != nil {
		if err := auth.Apply(out); err != nil {
			return nil, err
		}
	}

	persist := s.config.PersistCookies
	if req.PersistCookies != nil {
		persist = *req.PersistCookies
	}

	follow := s.config.FollowRedirects
	if req.FollowRedirects != nil {
		follow = *req.FollowRedirects
	}
	maxRedirects := s.config.MaxRedirects
	if req.MaxRedirects > 0 {
		maxRedirects = req.MaxRedirects
	}

	challenged := false
	redirects := 0

	for {
		resp, err := s.transport.Send(ctx, out)
		if err != nil {
			return nil, err
		}

		s.absorbCookies(out, resp, persist)

		// Digest-style 401 challenge: resend once with credentials.
		if resp.StatusCode == http.StatusUnauthorized && auth != nil && !challenged {
			retry, err := auth.HandleChallenge(resp, out)
			if err != nil {
				return nil, err
			}
			if retry {
				challenged = true
				if err := auth.Apply(out); err != nil {
					return nil, err
				}
				continue
			}
		}

		if follow && isRedirect(resp.StatusCode) {
			location := resp.GetHeader("Location")
			if location == "" {
				return nil, fmt.Errorf("redirect response missing Location header")
			}
			if redirects >= maxRedirects {
				return nil, fmt.Errorf("too many redirects (max %d)", maxRedirects)
			}
			redirects++

			next, err := s.redirectedRequest(out, resp.StatusCode, location)
			if err != nil {
				return nil, err
			}
			if s.log != nil {
				s.log.Debug("following redirect", "status", resp.StatusCode, "location", next.URL.String())
			}
			out = next
			continue
		}

		return resp, nil
	}
}

// build snapshots the session defaults under the lock and merges them with
// the per-call request. The jar is read through its own lock, so no lock is
// held across the transport call.
func (s *Session) build(req *Request) (*OutgoingRequest, error) {
	s.mu.Lock()
	base := s.baseURL
	defaults := Defaults{
		Headers:     make(map[string]string, len(s.defaults.Headers)),
		Query:       append([]Param(nil), s.defaults.Query...),
		ContentType: s.defaults.ContentType,
	}
	for name, value := range s.defaults.Headers {
		defaults.Headers[name] = value
	}
	s.mu.Unlock()

	out, err := buildOutgoing(base, &defaults, s.jar, req)
	if err != nil {
		return nil, err
	}
	if out.Timeout == 0 {
		out.Timeout = s.config.Timeout
	}
	return out, nil
}

// absorbCookies folds a response's Set-Cookie headers into the jar. When
// persistence is off the headers are still parsed, then discarded.
func (s *Session) absorbCookies(out *OutgoingRequest, resp *Response, persist bool) {
	setCookies := resp.SetCookies()
	if len(setCookies) == 0 {
		return
	}
	if !persist {
		for _, raw := range setCookies {
			if _, err := ParseSetCookie(raw, out.URL); err != nil && s.log != nil {
				s.log.Debug("skipping unparseable cookie", "url", out.URL.String(), "error", err)
			}
		}
		return
	}
	s.jar.Ingest(out.URL, setCookies)
}

// redirectedRequest builds the outgoing request for a redirect hop: the jar
// is re-read for the new target, 303 (and POST across 301/302) switches to
// GET, and only 307/308 carry the body forward.
func (s *Session) redirectedRequest(prev *OutgoingRequest, status int, location string) (*OutgoingRequest, error) {
	target, err := prev.URL.Parse(location)
	if err != nil {
		return nil, &URLError{Target: location, Err: err}
	}

	method := prev.Method
	keepBody := status == http.StatusTemporaryRedirect || status == http.StatusPermanentRedirect
	if status == http.StatusSeeOther ||
		((status == http.StatusMovedPermanently || status == http.StatusFound) && method == http.MethodPost) {
		method = http.MethodGet
		keepBody = false
	}

	headers := make(map[string]string, len(prev.Headers))
	for name, value := range prev.Headers {
		headers[name] = value
	}
	var body []byte
	if keepBody {
		body = prev.Body
	} else {
		delete(headers, "Content-Type")
	}

	next := &OutgoingRequest{
		Method:  method,
		URL:     target,
		Headers: headers,
		Body:    body,
		Timeout: prev.Timeout,
	}
	next.CookieHeader = s.jar.CookieHeader(target)
	return next, nil
}

func isRedirect(statusCode int) bool {
	switch statusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// Get performs a GET request against the given target.
func (s *Session) Get(ctx context.Context, path string) (*Response, error) {
	return s.Do(ctx, &Request{Method: http.MethodGet, Path: path})
}

// Head performs a HEAD request.
func (s *Session) Head(ctx context.Context, path string) (*Response, error) {
	return s.Do(ctx, &Request{Method: http.MethodHead, Path: path})
}

// Delete performs a DELETE request.
func (s *Session) Delete(ctx context.Context, path string) (*Response, error) {
	return s.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// Post performs a POST request with a raw body.
func (s *Session) Post(ctx context.Context, path string, body []byte) (*Response, error) {
	return s.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// PostJSON performs a POST request with v serialized as JSON.
func (s *Session) PostJSON(ctx context.Context, path string, v interface{}) (*Response, error) {
	req := &Request{Method: http.MethodPost, Path: path}
	if err := req.SetJSON(v); err != nil {
		return nil, err
	}
	return s.Do(ctx, req)
}

// Put performs a PUT request with a raw body.
func (s *Session) Put(ctx context.Context, path string, body []byte) (*Response, error) {
	return s.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request with a raw body.
func (s *Session) Patch(ctx context.Context, path string, body []byte) (*Response, error) {
	return s.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// SetDefaultHeader sets a default header, effective from the next request.
func (s *Session) SetDefaultHeader(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults.Headers[name] = value
}

// ClearDefaultHeader removes a default header, effective from the next
// request.
func (s *Session) ClearDefaultHeader(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	canonical := http.CanonicalHeaderKey(name)
	for existing := range s.defaults.Headers {
		if http.CanonicalHeaderKey(existing) == canonical {
			delete(s.defaults.Headers, existing)
		}
	}
}

// SetDefaultQuery replaces the default query pairs, effective from the next
// request.
func (s *Session) SetDefaultQuery(pairs []Param) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults.Query = append([]Param(nil), pairs...)
}

// SetBaseURL changes the base URL for subsequent requests.
func (s *Session) SetBaseURL(baseURL string) error {
	if baseURL != "" {
		if _, err := ResolveTarget(baseURL, ""); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseURL = baseURL
	return nil
}

// SetAuth sets session-level authentication.
func (s *Session) SetAuth(auth Auth) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = auth
}

// AddCookie inserts a cookie scoped to the given target (resolved against
// the base URL) to be sent on all future matching requests.
func (s *Session) AddCookie(target, name, value string) error {
	s.mu.Lock()
	base := s.baseURL
	s.mu.Unlock()

	u, err := ResolveTarget(base, target)
	if err != nil {
		return err
	}
	s.jar.SetCookie(u, name, value)
	return nil
}

// ClearCookies empties the cookie jar.
func (s *Session) ClearCookies() {
	s.jar.Clear()
}

// Cookies returns the session's cookie jar.
func (s *Session) Cookies() *CookieJar {
	return s.jar
}

// BaseURL returns the current base URL.
func (s *Session) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseURL
}

// DefaultHeaders returns a copy of the current default headers.
func (s *Session) DefaultHeaders() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	headers := make(map[string]string, len(s.defaults.Headers))
	for name, value := range s.defaults.Headers {
		headers[name] = value
	}
	return headers
}

// DefaultQuery returns a copy of the current default query pairs.
func (s *Session) DefaultQuery() []Param {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Param(nil), s.defaults.Query...)
}
