package client

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

// Param is a single query key/value pair. Pairs are kept in caller order and
// never deduplicated, because some servers read parameters positionally.
type Param struct {
	Key   string
	Value string
}

// Request describes one call made through a Session. Session defaults fill in
// everything a Request leaves unset.
type Request struct {
	Method string
	// Path is the request target: a path resolved against the session base
	// URL, or an absolute URL that overrides the base entirely.
	Path string

	// Headers override session defaults by case-insensitive name. An empty
	// value removes the default header from the outgoing request.
	Headers map[string]string

	// Query pairs are appended after the session's default pairs.
	Query []Param

	Body        []byte
	ContentType string

	// Auth overrides session-level authentication for this request.
	Auth Auth

	// PersistCookies overrides the session's cookie persistence for this
	// request's response (nil = use the session setting).
	PersistCookies *bool

	// FollowRedirects overrides the session redirect policy (nil = session
	// setting). MaxRedirects caps the hop count when following (0 = session
	// setting).
	FollowRedirects *bool
	MaxRedirects    int

	Timeout time.Duration
}

// SetJSON serializes v as the request body, defaulting the content type to
// application/json when none is set.
func (r *Request) SetJSON(v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.Body = body
	if r.ContentType == "" {
		r.ContentType = "application/json"
	}
	return nil
}

// SetText sets raw text as the request body, defaulting the content type to
// text/plain when none is set.
func (r *Request) SetText(text string) {
	r.Body = []byte(text)
	if r.ContentType == "" {
		r.ContentType = "text/plain"
	}
}

// SetBytes sets raw bytes as the request body. The content type is left
// unchanged.
func (r *Request) SetBytes(body []byte) {
	r.Body = body
}

// SetForm encodes the multipart form as the request body and sets the
// boundary content type.
func (r *Request) SetForm(form *FormData) error {
	body, contentType, err := form.Encode()
	if err != nil {
		return err
	}
	r.Body = body
	r.ContentType = contentType
	return nil
}

// OutgoingRequest is the fully merged request description handed to the
// Transport. It is built fresh per call and not retained.
type OutgoingRequest struct {
	Method       string
	URL          *url.URL
	Headers      map[string]string
	Query        []Param // merged pairs, already encoded into URL
	CookieHeader string  // empty = no Cookie header
	Body         []byte
	Timeout      time.Duration
}

// buildOutgoing merges session defaults, the cookie jar, and per-call
// overrides into one outgoing request. It performs no I/O and fails fast on
// an unresolvable URL or an illegal header value.
func buildOutgoing(base string, defaults *Defaults, jar *CookieJar, req *Request) (*OutgoingRequest, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	u, err := ResolveTarget(base, req.Path)
	if err != nil {
		return nil, err
	}

	query := make([]Param, 0, len(defaults.Query)+len(req.Query))
	query = append(query, defaults.Query...)
	query = append(query, req.Query...)
	appendQuery(u, query)

	headers := make(map[string]string, len(defaults.Headers)+len(req.Headers))
	for name, value := range defaults.Headers {
		headers[http.CanonicalHeaderKey(name)] = value
	}
	for name, value := range req.Headers {
		canonical := http.CanonicalHeaderKey(name)
		if value == "" {
			// An explicitly empty override is the opt-out mechanism.
			delete(headers, canonical)
			continue
		}
		headers[canonical] = value
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = defaults.ContentType
	}
	if contentType != "" {
		headers["Content-Type"] = contentType
	}

	for name, value := range headers {
		if !validHeaderValue(value) {
			return nil, &HeaderValueError{Name: name, Value: value}
		}
	}

	out := &OutgoingRequest{
		Method:  method,
		URL:     u,
		Headers: headers,
		Query:   query,
		Body:    req.Body,
		Timeout: req.Timeout,
	}

	if jar != nil {
		out.CookieHeader = jar.CookieHeader(u)
	}

	return out, nil
}
