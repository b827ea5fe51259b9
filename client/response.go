package client

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Response represents an HTTP response as seen by the session layer. Header
// names are lower-cased and multi-valued, so repeated Set-Cookie headers
// survive intact.
type Response struct {
	StatusCode int
	Headers    map[string][]string
	Body       []byte
	FinalURL   string
}

// GetHeader returns the first value for the given header name
// (case-insensitive).
func (r *Response) GetHeader(name string) string {
	if values := r.Headers[strings.ToLower(name)]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// GetHeaders returns all values for the given header name (case-insensitive).
func (r *Response) GetHeaders(name string) []string {
	return r.Headers[strings.ToLower(name)]
}

// SetCookies returns the raw Set-Cookie header values, one per occurrence.
func (r *Response) SetCookies() []string {
	return r.Headers["set-cookie"]
}

// Text returns the response body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// JSON decodes the response body as JSON into v.
func (r *Response) JSON(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// Get looks up a JSON path in the response body, e.g. resp.Get("user.name").
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsRedirect returns true if the status code is 3xx.
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// IsClientError returns true if the status code is 4xx.
func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

// IsServerError returns true if the status code is 5xx.
func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500 && r.StatusCode < 600
}
