package client

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Cookie represents a single stored HTTP cookie.
type Cookie struct {
	Name     string
	Value    string
	Domain   string    // lower-cased, leading dot stripped
	Path     string    // always starts with "/"
	Expires  time.Time // zero = session cookie
	Secure   bool
	HostOnly bool   // no Domain attribute on the wire: exact host match only
	HttpOnly bool   // stored, not enforced
	SameSite string // stored, not enforced
	Raw      string // original Set-Cookie header
}

// String returns the cookie in "name=value" form for the Cookie header.
func (c *Cookie) String() string {
	return c.Name + "=" + c.Value
}

// IsExpired reports whether the cookie's expiry has elapsed at the given time.
// Session cookies (zero Expires) never expire.
func (c *Cookie) IsExpired(now time.Time) bool {
	return !c.Expires.IsZero() && !now.Before(c.Expires)
}

// Matches reports whether this cookie should be sent for the given URL.
func (c *Cookie) Matches(u *url.URL) bool {
	if c.Secure && u.Scheme != "https" {
		return false
	}
	if !c.matchesDomain(strings.ToLower(u.Hostname())) {
		return false
	}
	return c.matchesPath(u.Path)
}

func (c *Cookie) matchesDomain(host string) bool {
	if host == c.Domain {
		return true
	}
	if c.HostOnly {
		return false
	}
	return strings.HasSuffix(host, "."+c.Domain)
}

func (c *Cookie) matchesPath(path string) bool {
	if path == "" {
		path = "/"
	}
	if c.Path == "/" || path == c.Path {
		return true
	}
	return strings.HasPrefix(path, c.Path+"/")
}

// ParseSetCookie parses one Set-Cookie header value received from requestURL.
// A cookie that fails to parse, or that tries to set a domain outside the
// responding host, is rejected with an error so callers can skip it without
// failing the rest of the batch.
func ParseSetCookie(raw string, requestURL *url.URL) (*Cookie, error) {
	host := strings.ToLower(requestURL.Hostname())
	if host == "" {
		return nil, fmt.Errorf("set-cookie: request URL has no host")
	}

	cookie := &Cookie{
		Raw:      raw,
		Domain:   host,
		HostOnly: true,
	}

	parts := strings.Split(raw, ";")

	nameValue := strings.TrimSpace(parts[0])
	eq := strings.Index(nameValue, "=")
	if eq == -1 {
		return nil, fmt.Errorf("set-cookie: missing name=value in %q", nameValue)
	}
	cookie.Name = strings.TrimSpace(nameValue[:eq])
	cookie.Value = strings.TrimSpace(nameValue[eq+1:])
	if cookie.Name == "" {
		return nil, fmt.Errorf("set-cookie: empty cookie name in %q", nameValue)
	}

	var expires time.Time
	var maxAge *int

	for _, attr := range parts[1:] {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			continue
		}

		var name, value string
		if i := strings.Index(attr, "="); i != -1 {
			name = strings.ToLower(strings.TrimSpace(attr[:i]))
			value = strings.TrimSpace(attr[i+1:])
		} else {
			name = strings.ToLower(attr)
		}

		switch name {
		case "domain":
			domain := strings.ToLower(strings.TrimPrefix(value, "."))
			if domain == "" {
				continue
			}
			if host != domain && !strings.HasSuffix(host, "."+domain) {
				return nil, fmt.Errorf("set-cookie: domain %q does not cover host %q", domain, host)
			}
			cookie.Domain = domain
			cookie.HostOnly = false
		case "path":
			if strings.HasPrefix(value, "/") {
				cookie.Path = value
			}
		case "expires":
			if t, err := parseExpires(value); err == nil {
				expires = t
			}
		case "max-age":
			if n, err := strconv.Atoi(value); err == nil {
				maxAge = &n
			}
		case "secure":
			cookie.Secure = true
		case "httponly":
			cookie.HttpOnly = true
		case "samesite":
			cookie.SameSite = value
		}
	}

	// Max-Age takes precedence over Expires when both are present.
	// Max-Age <= 0 means expire immediately: the jar deletes the key.
	if maxAge != nil {
		if *maxAge <= 0 {
			cookie.Expires = time.Now().Add(-time.Second)
		} else {
			cookie.Expires = time.Now().Add(time.Duration(*maxAge) * time.Second)
		}
	} else {
		cookie.Expires = expires
	}

	if cookie.Path == "" {
		cookie.Path = defaultCookiePath(requestURL.Path)
	}

	return cookie, nil
}

// defaultCookiePath derives the default cookie path from the request path:
// the request path truncated to its directory ("/a/b/c" -> "/a/b", root -> "/").
func defaultCookiePath(requestPath string) string {
	if !strings.HasPrefix(requestPath, "/") {
		return "/"
	}
	i := strings.LastIndex(requestPath, "/")
	if i <= 0 {
		return "/"
	}
	return requestPath[:i]
}

// parseExpires parses the date formats servers actually emit in Expires.
func parseExpires(s string) (time.Time, error) {
	formats := []string{
		time.RFC1123,
		time.RFC1123Z,
		"Mon, 02-Jan-2006 15:04:05 MST",
		"Mon, 02 Jan 2006 15:04:05 MST",
		"Monday, 02-Jan-06 15:04:05 MST",
		"Mon Jan 2 15:04:05 2006",
	}

	s = strings.TrimSpace(s)
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse expires date: %q", s)
}
