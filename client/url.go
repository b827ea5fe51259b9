package client

import (
	"net/url"
	"strings"
)

// ResolveTarget resolves a per-call target against the session base URL.
// An absolute target overrides the base entirely. A relative target is joined
// to the base with exactly one "/" at the join point. The result must parse
// as an absolute http(s) URL.
func ResolveTarget(base, target string) (*url.URL, error) {
	full := target
	if !isAbsoluteURL(target) {
		if base == "" {
			return nil, &URLError{Target: target}
		}
		full = joinURL(base, target)
	}

	u, err := url.Parse(full)
	if err != nil {
		return nil, &URLError{Target: full, Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &URLError{Target: full}
	}
	return u, nil
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// joinURL concatenates base and path, collapsing doubled slashes at the join
// point only.
func joinURL(base, path string) string {
	if path == "" {
		return base
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}

// appendQuery appends the given pairs to the URL's raw query in order,
// after any query already present on the target. Duplicate keys are kept.
func appendQuery(u *url.URL, pairs []Param) {
	if len(pairs) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(u.RawQuery)
	for _, p := range pairs {
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	u.RawQuery = sb.String()
}

// validHeaderValue reports whether the value is free of bytes illegal in
// HTTP header syntax (control characters other than horizontal tab).
func validHeaderValue(value string) bool {
	for i := 0; i < len(value); i++ {
		c := value[i]
		if (c < 0x20 && c != '\t') || c == 0x7f {
			return false
		}
	}
	return true
}
