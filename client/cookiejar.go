package client

import (
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// jarKey identifies a stored cookie. The jar holds at most one cookie per key.
type jarKey struct {
	domain string
	path   string
	name   string
}

type jarEntry struct {
	cookie *Cookie
	seq    uint64 // ingestion order, breaks path-length ties when emitting
}

// CookieJar stores cookies and provides thread-safe access.
// It is owned by a Session and must not be shared across sessions.
type CookieJar struct {
	mu      sync.RWMutex
	entries map[jarKey]*jarEntry
	nextSeq uint64
	log     *slog.Logger
}

// NewCookieJar creates a new empty cookie jar.
func NewCookieJar() *CookieJar {
	return &CookieJar{
		entries: make(map[jarKey]*jarEntry),
	}
}

// SetLogger attaches a logger used for debug events (skipped cookies etc).
func (j *CookieJar) SetLogger(log *slog.Logger) {
	j.log = log
}

// Ingest parses the given Set-Cookie header values received from u and folds
// them into the jar. Malformed entries are skipped; the rest of the batch is
// still applied. The fully-parsed batch is applied under a single write lock,
// so a concurrent reader sees either none or all of one response's cookies.
func (j *CookieJar) Ingest(u *url.URL, setCookieHeaders []string) {
	if len(setCookieHeaders) == 0 {
		return
	}

	cookies := make([]*Cookie, 0, len(setCookieHeaders))
	for _, raw := range setCookieHeaders {
		cookie, err := ParseSetCookie(raw, u)
		if err != nil {
			if j.log != nil {
				j.log.Debug("skipping unparseable cookie", "url", u.String(), "error", err)
			}
			continue
		}
		cookies = append(cookies, cookie)
	}

	j.SetCookies(cookies)
}

// SetCookies stores the given cookies, overwriting any existing cookie with
// the same (domain, path, name). A cookie that is already expired deletes the
// matching entry instead of being stored.
func (j *CookieJar) SetCookies(cookies []*Cookie) {
	if len(cookies) == 0 {
		return
	}

	now := time.Now()

	j.mu.Lock()
	defer j.mu.Unlock()

	for _, cookie := range cookies {
		if cookie == nil || cookie.Name == "" {
			continue
		}
		key := jarKey{domain: cookie.Domain, path: cookie.Path, name: cookie.Name}
		if cookie.IsExpired(now) {
			delete(j.entries, key)
			continue
		}
		if existing, ok := j.entries[key]; ok {
			// Overwrite in place, keeping the original ingestion order.
			existing.cookie = cookie
			continue
		}
		j.entries[key] = &jarEntry{cookie: cookie, seq: j.nextSeq}
		j.nextSeq++
	}
}

// SetCookie inserts a single host-only session cookie for the given URL.
func (j *CookieJar) SetCookie(u *url.URL, name, value string) {
	j.SetCookies([]*Cookie{{
		Name:     name,
		Value:    value,
		Domain:   strings.ToLower(u.Hostname()),
		Path:     "/",
		HostOnly: true,
	}})
}

// Cookies returns the cookies to send for the given URL, most specific path
// first, ingestion order breaking ties. Expired entries touched by the lookup
// are evicted. The result is empty, never an error, when nothing matches.
func (j *CookieJar) Cookies(u *url.URL) []*Cookie {
	now := time.Now()

	j.mu.Lock()
	defer j.mu.Unlock()

	var matched []*jarEntry
	for key, entry := range j.entries {
		if entry.cookie.IsExpired(now) {
			delete(j.entries, key)
			continue
		}
		if entry.cookie.Matches(u) {
			matched = append(matched, entry)
		}
	}

	sort.Slice(matched, func(a, b int) bool {
		pa, pb := len(matched[a].cookie.Path), len(matched[b].cookie.Path)
		if pa != pb {
			return pa > pb
		}
		return matched[a].seq < matched[b].seq
	})

	result := make([]*Cookie, len(matched))
	for i, entry := range matched {
		result[i] = entry.cookie
	}
	return result
}

// CookieHeader returns the Cookie header value for the given URL, or the
// empty string when no cookie matches.
func (j *CookieJar) CookieHeader(u *url.URL) string {
	cookies := j.Cookies(u)
	if len(cookies) == 0 {
		return ""
	}

	parts := make([]string, len(cookies))
	for i, c := range cookies {
		parts[i] = c.String()
	}
	return strings.Join(parts, "; ")
}

// Clear removes all cookies from the jar.
func (j *CookieJar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = make(map[jarKey]*jarEntry)
}

// ClearExpired removes all expired cookies.
func (j *CookieJar) ClearExpired() {
	now := time.Now()

	j.mu.Lock()
	defer j.mu.Unlock()

	for key, entry := range j.entries {
		if entry.cookie.IsExpired(now) {
			delete(j.entries, key)
		}
	}
}

// Count returns the number of cookies in the jar, expired entries included.
func (j *CookieJar) Count() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

// Export returns a snapshot of all live cookies in ingestion order.
func (j *CookieJar) Export() []Cookie {
	now := time.Now()

	j.mu.RLock()
	defer j.mu.RUnlock()

	entries := make([]*jarEntry, 0, len(j.entries))
	for _, entry := range j.entries {
		if !entry.cookie.IsExpired(now) {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].seq < entries[b].seq })

	result := make([]Cookie, len(entries))
	for i, entry := range entries {
		result[i] = *entry.cookie
	}
	return result
}

// Import adds the given cookies to the jar, overwriting matching keys.
func (j *CookieJar) Import(cookies []Cookie) {
	ptrs := make([]*Cookie, len(cookies))
	for i := range cookies {
		c := cookies[i]
		ptrs[i] = &c
	}
	j.SetCookies(ptrs)
}
