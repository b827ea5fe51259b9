package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/davrell/seshttp/client"
)

// StateVersion is bumped whenever the on-disk format changes.
const StateVersion = 1

// State is a serializable snapshot of one client session: its defaults and
// its cookie jar.
type State struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BaseURL        string            `json:"base_url,omitempty"`
	DefaultHeaders map[string]string `json:"default_headers,omitempty"`
	DefaultQuery   []QueryPair       `json:"default_query,omitempty"`

	Cookies []CookieState `json:"cookies"`
}

// QueryPair mirrors client.Param with JSON tags.
type QueryPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CookieState is a serializable cookie.
type CookieState struct {
	Name     string     `json:"name"`
	Value    string     `json:"value"`
	Domain   string     `json:"domain"`
	Path     string     `json:"path"`
	Expires  *time.Time `json:"expires,omitempty"`
	Secure   bool       `json:"secure,omitempty"`
	HostOnly bool       `json:"host_only,omitempty"`
	HttpOnly bool       `json:"http_only,omitempty"`
	SameSite string     `json:"same_site,omitempty"`
}

// Snapshot captures the session's current state. Session-only cookies are
// included; they survive persistence deliberately, matching what a browser
// session restore does.
func Snapshot(s *client.Session) *State {
	now := time.Now()
	state := &State{
		Version:        StateVersion,
		CreatedAt:      now,
		UpdatedAt:      now,
		BaseURL:        s.BaseURL(),
		DefaultHeaders: s.DefaultHeaders(),
	}

	for _, p := range s.DefaultQuery() {
		state.DefaultQuery = append(state.DefaultQuery, QueryPair{Key: p.Key, Value: p.Value})
	}

	for _, c := range s.Cookies().Export() {
		cs := CookieState{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HostOnly: c.HostOnly,
			HttpOnly: c.HttpOnly,
			SameSite: c.SameSite,
		}
		if !c.Expires.IsZero() {
			expires := c.Expires
			cs.Expires = &expires
		}
		state.Cookies = append(state.Cookies, cs)
	}

	return state
}

// Restore builds a new session from a snapshot. Extra options are applied on
// top of the restored defaults.
func Restore(state *State, opts ...client.Option) (*client.Session, error) {
	if state.Version != StateVersion {
		return nil, fmt.Errorf("unsupported session state version %d", state.Version)
	}

	pairs := make([]client.Param, 0, len(state.DefaultQuery))
	for _, p := range state.DefaultQuery {
		pairs = append(pairs, client.Param{Key: p.Key, Value: p.Value})
	}

	restored := []client.Option{
		client.WithHeaders(state.DefaultHeaders),
		client.WithQuery(pairs...),
	}
	s, err := client.NewSession(state.BaseURL, append(restored, opts...)...)
	if err != nil {
		return nil, err
	}

	cookies := make([]client.Cookie, 0, len(state.Cookies))
	for _, cs := range state.Cookies {
		c := client.Cookie{
			Name:     cs.Name,
			Value:    cs.Value,
			Domain:   cs.Domain,
			Path:     cs.Path,
			Secure:   cs.Secure,
			HostOnly: cs.HostOnly,
			HttpOnly: cs.HttpOnly,
			SameSite: cs.SameSite,
		}
		if cs.Expires != nil {
			c.Expires = *cs.Expires
		}
		cookies = append(cookies, c)
	}
	s.Cookies().Import(cookies)

	return s, nil
}

// Save writes a snapshot of the session to path as JSON.
func Save(fs afero.Fs, path string, s *client.Session) error {
	data, err := json.MarshalIndent(Snapshot(s), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session state: %w", err)
	}
	return nil
}

// Load reads a snapshot from path and restores it into a new session.
func Load(fs afero.Fs, path string, opts ...client.Option) (*client.Session, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session state: %w", err)
	}

	return Restore(&state, opts...)
}
