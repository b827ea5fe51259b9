package session

import (
	"net/url"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/davrell/seshttp/client"
)

func newSessionWithState(t *testing.T) *client.Session {
	t.Helper()
	s, err := client.NewSession("https://example.com",
		client.WithHeader("X-App", "demo"),
		client.WithQuery(client.Param{Key: "v", Value: "2"}),
	)
	if err != nil {
		t.Fatal(err)
	}
	u, _ := url.Parse("https://example.com/")
	s.Cookies().Ingest(u, []string{
		"sid=abc123; Path=/",
		"pref=dark; Domain=example.com; Max-Age=3600",
	})
	return s
}

func TestSnapshotRestore(t *testing.T) {
	s := newSessionWithState(t)

	state := Snapshot(s)
	if state.Version != StateVersion {
		t.Errorf("version = %d", state.Version)
	}
	if len(state.Cookies) != 2 {
		t.Fatalf("snapshot has %d cookies", len(state.Cookies))
	}

	restored, err := Restore(state)
	if err != nil {
		t.Fatal(err)
	}

	if restored.BaseURL() != "https://example.com" {
		t.Errorf("base URL = %q", restored.BaseURL())
	}
	if restored.DefaultHeaders()["X-App"] != "demo" {
		t.Errorf("headers = %v", restored.DefaultHeaders())
	}
	if q := restored.DefaultQuery(); len(q) != 1 || q[0].Key != "v" {
		t.Errorf("query = %v", q)
	}

	u, _ := url.Parse("https://example.com/page")
	if got, want := restored.Cookies().CookieHeader(u), s.Cookies().CookieHeader(u); got != want {
		t.Errorf("restored cookies = %q, original = %q", got, want)
	}
}

func TestRestoreRejectsUnknownVersion(t *testing.T) {
	_, err := Restore(&State{Version: StateVersion + 1})
	if err == nil {
		t.Fatal("expected version error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newSessionWithState(t)

	if err := Save(fs, "/state/session.json", s); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(fs, "/state/session.json")
	if err != nil {
		t.Fatal(err)
	}

	u, _ := url.Parse("https://example.com/")
	if got, want := loaded.Cookies().CookieHeader(u), s.Cookies().CookieHeader(u); got != want {
		t.Errorf("loaded cookies = %q, original = %q", got, want)
	}
	if loaded.DefaultHeaders()["X-App"] != "demo" {
		t.Errorf("headers = %v", loaded.DefaultHeaders())
	}
}

func TestLoadMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if _, err := Load(fs, "/nope.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSnapshotExpiresPreserved(t *testing.T) {
	s := newSessionWithState(t)
	state := Snapshot(s)

	var withExpiry *CookieState
	for i := range state.Cookies {
		if state.Cookies[i].Name == "pref" {
			withExpiry = &state.Cookies[i]
		}
	}
	if withExpiry == nil || withExpiry.Expires == nil {
		t.Fatal("Max-Age cookie lost its expiry in the snapshot")
	}
	if withExpiry.Expires.Before(time.Now()) {
		t.Errorf("expiry already past: %v", withExpiry.Expires)
	}
}
