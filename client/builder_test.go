package client

import (
	"errors"
	"testing"
)

func TestBuildOutgoingHeaderMerge(t *testing.T) {
	defaults := &Defaults{
		Headers: map[string]string{
			"User-Agent":   "seshttp",
			"x-api-key":    "default-key",
			"X-Deprecated": "yes",
		},
	}

	out, err := buildOutgoing("https://example.com", defaults, nil, &Request{
		Path: "/api",
		Headers: map[string]string{
			"X-API-Key":    "call-key",
			"x-deprecated": "",
			"X-Extra":      "1",
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := out.Headers["X-Api-Key"]; got != "call-key" {
		t.Errorf("X-Api-Key = %q, expected per-call override", got)
	}
	if _, ok := out.Headers["X-Deprecated"]; ok {
		t.Error("empty override should remove the default header")
	}
	if out.Headers["User-Agent"] != "seshttp" {
		t.Errorf("User-Agent = %q", out.Headers["User-Agent"])
	}
	if out.Headers["X-Extra"] != "1" {
		t.Errorf("X-Extra = %q", out.Headers["X-Extra"])
	}
}

func TestBuildOutgoingQueryOrder(t *testing.T) {
	defaults := &Defaults{
		Query: []Param{{"page", "1"}, {"tag", "a"}},
	}

	out, err := buildOutgoing("https://example.com", defaults, nil, &Request{
		Path:  "/search",
		Query: []Param{{"tag", "b"}, {"q", "hello world"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := "page=1&tag=a&tag=b&q=hello+world"
	if out.URL.RawQuery != want {
		t.Errorf("RawQuery = %q, expected %q", out.URL.RawQuery, want)
	}
}

func TestBuildOutgoingQueryAfterExisting(t *testing.T) {
	out, err := buildOutgoing("https://example.com", &Defaults{}, nil, &Request{
		Path:  "/search?fixed=1",
		Query: []Param{{"extra", "2"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if out.URL.RawQuery != "fixed=1&extra=2" {
		t.Errorf("RawQuery = %q", out.URL.RawQuery)
	}
}

func TestBuildOutgoingDefaultMethod(t *testing.T) {
	out, err := buildOutgoing("https://example.com", &Defaults{}, nil, &Request{Path: "/"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Method != "GET" {
		t.Errorf("method = %q, expected GET", out.Method)
	}
}

func TestBuildOutgoingContentType(t *testing.T) {
	defaults := &Defaults{ContentType: "application/json"}

	out, err := buildOutgoing("https://example.com", defaults, nil, &Request{Path: "/"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Headers["Content-Type"] != "application/json" {
		t.Errorf("Content-Type = %q", out.Headers["Content-Type"])
	}

	out, err = buildOutgoing("https://example.com", defaults, nil, &Request{
		Path:        "/",
		ContentType: "text/xml",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Headers["Content-Type"] != "text/xml" {
		t.Errorf("per-call Content-Type = %q", out.Headers["Content-Type"])
	}
}

func TestBuildOutgoingInvalidHeaderValue(t *testing.T) {
	_, err := buildOutgoing("https://example.com", &Defaults{}, nil, &Request{
		Path:    "/",
		Headers: map[string]string{"X-Bad": "line1\r\nline2"},
	})

	var hdrErr *HeaderValueError
	if !errors.As(err, &hdrErr) {
		t.Fatalf("expected HeaderValueError, got %v", err)
	}
	if hdrErr.Name != "X-Bad" {
		t.Errorf("error names header %q", hdrErr.Name)
	}
}

func TestBuildOutgoingCookieHeader(t *testing.T) {
	jar := NewCookieJar()
	jar.Ingest(mustParseURL(t, "https://example.com/"), []string{"sid=abc"})

	out, err := buildOutgoing("https://example.com", &Defaults{}, jar, &Request{Path: "/page"})
	if err != nil {
		t.Fatal(err)
	}
	if out.CookieHeader != "sid=abc" {
		t.Errorf("CookieHeader = %q", out.CookieHeader)
	}

	// No matching cookies means no Cookie header at all.
	out, err = buildOutgoing("https://other.com", &Defaults{}, jar, &Request{Path: "/"})
	if err != nil {
		t.Fatal(err)
	}
	if out.CookieHeader != "" {
		t.Errorf("CookieHeader = %q for non-matching host", out.CookieHeader)
	}
}

func TestRequestBodyHelpers(t *testing.T) {
	var r Request
	if err := r.SetJSON(map[string]string{"k": "v"}); err != nil {
		t.Fatal(err)
	}
	if r.ContentType != "application/json" {
		t.Errorf("ContentType = %q", r.ContentType)
	}
	if string(r.Body) != `{"k":"v"}` {
		t.Errorf("Body = %q", r.Body)
	}

	r = Request{ContentType: "application/vnd.custom+json"}
	if err := r.SetJSON(map[string]string{}); err != nil {
		t.Fatal(err)
	}
	if r.ContentType != "application/vnd.custom+json" {
		t.Errorf("explicit ContentType overwritten: %q", r.ContentType)
	}

	r = Request{}
	r.SetText("hello")
	if r.ContentType != "text/plain" || string(r.Body) != "hello" {
		t.Errorf("SetText: %q %q", r.ContentType, r.Body)
	}
}
