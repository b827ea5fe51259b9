package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

func sendTo(t *testing.T, transport *HTTPTransport, rawURL string) *Response {
	t.Helper()
	resp, err := transport.Send(context.Background(), &OutgoingRequest{
		Method:  http.MethodGet,
		URL:     mustParseURL(t, rawURL),
		Headers: map[string]string{},
	})
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestTransportDecompression(t *testing.T) {
	const plaintext = "the quick brown fox jumps over the lazy dog"

	encoders := map[string]func() []byte{
		"gzip": func() []byte {
			var buf bytes.Buffer
			w := gzip.NewWriter(&buf)
			w.Write([]byte(plaintext))
			w.Close()
			return buf.Bytes()
		},
		"br": func() []byte {
			var buf bytes.Buffer
			w := brotli.NewWriter(&buf)
			w.Write([]byte(plaintext))
			w.Close()
			return buf.Bytes()
		},
		"zstd": func() []byte {
			var buf bytes.Buffer
			w, _ := zstd.NewWriter(&buf)
			w.Write([]byte(plaintext))
			w.Close()
			return buf.Bytes()
		},
	}

	for encoding, encode := range encoders {
		t.Run(encoding, func(t *testing.T) {
			compressed := encode()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", encoding)
				w.Write(compressed)
			}))
			defer srv.Close()

			resp := sendTo(t, NewHTTPTransport(), srv.URL)
			if resp.Text() != plaintext {
				t.Errorf("decompressed body = %q", resp.Text())
			}
		})
	}
}

func TestTransportRetriesOnStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	transport := NewHTTPTransport(
		WithRetry(3),
		WithRetryWait(time.Millisecond, 5*time.Millisecond),
	)

	resp := sendTo(t, transport, srv.URL)
	if resp.StatusCode != http.StatusOK || resp.Text() != "ok" {
		t.Errorf("status = %d body = %q", resp.StatusCode, resp.Text())
	}
	if calls.Load() != 3 {
		t.Errorf("server saw %d calls, expected 3", calls.Load())
	}
}

func TestTransportNoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	resp := sendTo(t, NewHTTPTransport(), srv.URL)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if calls.Load() != 1 {
		t.Errorf("server saw %d calls, expected 1", calls.Load())
	}
}

func TestTransportDoesNotFollowRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/end", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp := sendTo(t, NewHTTPTransport(), srv.URL+"/start")
	if resp.StatusCode != http.StatusFound {
		t.Errorf("status = %d, redirect handling belongs above the transport", resp.StatusCode)
	}
	if resp.GetHeader("Location") != "/end" {
		t.Errorf("Location = %q", resp.GetHeader("Location"))
	}
}

func TestTransportSetsCookieHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.Header.Get("Cookie")))
	}))
	defer srv.Close()

	resp, err := NewHTTPTransport().Send(context.Background(), &OutgoingRequest{
		Method:       http.MethodGet,
		URL:          mustParseURL(t, srv.URL),
		Headers:      map[string]string{},
		CookieHeader: "sid=abc; theme=dark",
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text() != "sid=abc; theme=dark" {
		t.Errorf("server saw Cookie %q", resp.Text())
	}
}

func TestTransportRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewHTTPTransport().Send(context.Background(), &OutgoingRequest{
		Method:  http.MethodGet,
		URL:     mustParseURL(t, srv.URL),
		Headers: map[string]string{},
		Timeout: 50 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}
}
