package client

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Transport sends a fully built request and returns the raw response. The
// session layer performs no I/O of its own: connection reuse, TLS, and
// timeouts live behind this boundary. Retry policy, when wanted, also
// belongs here, never in the session.
type Transport interface {
	Send(ctx context.Context, req *OutgoingRequest) (*Response, error)
}

// TransportConfig configures the default HTTP transport.
type TransportConfig struct {
	// MaxRetries is the number of retry attempts on transient failures.
	// Default: 0 (no retries).
	MaxRetries int

	// RetryWaitMin is the base wait between retries, grown exponentially.
	// Default: 1 second.
	RetryWaitMin time.Duration

	// RetryWaitMax caps the backoff. Default: 30 seconds.
	RetryWaitMax time.Duration

	// RetryOnStatus lists status codes that trigger a retry.
	// Default: [429, 500, 502, 503, 504].
	RetryOnStatus []int
}

// TransportOption modifies a TransportConfig.
type TransportOption func(*TransportConfig)

// WithRetry enables transport-level retry with exponential backoff.
func WithRetry(maxRetries int) TransportOption {
	return func(c *TransportConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithRetryWait sets the backoff bounds.
func WithRetryWait(min, max time.Duration) TransportOption {
	return func(c *TransportConfig) {
		c.RetryWaitMin = min
		c.RetryWaitMax = max
	}
}

// WithRetryOnStatus sets the status codes that trigger a retry.
func WithRetryOnStatus(codes ...int) TransportOption {
	return func(c *TransportConfig) {
		c.RetryOnStatus = codes
	}
}

// HTTPTransport is the default Transport, built on net/http. Automatic
// redirect following is disabled so the session sees every hop's Set-Cookie
// headers, and response bodies are decompressed transparently.
type HTTPTransport struct {
	client *http.Client
	config *TransportConfig
}

// NewHTTPTransport creates the default transport.
func NewHTTPTransport(opts ...TransportOption) *HTTPTransport {
	config := &TransportConfig{
		RetryWaitMin:  1 * time.Second,
		RetryWaitMax:  30 * time.Second,
		RetryOnStatus: []int{429, 500, 502, 503, 504},
	}
	for _, opt := range opts {
		opt(config)
	}

	inner := http.DefaultTransport
	if t, ok := inner.(*http.Transport); ok {
		t = t.Clone()
		// Compression is negotiated and decoded here, not by net/http.
		t.DisableCompression = true
		inner = t
	}

	return &HTTPTransport{
		client: &http.Client{
			Transport: inner,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		config: config,
	}
}

// NewHTTPTransportWithClient wraps an existing http.Client. The caller is
// responsible for its redirect and compression settings.
func NewHTTPTransportWithClient(client *http.Client) *HTTPTransport {
	return &HTTPTransport{
		client: client,
		config: &TransportConfig{},
	}
}

// Send executes the request, retrying per the transport configuration.
func (t *HTTPTransport) Send(ctx context.Context, req *OutgoingRequest) (*Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 0; attempt <= t.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(t.retryWait(attempt)):
			}
		}

		resp, err := t.sendOnce(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}
		if t.shouldRetryStatus(resp.StatusCode) && attempt < t.config.MaxRetries {
			lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
			continue
		}
		return resp, nil
	}

	return nil, lastErr
}

func (t *HTTPTransport) sendOnce(ctx context.Context, req *OutgoingRequest) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), body)
	if err != nil {
		return nil, err
	}

	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}
	if req.CookieHeader != "" {
		httpReq.Header.Set("Cookie", req.CookieHeader)
	}
	if httpReq.Header.Get("Accept-Encoding") == "" {
		httpReq.Header.Set("Accept-Encoding", "gzip, deflate, br, zstd")
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	respBody, err = decompress(respBody, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress response: %w", err)
	}

	headers := make(map[string][]string, len(resp.Header))
	for name, values := range resp.Header {
		headers[strings.ToLower(name)] = append([]string(nil), values...)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       respBody,
		FinalURL:   req.URL.String(),
	}, nil
}

// retryWait calculates the backoff for the given attempt, with +-20% jitter.
func (t *HTTPTransport) retryWait(attempt int) time.Duration {
	wait := float64(t.config.RetryWaitMin) * math.Pow(2, float64(attempt-1))
	wait += wait * 0.2 * (rand.Float64()*2 - 1)
	if wait > float64(t.config.RetryWaitMax) {
		wait = float64(t.config.RetryWaitMax)
	}
	return time.Duration(wait)
}

func (t *HTTPTransport) shouldRetryStatus(statusCode int) bool {
	for _, code := range t.config.RetryOnStatus {
		if statusCode == code {
			return true
		}
	}
	return false
}

// decompress decodes the response body based on Content-Encoding.
func decompress(data []byte, encoding string) ([]byte, error) {
	switch strings.ToLower(encoding) {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		return io.ReadAll(reader)

	case "br":
		return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))

	case "zstd":
		decoder, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer decoder.Close()
		return io.ReadAll(decoder)

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(data))
		defer reader.Close()
		return io.ReadAll(reader)

	case "", "identity":
		return data, nil

	default:
		// Unknown encoding, return as-is
		return data, nil
	}
}
