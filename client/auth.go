package client

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

// Auth applies authentication to outgoing requests.
type Auth interface {
	// Apply sets authentication headers on the built request.
	Apply(req *OutgoingRequest) error
	// HandleChallenge inspects a 401 response and reports whether the
	// request should be resent with updated credentials.
	HandleChallenge(resp *Response, req *OutgoingRequest) (bool, error)
}

// BasicAuth implements HTTP Basic authentication.
type BasicAuth struct {
	Username string
	Password string
}

// NewBasicAuth creates a new BasicAuth.
func NewBasicAuth(username, password string) *BasicAuth {
	return &BasicAuth{Username: username, Password: password}
}

// Apply sets the Basic Authorization header.
func (a *BasicAuth) Apply(req *OutgoingRequest) error {
	encoded := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
	req.Headers["Authorization"] = "Basic " + encoded
	return nil
}

// HandleChallenge is a no-op: Basic auth has no challenge-response step.
func (a *BasicAuth) HandleChallenge(resp *Response, req *OutgoingRequest) (bool, error) {
	return false, nil
}

// BearerAuth implements Bearer token authentication.
type BearerAuth struct {
	Token string
}

// NewBearerAuth creates a new BearerAuth.
func NewBearerAuth(token string) *BearerAuth {
	return &BearerAuth{Token: token}
}

// Apply sets the Bearer Authorization header.
func (a *BearerAuth) Apply(req *OutgoingRequest) error {
	req.Headers["Authorization"] = "Bearer " + a.Token
	return nil
}

// HandleChallenge is a no-op: Bearer auth has no challenge-response step.
func (a *BearerAuth) HandleChallenge(resp *Response, req *OutgoingRequest) (bool, error) {
	return false, nil
}

// DigestAuth implements HTTP Digest authentication.
type DigestAuth struct {
	Username string
	Password string

	// Stored challenge parameters
	realm     string
	nonce     string
	qop       string
	opaque    string
	algorithm string
	nc        int
}

// NewDigestAuth creates a new DigestAuth.
func NewDigestAuth(username, password string) *DigestAuth {
	return &DigestAuth{Username: username, Password: password}
}

// Apply sets the Digest Authorization header once a challenge has been seen.
func (a *DigestAuth) Apply(req *OutgoingRequest) error {
	if a.nonce == "" {
		// No challenge received yet.
		return nil
	}
	return a.applyDigestHeader(req)
}

// HandleChallenge parses the WWW-Authenticate header of a 401 response.
func (a *DigestAuth) HandleChallenge(resp *Response, req *OutgoingRequest) (bool, error) {
	if resp.StatusCode != http.StatusUnauthorized {
		return false, nil
	}

	wwwAuth := resp.GetHeader("WWW-Authenticate")
	if wwwAuth == "" || !strings.HasPrefix(strings.ToLower(wwwAuth), "digest ") {
		return false, nil
	}

	if err := a.parseChallenge(wwwAuth); err != nil {
		return false, err
	}
	return true, nil
}

func (a *DigestAuth) parseChallenge(wwwAuth string) error {
	params := strings.TrimPrefix(wwwAuth, "Digest ")
	params = strings.TrimPrefix(params, "digest ")

	for _, part := range strings.Split(params, ",") {
		part = strings.TrimSpace(part)
		idx := strings.Index(part, "=")
		if idx < 0 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(part[:idx]))
		value := strings.Trim(strings.TrimSpace(part[idx+1:]), `"`)

		switch key {
		case "realm":
			a.realm = value
		case "nonce":
			a.nonce = value
		case "qop":
			a.qop = value
		case "opaque":
			a.opaque = value
		case "algorithm":
			a.algorithm = value
		}
	}

	if a.nonce == "" {
		return fmt.Errorf("digest auth: missing nonce in challenge")
	}
	return nil
}

func (a *DigestAuth) applyDigestHeader(req *OutgoingRequest) error {
	a.nc++
	nc := fmt.Sprintf("%08x", a.nc)
	cnonce := generateCnonce()

	uri := req.URL.RequestURI()
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	ha1 := md5Hash(fmt.Sprintf("%s:%s:%s", a.Username, a.realm, a.Password))
	ha2 := md5Hash(fmt.Sprintf("%s:%s", method, uri))

	var response string
	if a.qop == "auth" || a.qop == "auth-int" {
		response = md5Hash(fmt.Sprintf("%s:%s:%s:%s:%s:%s", ha1, a.nonce, nc, cnonce, a.qop, ha2))
	} else {
		response = md5Hash(fmt.Sprintf("%s:%s:%s", ha1, a.nonce, ha2))
	}

	auth := fmt.Sprintf(`Digest username="%s", realm="%s", nonce="%s", uri="%s", response="%s"`,
		a.Username, a.realm, a.nonce, uri, response)
	if a.qop != "" {
		auth += fmt.Sprintf(`, qop=%s, nc=%s, cnonce="%s"`, a.qop, nc, cnonce)
	}
	if a.opaque != "" {
		auth += fmt.Sprintf(`, opaque="%s"`, a.opaque)
	}
	if a.algorithm != "" {
		auth += fmt.Sprintf(`, algorithm=%s`, a.algorithm)
	}

	req.Headers["Authorization"] = auth
	return nil
}

func md5Hash(s string) string {
	hash := md5.Sum([]byte(s))
	return hex.EncodeToString(hash[:])
}

func generateCnonce() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
