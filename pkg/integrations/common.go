package integrations

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/matzehuels/pipspec/pkg/cache"
)

const httpTimeout = 15 * time.Second

var (
	// ErrNotFound is returned when a project or resource doesn't exist on the index.
	ErrNotFound = cache.ErrNotFound

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = cache.ErrNetwork
)

// NewHTTPClient creates an HTTP client with the standard index timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// NewInsecureHTTPClient is like [NewHTTPClient] but skips TLS certificate
// verification. It backs sources declared with verify_ssl = false.
func NewInsecureHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	return &http.Client{Timeout: httpTimeout, Transport: transport}
}

// ExpandURL substitutes $VAR and ${VAR} references from the environment,
// as pipenv does for source URLs holding credentials.
func ExpandURL(raw string) string {
	return os.ExpandEnv(strings.TrimSpace(raw))
}

// RedactURL hides the password of a URL for logs and error messages.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}

// URLEncode percent-encodes a path segment.
func URLEncode(s string) string { return url.PathEscape(s) }
