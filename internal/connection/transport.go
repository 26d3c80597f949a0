package connection

import (
	"net/http"
	"strings"
)

// Transport performs one HTTP exchange. A nil error means a response was
// received, whatever its status.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPTransport sends requests with an *http.Client.
//
// No client timeout is configured; a request runs until the server
// answers, the connection fails or the caller's context ends.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps client, or a fresh client when nil.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTransport{client: client}
}

// Do sends req.
func (t *HTTPTransport) Do(req *http.Request) (*http.Response, error) {
	return t.client.Do(req)
}

// NormalizeBaseURL adds a missing scheme and drops a trailing slash.
func NormalizeBaseURL(server string) string {
	baseURL := strings.TrimSpace(server)
	if baseURL == "" {
		return ""
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return strings.TrimRight(baseURL, "/")
}
