// Package fetch retrieves a repository's gzipped tarball (or, failing that,
// its individual files via the GitHub REST API) with a layered fallback
// chain: direct fetch, CORS-proxy candidates, then per-file tree+contents
// API traversal. The retry-with-backoff and multi-URL fallback shape is
// adapted from the teacher's FetchWithFallback (internal/core/remote_fallback.go)
// and GitHubLicenseChecker.CheckLicense (internal/core/github_client.go).
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Response is the transport-agnostic result of a GET.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport abstracts HTTP GET so tests can inject httptest servers or
// canned failures without touching net/http directly.
type Transport interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// HTTPTransport is the production Transport backed by net/http.
type HTTPTransport struct {
	Client *http.Client
}

// NewHTTPTransport returns an HTTPTransport using http.DefaultClient if
// client is nil.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{Client: client}
}

// Get performs a GET request and buffers the full body.
func (t *HTTPTransport) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, fmt.Errorf("fetch: build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("fetch: read body: %w", err)
	}
	return Response{StatusCode: resp.StatusCode, Body: body}, nil
}
