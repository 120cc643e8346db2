// Package registry - fetches and caches npm packuments.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ortelius/deptree-backend/model"
)

// DefaultBaseURL is the public npm registry.
const DefaultBaseURL = "https://registry.npmjs.org"

// requestTimeout bounds every registry fetch, foreground or background;
// the cache's detached refresh uses it as its context deadline too.
const requestTimeout = 30 * time.Second

// FetchError is a typed upstream failure. StatusCode is zero for
// transport-level failures. Fetches are not retried here; retry policy
// belongs to the caller, and a single failed dependency must not abort
// a whole tree.
type FetchError struct {
	Name       string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("registry fetch for %s failed: status %d", e.Name, e.StatusCode)
	}
	return fmt.Sprintf("registry fetch for %s failed: %v", e.Name, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NotFound reports whether the failure was a registry 404.
func (e *FetchError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// Client fetches packuments from the package registry.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a registry client. An empty baseURL selects the
// public npm registry.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// EncodePackageName makes a package name URL-safe. Scoped names keep
// the leading @ but percent-encode the scope separator, which is how
// the registry expects them: "@babel/core" -> "@babel%2Fcore".
func EncodePackageName(name string) string {
	if strings.HasPrefix(name, "@") {
		return strings.Replace(name, "/", "%2F", 1)
	}
	return url.PathEscape(name)
}

// FetchPackument retrieves the packument for a package name. Failures
// surface as *FetchError and are not retried internally.
func (c *Client) FetchPackument(ctx context.Context, name string) (*model.Packument, error) {
	endpoint := c.baseURL + "/" + EncodePackageName(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Name: name, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Name: name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, &FetchError{Name: name, StatusCode: resp.StatusCode}
	}

	var pack model.Packument
	if err := json.NewDecoder(resp.Body).Decode(&pack); err != nil {
		return nil, &FetchError{Name: name, Err: fmt.Errorf("decoding packument: %w", err)}
	}
	if pack.Name == "" {
		pack.Name = name
	}
	return &pack, nil
}
