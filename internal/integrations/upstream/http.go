// Package upstream holds the HTTP plumbing shared by the provider clients.
package upstream

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	errorBodyLimit    = 4096
	responseBodyLimit = 4 << 20
	defaultTimeout    = 15 * time.Second
)

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	Provider   string
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d from %s: %s", e.Provider, e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// DoJSON sends req and returns the body of a 2xx response. Other statuses
// come back as *HTTPStatusError tagged with provider.
func DoJSON(client *http.Client, provider string, req *http.Request) ([]byte, error) {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, errorBodyLimit))
		return nil, &HTTPStatusError{
			Provider:   provider,
			StatusCode: res.StatusCode,
			URL:        req.URL.Redacted(),
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, responseBodyLimit))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
