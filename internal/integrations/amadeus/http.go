package amadeus

import (
	"net/http"
	"time"

	"travel-agent/internal/integrations/upstream"
)

const DefaultBaseURL = "https://test.api.amadeus.com"

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError = upstream.HTTPStatusError

type options struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*options)

func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		if baseURL != "" {
			o.baseURL = baseURL
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

func applyOptions(opts []Option) options {
	o := options{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func doJSONRequest(client *http.Client, req *http.Request) ([]byte, error) {
	return upstream.DoJSON(client, "amadeus", req)
}
