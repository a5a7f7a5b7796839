package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"travel-agent/internal/domain"
)

// tokenSafetyMargin is subtracted from the provider lifetime so a token is
// never presented right before it expires.
const tokenSafetyMargin = 5 * time.Minute

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenCache holds one bearer token and refreshes it through the OAuth2
// client-credentials grant only when it is absent or expired.
type TokenCache struct {
	baseURL      string
	httpClient   *http.Client
	clientID     string
	clientSecret string
	now          func() time.Time

	// mu is held across a refresh, so concurrent callers wait for the
	// in-flight exchange and then reuse its token.
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenCache creates a TokenCache for the given API key and secret.
func NewTokenCache(clientID, clientSecret string, opts ...Option) (*TokenCache, error) {
	clientID = strings.TrimSpace(clientID)
	clientSecret = strings.TrimSpace(clientSecret)
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("amadeus: client credentials must not be empty")
	}
	o := applyOptions(opts)
	return &TokenCache{
		baseURL:      o.baseURL,
		httpClient:   o.httpClient,
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          time.Now,
	}, nil
}

// Token returns a bearer token valid for at least the safety margin.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token, nil
	}

	tr, err := c.exchange(ctx)
	if err != nil {
		return "", &domain.AuthError{Provider: "amadeus", Err: err}
	}
	c.token = tr.AccessToken
	c.expiresAt = c.now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenSafetyMargin)
	return c.token, nil
}

func (c *TokenCache) exchange(ctx context.Context) (tokenResponse, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	endpoint := strings.TrimRight(c.baseURL, "/") + "/v1/security/oauth2/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	raw, err := doJSONRequest(c.httpClient, req)
	if err != nil {
		return tokenResponse{}, err
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return tokenResponse{}, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return tokenResponse{}, errors.New("token response missing access_token")
	}
	return tr, nil
}
