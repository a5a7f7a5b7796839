package amadeus

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"travel-agent/internal/domain"
)

type tokenServer struct {
	calls atomic.Int32
	srv   *httptest.Server
}

func newTokenServer(t *testing.T, status int, body string) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		require.Equal(t, "/v1/security/oauth2/token", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		require.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		require.Equal(t, "key", r.PostForm.Get("client_id"))
		require.Equal(t, "secret", r.PostForm.Get("client_secret"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.srv.Close)
	return ts
}

func newTestTokenCache(t *testing.T, baseURL string, now *time.Time) *TokenCache {
	t.Helper()
	c, err := NewTokenCache("key", "secret", WithBaseURL(baseURL), WithHTTPClient(&http.Client{Timeout: 2 * time.Second}))
	require.NoError(t, err)
	if now != nil {
		c.now = func() time.Time { return *now }
	}
	return c
}

func TestNewTokenCache_ValidatesCredentials(t *testing.T) {
	_, err := NewTokenCache("", "secret")
	require.Error(t, err)
	_, err = NewTokenCache("key", " ")
	require.Error(t, err)
}

func TestToken_CachedUntilExpiry(t *testing.T) {
	ts := newTokenServer(t, http.StatusOK, `{"access_token":"tok-1","expires_in":1799}`)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTestTokenCache(t, ts.srv.URL, &now)

	tok, err := c.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok)
	require.Equal(t, now.Add(1799*time.Second-5*time.Minute), c.expiresAt)

	now = now.Add(20 * time.Minute)
	tok, err = c.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok)
	require.EqualValues(t, 1, ts.calls.Load(), "cached token must not hit the auth endpoint")
}

func TestToken_RefreshesOnceAfterExpiry(t *testing.T) {
	ts := newTokenServer(t, http.StatusOK, `{"access_token":"tok-1","expires_in":1799}`)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTestTokenCache(t, ts.srv.URL, &now)

	_, err := c.Token(context.Background())
	require.NoError(t, err)

	// Past the safety margin, before the provider's real expiry.
	now = now.Add(25 * time.Minute)
	_, err = c.Token(context.Background())
	require.NoError(t, err)
	_, err = c.Token(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, ts.calls.Load())
}

func TestToken_ConcurrentCallersShareRefresh(t *testing.T) {
	ts := newTokenServer(t, http.StatusOK, `{"access_token":"tok-1","expires_in":1799}`)
	c := newTestTokenCache(t, ts.srv.URL, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := c.Token(context.Background())
			require.NoError(t, err)
			require.Equal(t, "tok-1", tok)
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, ts.calls.Load())
}

func TestToken_AuthErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"invalid_client"}`, want: "401"},
		{name: "malformed", status: http.StatusOK, body: `not-json`, want: "decode token response"},
		{name: "missing token", status: http.StatusOK, body: `{"expires_in":1799}`, want: "missing access_token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTokenServer(t, tc.status, tc.body)
			c := newTestTokenCache(t, ts.srv.URL, nil)

			_, err := c.Token(context.Background())
			require.Error(t, err)
			var authErr *domain.AuthError
			require.True(t, errors.As(err, &authErr))
			require.Contains(t, err.Error(), "failed to get amadeus token")
			require.Contains(t, err.Error(), tc.want)
			require.Empty(t, c.token)
		})
	}
}
