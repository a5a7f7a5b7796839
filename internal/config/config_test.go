package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type mapEnv map[string]string

func (m mapEnv) get(key string) string { return m[key] }

type fakeParams struct {
	vals  map[string]string
	err   error
	names []string
}

func (f *fakeParams) GetParameters(_ context.Context, names ...string) (map[string]string, error) {
	f.names = names
	return f.vals, f.err
}

func fullEnv() mapEnv {
	return mapEnv{
		"OPENAI_API_KEY":     "sk-test",
		"AMADEUS_API_KEY":    "key",
		"AMADEUS_API_SECRET": "secret",
		"BOOKING_API_KEY":    "rapid-key",
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background(), fullEnv().get, nil)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Host)
	require.Equal(t, 3000, cfg.Port)
	require.Equal(t, "0.0.0.0:3000", cfg.Addr())
	require.Equal(t, "http://localhost:3000", cfg.BaseURL)
	require.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	require.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	require.Equal(t, "https://test.api.amadeus.com", cfg.AmadeusBaseURL)
	require.Equal(t, "booking-com15.p.rapidapi.com", cfg.BookingHost)
	require.Zero(t, cfg.MaxMessageLength)
	require.False(t, cfg.Lambda)
}

func TestLoad_GrokSelectsProvider(t *testing.T) {
	env := fullEnv()
	env["GROK_API_KEY"] = "xai-test"
	cfg, err := Load(context.Background(), env.get, nil)
	require.NoError(t, err)
	require.Equal(t, ProviderGrok, cfg.LLMProvider)
	require.Equal(t, "xai-test", cfg.LLMAPIKey)
	require.Equal(t, "grok-3", cfg.LLMModel)
}

func TestLoad_Overrides(t *testing.T) {
	env := fullEnv()
	env["PORT"] = "8080"
	env["BASE_URL"] = "https://travel.example.com"
	env["LLM_MODEL"] = "gpt-4.1"
	env["MAX_MESSAGE_LENGTH"] = "not-a-number"
	env["AWS_LAMBDA_FUNCTION_NAME"] = "travel-agent"
	cfg, err := Load(context.Background(), env.get, nil)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "https://travel.example.com", cfg.BaseURL)
	require.Equal(t, "gpt-4.1", cfg.LLMModel)
	require.Zero(t, cfg.MaxMessageLength)
	require.True(t, cfg.Lambda)
}

func TestLoad_MissingSecrets(t *testing.T) {
	_, err := Load(context.Background(), mapEnv{}.get, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "OPENAI_API_KEY or GROK_API_KEY")
	require.Contains(t, err.Error(), "AMADEUS_API_KEY")
	require.Contains(t, err.Error(), "BOOKING_API_KEY")
}

func TestLoad_SecretsFromParamStore(t *testing.T) {
	params := &fakeParams{vals: map[string]string{
		"/travel-agent/openai-api-key":     "sk-ssm",
		"/travel-agent/amadeus-api-key":    "key-ssm",
		"/travel-agent/amadeus-api-secret": "secret-ssm",
		"/travel-agent/booking-api-key":    "rapid-ssm",
	}}
	env := mapEnv{"PARAM_PREFIX": "/travel-agent/", "BOOKING_API_KEY": "rapid-env"}

	cfg, err := Load(context.Background(), env.get, params)
	require.NoError(t, err)
	require.Equal(t, "/travel-agent", cfg.ParamPrefix)
	require.Equal(t, "sk-ssm", cfg.LLMAPIKey)
	require.Equal(t, "key-ssm", cfg.AmadeusAPIKey)
	require.Equal(t, "secret-ssm", cfg.AmadeusAPISecret)
	require.Equal(t, "rapid-env", cfg.BookingAPIKey, "environment wins over SSM")
	require.Len(t, params.names, 5)
}

func TestLoad_ParamStoreErrors(t *testing.T) {
	env := mapEnv{"PARAM_PREFIX": "/travel-agent"}

	_, err := Load(context.Background(), env.get, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no parameter store")

	_, err = Load(context.Background(), env.get, &fakeParams{err: errors.New("access denied")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "access denied")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TRAVEL_AGENT_TEST_VAR=from-file\n"), 0o600))

	t.Setenv("TRAVEL_AGENT_TEST_VAR", "")
	require.NoError(t, os.Unsetenv("TRAVEL_AGENT_TEST_VAR"))
	require.NoError(t, LoadDotEnv(path))
	require.Equal(t, "from-file", os.Getenv("TRAVEL_AGENT_TEST_VAR"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestLoad_RapidAPIKeyFallback(t *testing.T) {
	env := fullEnv()
	delete(env, "BOOKING_API_KEY")
	env["RAPIDAPI_KEY"] = "rapid-legacy"
	cfg, err := Load(context.Background(), env.get, nil)
	require.NoError(t, err)
	require.Equal(t, "rapid-legacy", cfg.BookingAPIKey)
}
