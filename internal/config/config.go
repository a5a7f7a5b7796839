package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderGrok   = "grok"

	defaultPort             = 3000
	defaultHost             = "0.0.0.0"
	defaultMaxMessageLength = 0
	defaultOpenAIModel      = "gpt-4o-mini"
	defaultGrokModel        = "grok-3"
	defaultAmadeusBaseURL   = "https://test.api.amadeus.com"
	defaultBookingHost      = "booking-com15.p.rapidapi.com"
)

// Secret parameter names, relative to PARAM_PREFIX.
const (
	paramOpenAIKey     = "/openai-api-key"
	paramGrokKey       = "/grok-api-key"
	paramAmadeusKey    = "/amadeus-api-key"
	paramAmadeusSecret = "/amadeus-api-secret"
	paramBookingKey    = "/booking-api-key"
)

// ParamGetter reads a batch of SSM parameters.
type ParamGetter interface {
	GetParameters(ctx context.Context, names ...string) (map[string]string, error)
}

type Config struct {
	Host    string
	Port    int
	BaseURL string

	LLMProvider string
	LLMAPIKey   string
	LLMModel    string

	AmadeusAPIKey    string
	AmadeusAPISecret string
	AmadeusBaseURL   string

	BookingAPIKey string
	BookingHost   string

	ParamPrefix      string
	TaskTable        string
	MaxMessageLength int

	LogLevel  string
	LogFormat string

	// Lambda is true when running inside the AWS Lambda runtime.
	Lambda bool
}

// Addr is the listen address of the local HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", p, err)
		}
	}
	return nil
}

// Prefix returns PARAM_PREFIX without its trailing slash.
func Prefix(getenv func(string) string) string {
	return strings.TrimRight(strings.TrimSpace(getenv("PARAM_PREFIX")), "/")
}

// Load builds the Config from getenv. When PARAM_PREFIX is set, secrets not
// present in the environment are read from params.
func Load(ctx context.Context, getenv func(string) string, params ParamGetter) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := Config{
		Host:             envOr(env, "HOST", defaultHost),
		Port:             envInt(env, "PORT", defaultPort),
		AmadeusAPIKey:    env("AMADEUS_API_KEY"),
		AmadeusAPISecret: env("AMADEUS_API_SECRET"),
		AmadeusBaseURL:   envOr(env, "AMADEUS_BASE_URL", defaultAmadeusBaseURL),
		BookingAPIKey:    envOr(env, "BOOKING_API_KEY", env("RAPIDAPI_KEY")),
		BookingHost:      envOr(env, "BOOKING_HOST", defaultBookingHost),
		ParamPrefix:      Prefix(getenv),
		TaskTable:        env("TASK_TABLE"),
		MaxMessageLength: envInt(env, "MAX_MESSAGE_LENGTH", defaultMaxMessageLength),
		LogLevel:         env("LOG_LEVEL"),
		LogFormat:        env("LOG_FORMAT"),
		Lambda:           env("AWS_LAMBDA_FUNCTION_NAME") != "",
	}
	cfg.BaseURL = envOr(env, "BASE_URL", fmt.Sprintf("http://localhost:%d", cfg.Port))

	openAIKey, grokKey := env("OPENAI_API_KEY"), env("GROK_API_KEY")

	if cfg.ParamPrefix != "" {
		if params == nil {
			return Config{}, errors.New("config: PARAM_PREFIX is set but no parameter store is available")
		}
		vals, err := params.GetParameters(ctx,
			cfg.ParamPrefix+paramOpenAIKey,
			cfg.ParamPrefix+paramGrokKey,
			cfg.ParamPrefix+paramAmadeusKey,
			cfg.ParamPrefix+paramAmadeusSecret,
			cfg.ParamPrefix+paramBookingKey,
		)
		if err != nil {
			return Config{}, fmt.Errorf("config: load secrets: %w", err)
		}
		fill := func(dst *string, name string) {
			if *dst == "" {
				*dst = strings.TrimSpace(vals[cfg.ParamPrefix+name])
			}
		}
		fill(&openAIKey, paramOpenAIKey)
		fill(&grokKey, paramGrokKey)
		fill(&cfg.AmadeusAPIKey, paramAmadeusKey)
		fill(&cfg.AmadeusAPISecret, paramAmadeusSecret)
		fill(&cfg.BookingAPIKey, paramBookingKey)
	}

	// A Grok key selects Grok, as it always has.
	if grokKey != "" {
		cfg.LLMProvider, cfg.LLMAPIKey = ProviderGrok, grokKey
		cfg.LLMModel = envOr(env, "LLM_MODEL", defaultGrokModel)
	} else {
		cfg.LLMProvider, cfg.LLMAPIKey = ProviderOpenAI, openAIKey
		cfg.LLMModel = envOr(env, "LLM_MODEL", defaultOpenAIModel)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if c.LLMAPIKey == "" {
		errs = append(errs, errors.New("config: OPENAI_API_KEY or GROK_API_KEY is required"))
	}
	if c.AmadeusAPIKey == "" || c.AmadeusAPISecret == "" {
		errs = append(errs, errors.New("config: AMADEUS_API_KEY and AMADEUS_API_SECRET are required"))
	}
	if c.BookingAPIKey == "" {
		errs = append(errs, errors.New("config: BOOKING_API_KEY is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: invalid PORT %d", c.Port))
	}
	return errors.Join(errs...)
}

func envOr(env func(string) string, key, def string) string {
	if v := env(key); v != "" {
		return v
	}
	return def
}

func envInt(env func(string) string, key string, def int) int {
	v := env(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
