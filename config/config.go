// Package config loads gochain settings from the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/teilomillet/gochain/utils"
)

// Config holds model, transport and server settings.
type Config struct {
	Provider     string         `env:"LLM_PROVIDER" envDefault:"google" validate:"required"`
	Model        string         `env:"LLM_MODEL" envDefault:"gemini-2.0-flash" validate:"required"`
	Endpoint     string         `env:"LLM_ENDPOINT" validate:"omitempty,url"`
	Temperature  float64        `env:"LLM_TEMPERATURE" envDefault:"0.7" validate:"gte=0,lte=2"`
	MaxTokens    int            `env:"LLM_MAX_TOKENS" envDefault:"2048" validate:"gte=0"`
	Timeout      time.Duration  `env:"LLM_TIMEOUT" envDefault:"0s" validate:"gte=0"`
	MaxRetries   int            `env:"LLM_MAX_RETRIES" envDefault:"0" validate:"gte=0"`
	RetryDelay   time.Duration  `env:"LLM_RETRY_DELAY" envDefault:"2s" validate:"gte=0"`
	RateLimit    int            `env:"LLM_RATE_LIMIT" envDefault:"0" validate:"gte=0"` // requests per minute, 0 disables
	LogLevel     utils.LogLevel `env:"LLM_LOG_LEVEL" envDefault:"WARN"`
	Verbose      bool           `env:"GOCHAIN_VERBOSE" envDefault:"false"`
	Addr         string         `env:"GOCHAIN_ADDR" envDefault:":8080"`
	RedisAddr    string         `env:"REDIS_ADDR"`
	RedisTTL     time.Duration  `env:"REDIS_TTL" envDefault:"24h" validate:"gte=0"`
	APIKeys      map[string]string
	ExtraHeaders map[string]string
}

// providerAliases lists the other key names a provider's credential may be
// stored under.
var providerAliases = map[string][]string{
	"google": {"gemini"},
	"gemini": {"google"},
}

var validate = validator.New()

// LoadConfig reads .env (when present) and then the environment.
func LoadConfig() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{
		APIKeys:      make(map[string]string),
		ExtraHeaders: make(map[string]string),
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	loadAPIKeys(cfg)
	return cfg, nil
}

// LoadDotEnv loads the given files (default ".env") into the environment.
// Variables already set are left alone and missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

func loadAPIKeys(cfg *Config) {
	for _, envVar := range os.Environ() {
		key, value, found := strings.Cut(envVar, "=")
		if found && value != "" && strings.HasSuffix(strings.ToUpper(key), "_API_KEY") {
			provider := strings.TrimSuffix(strings.ToUpper(key), "_API_KEY")
			cfg.APIKeys[strings.ToLower(provider)] = value
		}
	}
}

// APIKey returns the credential for provider, falling back to its aliases.
func (c *Config) APIKey(provider string) string {
	provider = strings.ToLower(provider)
	if key := c.APIKeys[provider]; key != "" {
		return key
	}
	for _, alias := range providerAliases[provider] {
		if key := c.APIKeys[alias]; key != "" {
			return key
		}
	}
	return ""
}

// Validate checks field constraints. A missing API key is not a
// configuration error here: it surfaces on the first model call.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

type ConfigOption func(*Config)

// NewConfig returns the defaults without reading the environment.
func NewConfig() *Config {
	return &Config{
		Provider:     "google",
		Model:        "gemini-2.0-flash",
		Temperature:  0.7,
		MaxTokens:    2048,
		RetryDelay:   2 * time.Second,
		LogLevel:     utils.LogLevelWarn,
		Addr:         ":8080",
		RedisTTL:     24 * time.Hour,
		APIKeys:      make(map[string]string),
		ExtraHeaders: make(map[string]string),
	}
}

func SetProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

func SetModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

func SetEndpoint(endpoint string) ConfigOption {
	return func(c *Config) {
		c.Endpoint = endpoint
	}
}

func SetTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

func SetMaxTokens(maxTokens int) ConfigOption {
	return func(c *Config) {
		if maxTokens < 0 {
			maxTokens = 0
		}
		c.MaxTokens = maxTokens
	}
}

func SetTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// SetAPIKey stores apiKey for the currently selected provider, so apply it
// after SetProvider.
func SetAPIKey(apiKey string) ConfigOption {
	return func(c *Config) {
		if c.APIKeys == nil {
			c.APIKeys = make(map[string]string)
		}
		c.APIKeys[strings.ToLower(c.Provider)] = apiKey
	}
}

func SetMaxRetries(maxRetries int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = maxRetries
	}
}

func SetRetryDelay(retryDelay time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryDelay = retryDelay
	}
}

func SetRateLimit(requestsPerMinute int) ConfigOption {
	return func(c *Config) {
		c.RateLimit = requestsPerMinute
	}
}

func SetLogLevel(level utils.LogLevel) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

func SetVerbose(verbose bool) ConfigOption {
	return func(c *Config) {
		c.Verbose = verbose
	}
}

func SetExtraHeaders(headers map[string]string) ConfigOption {
	return func(c *Config) {
		if c.ExtraHeaders == nil {
			c.ExtraHeaders = make(map[string]string)
		}
		for k, v := range headers {
			c.ExtraHeaders[k] = v
		}
	}
}

func ApplyOptions(cfg *Config, options ...ConfigOption) {
	for _, option := range options {
		option(cfg)
	}
}
