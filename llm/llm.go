// Package llm renders prompt templates and sends them to a hosted model.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/teilomillet/gochain/config"
	"github.com/teilomillet/gochain/providers"
	"github.com/teilomillet/gochain/utils"
)

// maxErrorBody caps how much of a failed response body is kept in errors.
const maxErrorBody = 512

// LLM sends a single prompt to a model and returns the generated text.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateResponse(ctx context.Context, prompt string) (*providers.Response, error)
	ProviderName() string
	Model() string
	GetLogger() utils.Logger
}

// LLMImpl is the HTTP implementation of LLM.
type LLMImpl struct {
	Provider   providers.Provider
	Options    map[string]any
	client     *http.Client
	logger     utils.Logger
	config     *config.Config
	apiKey     string
	limiter    *rate.Limiter
	MaxRetries int
	RetryDelay time.Duration
}

// LLMOption customises an LLMImpl after construction.
type LLMOption func(*LLMImpl)

// WithHTTPClient replaces the default client built from cfg.Timeout.
func WithHTTPClient(client *http.Client) LLMOption {
	return func(l *LLMImpl) {
		l.client = client
	}
}

// NewLLM resolves cfg.Provider in registry. A missing API key does not fail
// here; every Generate call reports it instead.
func NewLLM(cfg *config.Config, logger utils.Logger, registry *providers.ProviderRegistry, opts ...LLMOption) (*LLMImpl, error) {
	apiKey := cfg.APIKey(cfg.Provider)

	provider, err := registry.Get(cfg.Provider, apiKey, cfg.Model, cfg.ExtraHeaders)
	if err != nil {
		return nil, NewLLMError(ErrorTypeConfig, "unsupported provider", err)
	}
	provider.SetLogger(logger)
	provider.SetDefaultOptions(cfg)
	if cfg.Endpoint != "" {
		provider.SetEndpoint(cfg.Endpoint)
	}

	l := &LLMImpl{
		Provider:   provider,
		Options:    make(map[string]any),
		client:     &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		config:     cfg,
		apiKey:     apiKey,
		limiter:    newLimiter(cfg.RateLimit),
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// newLimiter allows requestsPerMinute calls with a burst of one. Zero or
// less means no limit.
func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}

// SetOption sets a per-call option such as "system_prompt".
func (l *LLMImpl) SetOption(key string, value any) {
	l.Options[key] = value
	l.logger.Debug("Option set", "key", key)
}

func (l *LLMImpl) ProviderName() string {
	return l.Provider.Name()
}

func (l *LLMImpl) Model() string {
	return l.config.Model
}

func (l *LLMImpl) GetLogger() utils.Logger {
	return l.logger
}

func (l *LLMImpl) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := l.GenerateResponse(ctx, prompt)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// GenerateResponse makes one call, plus up to MaxRetries more on failure.
// Configuration errors are returned before any request is made and are
// never retried.
func (l *LLMImpl) GenerateResponse(ctx context.Context, prompt string) (*providers.Response, error) {
	if l.Provider.RequiresAPIKey() && l.apiKey == "" {
		return nil, NewLLMError(ErrorTypeConfig,
			fmt.Sprintf("no API key configured for provider %q", l.Provider.Name()), nil)
	}

	var lastErr error
	for attempt := 0; attempt <= l.MaxRetries; attempt++ {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, NewLLMError(ErrorTypeRequest, "rate limiter wait", err)
		}

		l.logger.Debug("Generating text", "provider", l.Provider.Name(), "model", l.config.Model, "attempt", attempt+1)
		resp, err := l.attemptGenerate(ctx, prompt)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		l.logger.Warn("Generation attempt failed", "error", err, "attempt", attempt+1)
		if attempt < l.MaxRetries {
			if err := l.wait(ctx); err != nil {
				return nil, NewLLMError(ErrorTypeRequest, "retry wait", err)
			}
		}
	}

	if l.MaxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("failed to generate after %d attempts: %w", l.MaxRetries+1, lastErr)
}

func (l *LLMImpl) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(l.RetryDelay):
		return nil
	}
}

func (l *LLMImpl) attemptGenerate(ctx context.Context, prompt string) (*providers.Response, error) {
	reqBody, err := l.Provider.PrepareRequest(prompt, l.Options)
	if err != nil {
		return nil, NewLLMError(ErrorTypeRequest, "failed to prepare request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.Provider.Endpoint(), bytes.NewReader(reqBody))
	if err != nil {
		return nil, NewLLMError(ErrorTypeRequest, "failed to create request", err)
	}
	for k, v := range l.Provider.Headers() {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, NewLLMError(ErrorTypeTransport, "failed to send request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewLLMError(ErrorTypeTransport, "failed to read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		l.logger.Error("API error", "provider", l.Provider.Name(), "status", resp.StatusCode, "body", truncate(body))
		return nil, NewLLMError(ErrorTypeTransport,
			fmt.Sprintf("API error: status code %d", resp.StatusCode), fmt.Errorf("%s", truncate(body)))
	}

	result, err := l.Provider.ParseResponse(body)
	if err != nil {
		return nil, NewLLMError(ErrorTypeResponse, "failed to parse response", err)
	}
	if result.Content == "" {
		return nil, NewLLMError(ErrorTypeResponse, "empty response", nil)
	}

	fields := []any{"provider", l.Provider.Name(), "duration", time.Since(start), "length", len(result.Content)}
	if result.Usage != nil {
		fields = append(fields, "input_tokens", result.Usage.InputTokens, "output_tokens", result.Usage.OutputTokens)
	}
	l.logger.Debug("Text generated successfully", fields...)
	return result, nil
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
