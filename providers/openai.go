package providers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teilomillet/gochain/config"
	"github.com/teilomillet/gochain/utils"
)

const (
	defaultOpenAIBase     = "https://api.openai.com/v1"
	defaultOpenRouterBase = "https://openrouter.ai/api/v1"
)

// OpenAIProvider implements the Provider interface for OpenAI's chat
// completions API and the compatible services built on it.
type OpenAIProvider struct {
	name         string
	apiKey       string
	model        string
	base         string
	extraHeaders map[string]string
	options      map[string]any
	logger       utils.Logger
}

// NewOpenAIProvider creates a new OpenAI provider instance
func NewOpenAIProvider(apiKey, model string, extraHeaders map[string]string) Provider {
	return newOpenAICompatible("openai", defaultOpenAIBase, apiKey, model, extraHeaders)
}

// NewOpenRouterProvider creates a provider for OpenRouter, which speaks the
// OpenAI wire format with namespaced model ids such as "google/gemini-2.0-flash-001".
func NewOpenRouterProvider(apiKey, model string, extraHeaders map[string]string) Provider {
	return newOpenAICompatible("openrouter", defaultOpenRouterBase, apiKey, model, extraHeaders)
}

func newOpenAICompatible(name, base, apiKey, model string, extraHeaders map[string]string) *OpenAIProvider {
	p := &OpenAIProvider{
		name:         name,
		apiKey:       apiKey,
		model:        model,
		base:         base,
		extraHeaders: make(map[string]string),
		options:      make(map[string]any),
		logger:       utils.NewLogger(utils.LogLevelWarn),
	}
	for k, v := range extraHeaders {
		p.extraHeaders[k] = v
	}
	return p
}

func (p *OpenAIProvider) SetOption(key string, value any) {
	p.options[key] = value
}

func (p *OpenAIProvider) SetDefaultOptions(cfg *config.Config) {
	p.SetOption("temperature", cfg.Temperature)
	p.SetOption("max_tokens", cfg.MaxTokens)
	p.logger.Debug("Default options set", "provider", p.name, "temperature", cfg.Temperature, "max_tokens", cfg.MaxTokens)
}

func (p *OpenAIProvider) Name() string {
	return p.name
}

func (p *OpenAIProvider) Endpoint() string {
	return strings.TrimRight(p.base, "/") + "/chat/completions"
}

func (p *OpenAIProvider) SetEndpoint(base string) {
	if base != "" {
		p.base = base
	}
}

func (p *OpenAIProvider) RequiresAPIKey() bool {
	return true
}

func (p *OpenAIProvider) Headers() map[string]string {
	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + p.apiKey,
	}
	for key, value := range p.extraHeaders {
		headers[key] = value
	}
	return headers
}

func (p *OpenAIProvider) SetExtraHeaders(extraHeaders map[string]string) {
	p.extraHeaders = extraHeaders
}

func (p *OpenAIProvider) SetLogger(logger utils.Logger) {
	p.logger = logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PrepareRequest builds a chat completion body with one user message and an
// optional system message.
func (p *OpenAIProvider) PrepareRequest(prompt string, options map[string]any) ([]byte, error) {
	opts := mergeOptions(p.options, options)

	var messages []chatMessage
	if sys, ok := opts["system_prompt"].(string); ok && sys != "" {
		messages = append(messages, chatMessage{Role: "system", Content: sys})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body := map[string]any{
		"model":    p.model,
		"messages": messages,
	}
	for k, v := range opts {
		switch k {
		case "system_prompt":
			continue
		case "max_tokens":
			if n, ok := v.(int); ok && n <= 0 {
				continue
			}
		}
		body[k] = v
	}
	return json.Marshal(body)
}

func (p *OpenAIProvider) ParseResponse(body []byte) (*Response, error) {
	var resp struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
		Usage *struct {
			PromptTokens     int64 `json:"prompt_tokens"`
			CompletionTokens int64 `json:"completion_tokens"`
		} `json:"usage,omitempty"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error,omitempty"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty choices in response")
	}

	result := &Response{Content: resp.Choices[0].Message.Content}
	if resp.Usage != nil {
		result.Usage = &Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens}
	}
	return result, nil
}
