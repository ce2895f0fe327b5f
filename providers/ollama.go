package providers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teilomillet/gochain/config"
	"github.com/teilomillet/gochain/utils"
)

const defaultOllamaBase = "http://localhost:11434"

// OllamaProvider talks to a local Ollama server's /api/generate endpoint.
// It needs no credential.
type OllamaProvider struct {
	model        string
	base         string
	extraHeaders map[string]string
	options      map[string]any
	logger       utils.Logger
}

func NewOllamaProvider(_ string, model string, extraHeaders map[string]string) Provider {
	p := &OllamaProvider{
		model:        model,
		base:         defaultOllamaBase,
		extraHeaders: make(map[string]string),
		options:      make(map[string]any),
		logger:       utils.NewLogger(utils.LogLevelWarn),
	}
	for k, v := range extraHeaders {
		p.extraHeaders[k] = v
	}
	return p
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) Endpoint() string {
	return strings.TrimRight(p.base, "/") + "/api/generate"
}

func (p *OllamaProvider) SetEndpoint(base string) {
	if base != "" {
		p.base = base
	}
}

func (p *OllamaProvider) Headers() map[string]string {
	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range p.extraHeaders {
		headers[k] = v
	}
	return headers
}

func (p *OllamaProvider) SetExtraHeaders(extraHeaders map[string]string) { p.extraHeaders = extraHeaders }
func (p *OllamaProvider) SetLogger(logger utils.Logger)                 { p.logger = logger }
func (p *OllamaProvider) SetOption(key string, value any)               { p.options[key] = value }
func (p *OllamaProvider) RequiresAPIKey() bool                          { return false }

func (p *OllamaProvider) SetDefaultOptions(cfg *config.Config) {
	p.SetOption("temperature", cfg.Temperature)
	p.SetOption("max_tokens", cfg.MaxTokens)
}

func (p *OllamaProvider) PrepareRequest(prompt string, options map[string]any) ([]byte, error) {
	opts := mergeOptions(p.options, options)

	modelOptions := make(map[string]any)
	if temp, ok := opts["temperature"].(float64); ok {
		modelOptions["temperature"] = temp
	}
	if maxTokens, ok := opts["max_tokens"].(int); ok && maxTokens > 0 {
		modelOptions["num_predict"] = maxTokens
	}

	body := map[string]any{
		"model":  p.model,
		"prompt": prompt,
		"stream": false,
	}
	if sys, ok := opts["system_prompt"].(string); ok && sys != "" {
		body["system"] = sys
	}
	if len(modelOptions) > 0 {
		body["options"] = modelOptions
	}
	return json.Marshal(body)
}

func (p *OllamaProvider) ParseResponse(body []byte) (*Response, error) {
	var resp struct {
		Response        string `json:"response"`
		Error           string `json:"error,omitempty"`
		PromptEvalCount int64  `json:"prompt_eval_count"`
		EvalCount       int64  `json:"eval_count"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ollama error: %s", resp.Error)
	}
	return &Response{
		Content: resp.Response,
		Usage:   &Usage{InputTokens: resp.PromptEvalCount, OutputTokens: resp.EvalCount},
	}, nil
}
