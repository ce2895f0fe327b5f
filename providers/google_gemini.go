package providers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teilomillet/gochain/config"
	"github.com/teilomillet/gochain/utils"
)

const defaultGeminiBase = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider implements the Provider interface for Google's Generative
// Language API (generateContent).
type GeminiProvider struct {
	apiKey       string
	model        string
	base         string
	extraHeaders map[string]string
	options      map[string]any
	logger       utils.Logger
}

// NewGeminiProvider creates a provider for model, e.g. "gemini-2.0-flash".
// The model may be given with or without the "models/" prefix.
func NewGeminiProvider(apiKey, model string, extraHeaders map[string]string) Provider {
	provider := &GeminiProvider{
		apiKey:       apiKey,
		model:        model,
		base:         defaultGeminiBase,
		extraHeaders: make(map[string]string),
		options:      make(map[string]any),
		logger:       utils.NewLogger(utils.LogLevelWarn),
	}
	for k, v := range extraHeaders {
		provider.extraHeaders[k] = v
	}
	return provider
}

func (p *GeminiProvider) Name() string {
	return "google"
}

// Endpoint returns e.g.
// "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent".
func (p *GeminiProvider) Endpoint() string {
	modelName := p.model
	if !strings.HasPrefix(modelName, "models/") {
		modelName = "models/" + modelName
	}
	return fmt.Sprintf("%s/%s:generateContent", strings.TrimRight(p.base, "/"), modelName)
}

func (p *GeminiProvider) SetEndpoint(base string) {
	if base != "" {
		p.base = base
	}
}

// Headers returns the request headers. The key travels in x-goog-api-key so
// it never shows up in a logged URL.
func (p *GeminiProvider) Headers() map[string]string {
	headers := map[string]string{
		"Content-Type":   "application/json",
		"x-goog-api-key": p.apiKey,
	}
	for k, v := range p.extraHeaders {
		headers[k] = v
	}
	return headers
}

func (p *GeminiProvider) SetExtraHeaders(extraHeaders map[string]string) {
	p.extraHeaders = extraHeaders
	p.logger.Debug("Extra headers set", "provider", p.Name(), "count", len(extraHeaders))
}

func (p *GeminiProvider) SetLogger(logger utils.Logger) {
	p.logger = logger
}

func (p *GeminiProvider) SetOption(key string, value any) {
	p.options[key] = value
}

func (p *GeminiProvider) SetDefaultOptions(cfg *config.Config) {
	p.SetOption("temperature", cfg.Temperature)
	p.SetOption("max_tokens", cfg.MaxTokens)
}

func (p *GeminiProvider) RequiresAPIKey() bool {
	return true
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  map[string]any  `json:"generationConfig,omitempty"`
}

// PrepareRequest builds a single-turn generateContent body. Per-call options
// override the provider defaults.
func (p *GeminiProvider) PrepareRequest(prompt string, options map[string]any) ([]byte, error) {
	opts := mergeOptions(p.options, options)

	req := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
	}

	if sys, ok := opts["system_prompt"].(string); ok && sys != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: sys}}}
	}

	genConfig := make(map[string]any)
	if maxTokens, ok := opts["max_tokens"].(int); ok && maxTokens > 0 {
		genConfig["maxOutputTokens"] = maxTokens
	}
	if temp, ok := opts["temperature"].(float64); ok {
		genConfig["temperature"] = temp
	}
	if topP, ok := opts["top_p"].(float64); ok {
		genConfig["topP"] = topP
	}
	if topK, ok := opts["top_k"].(int); ok {
		genConfig["topK"] = topK
	}
	if stops, ok := opts["stop_sequences"].([]string); ok && len(stops) > 0 {
		genConfig["stopSequences"] = stops
	}
	if len(genConfig) > 0 {
		req.GenerationConfig = genConfig
	}

	return json.Marshal(req)
}

// ParseResponse joins the text parts of the first candidate.
func (p *GeminiProvider) ParseResponse(body []byte) (*Response, error) {
	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text *string `json:"text,omitempty"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason,omitempty"`
		} `json:"candidates"`
		PromptFeedback *struct {
			BlockReason string `json:"blockReason,omitempty"`
		} `json:"promptFeedback,omitempty"`
		UsageMetadata *struct {
			PromptTokenCount     int64 `json:"promptTokenCount"`
			CandidatesTokenCount int64 `json:"candidatesTokenCount"`
		} `json:"usageMetadata,omitempty"`
	}

	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return nil, fmt.Errorf("no candidates in response")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != nil {
			text.WriteString(*part.Text)
		}
	}

	result := &Response{Content: text.String()}
	if um := resp.UsageMetadata; um != nil {
		result.Usage = &Usage{InputTokens: um.PromptTokenCount, OutputTokens: um.CandidatesTokenCount}
	}
	p.logger.Debug("Parsed response", "provider", p.Name(), "finish_reason", resp.Candidates[0].FinishReason, "length", len(result.Content))
	return result, nil
}

func mergeOptions(defaults, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
