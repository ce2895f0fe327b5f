package providers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teilomillet/gochain/config"
)

func TestGeminiEndpointAndHeaders(t *testing.T) {
	p := NewGeminiProvider("g-key", "gemini-2.0-flash", map[string]string{"X-Trace": "1"})

	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent", p.Endpoint())

	p.SetEndpoint("http://127.0.0.1:9999/v1beta/")
	assert.Equal(t, "http://127.0.0.1:9999/v1beta/models/gemini-2.0-flash:generateContent", p.Endpoint())

	headers := p.Headers()
	assert.Equal(t, "g-key", headers["x-goog-api-key"])
	assert.Equal(t, "application/json", headers["Content-Type"])
	assert.Equal(t, "1", headers["X-Trace"])
	assert.True(t, p.RequiresAPIKey())
}

func TestGeminiModelPrefixIsNotDoubled(t *testing.T) {
	p := NewGeminiProvider("k", "models/gemini-1.5-pro", nil)
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-pro:generateContent", p.Endpoint())
}

func TestGeminiPrepareRequest(t *testing.T) {
	p := NewGeminiProvider("k", "gemini-2.0-flash", nil)
	p.SetDefaultOptions(config.NewConfig())

	body, err := p.PrepareRequest("Create a roadmap", map[string]any{
		"system_prompt": "You are an instructor",
		"temperature":   0.2,
	})
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(body, &req))

	contents := req["contents"].([]any)
	require.Len(t, contents, 1)
	first := contents[0].(map[string]any)
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "Create a roadmap", first["parts"].([]any)[0].(map[string]any)["text"])

	sys := req["systemInstruction"].(map[string]any)
	assert.Equal(t, "You are an instructor", sys["parts"].([]any)[0].(map[string]any)["text"])

	gen := req["generationConfig"].(map[string]any)
	assert.Equal(t, 0.2, gen["temperature"])
	assert.Equal(t, float64(2048), gen["maxOutputTokens"])
}

func TestGeminiParseResponse(t *testing.T) {
	p := NewGeminiProvider("k", "gemini-2.0-flash", nil)

	body := []byte(`{
		"candidates": [{"content": {"role": "model", "parts": [{"text": "# Roadmap"}, {"text": "\n1. Setup"}]}, "finishReason": "STOP"}],
		"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 34}
	}`)

	resp, err := p.ParseResponse(body)
	require.NoError(t, err)
	assert.Equal(t, "# Roadmap\n1. Setup", resp.Content)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, int64(12), resp.Usage.InputTokens)
	assert.Equal(t, int64(34), resp.Usage.OutputTokens)
}

func TestGeminiParseResponseErrors(t *testing.T) {
	p := NewGeminiProvider("k", "gemini-2.0-flash", nil)

	_, err := p.ParseResponse([]byte(`not json`))
	assert.Error(t, err)

	_, err = p.ParseResponse([]byte(`{"candidates": []}`))
	assert.EqualError(t, err, "no candidates in response")

	_, err = p.ParseResponse([]byte(`{"promptFeedback": {"blockReason": "SAFETY"}}`))
	assert.EqualError(t, err, "prompt blocked: SAFETY")
}
