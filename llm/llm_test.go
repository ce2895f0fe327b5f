package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teilomillet/gochain/config"
	"github.com/teilomillet/gochain/providers"
	"github.com/teilomillet/gochain/utils"
)

func geminiReply(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"role": "model", "parts": []map[string]any{{"text": text}}}},
		},
		"usageMetadata": map[string]any{"promptTokenCount": 5, "candidatesTokenCount": 7},
	}
}

func newTestLLM(t *testing.T, endpoint string, opts ...config.ConfigOption) *LLMImpl {
	t.Helper()
	cfg := config.NewConfig()
	config.ApplyOptions(cfg, config.SetEndpoint(endpoint), config.SetAPIKey("test-key"))
	config.ApplyOptions(cfg, opts...)

	l, err := NewLLM(cfg, utils.NewLogger(utils.LogLevelOff), providers.NewProviderRegistry())
	require.NoError(t, err)
	return l
}

func TestGenerate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(geminiReply("a roadmap"))
	}))
	defer server.Close()

	l := newTestLLM(t, server.URL)
	out, err := l.Generate(context.Background(), "Create a roadmap for Go")
	require.NoError(t, err)

	assert.Equal(t, "a roadmap", out)
	assert.Equal(t, "/models/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, 0.7, gotBody["generationConfig"].(map[string]any)["temperature"])
	assert.Equal(t, "google", l.ProviderName())
	assert.Equal(t, "gemini-2.0-flash", l.Model())
}

func TestGenerateResponseUsage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiReply("ok"))
	}))
	defer server.Close()

	resp, err := newTestLLM(t, server.URL).GenerateResponse(context.Background(), "hi")
	require.NoError(t, err)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, int64(7), resp.Usage.OutputTokens)
}

func TestGenerateMissingCredential(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	cfg := config.NewConfig()
	config.ApplyOptions(cfg, config.SetEndpoint(server.URL), config.SetMaxRetries(3))
	l, err := NewLLM(cfg, utils.NewLogger(utils.LogLevelOff), providers.NewProviderRegistry())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = l.Generate(context.Background(), "hello")
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestGenerateNoCredentialNeeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		_, _ = w.Write([]byte(`{"response":"local answer"}`))
	}))
	defer server.Close()

	cfg := config.NewConfig()
	config.ApplyOptions(cfg, config.SetProvider("ollama"), config.SetModel("llama3"), config.SetEndpoint(server.URL))
	l, err := NewLLM(cfg, utils.NewLogger(utils.LogLevelOff), providers.NewProviderRegistry())
	require.NoError(t, err)

	out, err := l.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "local answer", out)
}

func TestGenerateTransportErrors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		var hits int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
		}))
		defer server.Close()

		_, err := newTestLLM(t, server.URL).Generate(context.Background(), "hi")
		require.Error(t, err)
		assert.True(t, IsTransportError(err))
		assert.Contains(t, err.Error(), "status code 401")
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "no retries by default")
	})

	t.Run("connection refused", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := newTestLLM(t, url).Generate(context.Background(), "hi")
		require.Error(t, err)
		assert.True(t, IsTransportError(err))
	})
}

func TestGenerateResponseErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiReply(""))
	}))
	defer server.Close()

	_, err := newTestLLM(t, server.URL).Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, ErrorTypeResponse, TypeOf(err))
}

func TestGenerateRetries(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(geminiReply("third time"))
	}))
	defer server.Close()

	l := newTestLLM(t, server.URL, config.SetMaxRetries(2), config.SetRetryDelay(time.Millisecond))
	out, err := l.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "third time", out)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestGenerateRetriesExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	l := newTestLLM(t, server.URL, config.SetMaxRetries(1), config.SetRetryDelay(time.Millisecond))
	_, err := l.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.True(t, IsTransportError(err))
}

func TestGenerateHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiReply("late"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestLLM(t, server.URL, config.SetRateLimit(1)).Generate(ctx, "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewLLMUnknownProvider(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Provider = "watsonx"

	_, err := NewLLM(cfg, utils.NewLogger(utils.LogLevelOff), providers.NewProviderRegistry())
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestSystemPromptOption(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(geminiReply("ok"))
	}))
	defer server.Close()

	l := newTestLLM(t, server.URL)
	l.SetOption("system_prompt", "You are an instructor")
	_, err := l.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Contains(t, gotBody, "systemInstruction")
}
