package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teilomillet/gochain/chain"
	"github.com/teilomillet/gochain/llm"
	"github.com/teilomillet/gochain/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type invokerFunc func(ctx context.Context, prompt string) (string, error)

func (f invokerFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func newTestServer(inv chain.Invoker) (*Server, *MemoryStore) {
	logger := utils.NewLogger(utils.LogLevelOff)
	store := NewMemoryStore()
	return New(chain.NewRunner(inv, chain.WithLogger(logger)), store, logger), store
}

func okInvoker() chain.Invoker {
	return invokerFunc(func(_ context.Context, prompt string) (string, error) {
		return "generated " + strings.SplitN(prompt, "\n", 2)[0], nil
	})
}

func do(t *testing.T, s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(okInvoker())
	w := do(t, s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestLanguages(t *testing.T) {
	s, _ := newTestServer(okInvoker())
	w := do(t, s, http.MethodGet, "/v1/languages", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp languagesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Languages, "TypeScript")
	assert.Equal(t, []string{"Beginner", "Intermediate", "Expert"}, resp.ExperienceLevels)
}

func TestLearningPlan(t *testing.T) {
	s, store := newTestServer(okInvoker())
	body := `{"language":"Python","experience_level":"Beginner","daily_hours":1.0}`

	w := do(t, s, http.MethodPost, "/v1/learning-plan", body, map[string]string{SessionHeader: "abc"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "abc", w.Header().Get(SessionHeader))

	var resp runResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "abc", resp.SessionID)
	assert.NotEmpty(t, resp.RunID)
	assert.Len(t, resp.Outputs, 3)
	assert.Contains(t, resp.Outputs, "roadmap")
	assert.Contains(t, resp.Outputs, "schedule")
	assert.Contains(t, resp.Outputs, "timeline")

	entry, err := store.Last(context.Background(), "abc")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "learning-guide", entry.Pipeline)
	assert.Equal(t, resp.RunID, entry.RunID)

	w = do(t, s, http.MethodGet, "/v1/sessions/abc/last", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cached Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cached))
	assert.Equal(t, resp.Outputs, cached.Outputs)
	assert.Equal(t, "Python", cached.Inputs["language"])
}

func TestSessionIDIssued(t *testing.T) {
	s, _ := newTestServer(okInvoker())
	w := do(t, s, http.MethodPost, "/v1/recipe", `{"dish":"Ramen","cuisine":"Japanese"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	id := w.Header().Get(SessionHeader)
	require.NotEmpty(t, id)

	w = do(t, s, http.MethodGet, "/v1/sessions/"+id+"/last", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLastResultOverwrites(t *testing.T) {
	s, _ := newTestServer(okInvoker())
	headers := map[string]string{SessionHeader: "s1"}
	do(t, s, http.MethodPost, "/v1/recipe", `{"dish":"Ramen","cuisine":"Japanese"}`, headers)
	do(t, s, http.MethodPost, "/v1/learning-plan", `{"language":"Ruby","experience_level":"Expert","daily_hours":2}`, headers)

	w := do(t, s, http.MethodGet, "/v1/sessions/s1/last", "", nil)
	var entry Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, "learning-guide", entry.Pipeline)
}

func TestLastResultNotFound(t *testing.T) {
	s, _ := newTestServer(okInvoker())
	w := do(t, s, http.MethodGet, "/v1/sessions/nobody/last", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		inv     chain.Invoker
		body    string
		status  int
		message string
	}{
		{
			name:    "malformed json",
			inv:     okInvoker(),
			body:    `{"language":`,
			status:  http.StatusBadRequest,
			message: "request body must be a JSON learning request",
		},
		{
			name:    "invalid input",
			inv:     okInvoker(),
			body:    `{"language":"Cobol","experience_level":"Beginner","daily_hours":1}`,
			status:  http.StatusBadRequest,
			message: "language must be one of",
		},
		{
			name: "transport failure",
			inv: invokerFunc(func(context.Context, string) (string, error) {
				return "", llm.NewLLMError(llm.ErrorTypeTransport, "API error: status code 401", nil)
			}),
			body:    `{"language":"Python","experience_level":"Beginner","daily_hours":1}`,
			status:  http.StatusBadGateway,
			message: msgModelFailure,
		},
		{
			name: "missing credential",
			inv: invokerFunc(func(context.Context, string) (string, error) {
				return "", llm.NewLLMError(llm.ErrorTypeConfig, "no API key configured", nil)
			}),
			body:    `{"language":"Python","experience_level":"Beginner","daily_hours":1}`,
			status:  http.StatusInternalServerError,
			message: msgInternal,
		},
		{
			name: "plain error",
			inv: invokerFunc(func(context.Context, string) (string, error) {
				return "", errors.New("boom")
			}),
			body:    `{"language":"Python","experience_level":"Beginner","daily_hours":1}`,
			status:  http.StatusInternalServerError,
			message: msgInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store := newTestServer(tt.inv)
			w := do(t, s, http.MethodPost, "/v1/learning-plan", tt.body, map[string]string{SessionHeader: "e"})
			assert.Equal(t, tt.status, w.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, tt.message)

			entry, err := store.Last(context.Background(), "e")
			require.NoError(t, err)
			assert.Nil(t, entry, "failed runs must not be cached")
		})
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(okInvoker())
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, listener) }()

	url := "http://" + listener.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestMode(t *testing.T) {
	assert.Equal(t, gin.ReleaseMode, Mode(utils.LogLevelOff))
	assert.Equal(t, gin.ReleaseMode, Mode(utils.LogLevelWarn))
	assert.Equal(t, gin.ReleaseMode, Mode(utils.LogLevelInfo))
	assert.Equal(t, gin.DebugMode, Mode(utils.LogLevelDebug))
}
