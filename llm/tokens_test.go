package llm

import (
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teilomillet/gochain/utils"
)

func TestEstimateCounter(t *testing.T) {
	c := EstimateCounter{}
	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 1, c.Count("abc"))
	assert.Equal(t, 1, c.Count("abcd"))
	assert.Equal(t, 2, c.Count("abcde"))
}

func TestTokenCounterStaysOffline(t *testing.T) {
	var outbound int32
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&outbound, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer proxy.Close()

	cacheDir := t.TempDir()
	t.Setenv("HTTPS_PROXY", proxy.URL)
	t.Setenv("HTTP_PROXY", proxy.URL)
	t.Setenv("TIKTOKEN_CACHE_DIR", cacheDir)

	c := NewTokenCounter("gemini-2.0-flash", utils.NewLogger(utils.LogLevelOff))

	// cl100k_base splits this into "hello" and " world"; the estimate would say 3.
	assert.Equal(t, 2, c.Count("hello world"))
	assert.Equal(t, int32(0), atomic.LoadInt32(&outbound))

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no encoding may be downloaded into the cache")
}

func TestTokenCounterKnownModel(t *testing.T) {
	c := NewTokenCounter("gpt-4o", utils.NewLogger(utils.LogLevelOff))
	assert.Greater(t, c.Count("Create a roadmap for Python"), 0)
}
