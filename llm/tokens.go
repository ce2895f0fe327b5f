package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/teilomillet/gochain/utils"
)

// TokenCounter estimates how many tokens a prompt costs.
type TokenCounter interface {
	Count(text string) int
}

// EstimateCounter uses the four-characters-per-token rule of thumb.
type EstimateCounter struct{}

func (EstimateCounter) Count(text string) int {
	return (len(text) + 3) / 4
}

// Encodings come from the ranks embedded in tiktoken-go-loader. Counting
// never touches the network.
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// tiktokenCounter parses its encoding on first use. When loading fails it
// falls back to EstimateCounter.
type tiktokenCounter struct {
	model    string
	logger   utils.Logger
	once     sync.Once
	encoding *tiktoken.Tiktoken
}

// NewTokenCounter returns a tiktoken-backed counter for model. Models
// tiktoken does not know (Gemini, Llama) are counted with cl100k_base.
func NewTokenCounter(model string, logger utils.Logger) TokenCounter {
	return &tiktokenCounter{model: model, logger: logger}
}

func (c *tiktokenCounter) load() {
	encoding, err := tiktoken.EncodingForModel(c.model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		c.logger.Warn("Token encoding unavailable, using character estimate", "model", c.model, "error", err)
		return
	}
	c.encoding = encoding
}

func (c *tiktokenCounter) Count(text string) int {
	c.once.Do(c.load)
	if c.encoding == nil {
		return EstimateCounter{}.Count(text)
	}
	return len(c.encoding.Encode(text, nil, nil))
}
