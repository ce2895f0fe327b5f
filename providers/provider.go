// Package providers builds request bodies for, and parses responses from,
// the hosted text-generation APIs gochain can call.
package providers

import (
	"github.com/teilomillet/gochain/config"
	"github.com/teilomillet/gochain/utils"
)

// Provider defines the wire format of one hosted LLM API. It does not do
// any I/O: the llm package sends what PrepareRequest builds to Endpoint
// with Headers, and hands the body back to ParseResponse.
type Provider interface {
	Name() string
	Endpoint() string
	Headers() map[string]string

	// SetEndpoint overrides the API base URL, e.g. for a proxy or a test
	// server.
	SetEndpoint(base string)
	SetExtraHeaders(extraHeaders map[string]string)
	SetDefaultOptions(cfg *config.Config)
	SetOption(key string, value any)
	SetLogger(logger utils.Logger)

	// RequiresAPIKey reports whether a call without a credential is
	// pointless.
	RequiresAPIKey() bool

	PrepareRequest(prompt string, options map[string]any) ([]byte, error)
	ParseResponse(body []byte) (*Response, error)
}

// ProviderConstructor defines a function type for creating new provider instances.
type ProviderConstructor func(apiKey, model string, extraHeaders map[string]string) Provider
