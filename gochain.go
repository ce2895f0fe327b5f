// Package gochain fills prompt templates, sends them to a hosted model and
// feeds each answer into the next template.
//
// Quick start:
//
//	client, err := gochain.NewClient()
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := client.LearningPlan(ctx, presets.LearningRequest{
//		Language:        "Python",
//		ExperienceLevel: "Beginner",
//		DailyHours:      1.0,
//	})
package gochain

import (
	"context"
	"fmt"

	"github.com/teilomillet/gochain/chain"
	"github.com/teilomillet/gochain/config"
	"github.com/teilomillet/gochain/llm"
	"github.com/teilomillet/gochain/presets"
	"github.com/teilomillet/gochain/providers"
	"github.com/teilomillet/gochain/utils"
)

// Re-exported so callers rarely need the subpackages.
type (
	Config       = config.Config
	ConfigOption = config.ConfigOption
	LogLevel     = utils.LogLevel
	PipelineSpec = chain.PipelineSpec
	Stage        = chain.Stage
	Result       = chain.Result
)

const (
	LogLevelOff   = utils.LogLevelOff
	LogLevelError = utils.LogLevelError
	LogLevelWarn  = utils.LogLevelWarn
	LogLevelInfo  = utils.LogLevelInfo
	LogLevelDebug = utils.LogLevelDebug
)

var (
	LoadConfig     = config.LoadConfig
	SetProvider    = config.SetProvider
	SetModel       = config.SetModel
	SetEndpoint    = config.SetEndpoint
	SetTemperature = config.SetTemperature
	SetMaxTokens   = config.SetMaxTokens
	SetTimeout     = config.SetTimeout
	SetAPIKey      = config.SetAPIKey
	SetMaxRetries  = config.SetMaxRetries
	SetRetryDelay  = config.SetRetryDelay
	SetRateLimit   = config.SetRateLimit
	SetLogLevel    = config.SetLogLevel
	SetVerbose     = config.SetVerbose
)

// Client bundles a configured model and the runner that drives it.
type Client struct {
	LLM    *llm.LLMImpl
	Runner *chain.Runner
	Config *config.Config
	Logger utils.Logger
}

// NewClient loads the environment (and .env), applies opts and builds a
// Client.
func NewClient(opts ...ConfigOption) (*Client, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	config.ApplyOptions(cfg, opts...)
	return NewClientFromConfig(cfg)
}

// NewClientFromConfig builds a Client from cfg as is.
func NewClientFromConfig(cfg *config.Config, opts ...llm.LLMOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, llm.NewLLMError(llm.ErrorTypeConfig, "invalid configuration", err)
	}

	logger := utils.NewLogger(cfg.LogLevel)
	if cfg.Verbose && cfg.LogLevel < utils.LogLevelDebug {
		logger.SetLevel(utils.LogLevelDebug)
	}

	model, err := llm.NewLLM(cfg, logger, providers.NewProviderRegistry(), opts...)
	if err != nil {
		return nil, err
	}

	runner := chain.NewRunner(model,
		chain.WithLogger(logger),
		chain.WithTokenCounter(llm.NewTokenCounter(cfg.Model, logger)),
		chain.WithVerbose(cfg.Verbose),
	)

	return &Client{LLM: model, Runner: runner, Config: cfg, Logger: logger}, nil
}

// Ask sends a single prompt.
func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	return c.LLM.Generate(ctx, prompt)
}

// Run executes spec with inputs.
func (c *Client) Run(ctx context.Context, spec *PipelineSpec, inputs map[string]any) (*Result, error) {
	return c.Runner.Run(ctx, spec, inputs)
}

func (c *Client) LearningPlan(ctx context.Context, req presets.LearningRequest) (*Result, error) {
	return presets.GenerateLearningPlan(ctx, c.Runner, req)
}

func (c *Client) Recipe(ctx context.Context, req presets.RecipeRequest) (*Result, error) {
	return presets.GenerateRecipe(ctx, c.Runner, req)
}
