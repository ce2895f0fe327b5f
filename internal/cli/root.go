// Package cli implements the gochain command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teilomillet/gochain"
	"github.com/teilomillet/gochain/llm"
	"github.com/teilomillet/gochain/utils"
)

// clientFactory builds the client behind model-calling commands.
type clientFactory func(opts ...gochain.ConfigOption) (*gochain.Client, error)

// app holds the persistent flags shared by every command.
type app struct {
	newClient   clientFactory
	provider    string
	model       string
	endpoint    string
	temperature float64
	maxTokens   int
	logLevel    string
	verbose     bool
}

// Execute runs the command line with ctx.
func Execute(ctx context.Context) error {
	return newRootCmd(gochain.NewClient).ExecuteContext(ctx)
}

func newRootCmd(factory clientFactory) *cobra.Command {
	a := &app{newClient: factory}

	root := &cobra.Command{
		Use:           "gochain",
		Short:         "Run prompt pipelines against a hosted model",
		Long:          "gochain fills prompt templates, sends them to a language model and feeds each answer into the next template.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.provider, "provider", "", "Model provider (google, openai, openrouter, ollama)")
	flags.StringVar(&a.model, "model", "", "Model identifier")
	flags.StringVar(&a.endpoint, "endpoint", "", "Override the provider base URL")
	flags.Float64Var(&a.temperature, "temperature", 0, "Sampling temperature")
	flags.IntVar(&a.maxTokens, "max-tokens", 0, "Maximum tokens to generate")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (off, error, warn, info, debug)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Log every rendered prompt")

	root.AddCommand(
		a.learnCmd(),
		a.recipeCmd(),
		a.runCmd(),
		a.askCmd(),
		a.serveCmd(),
		schemaCmd(),
		languagesCmd(),
	)
	return root
}

// client applies only the flags the user actually set, so the environment
// keeps precedence for the rest.
func (a *app) client(cmd *cobra.Command) (*gochain.Client, error) {
	var opts []gochain.ConfigOption
	changed := func(name string) bool { return cmd.Flags().Changed(name) }

	if changed("provider") {
		opts = append(opts, gochain.SetProvider(a.provider))
	}
	if changed("model") {
		opts = append(opts, gochain.SetModel(a.model))
	}
	if changed("endpoint") {
		opts = append(opts, gochain.SetEndpoint(a.endpoint))
	}
	if changed("temperature") {
		opts = append(opts, gochain.SetTemperature(a.temperature))
	}
	if changed("max-tokens") {
		opts = append(opts, gochain.SetMaxTokens(a.maxTokens))
	}
	if changed("log-level") {
		level, err := utils.ParseLogLevel(a.logLevel)
		if err != nil {
			return nil, llm.NewLLMError(llm.ErrorTypeInvalidInput, err.Error(), nil)
		}
		opts = append(opts, gochain.SetLogLevel(level))
	}
	if changed("verbose") {
		opts = append(opts, gochain.SetVerbose(a.verbose))
	}
	return a.newClient(opts...)
}

// UserMessage turns err into the line shown to the user. Input problems
// are shown as is; everything else gets a generic message.
func UserMessage(err error) string {
	var llmErr *llm.LLMError
	if errors.As(err, &llmErr) {
		switch llmErr.Type {
		case llm.ErrorTypeInvalidInput:
			return "Invalid input: " + llmErr.Message
		case llm.ErrorTypeInvalidPipeline, llm.ErrorTypeMissingVariable:
			return "Invalid pipeline: " + err.Error()
		case llm.ErrorTypeConfig:
			return "Failed to initialize the AI model. Check your API key and configuration."
		}
	}
	return "An error occurred. Please try again or check your API configuration."
}

func printSection(w io.Writer, title, body string) {
	fmt.Fprintf(w, "## %s\n\n%s\n\n", title, body)
}
