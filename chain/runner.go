package chain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/teilomillet/gochain/llm"
	"github.com/teilomillet/gochain/utils"
)

const tracerName = "github.com/teilomillet/gochain/chain"

// Invoker sends one prompt to a model. llm.LLM satisfies it.
type Invoker interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Runner executes pipelines against an Invoker. It keeps no per-run state
// and may be shared between goroutines.
type Runner struct {
	invoker Invoker
	logger  utils.Logger
	counter llm.TokenCounter
	tracer  trace.Tracer
	verbose bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

func WithLogger(logger utils.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithTokenCounter sets the counter behind StageReport.PromptTokens.
func WithTokenCounter(counter llm.TokenCounter) RunnerOption {
	return func(r *Runner) {
		r.counter = counter
	}
}

func WithTracer(tracer trace.Tracer) RunnerOption {
	return func(r *Runner) {
		r.tracer = tracer
	}
}

// WithVerbose logs every rendered prompt and generated output at debug
// level.
func WithVerbose(verbose bool) RunnerOption {
	return func(r *Runner) {
		r.verbose = verbose
	}
}

// NewRunner returns a Runner that calls invoker once per stage.
func NewRunner(invoker Invoker, opts ...RunnerOption) *Runner {
	r := &Runner{
		invoker: invoker,
		logger:  utils.NewLogger(utils.LogLevelWarn),
		counter: llm.EstimateCounter{},
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes spec's stages in order with inputs as the external bindings.
// Each stage sees only its declared inputs, drawn from inputs plus the
// outputs of earlier stages. The first failure aborts the run and no
// partial result is returned.
func (r *Runner) Run(ctx context.Context, spec *PipelineSpec, inputs map[string]any) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	var missing []string
	for _, name := range spec.InputVariables {
		if _, ok := inputs[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, llm.NewLLMError(llm.ErrorTypeMissingVariable,
			fmt.Sprintf("pipeline %q: missing input(s) %s", spec.Name, strings.Join(missing, ", ")), nil)
	}

	runID := uuid.NewString()
	ctx, span := r.tracer.Start(ctx, "chain.run", trace.WithAttributes(
		attribute.String("chain.pipeline", spec.Name),
		attribute.String("chain.run_id", runID),
		attribute.Int("chain.stages", len(spec.Stages)),
	))
	defer span.End()

	r.logger.Info("Starting pipeline", "pipeline", spec.Name, "run_id", runID, "stages", len(spec.Stages))
	start := time.Now()

	bindings := make(map[string]any, len(inputs)+len(spec.Stages))
	for k, v := range inputs {
		bindings[k] = v
	}

	reports := make([]StageReport, 0, len(spec.Stages))
	for i, stage := range spec.Stages {
		report, output, err := r.runStage(ctx, stage, bindings)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "stage failed")
			r.logger.Error("Pipeline failed", "pipeline", spec.Name, "run_id", runID, "stage", stage.Name, "index", i, "error", err)
			return nil, fmt.Errorf("stage %q: %w", stage.Name, err)
		}
		bindings[stage.OutputKey] = output
		reports = append(reports, report)
	}

	outputs := make(map[string]string, len(spec.OutputVariables))
	for _, name := range spec.OutputVariables {
		outputs[name] = bindings[name].(string)
	}

	r.logger.Info("Pipeline completed", "pipeline", spec.Name, "run_id", runID, "duration", time.Since(start))
	return &Result{RunID: runID, Outputs: outputs, Stages: reports}, nil
}

func (r *Runner) runStage(ctx context.Context, stage Stage, bindings map[string]any) (StageReport, string, error) {
	ctx, span := r.tracer.Start(ctx, "chain.stage", trace.WithAttributes(
		attribute.String("chain.stage", stage.Name),
		attribute.String("chain.output_key", stage.OutputKey),
	))
	defer span.End()

	tmpl := stage.PromptTemplate()
	scoped := make(map[string]any)
	for _, name := range tmpl.InputVariables() {
		if v, ok := bindings[name]; ok {
			scoped[name] = v
		}
	}

	prompt, err := tmpl.Execute(scoped)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return StageReport{}, "", err
	}

	tokens := r.counter.Count(prompt)
	span.SetAttributes(attribute.Int("chain.prompt_tokens", tokens))
	if r.verbose {
		r.logger.Debug("Rendered prompt", "stage", stage.Name, "prompt", prompt)
	}

	start := time.Now()
	text, err := r.invoker.Generate(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return StageReport{}, "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		err := llm.NewLLMError(llm.ErrorTypeResponse, "model returned empty output", nil)
		span.RecordError(err)
		span.SetStatus(codes.Error, "empty output")
		return StageReport{}, "", err
	}
	if r.verbose {
		r.logger.Debug("Stage output", "stage", stage.Name, "output_key", stage.OutputKey, "output", text)
	}

	report := StageReport{
		Stage:        stage.Name,
		OutputKey:    stage.OutputKey,
		PromptTokens: tokens,
		Duration:     time.Since(start),
	}
	r.logger.Debug("Stage completed", "stage", stage.Name, "prompt_tokens", tokens, "duration", report.Duration)
	return report, text, nil
}
