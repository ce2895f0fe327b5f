// Package chain runs ordered template stages against a model, feeding each
// stage's output into the stages that follow it.
package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/teilomillet/gochain/llm"
)

// Stage fills one template and stores the generated text under OutputKey.
type Stage struct {
	Name string `yaml:"name" json:"name" validate:"required" jsonschema:"description=Stage name used in logs and errors"`
	// Inputs lists the bindings passed to the template. Empty means the
	// template's placeholders.
	Inputs    []string `yaml:"inputs,omitempty" json:"inputs,omitempty" validate:"dive,identifier" jsonschema:"description=Variables the template may use; defaults to its placeholders"`
	Template  string   `yaml:"template" json:"template" validate:"required" jsonschema:"description=Prompt text with {name} placeholders"`
	OutputKey string   `yaml:"output_key" json:"output_key" validate:"required,identifier" jsonschema:"description=Name the generated text is stored under"`
}

// InputVariables returns the declared inputs, or the template's
// placeholders when none are declared.
func (s Stage) InputVariables() []string {
	return s.PromptTemplate().InputVariables()
}

// PromptTemplate returns the stage's template as an llm.PromptTemplate.
func (s Stage) PromptTemplate() *llm.PromptTemplate {
	return llm.NewPromptTemplate(s.Name, "", s.Template, llm.WithInputs(s.Inputs...))
}

// PipelineSpec is an ordered list of stages with its external inputs and
// the outputs a run returns.
type PipelineSpec struct {
	Name            string   `yaml:"name" json:"name" validate:"required" jsonschema:"description=Pipeline name"`
	Description     string   `yaml:"description,omitempty" json:"description,omitempty"`
	InputVariables  []string `yaml:"input_variables" json:"input_variables" validate:"dive,identifier" jsonschema:"description=External inputs every run must supply"`
	OutputVariables []string `yaml:"output_variables" json:"output_variables" validate:"required,min=1,dive,identifier" jsonschema:"description=Stage output keys returned by a run"`
	Stages          []Stage  `yaml:"stages" json:"stages" validate:"required,min=1,dive" jsonschema:"description=Stages in execution order"`
}

// Validate checks the spec without calling a model. Every stage input must
// be an external input or an earlier stage's output, every template
// placeholder must be a declared input, output keys must be unique and
// distinct from the inputs, and every output variable must be produced by
// some stage.
func (p *PipelineSpec) Validate() error {
	if err := llm.Validate(p); err != nil {
		return llm.NewLLMError(llm.ErrorTypeInvalidPipeline,
			fmt.Sprintf("pipeline %q", p.Name), describeValidation(err))
	}

	var problems []string
	available := make(map[string]bool)
	for _, name := range p.InputVariables {
		if available[name] {
			problems = append(problems, fmt.Sprintf("input variable %q declared twice", name))
		}
		available[name] = true
	}

	producedBy := make(map[string]string)
	for i, stage := range p.Stages {
		label := fmt.Sprintf("stage %d (%s)", i+1, stage.Name)

		declared := make(map[string]bool)
		for _, name := range stage.InputVariables() {
			declared[name] = true
			if !available[name] {
				problems = append(problems, fmt.Sprintf("%s: input %q is neither a pipeline input nor an earlier output", label, name))
			}
		}
		for _, name := range llm.Placeholders(stage.Template) {
			if !declared[name] {
				problems = append(problems, fmt.Sprintf("%s: placeholder {%s} is not a declared input", label, name))
			}
		}

		switch {
		case producedBy[stage.OutputKey] != "":
			problems = append(problems, fmt.Sprintf("%s: output key %q already produced by %s", label, stage.OutputKey, producedBy[stage.OutputKey]))
		case available[stage.OutputKey]:
			problems = append(problems, fmt.Sprintf("%s: output key %q shadows an input variable", label, stage.OutputKey))
		}
		producedBy[stage.OutputKey] = stage.Name
		available[stage.OutputKey] = true
	}

	for _, name := range p.OutputVariables {
		if producedBy[name] == "" {
			problems = append(problems, fmt.Sprintf("output variable %q is not produced by any stage", name))
		}
	}

	if len(problems) > 0 {
		return llm.NewLLMError(llm.ErrorTypeInvalidPipeline,
			fmt.Sprintf("pipeline %q", p.Name), errors.New(strings.Join(problems, "; ")))
	}
	return nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
