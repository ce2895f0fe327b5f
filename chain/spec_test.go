package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teilomillet/gochain/llm"
)

func TestValidateAcceptsLearningSpec(t *testing.T) {
	assert.NoError(t, learningSpec().Validate())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PipelineSpec)
		want   string
	}{
		{
			name:   "no stages",
			mutate: func(p *PipelineSpec) { p.Stages = nil },
			want:   "Stages",
		},
		{
			name:   "missing output key",
			mutate: func(p *PipelineSpec) { p.Stages[0].OutputKey = "" },
			want:   "OutputKey",
		},
		{
			name:   "output key not an identifier",
			mutate: func(p *PipelineSpec) { p.Stages[2].OutputKey = "time line" },
			want:   "identifier",
		},
		{
			name:   "input from a later stage",
			mutate: func(p *PipelineSpec) { p.Stages[0].Template = "Use {schedule}" },
			want:   `input "schedule" is neither a pipeline input nor an earlier output`,
		},
		{
			name: "placeholder outside declared inputs",
			mutate: func(p *PipelineSpec) {
				p.Stages[1].Inputs = []string{"roadmap"}
			},
			want: "placeholder {language} is not a declared input",
		},
		{
			name:   "duplicate output key",
			mutate: func(p *PipelineSpec) { p.Stages[2].OutputKey = "roadmap" },
			want:   `output key "roadmap" already produced by roadmap`,
		},
		{
			name:   "output key shadows input",
			mutate: func(p *PipelineSpec) { p.Stages[0].OutputKey = "language" },
			want:   "shadows an input variable",
		},
		{
			name:   "output variable never produced",
			mutate: func(p *PipelineSpec) { p.OutputVariables = append(p.OutputVariables, "summary") },
			want:   `output variable "summary" is not produced by any stage`,
		},
		{
			name:   "duplicate input variable",
			mutate: func(p *PipelineSpec) { p.InputVariables = append(p.InputVariables, "language") },
			want:   `input variable "language" declared twice`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := learningSpec()
			tt.mutate(spec)

			err := spec.Validate()
			require.Error(t, err)
			assert.True(t, llm.IsInvalidPipeline(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestStageInputVariables(t *testing.T) {
	stage := Stage{Name: "s", Template: "{b} then {a} then {b}", OutputKey: "out"}
	assert.Equal(t, []string{"b", "a"}, stage.InputVariables())

	stage.Inputs = []string{"a", "b", "c"}
	assert.Equal(t, []string{"a", "b", "c"}, stage.InputVariables())
}

func TestResultGet(t *testing.T) {
	var nilResult *Result
	assert.Equal(t, "", nilResult.Get("x"))
	assert.Equal(t, "v", (&Result{Outputs: map[string]string{"x": "v"}}).Get("x"))
}
