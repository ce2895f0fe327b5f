package chain

import "time"

// Result holds the outputs of one run.
type Result struct {
	RunID string `json:"run_id"`
	// Outputs holds exactly the pipeline's output variables.
	Outputs map[string]string `json:"outputs"`
	Stages  []StageReport     `json:"stages,omitempty"`
}

// StageReport records what one stage cost.
type StageReport struct {
	Stage        string        `json:"stage"`
	OutputKey    string        `json:"output_key"`
	PromptTokens int           `json:"prompt_tokens"`
	Duration     time.Duration `json:"duration"`
}

// Get returns the output stored under key, or "" when there is none.
func (r *Result) Get(key string) string {
	if r == nil {
		return ""
	}
	return r.Outputs[key]
}
