package model

import "time"

// RunStatus is the lifecycle state of an analysis run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded execution of the analysis pipeline.
type Run struct {
	ID        string     `json:"id"`
	InputPath string     `json:"input_path"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult summarizes a completed run for persistence and listing.
type RunResult struct {
	Items         int      `json:"items"`
	Themes        []string `json:"themes"`
	Assignments   int      `json:"assignments"`
	ErrorRows     int      `json:"error_rows"`
	ArtifactDir   string   `json:"artifact_dir"`
	OracleCalls   int      `json:"oracle_calls"`
	InputTokens   int      `json:"input_tokens"`
	OutputTokens  int      `json:"output_tokens"`
	EstimatedCost float64  `json:"estimated_cost_usd"`
	DurationMS    int64    `json:"duration_ms"`
}
