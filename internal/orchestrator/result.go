package orchestrator

import (
	"time"

	"github.com/mrz1836/nemo/internal/constants"
	"github.com/mrz1836/nemo/internal/project"
	"github.com/mrz1836/nemo/internal/quality"
)

// Transition records one stage change.
type Transition struct {
	From   constants.Stage `json:"from"`
	To     constants.Stage `json:"to"`
	At     time.Time       `json:"at"`
	Reason string          `json:"reason,omitempty"`
}

// Result is the outcome of one run. Reports hold the last observed values.
type Result struct {
	RunID  string              `json:"run_id"`
	Status constants.RunStatus `json:"status"`
	Stage  constants.Stage     `json:"stage"`
	// FailedStage is the stage that was active when the run failed.
	FailedStage constants.Stage  `json:"failed_stage,omitempty"`
	Project     *project.Project `json:"project,omitempty"`

	Code           quality.Report     `json:"code"`
	Tests          quality.TestReport `json:"tests"`
	CodeIterations int                `json:"code_iterations"`
	TestIterations int                `json:"test_iterations"`

	// InitialImplementation is true when the first generation wrote at least one file.
	InitialImplementation bool `json:"initial_implementation"`

	StartedAt   time.Time    `json:"started_at"`
	CompletedAt time.Time    `json:"completed_at"`
	Transitions []Transition `json:"transitions"`

	// Err is the infrastructure failure that ended a failed run.
	Err error `json:"-"`
}

func newResult(runID string, now time.Time) *Result {
	return &Result{
		RunID:       runID,
		Status:      constants.RunStatusFailed,
		Stage:       constants.StageInit,
		StartedAt:   now,
		Transitions: make([]Transition, 0, 6),
	}
}

// Duration returns how long the run took, or zero while it is running.
func (r *Result) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// ErrorMessage returns the failure message, or "" when the run did not fail.
func (r *Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
