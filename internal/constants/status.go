package constants

// RunStatus is the overall outcome of one orchestrator run.
// Status values use snake_case for JSON serialization compatibility.
type RunStatus string

const (
	// RunStatusSucceeded indicates every stage finished and both reports met their thresholds.
	RunStatusSucceeded RunStatus = "succeeded"

	// RunStatusPartial indicates the run finished but a threshold was not met
	// or the initial implementation could not be written.
	RunStatusPartial RunStatus = "partial"

	// RunStatusFailed indicates an infrastructure failure ended the run early.
	RunStatusFailed RunStatus = "failed"
)

// String returns the string representation of the RunStatus.
func (s RunStatus) String() string {
	return string(s)
}

// Stage identifies where an orchestrator run is in its state machine:
//
//	Init → ProjectSetup → InitialImplementation → CodeQualityLoop → TestQualityLoop → Done
//
// Failed absorbs from any stage.
type Stage string

const (
	// StageInit is the state before any work has started.
	StageInit Stage = "init"

	// StageProjectSetup creates the project skeleton.
	StageProjectSetup Stage = "project_setup"

	// StageInitialImplementation requests and writes the first solution.
	StageInitialImplementation Stage = "initial_implementation"

	// StageCodeQualityLoop refines the implementation against lint and complexity thresholds.
	StageCodeQualityLoop Stage = "code_quality_loop"

	// StageTestQualityLoop refines the tests against pass and coverage thresholds.
	StageTestQualityLoop Stage = "test_quality_loop"

	// StageDone is the terminal success state.
	StageDone Stage = "done"

	// StageFailed is the terminal failure state.
	StageFailed Stage = "failed"
)

// String returns the string representation of the Stage.
func (s Stage) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are allowed from the stage.
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageFailed
}
