// Package orchestrator runs one quality-gated generation: it sets up a
// project, asks the model for an implementation, then refines the code and
// the tests until their thresholds hold or the attempt budget runs out.
//
// Import rules:
//   - CAN import: internal/constants, internal/errors, internal/llm, internal/prompts,
//     internal/solution, internal/quality, internal/project, internal/metrics, internal/clock
//   - MUST NOT import: internal/cli, internal/config
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/nemo/internal/clock"
	"github.com/mrz1836/nemo/internal/constants"
	"github.com/mrz1836/nemo/internal/ctxutil"
	"github.com/mrz1836/nemo/internal/errors"
	"github.com/mrz1836/nemo/internal/llm"
	"github.com/mrz1836/nemo/internal/metrics"
	"github.com/mrz1836/nemo/internal/project"
	"github.com/mrz1836/nemo/internal/quality"
)

// ProjectCreator sets up the project a run writes into. Satisfied by *project.Creator.
type ProjectCreator interface {
	Create(ctx context.Context) (*project.Project, error)
	AddDependencies(ctx context.Context, p *project.Project, commands []string) error
}

// ProposalValidator judges whether a proposal addresses the task. Satisfied by *validator.Validator.
type ProposalValidator interface {
	IsAccepted(ctx context.Context, proposal, task string) (bool, error)
}

// ContentValidator prepares extracted content for writing. Satisfied by *solution.Validator.
type ContentValidator interface {
	Validate(ctx context.Context, path, content string) (string, error)
}

// FileWriter persists a file. Satisfied by *fileio.Writer.
type FileWriter interface {
	Write(ctx context.Context, path, content string) error
}

// QualityChecker measures the implementation. Satisfied by *quality.Gate.
type QualityChecker interface {
	RunQualityChecks(ctx context.Context, dir, file string) quality.Report
}

// TestRunner measures the tests. Satisfied by *quality.TestGate.
type TestRunner interface {
	RunTests(ctx context.Context, dir string) quality.TestReport
}

// Thresholds are the quality bounds of a run. They are copied into the
// Orchestrator at construction and never change during a run.
type Thresholds struct {
	// MaxImprovementAttempts bounds each refinement loop to MaxImprovementAttempts-1 requests.
	MaxImprovementAttempts int
	// PylintThreshold is the lint score lower bound.
	PylintThreshold float64
	// ComplexipyThreshold is the cognitive complexity upper bound.
	ComplexipyThreshold int
	// CoverageThreshold is the coverage percentage lower bound.
	CoverageThreshold int
	// InitAttempts is how many times the initial implementation is requested.
	InitAttempts int
}

// DefaultThresholds returns the built-in thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxImprovementAttempts: constants.DefaultMaxImprovementAttempts,
		PylintThreshold:        constants.DefaultPylintThreshold,
		ComplexipyThreshold:    constants.DefaultComplexipyThreshold,
		CoverageThreshold:      constants.DefaultCoverageThreshold,
		InitAttempts:           constants.DefaultInitAttempts,
	}
}

// Deps are the collaborators an Orchestrator drives.
type Deps struct {
	Projects  ProjectCreator
	Model     llm.Generator
	Validator ProposalValidator
	Content   ContentValidator
	Writer    FileWriter
	Quality   QualityChecker
	Tests     TestRunner
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Orchestrator runs the generate, measure, validate, apply cycle.
type Orchestrator struct {
	deps       Deps
	thresholds Thresholds
	logger     zerolog.Logger
	clock      clock.Clock
	newRunID   func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the clock used for run timestamps.
func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.clock = c
		}
	}
}

// New creates an Orchestrator. Thresholds below their minimum are raised to it.
func New(deps Deps, th Thresholds, logger zerolog.Logger, opts ...Option) *Orchestrator {
	if th.MaxImprovementAttempts < 1 {
		th.MaxImprovementAttempts = 1
	}
	if th.InitAttempts < 1 {
		th.InitAttempts = 1
	}
	o := &Orchestrator{
		deps:       deps,
		thresholds: th,
		logger:     logger.With().Str("component", "orchestrator").Logger(),
		clock:      clock.RealClock{},
		newRunID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Thresholds returns the thresholds the Orchestrator was built with.
func (o *Orchestrator) Thresholds() Thresholds {
	return o.thresholds
}

// run is the state of one Run call.
type run struct {
	task    string
	result  *Result
	history *SuggestionHistory
	logger  zerolog.Logger
}

// Run executes the full workflow for task. It always returns a non-nil
// Result; infrastructure failures end the run with status failed and set
// Result.Err.
func (o *Orchestrator) Run(ctx context.Context, task string) *Result {
	r := &run{
		task:    task,
		result:  newResult(o.newRunID(), o.clock.Now().UTC()),
		history: NewSuggestionHistory(),
	}
	r.logger = o.logger.With().Str("run_id", r.result.RunID).Logger()
	ctx = r.logger.WithContext(ctx)
	defer r.history.Clear()

	if err := o.execute(ctx, r); err != nil {
		o.fail(r, err)
	} else {
		o.finish(r)
	}

	o.deps.Metrics.RunFinished(string(r.result.Status), r.result.Duration())
	return r.result
}

// execute walks the stages in order. Any returned error is an infrastructure failure.
func (o *Orchestrator) execute(ctx context.Context, r *run) error {
	if strings.TrimSpace(r.task) == "" {
		return errors.ErrTaskRequired
	}

	o.transition(r, constants.StageProjectSetup, "run started")
	p, err := o.deps.Projects.Create(ctx)
	if err != nil {
		return err
	}
	r.result.Project = p
	r.logger = r.logger.With().Str("project", p.Name).Logger()
	r.logger.Info().Str("dir", p.Dir).Msg("project created")

	o.transition(r, constants.StageInitialImplementation, "project ready")
	if err := o.initialImplementation(ctx, r); err != nil {
		return err
	}

	o.transition(r, constants.StageCodeQualityLoop, "initial implementation finished")
	if err := o.codeQualityLoop(ctx, r); err != nil {
		return err
	}

	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	o.transition(r, constants.StageTestQualityLoop, "code quality loop finished")
	if err := o.testQualityLoop(ctx, r); err != nil {
		return err
	}

	return ctxutil.Canceled(ctx)
}

// finish moves the run to done and decides between succeeded and partial.
func (o *Orchestrator) finish(r *run) {
	res := r.result
	th := o.thresholds

	codeOK := !res.Code.NeedsImprovement(th.PylintThreshold, th.ComplexipyThreshold)
	testsOK := !res.Tests.NeedsImprovement(th.CoverageThreshold)
	res.Status = constants.RunStatusPartial
	if res.InitialImplementation && codeOK && testsOK {
		res.Status = constants.RunStatusSucceeded
	}
	o.transition(r, constants.StageDone, fmt.Sprintf("run %s", res.Status))

	r.logger.Info().
		Str("status", string(res.Status)).
		Float64("pylint_score", res.Code.Score).
		Int("complexity", res.Code.Complexity).
		Bool("tests_passed", res.Tests.Passed).
		Int("coverage", res.Tests.Coverage).
		Int("code_iterations", res.CodeIterations).
		Int("test_iterations", res.TestIterations).
		Dur("duration", res.Duration()).
		Msg("run finished")
}

// fail moves the run to the absorbing failed stage.
func (o *Orchestrator) fail(r *run, err error) {
	r.result.Err = err
	r.result.Status = constants.RunStatusFailed
	o.transition(r, constants.StageFailed, err.Error())
	r.logger.Error().Err(err).Str("stage", string(r.result.FailedStage)).Msg("run failed")
}

// transition records a stage change on the run's result.
func (o *Orchestrator) transition(r *run, to constants.Stage, reason string) {
	res := r.result
	now := o.clock.Now().UTC()
	if to == constants.StageFailed {
		res.FailedStage = res.Stage
	}
	res.Transitions = append(res.Transitions, Transition{
		From:   res.Stage,
		To:     to,
		At:     now,
		Reason: reason,
	})
	res.Stage = to
	if to.IsTerminal() {
		res.CompletedAt = now
	}
	r.logger.Debug().Str("from", string(res.Transitions[len(res.Transitions)-1].From)).
		Str("to", string(to)).Msg("stage transition")
}
