package orchestrator

import (
	"context"

	"github.com/mrz1836/nemo/internal/constants"
	"github.com/mrz1836/nemo/internal/ctxutil"
	"github.com/mrz1836/nemo/internal/errors"
	"github.com/mrz1836/nemo/internal/metrics"
	"github.com/mrz1836/nemo/internal/prompts"
	"github.com/mrz1836/nemo/internal/solution"
)

// Loop names used in logs and metrics.
const (
	loopCode  = "code"
	loopTests = "tests"
)

// initialImplementation requests the first solution until a response writes
// at least one file. Exhausting the attempts is logged and the run continues.
func (o *Orchestrator) initialImplementation(ctx context.Context, r *run) error {
	p := r.result.Project
	prompt, err := prompts.Render(prompts.Implement, prompts.ImplementData{
		Task:       r.task,
		WorkingDir: p.Dir,
		CodeFile:   constants.CodeFileName,
		TestFile:   constants.TestFileName,
	})
	if err != nil {
		return errors.Wrap(err, "failed to render implementation prompt")
	}

	for attempt := 1; attempt <= o.thresholds.InitAttempts; attempt++ {
		r.logger.Info().Int("attempt", attempt).Msg("requesting initial implementation")

		response, err := o.deps.Model.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		o.installDependencies(ctx, r, response)

		written, err := o.apply(ctx, r, response)
		if err != nil {
			return err
		}
		if written > 0 {
			r.result.InitialImplementation = true
			r.logger.Info().Int("attempt", attempt).Int("files", written).Msg("initial implementation written")
			return nil
		}
		r.logger.Warn().Int("attempt", attempt).Msg("response contained no usable files")
	}

	r.logger.Error().
		Err(errors.ErrNoFilesWritten).
		Int("attempts", o.thresholds.InitAttempts).
		Msg("initial implementation failed, continuing with quality checks")
	return nil
}

// codeQualityLoop refines the implementation while its lint score is below
// the threshold and its complexity is above it.
func (o *Orchestrator) codeQualityLoop(ctx context.Context, r *run) error {
	th := o.thresholds
	p := r.result.Project
	o.measureCode(ctx, r)

	for attempt := 1; attempt < th.MaxImprovementAttempts; attempt++ {
		report := r.result.Code
		if !report.NeedsImprovement(th.PylintThreshold, th.ComplexipyThreshold) {
			r.logger.Info().Float64("score", report.Score).Msg("code meets quality thresholds")
			return nil
		}

		r.logger.Info().
			Int("attempt", attempt).
			Float64("score", report.Score).
			Int("complexity", report.Complexity).
			Msg("requesting code improvement")

		prompt, err := prompts.Render(prompts.ImproveCode, prompts.ImproveCodeData{
			Task:             r.task,
			WorkingDir:       p.Dir,
			FilePath:         constants.CodeFileName,
			LintScore:        report.Score,
			Complexity:       report.Complexity,
			ComplexityKnown:  report.ComplexityKnown,
			LintOutput:       report.LintOutput,
			ComplexityOutput: report.ComplexityOutput,
		})
		if err != nil {
			return errors.Wrap(err, "failed to render code improvement prompt")
		}

		r.result.CodeIterations++
		applied, converged, err := o.propose(ctx, r, loopCode, prompt)
		if err != nil {
			return err
		}
		if converged {
			return nil
		}
		if applied {
			o.measureCode(ctx, r)
		}
	}
	return nil
}

// testQualityLoop refines the tests while they fail or coverage is below the threshold.
func (o *Orchestrator) testQualityLoop(ctx context.Context, r *run) error {
	th := o.thresholds
	p := r.result.Project
	o.measureTests(ctx, r)

	for attempt := 1; attempt < th.MaxImprovementAttempts; attempt++ {
		report := r.result.Tests
		if !report.NeedsImprovement(th.CoverageThreshold) {
			r.logger.Info().Int("coverage", report.Coverage).Msg("tests meet quality thresholds")
			return nil
		}

		r.logger.Info().
			Int("attempt", attempt).
			Bool("passed", report.Passed).
			Int("coverage", report.Coverage).
			Msg("requesting test improvement")

		prompt, err := prompts.Render(prompts.ImproveTests, prompts.ImproveTestsData{
			Task:              r.task,
			WorkingDir:        p.Dir,
			CodeFile:          constants.CodeFileName,
			TestFile:          constants.TestFileName,
			TestOutput:        report.Output,
			Passed:            report.Passed,
			Coverage:          report.Coverage,
			CoverageThreshold: th.CoverageThreshold,
		})
		if err != nil {
			return errors.Wrap(err, "failed to render test improvement prompt")
		}

		r.result.TestIterations++
		applied, converged, err := o.propose(ctx, r, loopTests, prompt)
		if err != nil {
			return err
		}
		if converged {
			return nil
		}
		if applied {
			o.measureTests(ctx, r)
		}
	}
	return nil
}

// propose runs one improvement request: generate, check the history,
// validate, then apply. converged is true when the model repeated an earlier
// proposal; applied is true when at least one file was written.
func (o *Orchestrator) propose(ctx context.Context, r *run, loop, prompt string) (applied, converged bool, err error) {
	response, err := o.deps.Model.Generate(ctx, prompt)
	if err != nil {
		return false, false, err
	}

	if r.history.Contains(response) {
		o.deps.Metrics.Proposal(loop, metrics.ProposalDuplicate)
		r.logger.Info().Str("loop", loop).Msg("model repeated an earlier proposal, stopping loop")
		return false, true, nil
	}
	r.history.Add(response)

	accepted, err := o.deps.Validator.IsAccepted(ctx, response, r.task)
	if err != nil {
		return false, false, err
	}
	if !accepted {
		o.deps.Metrics.Proposal(loop, metrics.ProposalRejected)
		r.logger.Warn().Str("loop", loop).Err(errors.ErrValidationRejected).Msg("proposal discarded")
		return false, false, nil
	}
	o.deps.Metrics.Proposal(loop, metrics.ProposalAccepted)

	o.installDependencies(ctx, r, response)
	written, err := o.apply(ctx, r, response)
	if err != nil {
		return false, false, err
	}
	return written > 0, false, nil
}

// apply writes every valid file block in response into the project and
// returns how many were written. Content problems and write failures skip
// the file; only a canceled context is returned as an error.
func (o *Orchestrator) apply(ctx context.Context, r *run, response string) (int, error) {
	p := r.result.Project
	files := solution.ExtractFiles(response)
	if files.Len() == 0 {
		return 0, nil
	}
	r.logger.Debug().Strs("files", files.Paths()).Msg("applying file blocks")

	written := 0
	for _, f := range files.Files() {
		target, err := solution.ResolvePath(p.Dir, f.Path)
		if err != nil {
			r.logger.Warn().Err(err).Str("path", f.Path).Msg("skipping file outside the project")
			continue
		}

		content, err := o.deps.Content.Validate(ctx, f.Path, f.Content)
		if err != nil {
			continue
		}

		if err := o.deps.Writer.Write(ctx, target, content); err != nil {
			if ctxErr := ctxutil.Canceled(ctx); ctxErr != nil {
				return written, ctxErr
			}
			r.logger.Error().Err(err).Str("path", f.Path).Msg("failed to write file")
			continue
		}
		r.logger.Debug().Str("path", f.Path).Int("bytes", len(content)).Msg("file written")
		written++
	}
	return written, nil
}

// installDependencies runs the `uv add` lines of a response. Failures are logged.
func (o *Orchestrator) installDependencies(ctx context.Context, r *run, response string) {
	commands := solution.DependencyCommands(response)
	if len(commands) == 0 {
		return
	}
	if err := o.deps.Projects.AddDependencies(ctx, r.result.Project, commands); err != nil {
		r.logger.Warn().Err(err).Strs("commands", commands).Msg("failed to install requested dependencies")
	}
}

func (o *Orchestrator) measureCode(ctx context.Context, r *run) {
	report := o.deps.Quality.RunQualityChecks(ctx, r.result.Project.Dir, constants.CodeFileName)
	r.result.Code = report
	o.deps.Metrics.Quality(report.Score, report.Complexity, report.ComplexityKnown)
}

func (o *Orchestrator) measureTests(ctx context.Context, r *run) {
	report := o.deps.Tests.RunTests(ctx, r.result.Project.Dir)
	r.result.Tests = report
	o.deps.Metrics.Coverage(report.Coverage)
}

