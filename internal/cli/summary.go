package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mrz1836/nemo/internal/errors"
	"github.com/mrz1836/nemo/internal/orchestrator"
)

// runSummary is the JSON form of a finished run.
type runSummary struct {
	*orchestrator.Result

	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
	Archive    string `json:"archive,omitempty"`
}

// writeSummaryJSON encodes res as indented JSON.
func writeSummaryJSON(w io.Writer, res *orchestrator.Result, archive string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(runSummary{
		Result:     res,
		DurationMS: res.Duration().Milliseconds(),
		Error:      res.ErrorMessage(),
		Archive:    archive,
	})
}

// writeSummaryText renders a human-readable run summary.
func writeSummaryText(w io.Writer, res *orchestrator.Result, th orchestrator.Thresholds, archive string) {
	s := newOutputStyles()
	var b strings.Builder

	b.WriteString(s.header.Render("nemo run " + res.RunID))
	b.WriteString("\n")

	row := func(k, v string) {
		b.WriteString(s.key.Render(k))
		b.WriteString(s.value.Render(v))
		b.WriteString("\n")
	}

	row("Status", s.status(res.Status))
	if res.Project != nil {
		row("Project", res.Project.Dir)
	}
	if archive != "" {
		row("Archive", archive)
	}
	row("Initial implementation", s.check(res.InitialImplementation))

	complexity := s.dim.Render("unknown")
	if res.Code.ComplexityKnown {
		complexity = fmt.Sprintf("%d (max %d)", res.Code.Complexity, th.ComplexipyThreshold)
	}
	codeOK := !res.Code.NeedsImprovement(th.PylintThreshold, th.ComplexipyThreshold)
	row("Lint score", fmt.Sprintf("%.2f/10 (min %.1f) %s", res.Code.Score, th.PylintThreshold, s.check(codeOK)))
	row("Complexity", complexity)
	row("Code iterations", fmt.Sprintf("%d", res.CodeIterations))

	testsOK := !res.Tests.NeedsImprovement(th.CoverageThreshold)
	row("Tests passed", s.check(res.Tests.Passed))
	row("Coverage", fmt.Sprintf("%d%% (min %d%%) %s", res.Tests.Coverage, th.CoverageThreshold, s.check(testsOK)))
	row("Test iterations", fmt.Sprintf("%d", res.TestIterations))
	row("Duration", res.Duration().Round(time.Millisecond).String())

	if res.Err != nil {
		msg, action := errors.Actionable(res.Err)
		row("Failed stage", string(res.FailedStage))
		row("Error", s.failure.Render(msg))
		if action != "" {
			row("", s.dim.Render(action))
		}
	}

	_, _ = io.WriteString(w, b.String())
}

// writeError prints err with its suggested action.
func writeError(w io.Writer, err error) {
	s := newOutputStyles()
	msg, action := errors.Actionable(err)
	_, _ = fmt.Fprintln(w, s.failure.Render("Error: "+msg))
	if detail := err.Error(); detail != msg {
		_, _ = fmt.Fprintln(w, s.dim.Render("  "+detail))
	}
	if action != "" {
		_, _ = fmt.Fprintln(w, s.dim.Render("  "+action))
	}
}
