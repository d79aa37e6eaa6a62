package quality

import (
	"regexp"
	"strconv"
	"strings"
)

// Report is the code quality measurement for one file.
type Report struct {
	// Score is the pylint rating out of 10. 0 when no rating was printed.
	Score float64 `json:"score"`
	// Complexity is the total cognitive complexity. Only meaningful when
	// ComplexityKnown is true.
	Complexity       int    `json:"complexity"`
	ComplexityKnown  bool   `json:"complexity_known"`
	LintOutput       string `json:"-"`
	ComplexityOutput string `json:"-"`
}

// NeedsImprovement reports whether the report falls short of both thresholds:
// the score is below minScore and the complexity is above maxComplexity.
// Unknown complexity never exceeds the threshold.
func (r Report) NeedsImprovement(minScore float64, maxComplexity int) bool {
	return r.Score < minScore && r.ComplexityKnown && r.Complexity > maxComplexity
}

// TestReport is the outcome of one test run.
type TestReport struct {
	Passed   bool   `json:"passed"`
	Coverage int    `json:"coverage"`
	Output   string `json:"-"`
}

// NeedsImprovement reports whether tests fail or coverage is below minCoverage.
func (r TestReport) NeedsImprovement(minCoverage int) bool {
	return !r.Passed || r.Coverage < minCoverage
}

// Output markers.
const (
	noCoverageData = "No data to report."
	failedMarker   = "failed"
)

//nolint:gochecknoglobals // compiled once
var (
	// lintScorePattern matches pylint's summary line.
	lintScorePattern = regexp.MustCompile(`Your code has been rated at (\d+\.\d+)/10`)

	// coveragePattern matches the TOTAL row of coverage's term report.
	coveragePattern = regexp.MustCompile(`TOTAL\s+\d+\s+\d+\s+(\d+)%`)
)

// ParseLintScore extracts the pylint rating from output, or 0 when absent.
//
//	Your code has been rated at 8.75/10 (previous run: 7.50/10, +1.25)
func ParseLintScore(output string) float64 {
	m := lintScorePattern.FindStringSubmatch(output)
	if m == nil {
		return 0
	}
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return score
}

// ParseComplexity extracts complexipy's total for path. The second return is
// false when no total was printed for that path.
//
//	🧠 Total Cognitive Complexity in main.py: 12
func ParseComplexity(output, path string) (int, bool) {
	pattern, err := regexp.Compile(`Total Cognitive Complexity in\s*` + regexp.QuoteMeta(path) + `:\s*(\d+)`)
	if err != nil {
		return 0, false
	}
	m := pattern.FindStringSubmatch(output)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseCoverage extracts the total coverage percentage, or 0 when absent.
//
//	TOTAL                 42      3    93%
func ParseCoverage(output string) int {
	m := coveragePattern.FindStringSubmatch(output)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// ParseTestOutput builds a TestReport from combined pytest output and its
// exit code. A run where coverage had no data never passes.
func ParseTestOutput(output string, exitCode int) TestReport {
	if strings.Contains(output, noCoverageData) {
		return TestReport{Passed: false, Coverage: 0, Output: output}
	}
	return TestReport{
		Passed:   exitCode == 0 && !strings.Contains(strings.ToLower(output), failedMarker),
		Coverage: ParseCoverage(output),
		Output:   output,
	}
}
