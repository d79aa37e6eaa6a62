package prompts

// PromptID identifies a specific prompt template.
type PromptID string

// Prompt identifiers. The ID is the template path without the .tmpl suffix.
const (
	// Implement asks for the first implementation and test file.
	Implement PromptID = "generate/implement"

	// ImproveCode asks for a better implementation given lint and complexity results.
	ImproveCode PromptID = "improve/code"

	// ImproveTests asks for a better test file given the test run output.
	ImproveTests PromptID = "improve/tests"

	// Validate asks whether a proposal still addresses the task.
	Validate PromptID = "review/validate"
)

// ImplementData contains input data for the Implement prompt.
type ImplementData struct {
	// Task is the user's task description.
	Task string
	// WorkingDir is the project directory.
	WorkingDir string
	// CodeFile is the implementation file name (main.py).
	CodeFile string
	// TestFile is the test file path relative to the project (tests/test_main.py).
	TestFile string
}

// ImproveCodeData contains input data for the ImproveCode prompt.
type ImproveCodeData struct {
	Task       string
	WorkingDir string
	// FilePath is the implementation file to improve, relative to WorkingDir.
	FilePath         string
	LintScore        float64
	Complexity       int
	ComplexityKnown  bool
	LintOutput       string
	ComplexityOutput string
}

// ImproveTestsData contains input data for the ImproveTests prompt.
type ImproveTestsData struct {
	Task              string
	WorkingDir        string
	CodeFile          string
	TestFile          string
	TestOutput        string
	Passed            bool
	Coverage          int
	CoverageThreshold int
}

// ValidateData contains input data for the Validate prompt.
type ValidateData struct {
	Task string
	// Proposal is the raw model response being reviewed.
	Proposal string
}
