package config

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/nemo/internal/constants"
	"github.com/mrz1836/nemo/internal/ctxutil"
)

// toolDetectionTimeout bounds a full Detect call.
const toolDetectionTimeout = 10 * time.Second

// maxVersionSegments is the number of segments in a semantic version (major.minor.patch).
const maxVersionSegments = 3

//nolint:gochecknoglobals // Compiled once
var versionRe = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?)`)

// ToolStatus represents the installation status of an external tool.
type ToolStatus int

const (
	// ToolStatusMissing indicates the tool is not installed.
	ToolStatusMissing ToolStatus = iota

	// ToolStatusInstalled indicates the tool is installed and meets version requirements.
	ToolStatusInstalled

	// ToolStatusOutdated indicates the tool is installed but below the minimum version.
	ToolStatusOutdated
)

// String returns a human-readable representation of the tool status.
func (s ToolStatus) String() string {
	switch s {
	case ToolStatusInstalled:
		return "installed"
	case ToolStatusMissing:
		return "missing"
	case ToolStatusOutdated:
		return "outdated"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for human-readable JSON output.
func (s ToolStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Tool is an external program nemo shells out to.
type Tool struct {
	Name           string     `json:"name"`
	Required       bool       `json:"required"`
	MinVersion     string     `json:"min_version,omitempty"`
	CurrentVersion string     `json:"current_version,omitempty"`
	Status         ToolStatus `json:"status"`
	InstallHint    string     `json:"install_hint"`
}

// ToolDetectionResult holds the results of detecting all tools.
type ToolDetectionResult struct {
	Tools              []Tool `json:"tools"`
	HasMissingRequired bool   `json:"has_missing_required"`
}

// MissingRequiredTools returns the required tools that are missing or outdated.
func (r *ToolDetectionResult) MissingRequiredTools() []Tool {
	var missing []Tool
	for _, tool := range r.Tools {
		if tool.Required && tool.Status != ToolStatusInstalled {
			missing = append(missing, tool)
		}
	}
	return missing
}

// CommandExecutor abstracts command lookup and execution for testability.
type CommandExecutor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// DefaultCommandExecutor implements CommandExecutor using os/exec.
type DefaultCommandExecutor struct{}

// LookPath searches for an executable in the PATH.
func (DefaultCommandExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes a command and returns its combined output.
func (DefaultCommandExecutor) Run(ctx context.Context, name string, args ...string) (string, error) {
	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(output), err
}

// ToolDetector checks the tools a run needs.
type ToolDetector struct {
	executor CommandExecutor
}

// NewToolDetector creates a ToolDetector. A nil executor uses os/exec.
func NewToolDetector(executor CommandExecutor) *ToolDetector {
	if executor == nil {
		executor = DefaultCommandExecutor{}
	}
	return &ToolDetector{executor: executor}
}

type toolConfig struct {
	name        string
	minVersion  string
	required    bool
	installHint string
}

// toolConfigs returns the tools to check for cfg. Ollama is only required
// when it is the configured provider.
func toolConfigs(cfg *Config) []toolConfig {
	provider := constants.DefaultProvider
	if cfg != nil {
		provider = cfg.LLM.Provider
	}
	return []toolConfig{
		{
			name:        "uv",
			minVersion:  "0.4.0",
			required:    true,
			installHint: "curl -LsSf https://astral.sh/uv/install.sh | sh (or let nemo run pip install uv)",
		},
		{
			name:        "python3",
			minVersion:  "3.10",
			required:    false,
			installHint: "uv python install",
		},
		{
			name:        "ollama",
			required:    provider == "ollama",
			installHint: "https://ollama.com/download, then: ollama pull " + constants.DefaultModel,
		},
	}
}

// Detect checks every tool concurrently. Tools keep the order of toolConfigs.
func (d *ToolDetector) Detect(ctx context.Context, cfg *Config) (*ToolDetectionResult, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	detectCtx, cancel := context.WithTimeout(ctx, toolDetectionTimeout)
	defer cancel()

	configs := toolConfigs(cfg)
	result := &ToolDetectionResult{Tools: make([]Tool, len(configs))}

	g, gCtx := errgroup.WithContext(detectCtx)
	for i, tc := range configs {
		g.Go(func() error {
			result.Tools[i] = d.detectTool(gCtx, tc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to detect tools: %w", err)
	}

	result.HasMissingRequired = len(result.MissingRequiredTools()) > 0
	return result, nil
}

func (d *ToolDetector) detectTool(ctx context.Context, tc toolConfig) Tool {
	tool := Tool{
		Name:        tc.name,
		Required:    tc.required,
		MinVersion:  tc.minVersion,
		InstallHint: tc.installHint,
		Status:      ToolStatusMissing,
	}

	if _, err := d.executor.LookPath(tc.name); err != nil {
		return tool
	}

	tool.Status = ToolStatusInstalled
	tool.CurrentVersion = "unknown"
	output, err := d.executor.Run(ctx, tc.name, "--version")
	if err != nil {
		return tool
	}
	if m := versionRe.FindStringSubmatch(output); len(m) >= 2 {
		tool.CurrentVersion = m[1]
		if tc.minVersion != "" && CompareVersions(tool.CurrentVersion, tc.minVersion) < 0 {
			tool.Status = ToolStatusOutdated
		}
	}
	return tool
}

// CompareVersions compares two semantic versions and returns -1, 0 or 1.
func CompareVersions(current, required string) int {
	currentParts := parseVersionParts(strings.TrimPrefix(current, "v"))
	requiredParts := parseVersionParts(strings.TrimPrefix(required, "v"))

	for i := 0; i < maxVersionSegments; i++ {
		if currentParts[i] < requiredParts[i] {
			return -1
		}
		if currentParts[i] > requiredParts[i] {
			return 1
		}
	}
	return 0
}

// parseVersionParts parses a version string into [major, minor, patch].
func parseVersionParts(version string) [maxVersionSegments]int {
	var parts [maxVersionSegments]int
	segments := strings.Split(version, ".")

	for i := 0; i < len(segments) && i < maxVersionSegments; i++ {
		numStr := segments[i]
		for j, c := range numStr {
			if c < '0' || c > '9' {
				numStr = numStr[:j]
				break
			}
		}
		if numStr != "" {
			parts[i], _ = strconv.Atoi(numStr)
		}
	}
	return parts
}

// FormatMissingToolsError creates a formatted message for missing tools.
func FormatMissingToolsError(missing []Tool) string {
	if len(missing) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Missing required tools:\n\n")
	for _, tool := range missing {
		status := "missing"
		if tool.Status == ToolStatusOutdated {
			status = fmt.Sprintf("outdated (have %s, need %s)", tool.CurrentVersion, tool.MinVersion)
		}
		fmt.Fprintf(&sb, "  • %s: %s\n", tool.Name, status)
		fmt.Fprintf(&sb, "    Install: %s\n\n", tool.InstallHint)
	}
	return sb.String()
}
