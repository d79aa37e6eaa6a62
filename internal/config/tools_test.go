package config

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/nemo/internal/testutil"
)

type fakeExecutor struct {
	installed map[string]string
	failRun   map[string]bool
}

func (f *fakeExecutor) LookPath(file string) (string, error) {
	if _, ok := f.installed[file]; ok {
		return "/usr/bin/" + file, nil
	}
	return "", testutil.ErrMockExecutableNotFound
}

func (f *fakeExecutor) Run(_ context.Context, name string, _ ...string) (string, error) {
	if f.failRun[name] {
		return "", testutil.ErrMockExitStatus
	}
	return f.installed[name], nil
}

func findTool(t *testing.T, r *ToolDetectionResult, name string) Tool {
	t.Helper()
	for _, tool := range r.Tools {
		if tool.Name == name {
			return tool
		}
	}
	t.Fatalf("tool %s not in result", name)
	return Tool{}
}

func TestToolDetector_Detect(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{
		installed: map[string]string{
			"uv":      "uv 0.5.11 (c4d0caaee 2024-12-19)",
			"python3": "Python 3.9.6",
			"ollama":  "ollama version is 0.5.4",
		},
		failRun: map[string]bool{},
	}

	result, err := NewToolDetector(exec).Detect(context.Background(), DefaultConfig())
	require.NoError(t, err)

	require.Len(t, result.Tools, 3)
	assert.Equal(t, "uv", result.Tools[0].Name)
	assert.Equal(t, ToolStatusInstalled, findTool(t, result, "uv").Status)
	assert.Equal(t, "0.5.11", findTool(t, result, "uv").CurrentVersion)
	assert.Equal(t, ToolStatusOutdated, findTool(t, result, "python3").Status)
	assert.True(t, findTool(t, result, "ollama").Required)
	assert.False(t, result.HasMissingRequired, "python3 is optional")
}

func TestToolDetector_MissingRequired(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.LLM.Provider = "groq"
	exec := &fakeExecutor{
		installed: map[string]string{"python3": "Python 3.12.1"},
		failRun:   map[string]bool{"python3": true},
	}

	result, err := NewToolDetector(exec).Detect(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, result.HasMissingRequired)
	missing := result.MissingRequiredTools()
	require.Len(t, missing, 1)
	assert.Equal(t, "uv", missing[0].Name)
	assert.False(t, findTool(t, result, "ollama").Required)
	assert.Equal(t, "unknown", findTool(t, result, "python3").CurrentVersion)

	msg := FormatMissingToolsError(missing)
	assert.Contains(t, msg, "uv: missing")
	assert.Contains(t, msg, "astral.sh")
}

func TestToolDetector_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewToolDetector(&fakeExecutor{}).Detect(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCompareVersions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		current, required string
		want              int
	}{
		{"0.5.11", "0.4.0", 1},
		{"0.4.0", "0.4.0", 0},
		{"v3.9", "3.10", -1},
		{"3.12.1rc1", "3.10", 1},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, CompareVersions(tc.current, tc.required), "%s vs %s", tc.current, tc.required)
	}
}

func TestToolStatus_MarshalJSON(t *testing.T) {
	t.Parallel()
	data, err := json.Marshal(Tool{Name: "uv", Status: ToolStatusOutdated})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"outdated"`)
	assert.Equal(t, "unknown", ToolStatus(9).String())
	assert.Equal(t, "missing", ToolStatusMissing.String())
}
