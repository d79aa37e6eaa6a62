// Package solution turns free-form model responses into files on disk.
//
// A response carries zero or more file blocks:
//
//	<<<relative/path>>>
//	content
//	<<<end>>>
//
// ExtractFiles pulls the blocks out, Normalize strips the markdown noise models
// tend to add, and Validator rejects source files that do not parse. Nothing in
// this package writes to disk.
package solution

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mrz1836/nemo/internal/constants"
	"github.com/mrz1836/nemo/internal/errors"
)

// Patterns used by the parser.
//
//nolint:gochecknoglobals // compiled once
var (
	// fileBlockPattern matches one file block. Content is non-greedy and may
	// span lines; a block without <<<end>>> never matches.
	fileBlockPattern = regexp.MustCompile(`(?s)<<<([^\n]+?)>>>\r?\n(.*?)<<<end>>>`)

	// fencePattern matches markdown code fences.
	fencePattern = regexp.MustCompile("```python\n|```\n|```")

	// headingPattern matches markdown heading lines.
	headingPattern = regexp.MustCompile(`(?m)^#+[ \t]+.*$`)

	// inlineCodePattern matches `inline code` spans.
	inlineCodePattern = regexp.MustCompile("`([^`]+)`")
)

// dependencyPrefix starts a package installation line in a model response.
const dependencyPrefix = "uv add"

// ExtractFiles returns every well-formed file block in text, in order of
// appearance. Paths and contents are trimmed. Blocks whose path is empty or
// the end marker itself are skipped.
func ExtractFiles(text string) *FileSet {
	files := NewFileSet()
	for _, m := range fileBlockPattern.FindAllStringSubmatch(text, -1) {
		path := strings.TrimSpace(m[1])
		if path == "" || path == "end" {
			continue
		}
		files.Set(path, strings.TrimSpace(m[2]))
	}
	return files
}

// Format renders files in the block format ExtractFiles reads.
func Format(files *FileSet) string {
	var b strings.Builder
	for _, f := range files.Files() {
		b.WriteString(constants.BlockOpen)
		b.WriteString(f.Path)
		b.WriteString(constants.BlockClose)
		b.WriteString("\n")
		b.WriteString(f.Content)
		b.WriteString("\n")
		b.WriteString(constants.BlockEnd)
		b.WriteString("\n")
	}
	return b.String()
}

// Normalize strips markdown artifacts from generated source: code fences,
// surrounding whitespace, heading lines (blanked, not removed), and inline
// code backticks.
func Normalize(content string) string {
	content = fencePattern.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)
	content = headingPattern.ReplaceAllString(content, "")
	return inlineCodePattern.ReplaceAllString(content, "$1")
}

// DependencyCommands returns the `uv add ...` lines of a response.
// Lines are trimmed and trailing periods dropped.
func DependencyCommands(text string) []string {
	var cmds []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(strings.TrimSpace(line), ".")
		line = strings.TrimLeft(line, ".")
		if strings.HasPrefix(line, dependencyPrefix+" ") {
			cmds = append(cmds, line)
		}
	}
	return cmds
}

// ResolvePath joins a block path onto root and rejects paths that escape it.
func ResolvePath(root, rel string) (string, error) {
	if filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", fmt.Errorf("%w: %s is absolute", errors.ErrPathTraversal, rel)
	}
	full := filepath.Join(root, filepath.FromSlash(rel))
	back, err := filepath.Rel(root, full)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", errors.ErrPathTraversal, rel)
	}
	return full, nil
}
