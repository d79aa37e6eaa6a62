// Package syntax checks generated source code for syntax errors using
// tree-sitter grammars. A Checker never executes the code it inspects.
package syntax

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/mrz1836/nemo/internal/errors"
)

// Python is the language name for Python sources.
const Python = "python"

// snippetLimit caps the source excerpt attached to an Error.
const snippetLimit = 50

// Error describes the first syntax problem found in a source text.
type Error struct {
	// Language is the grammar that rejected the source.
	Language string
	// Line is the 1-based line of the problem.
	Line int
	// Column is the 0-based byte column of the problem.
	Column int
	// Missing is true when the parser inserted a missing token.
	Missing bool
	// Construct names a node the grammar accepts but the target runtime
	// does not, such as a Python 2 print statement.
	Construct string
	// Snippet is the source text covered by the error node.
	Snippet string
}

// Error implements the error interface.
func (e *Error) Error() string {
	kind := "syntax error"
	switch {
	case e.Construct != "":
		kind = "unsupported " + strings.ReplaceAll(e.Construct, "_", " ")
	case e.Missing:
		kind = "missing token"
	}
	if e.Snippet == "" {
		return fmt.Sprintf("%s %s at line %d, column %d", e.Language, kind, e.Line, e.Column)
	}
	return fmt.Sprintf("%s %s at line %d, column %d near %q", e.Language, kind, e.Line, e.Column, e.Snippet)
}

// Unwrap lets callers match errors.ErrSyntaxValidation.
func (e *Error) Unwrap() error {
	return errors.ErrSyntaxValidation
}

// Checker parses source text with tree-sitter. It is safe for concurrent use;
// a parser is created per call because tree-sitter parsers are not.
type Checker struct {
	languages map[string]*sitter.Language
	// rejected lists node types a grammar parses cleanly that the runtime
	// still refuses.
	rejected map[string]map[string]bool
}

// NewChecker creates a Checker with the built-in grammars.
func NewChecker() *Checker {
	return &Checker{
		languages: map[string]*sitter.Language{
			Python: python.GetLanguage(),
		},
		rejected: map[string]map[string]bool{
			// The python grammar still parses Python 2 statements.
			Python: {"print_statement": true, "exec_statement": true},
		},
	}
}

// Supports reports whether a grammar exists for language.
func (c *Checker) Supports(language string) bool {
	_, ok := c.languages[language]
	return ok
}

// Check parses content and returns a *Error for the first ERROR, MISSING or
// rejected node in document order, or nil when the source parses cleanly.
func (c *Checker) Check(ctx context.Context, language, content string) error {
	lang, ok := c.languages[language]
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrUnsupportedLanguage, language)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	src := []byte(content)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return fmt.Errorf("failed to parse %s source: %w", language, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	rejected := c.rejected[language]
	if !root.HasError() && len(rejected) == 0 {
		return nil
	}

	if node := firstError(root, rejected); node != nil {
		synErr := newError(language, node, src)
		if rejected[node.Type()] && !node.IsError() {
			synErr.Construct = node.Type()
		}
		return synErr
	}
	if !root.HasError() {
		return nil
	}

	// HasError without a locatable node; report the root.
	return &Error{Language: language, Line: 1}
}

// firstError walks the tree depth-first and returns the first ERROR or
// MISSING node, or a node whose type is in rejected. Subtrees without errors
// are skipped when rejected is empty.
func firstError(node *sitter.Node, rejected map[string]bool) *sitter.Node {
	if node.IsError() || node.IsMissing() || rejected[node.Type()] {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if len(rejected) == 0 && !child.HasError() && !child.IsMissing() {
			continue
		}
		if found := firstError(child, rejected); found != nil {
			return found
		}
	}
	return nil
}

func newError(language string, node *sitter.Node, src []byte) *Error {
	start := node.StartPoint()
	begin, end := node.StartByte(), node.EndByte()
	if end > uint32(len(src)) {
		end = uint32(len(src))
	}
	var snippet string
	if begin < end {
		snippet = strings.TrimSpace(string(src[begin:end]))
	}
	if len(snippet) > snippetLimit {
		snippet = snippet[:snippetLimit] + "..."
	}
	return &Error{
		Language: language,
		Line:     int(start.Row) + 1,
		Column:   int(start.Column),
		Missing:  node.IsMissing(),
		Snippet:  snippet,
	}
}

// LanguageForPath returns the grammar name for a file path, or "" when the
// file is not a recognized source file.
func LanguageForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyi":
		return Python
	default:
		return ""
	}
}
