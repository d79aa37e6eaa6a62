package solution

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mrz1836/nemo/internal/syntax"
)

// SyntaxChecker parses source for a language.
type SyntaxChecker interface {
	Check(ctx context.Context, language, content string) error
}

// Validator prepares extracted file content for writing.
type Validator struct {
	checker SyntaxChecker
	logger  zerolog.Logger
}

// NewValidator creates a Validator backed by checker.
func NewValidator(checker SyntaxChecker, logger zerolog.Logger) *Validator {
	return &Validator{
		checker: checker,
		logger:  logger.With().Str("component", "solution").Logger(),
	}
}

// Validate returns the content to write for path. Recognized source files are
// normalized and must parse; a parse failure returns "" and an error matching
// errors.ErrSyntaxValidation. Other files pass through unchanged.
func (v *Validator) Validate(ctx context.Context, path, content string) (string, error) {
	language := syntax.LanguageForPath(path)
	if language == "" {
		return content, nil
	}

	content = Normalize(content)
	if err := v.checker.Check(ctx, language, content); err != nil {
		v.logger.Error().Err(err).Str("path", path).Msg("generated file failed syntax check")
		return "", fmt.Errorf("invalid content for %s: %w", path, err)
	}
	return content, nil
}
