// Package validator asks the language model whether a proposed change still
// addresses the original task. It is the guard that keeps the refinement
// loops from drifting away from what the user asked for.
package validator

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/mrz1836/nemo/internal/constants"
	"github.com/mrz1836/nemo/internal/llm"
	"github.com/mrz1836/nemo/internal/prompts"
)

// Validator accepts or rejects proposals with one model round trip.
type Validator struct {
	gen    llm.Generator
	logger zerolog.Logger
}

// New creates a Validator that consults gen.
func New(gen llm.Generator, logger zerolog.Logger) *Validator {
	return &Validator{
		gen:    gen,
		logger: logger.With().Str("component", "validator").Logger(),
	}
}

// IsAccepted reports whether the model judges proposal to address task.
// Model failures are returned as errors; they are never treated as a verdict.
func (v *Validator) IsAccepted(ctx context.Context, proposal, task string) (bool, error) {
	prompt, err := prompts.Render(prompts.Validate, prompts.ValidateData{Task: task, Proposal: proposal})
	if err != nil {
		return false, fmt.Errorf("failed to render validation prompt: %w", err)
	}

	reply, err := v.gen.Generate(ctx, prompt)
	if err != nil {
		return false, err
	}

	accepted := IsAcceptance(reply)
	if accepted {
		v.logger.Info().Msg("proposal validated")
	} else {
		v.logger.Warn().Str("reply", truncate(reply, 200)).Msg("proposal does not match the original task")
	}
	return accepted, nil
}

// IsAcceptance reports whether a validator reply accepts the proposal: its
// upper-cased words include VALID and do not include INVALID.
func IsAcceptance(reply string) bool {
	words := strings.FieldsFunc(strings.ToUpper(reply), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var accept bool
	for _, w := range words {
		switch w {
		case constants.RejectToken:
			return false
		case constants.AcceptToken:
			accept = true
		}
	}
	return accept
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
