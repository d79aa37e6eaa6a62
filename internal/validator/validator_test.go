package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nemoerrors "github.com/mrz1836/nemo/internal/errors"
	"github.com/mrz1836/nemo/internal/llm"
	"github.com/mrz1836/nemo/internal/testutil"
)

func TestIsAcceptance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		reply string
		want  bool
	}{
		{reply: "VALID", want: true},
		{reply: "valid", want: true},
		{reply: "'VALID'", want: true},
		{reply: "The change is VALID.", want: true},
		{reply: "INVALID", want: false},
		{reply: "Invalid: unrelated to the task", want: false},
		{reply: "VALID or INVALID? INVALID", want: false},
		{reply: "", want: false},
		{reply: "I am not sure.", want: false},
		{reply: "VALIDATION complete", want: false},
		{reply: "VALIDATED", want: false},
		{reply: "Looks VALID, nothing INVALID found", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.reply, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, IsAcceptance(tc.reply))
		})
	}
}

func TestValidator_IsAccepted(t *testing.T) {
	t.Parallel()

	var seen string
	gen := llm.GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		seen = prompt
		return "VALID", nil
	})

	ok, err := New(gen, zerolog.Nop()).IsAccepted(context.Background(), "<<<main.py>>>\nx\n<<<end>>>", "sum two numbers")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, seen, "sum two numbers")
	assert.Contains(t, seen, "<<<main.py>>>")
}

func TestValidator_PropagatesModelFailure(t *testing.T) {
	t.Parallel()

	gen := llm.GeneratorFunc(func(context.Context, string) (string, error) {
		return "", errors.Join(nemoerrors.ErrLLMUnavailable, testutil.ErrMockConnectionRefused)
	})

	ok, err := New(gen, zerolog.Nop()).IsAccepted(context.Background(), "p", "t")
	require.ErrorIs(t, err, nemoerrors.ErrLLMUnavailable)
	assert.False(t, ok)
}
