package solution

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nemoerrors "github.com/mrz1836/nemo/internal/errors"
	"github.com/mrz1836/nemo/internal/syntax"
)

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	v := NewValidator(syntax.NewChecker(), zerolog.Nop())

	t.Run("normalizes valid python", func(t *testing.T) {
		t.Parallel()
		got, err := v.Validate(context.Background(), "main.py", "```python\ndef f():\n    return 1\n```")
		require.NoError(t, err)
		assert.Equal(t, "def f():\n    return 1", got)
	})

	t.Run("rejects broken python", func(t *testing.T) {
		t.Parallel()
		got, err := v.Validate(context.Background(), "main.py", "def f(:\n  pass")
		require.ErrorIs(t, err, nemoerrors.ErrSyntaxValidation)
		assert.Empty(t, got)
	})

	t.Run("rejects python 2 statements", func(t *testing.T) {
		t.Parallel()
		for _, body := range []string{"print \"hello\"\n", "exec \"x = 1\"\n"} {
			got, err := v.Validate(context.Background(), "main.py", body)
			require.ErrorIs(t, err, nemoerrors.ErrSyntaxValidation, body)
			assert.Empty(t, got)
		}
	})

	t.Run("non-source files pass through untouched", func(t *testing.T) {
		t.Parallel()
		body := "# Title\n\n```\nnot python (\n```"
		got, err := v.Validate(context.Background(), "README.md", body)
		require.NoError(t, err)
		assert.Equal(t, body, got)
	})
}
