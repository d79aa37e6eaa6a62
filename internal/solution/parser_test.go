package solution

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nemoerrors "github.com/mrz1836/nemo/internal/errors"
)

func TestExtractFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []File
	}{
		{
			name: "two blocks with surrounding prose",
			text: "Here you go:\n<<<main.py>>>\ndef f():\n    return 1\n<<<end>>>\n\n<<<tests/test_main.py>>>\nimport main\n<<<end>>>\nuv add requests",
			want: []File{
				{Path: "main.py", Content: "def f():\n    return 1"},
				{Path: "tests/test_main.py", Content: "import main"},
			},
		},
		{
			name: "unterminated block is ignored",
			text: "<<<main.py>>>\nprint(1)\n",
			want: []File{},
		},
		{
			name: "path is trimmed",
			text: "<<< main.py >>>\nx = 1\n<<<end>>>",
			want: []File{{Path: "main.py", Content: "x = 1"}},
		},
		{
			name: "empty and end paths are skipped",
			text: "<<< >>>\nx\n<<<end>>>\n<<<end>>>\ny\n<<<end>>>",
			want: []File{},
		},
		{
			name: "duplicate path keeps first position with last content",
			text: "<<<a.py>>>\n1\n<<<end>>>\n<<<b.py>>>\n2\n<<<end>>>\n<<<a.py>>>\n3\n<<<end>>>",
			want: []File{{Path: "a.py", Content: "3"}, {Path: "b.py", Content: "2"}},
		},
		{
			name: "windows line endings",
			text: "<<<main.py>>>\r\nx = 1\r\n<<<end>>>",
			want: []File{{Path: "main.py", Content: "x = 1"}},
		},
		{
			name: "no blocks",
			text: "I could not complete the task.",
			want: []File{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ExtractFiles(tc.text).Files()
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatRoundTrip(t *testing.T) {
	t.Parallel()

	files := NewFileSet()
	files.Set("main.py", "def main():\n    print('hi')\n\n\nif __name__ == '__main__':\n    main()")
	files.Set("tests/test_main.py", "import main\n\n\ndef test_main():\n    assert main")
	files.Set("data/config.json", `{"port": 8080}`)

	got := ExtractFiles(Format(files))
	assert.Equal(t, files.Files(), got.Files())
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "python fence", in: "```python\nx = 1\n```\n", want: "x = 1"},
		{name: "bare fence", in: "```\nx = 1\n```", want: "x = 1"},
		{name: "heading line blanked", in: "# Solution\nx = 1", want: "\nx = 1"},
		{name: "inline code", in: "x = `value`", want: "x = value"},
		{name: "shebang kept", in: "#!/usr/bin/env python\nx = 1", want: "#!/usr/bin/env python\nx = 1"},
		{name: "already clean", in: "def f():\n    return 2", want: "def f():\n    return 2"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestDependencyCommands(t *testing.T) {
	t.Parallel()

	text := "<<<main.py>>>\nimport flask\n<<<end>>>\nuv add flask requests.\n  uv add pytest-mock\nrun uv add later\nuv addict"
	assert.Equal(t, []string{"uv add flask requests", "uv add pytest-mock"}, DependencyCommands(text))
	assert.Empty(t, DependencyCommands("no commands here"))
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	got, err := ResolvePath(root, "tests/test_main.py")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "tests", "test_main.py"), got)

	for _, bad := range []string{"../escape.py", "tests/../../escape.py", filepath.Join(root, "abs.py")} {
		_, err := ResolvePath(root, bad)
		require.ErrorIs(t, err, nemoerrors.ErrPathTraversal, bad)
	}
}

func TestFileSet_NilSafe(t *testing.T) {
	t.Parallel()

	var s *FileSet
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Files())
	assert.Nil(t, s.Paths())
}
