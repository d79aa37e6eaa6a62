// Package project creates the uv-managed Python project a run generates code
// into, installs packages the model asks for, and packages the result.
package project

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/nemo/internal/command"
	"github.com/mrz1836/nemo/internal/constants"
	"github.com/mrz1836/nemo/internal/errors"
)

// nameSuffixLen is the number of hex characters after the project prefix.
const nameSuffixLen = 8

// testsInitContent is written to tests/__init__.py.
const testsInitContent = "# Marks the tests directory as a package.\n"

// Project is a generated project on disk.
type Project struct {
	// Name is the directory name, project_<8 hex>.
	Name string `json:"name"`
	// Dir is the absolute project directory.
	Dir string `json:"dir"`
}

// FileWriter persists a file. Satisfied by *fileio.Writer.
type FileWriter interface {
	Write(ctx context.Context, path, content string) error
}

// Options configures project creation.
type Options struct {
	// BaseDir is where project directories are created.
	BaseDir string
	// Dependencies are installed with `uv add` into every new project.
	Dependencies []string
	// InstallUV runs `pip install uv` when uv is not on PATH.
	InstallUV bool
}

// DefaultDependencies returns the packages the quality tools need.
func DefaultDependencies() []string {
	return []string{"pytest", "pylint", "autopep8", "pytest-cov", "complexipy"}
}

// Creator builds project skeletons with uv.
type Creator struct {
	runner  command.Runner
	writer  FileWriter
	logger  zerolog.Logger
	opts    Options
	newName func() string
}

// NewCreator creates a Creator.
func NewCreator(runner command.Runner, writer FileWriter, logger zerolog.Logger, opts Options) *Creator {
	return &Creator{
		runner:  runner,
		writer:  writer,
		logger:  logger.With().Str("component", "project").Logger(),
		opts:    opts,
		newName: NewName,
	}
}

// NewName returns a fresh project name: project_ followed by 8 hex characters.
func NewName() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return constants.ProjectNamePrefix + id[:nameSuffixLen]
}

// Create makes sure uv is available, initializes a new project, installs the
// tool dependencies, and lays out the tests package. Any failure is returned
// wrapped in errors.ErrProjectSetup.
func (c *Creator) Create(ctx context.Context) (*Project, error) {
	base, err := filepath.Abs(c.opts.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrProjectSetup, err)
	}

	if err := c.ensureUV(ctx, base); err != nil {
		return nil, err
	}

	name := c.newName()
	p := &Project{Name: name, Dir: filepath.Join(base, name)}
	c.logger.Info().Str("project", name).Str("dir", p.Dir).Msg("creating uv project")

	if _, err := c.runner.Run(ctx, base, []string{"uv", "init", name, "--no-workspace"}); err != nil {
		return nil, fmt.Errorf("%w: uv init: %w", errors.ErrProjectSetup, err)
	}

	if deps := c.opts.Dependencies; len(deps) > 0 {
		argv := append([]string{"uv", "add"}, deps...)
		if _, err := c.runner.Run(ctx, p.Dir, argv); err != nil {
			return nil, fmt.Errorf("%w: uv add: %w", errors.ErrProjectSetup, err)
		}
	}

	if err := os.Remove(filepath.Join(p.Dir, constants.UVPlaceholderFileName)); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		c.logger.Warn().Err(err).Msg("failed to remove uv placeholder file")
	}

	initPath := filepath.Join(p.Dir, constants.TestsDir, constants.TestsInitFileName)
	if err := c.writer.Write(ctx, initPath, testsInitContent); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrProjectSetup, err)
	}

	c.logger.Info().Str("project", name).Msg("project created")
	return p, nil
}

// ensureUV checks for uv and optionally installs it with pip.
func (c *Creator) ensureUV(ctx context.Context, dir string) error {
	res, err := c.runner.Run(ctx, dir, []string{"uv", "--version"})
	if err == nil {
		c.logger.Debug().Str("version", strings.TrimSpace(res.Stdout)).Msg("uv is installed")
		return nil
	}
	if !c.opts.InstallUV {
		return fmt.Errorf("%w: uv is not available: %w", errors.ErrProjectSetup, err)
	}

	c.logger.Info().Msg("uv is not installed, installing with pip")
	if _, err := c.runner.Run(ctx, dir, []string{"pip", "install", "uv"}); err != nil {
		return fmt.Errorf("%w: pip install uv: %w", errors.ErrProjectSetup, err)
	}
	c.logger.Info().Msg("uv installed")
	return nil
}

// AddDependencies runs `uv add ...` lines requested by the model inside the
// project. Lines that are not plain uv add commands are skipped. Failures are
// logged and joined into the returned error; remaining commands still run.
func (c *Creator) AddDependencies(ctx context.Context, p *Project, commands []string) error {
	var errs []error
	for _, line := range commands {
		argv := strings.Fields(line)
		if len(argv) < 3 || argv[0] != "uv" || argv[1] != "add" {
			c.logger.Warn().Str("command", line).Msg("skipping unexpected dependency command")
			continue
		}
		if _, err := c.runner.Run(ctx, p.Dir, argv); err != nil {
			c.logger.Error().Err(err).Str("command", line).Msg("failed to execute dependency command")
			errs = append(errs, err)
			continue
		}
		c.logger.Info().Str("command", line).Msg("executed dependency command")
	}
	return stderrors.Join(errs...)
}
