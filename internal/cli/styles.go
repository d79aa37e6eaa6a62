package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/mrz1836/nemo/internal/constants"
)

//nolint:gochecknoglobals // Semantic palette shared by all commands
var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}
	colorError   = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}
)

// outputStyles holds the lipgloss styles used for command output.
type outputStyles struct {
	header  lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	dim     lipgloss.Style
	key     lipgloss.Style
	value   lipgloss.Style
}

// newOutputStyles creates the command output styles. Colors are dropped when
// NO_COLOR is set or the terminal is dumb.
func newOutputStyles() *outputStyles {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		plain := lipgloss.NewStyle()
		return &outputStyles{
			header:  plain.Bold(true),
			success: plain,
			warning: plain,
			failure: plain,
			dim:     plain,
			key:     plain,
			value:   plain,
		}
	}
	return &outputStyles{
		header:  lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).MarginBottom(1),
		success: lipgloss.NewStyle().Foreground(colorSuccess).Bold(true),
		warning: lipgloss.NewStyle().Foreground(colorWarning),
		failure: lipgloss.NewStyle().Foreground(colorError).Bold(true),
		dim:     lipgloss.NewStyle().Foreground(colorMuted),
		key:     lipgloss.NewStyle().Foreground(colorPrimary).Width(22),
		value:   lipgloss.NewStyle(),
	}
}

// status renders a run status with its icon and color.
func (s *outputStyles) status(status constants.RunStatus) string {
	switch status {
	case constants.RunStatusSucceeded:
		return s.success.Render("✓ " + string(status))
	case constants.RunStatusPartial:
		return s.warning.Render("⚠ " + string(status))
	case constants.RunStatusFailed:
		return s.failure.Render("✗ " + string(status))
	default:
		return string(status)
	}
}

// check renders a pass/fail marker.
func (s *outputStyles) check(ok bool) string {
	if ok {
		return s.success.Render("✓")
	}
	return s.failure.Render("✗")
}
