package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/nemo/internal/config"
	"github.com/mrz1836/nemo/internal/errors"
)

// doctorExecutor runs tool lookups for the doctor command. Nil uses os/exec.
//
//nolint:gochecknoglobals // Test injection point
var doctorExecutor config.CommandExecutor

// newDoctorCommand creates the doctor command.
func newDoctorCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the external tools nemo needs are installed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx, flags.ConfigPath)
			if err != nil {
				logger := GetLogger()
				logger.Warn().Err(err).Msg("using default configuration")
				cfg = config.DefaultConfig()
			}

			result, err := config.NewToolDetector(doctorExecutor).Detect(ctx, cfg)
			if err != nil {
				return err
			}
			return reportTools(cmd.OutOrStdout(), result, flags.Output)
		},
	}
}

// reportTools writes the detection result and returns ErrToolsMissing when a
// required tool is missing or outdated.
func reportTools(w io.Writer, result *config.ToolDetectionResult, format string) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		s := newOutputStyles()
		_, _ = fmt.Fprintln(w, s.header.Render("nemo doctor"))
		for _, tool := range result.Tools {
			marker := s.check(tool.Status == config.ToolStatusInstalled)
			if !tool.Required && tool.Status != config.ToolStatusInstalled {
				marker = s.warning.Render("⚠")
			}
			version := tool.CurrentVersion
			if version == "" {
				version = "-"
			}
			_, _ = fmt.Fprintf(w, "%s %s %s %s\n", marker, s.key.Render(tool.Name), tool.Status, s.dim.Render(version))
		}
		if result.HasMissingRequired {
			_, _ = fmt.Fprintln(w)
			_, _ = io.WriteString(w, config.FormatMissingToolsError(result.MissingRequiredTools()))
		}
	}

	if result.HasMissingRequired {
		return errors.ErrToolsMissing
	}
	return nil
}
