package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/vqb/internal/pipeline"
)

// ValidationOutput holds validation results.
type ValidationOutput struct {
	Valid bool `json:"valid"`
	Steps int  `json:"steps"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <pipeline-file>",
		Short: "Check a pipeline for missing fields",
		Long: `Check that every step of a pipeline carries its required fields and
that the pipeline starts with a domain step.

Only presence is checked; values are not checked against any backend.
Exits with status 1 when warnings are reported.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	p, err := pipeline.LoadFile(path)
	if err != nil {
		return formatter.Fail("failed to load pipeline", err)
	}
	formatter.VerboseLog("Loaded %d step(s) from %s", len(p), path)

	result := pipeline.Validate(p)
	if !result.Valid {
		return outputWarnings(formatter, result.Warnings)
	}

	out := ValidationOutput{Valid: true, Steps: len(p)}
	return formatter.Success(out, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "✓ Pipeline valid: %d step(s)\n", out.Steps)
		return err
	})
}

func outputWarnings(formatter *OutputFormatter, warnings []string) error {
	message := fmt.Sprintf("pipeline has %d warning(s)", len(warnings))
	if formatter.Format == "json" {
		if err := formatter.Error(ErrCodeInvalidPipeline, message, warnings); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "validation failed")
	}

	if err := formatter.Error(ErrCodeInvalidPipeline, message, nil); err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintf(formatter.Writer, "  - %s\n", w)
	}
	return NewExitError(ExitFailure, "validation failed")
}
