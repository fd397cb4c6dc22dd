package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ferrous-lang/ferrous/internal/lower"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Config string
}

// ValidationReport is the per-directory validation payload.
type ValidationReport struct {
	Files  int               `json:"files"`
	Units  int               `json:"units"`
	Passed int               `json:"passed"`
	Failed []ValidationIssue `json:"failed,omitempty"`
}

// ValidationIssue describes one unit that failed to load or lower.
type ValidationIssue struct {
	Unit    string `json:"unit,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <unit-dir>",
		Short: "Check that every unit loads and lowers",
		Long: `Load all compilation units and lower each one without writing
output. All problems are collected and reported together; the command
exits nonzero when any unit fails.

Examples:
  ferrous validate ./units
  ferrous validate ./units --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to ferrous.yaml")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command, dir string) error {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	result, errs := LoadUnits(dir, LoadModeCollectAll)
	report := ValidationReport{}
	if result != nil {
		report.Files = result.FileCount
		report.Units = len(result.Units)
	}
	for _, e := range errs {
		report.Failed = append(report.Failed, ValidationIssue{
			Code:    loadErrorCode(e),
			Message: e.Error(),
		})
	}

	if result != nil {
		for _, unit := range result.Units {
			ctx := lower.NewContext(unit.Evidence, nil, cfg.MinimalRuntime)
			ctx.ReturnType = unit.Returns
			ctx.Fallible = unit.Fallible
			ctx.Backends = cfg.Backends
			if _, err := lower.Lower(ctx, unit.Expr); err != nil {
				report.Failed = append(report.Failed, ValidationIssue{
					Unit:    unit.Name,
					Code:    ErrCodeLowering,
					Message: err.Error(),
				})
				continue
			}
			report.Passed++
		}
	}

	if opts.Format == "json" {
		if err := out.Success(report); err != nil {
			return err
		}
	} else {
		if len(report.Failed) == 0 {
			_ = out.Success(fmt.Sprintf("ok: %d unit(s) in %d file(s)", report.Passed, report.Files))
		} else {
			for _, issue := range report.Failed {
				name := issue.Unit
				if name == "" {
					name = "(load)"
				}
				fmt.Fprintf(out.Writer, "%s [%s]: %s\n", name, issue.Code, issue.Message)
			}
			fmt.Fprintf(out.Writer, "%d passed, %d failed\n", report.Passed, len(report.Failed))
		}
	}

	if len(report.Failed) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d unit(s) failed validation", len(report.Failed)))
	}
	return nil
}
