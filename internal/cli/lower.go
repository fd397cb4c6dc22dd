package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ferrous-lang/ferrous/internal/lower"
	"github.com/ferrous-lang/ferrous/internal/tagged"
	"github.com/ferrous-lang/ferrous/internal/trace"
)

// LowerOptions holds flags for the lower command.
type LowerOptions struct {
	*RootOptions
	Config      string
	Database    string
	EmitRuntime string
}

// LoweredUnit is the per-unit output payload.
type LoweredUnit struct {
	Name      string `json:"name"`
	Token     string `json:"token"`
	Rust      string `json:"rust"`
	Decisions int    `json:"decisions"`
}

// NewLowerCommand creates the lower command.
func NewLowerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LowerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lower <unit-dir>",
		Short: "Lower compilation units to Rust expressions",
		Long: `Load compilation units from a CUE directory and lower each one.

Every unit produces a rendered Rust expression and a decision trace:
one record per non-obvious lowering choice, in lowering order. With
--db, traces persist to the SQLite audit database keyed by the unit
token.

Examples:
  ferrous lower ./units
  ferrous lower ./units --config ferrous.yaml --db ferrous.db
  ferrous lower ./units --emit-runtime runtime.rs --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLower(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to ferrous.yaml")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database for decision traces")
	cmd.Flags().StringVar(&opts.EmitRuntime, "emit-runtime", "", "write the target runtime source to this path")

	return cmd
}

func runLower(opts *LowerOptions, cmd *cobra.Command, dir string) error {
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
	if opts.Database != "" {
		cfg.Database = opts.Database
	}

	result, errs := LoadUnits(dir, LoadModeCollectAll)
	if len(errs) > 0 {
		for _, e := range errs {
			_ = out.Error(loadErrorCode(e), e.Error(), nil)
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("%d unit(s) failed to load", len(errs)))
	}
	out.VerboseLog("loaded %d unit(s) from %d file(s)", len(result.Units), result.FileCount)

	var store *trace.Store
	if cfg.Database != "" {
		store, err = trace.Open(cfg.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open trace database", err)
		}
		defer store.Close()
	}

	var lowered []LoweredUnit
	var failures int
	for _, unit := range result.Units {
		sink := trace.NewRecorder()
		ctx := lower.NewContext(unit.Evidence, sink, cfg.MinimalRuntime)
		ctx.ReturnType = unit.Returns
		ctx.Fallible = unit.Fallible
		ctx.Backends = cfg.Backends

		rendered, err := lower.LowerString(ctx, unit.Expr)
		if err != nil {
			failures++
			_ = out.Error(ErrCodeLowering, fmt.Sprintf("unit %s: %v", unit.Name, err), nil)
			continue
		}
		if store != nil {
			if err := store.Flush(context.Background(), sink); err != nil {
				return WrapExitError(ExitCommandError, "failed to persist trace", err)
			}
		}
		lowered = append(lowered, LoweredUnit{
			Name:      unit.Name,
			Token:     sink.Unit(),
			Rust:      rendered,
			Decisions: len(sink.Decisions()),
		})
	}

	if opts.EmitRuntime != "" {
		src := tagged.RuntimeSource(cfg.MinimalRuntime)
		if err := os.WriteFile(opts.EmitRuntime, []byte(src), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write runtime source", err)
		}
		out.VerboseLog("wrote runtime source to %s", opts.EmitRuntime)
	}

	if opts.Format == "json" {
		if err := out.Success(lowered); err != nil {
			return err
		}
	} else {
		var b strings.Builder
		for i, u := range lowered {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "%s (%d decisions)\n  %s", u.Name, u.Decisions, u.Rust)
		}
		if err := out.Success(b.String()); err != nil {
			return err
		}
	}

	if failures > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d unit(s) failed to lower", failures))
	}
	return nil
}

// loadErrorCode extracts the code from a LoadError, defaulting to generic.
func loadErrorCode(err error) string {
	if le, ok := err.(*LoadError); ok {
		return le.Code
	}
	return ErrCodeGeneric
}
