package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ferrous-lang/ferrous/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	UnitToken string // optional - dump one unit's decisions
	Canonical bool
}

// TraceSummary is the aggregate view over the whole audit database.
type TraceSummary struct {
	Categories map[string]int `json:"categories"`
	Total      int            `json:"total"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Query the decision audit database",
		Long: `Query recorded lowering decisions.

With --unit, prints that unit's decision sequence in lowering order.
Without it, prints per-category decision counts across all units.

Examples:
  ferrous trace --db ./ferrous.db
  ferrous trace --db ./ferrous.db --unit 0190c8f2-...
  ferrous trace --db ./ferrous.db --unit 0190c8f2-... --canonical`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraceQuery(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite audit database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.UnitToken, "unit", "", "unit token whose decisions to dump")
	cmd.Flags().BoolVar(&opts.Canonical, "canonical", false, "emit the unit's decisions as canonical JSON bytes")

	return cmd
}

func runTraceQuery(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := trace.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open audit database", err)
	}
	defer st.Close()

	if opts.UnitToken != "" {
		return traceUnit(ctx, opts, out, st)
	}
	return traceSummary(ctx, opts, out, st)
}

func traceUnit(ctx context.Context, opts *TraceOptions, out *OutputFormatter, st *trace.Store) error {
	decisions, err := st.ReadUnit(ctx, opts.UnitToken)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read unit decisions", err)
	}

	// Canonical bytes are the comparison format; emit them verbatim so the
	// output diffs cleanly against golden traces.
	if opts.Canonical {
		data, err := trace.MarshalCanonical(decisions)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to marshal decisions", err)
		}
		fmt.Fprintf(out.Writer, "%s\n", data)
		return nil
	}

	if opts.Format == "json" {
		type decisionPayload struct {
			Category     string   `json:"category"`
			Name         string   `json:"name"`
			Chosen       string   `json:"chosen"`
			Alternatives []string `json:"alternatives"`
			Confidence   float64  `json:"confidence"`
		}
		payload := make([]decisionPayload, len(decisions))
		for i, d := range decisions {
			payload[i] = decisionPayload{
				Category:     string(d.Category),
				Name:         d.Name,
				Chosen:       d.Chosen,
				Alternatives: d.Alternatives,
				Confidence:   d.Confidence,
			}
		}
		return out.Success(payload)
	}

	if len(decisions) == 0 {
		fmt.Fprintf(out.Writer, "No decisions recorded for unit: %s\n", opts.UnitToken)
		return nil
	}

	fmt.Fprintf(out.Writer, "Decisions for unit %s:\n", opts.UnitToken)
	for i, d := range decisions {
		fmt.Fprintf(out.Writer, "  [%d] %s %s -> %s (%.2f)\n", i, d.Category, d.Name, d.Chosen, d.Confidence)
		if opts.Verbose && len(d.Alternatives) > 0 {
			fmt.Fprintf(out.Writer, "       rejected: %s\n", strings.Join(d.Alternatives, ", "))
		}
	}
	return nil
}

func traceSummary(ctx context.Context, opts *TraceOptions, out *OutputFormatter, st *trace.Store) error {
	counts, err := st.CategoryCounts(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read category counts", err)
	}

	summary := TraceSummary{Categories: make(map[string]int, len(counts))}
	for cat, n := range counts {
		summary.Categories[string(cat)] = n
		summary.Total += n
	}

	if opts.Format == "json" {
		return out.Success(summary)
	}

	if summary.Total == 0 {
		fmt.Fprintln(out.Writer, "No decisions recorded.")
		return nil
	}

	// Sorted for deterministic output.
	cats := make([]string, 0, len(summary.Categories))
	for cat := range summary.Categories {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	fmt.Fprintln(out.Writer, "Decision counts by category:")
	for _, cat := range cats {
		fmt.Fprintf(out.Writer, "  %-22s %d\n", cat, summary.Categories[cat])
	}
	fmt.Fprintf(out.Writer, "  %-22s %d\n", "total", summary.Total)
	return nil
}
