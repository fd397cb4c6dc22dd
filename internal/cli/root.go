package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions are the global flags shared by every subcommand.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats lists the accepted --format values.
var ValidFormats = []string{"text", "json"}

// NewRootCommand builds the ferrous command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ferrous",
		Short: "ferrous - expression lowering for generated Rust",
		Long: "Lowers compilation units (expression trees plus type evidence) into Rust source, " +
			"recording every non-obvious choice in an auditable decision trace.",
		// Format is validated once here rather than per command.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(
		NewLowerCommand(opts),
		NewValidateCommand(opts),
		NewTraceCommand(opts),
	)
	return cmd
}
