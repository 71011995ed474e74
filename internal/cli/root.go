// Package cli implements the gifrecipe command-line interface.
//
// Commands:
//   - render: run one or more job files
//   - plan: print the normalized composite plan of a job
//   - version: print build information
//
// Every command accepts --verbose (-v) for debug logging.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion records build information injected through ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// NewRootCommand builds the command tree. Logs go to stderr.
func NewRootCommand(stderr io.Writer) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "gifrecipe",
		Short:        "Crop, scale, reorder and stack animation frames from recipe files",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(stderr, level)))
		},
	}
	root.SetVersionTemplate(versionString())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newRenderCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the CLI with ctx, which is cancelled on interrupt by main.
func Execute(ctx context.Context, stderr io.Writer) error {
	return NewRootCommand(stderr).ExecuteContext(ctx)
}

func versionString() string {
	s := fmt.Sprintf("gifrecipe %s\n", version)
	if commit != "" {
		s += fmt.Sprintf("commit: %s\n", commit)
	}
	if date != "" {
		s += fmt.Sprintf("built: %s\n", date)
	}
	return s
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), versionString())
		},
	}
}
