package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dshills/vectorcore/internal/editor"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	LogLevel string
	Config   string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Logger returns the diagnostic logger for a command. It writes to the
// command's error stream.
func (o *RootOptions) Logger(cmd *cobra.Command) *slog.Logger {
	level := o.LogLevel
	if o.Verbose {
		level = "debug"
	}
	return editor.NewLogger(cmd.ErrOrStderr(), level, "text")
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "vectorcore",
		Short:   "Inspect editor options and replay editing sessions",
		Long:    "Developer tooling for the vector editor state and history core.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "options file (.toml, .yaml, .json)")

	cmd.AddCommand(NewOptionsCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))

	return cmd
}
