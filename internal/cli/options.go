package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dshills/vectorcore/internal/config"
	"github.com/dshills/vectorcore/internal/state"
	"github.com/dshills/vectorcore/internal/tree"
)

// NewOptionsCommand creates the options command.
func NewOptionsCommand(rootOpts *RootOptions) *cobra.Command {
	var flat bool

	cmd := &cobra.Command{
		Use:   "options",
		Short: "Print the merged editor options",
		Long: `Print the option tree an editor would start with: the built-in
defaults, then the --config file, then VECTORCORE_* environment variables.
The tree is printed as indented JSON; --flat prints one "path = value" line
per leaf instead.

Examples:
  vectorcore options
  vectorcore options --config editor.toml --flat`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptions(rootOpts, flat, cmd)
		},
	}

	cmd.Flags().BoolVar(&flat, "flat", false, "print dot paths instead of JSON")

	return cmd
}

func runOptions(opts *RootOptions, flatten bool, cmd *cobra.Command) error {
	overrides, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load options", err)
	}

	store := state.New(overrides, state.WithLogger(opts.Logger(cmd)))
	defer store.Destroy()
	snapshot := store.Snapshot()

	if !flatten || opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), snapshot)
	}

	flat := tree.Flatten(snapshot)
	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := cmd.OutOrStdout()
	for _, p := range paths {
		fmt.Fprintf(out, "%s = %v\n", p, flat[p])
	}
	return nil
}
