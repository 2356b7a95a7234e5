package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/sardine-ai/flexpreset/preset"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addSkipFlag registers the repeatable --skip pattern flag.
func addSkipFlag(fs *pflag.FlagSet, skip *[]string) {
	fs.StringArrayVar(skip, "skip", nil, "skip presets matching this pattern (repeatable)")
}

func newListCmd(opts *options) *cobra.Command {
	var skip []string
	cmd := &cobra.Command{
		Use:   "list [PATTERN...]",
		Short: "List presets matching shell patterns",
		Long: `List the presets whose names match any PATTERN and no --skip pattern.
"*" also matches "/". Without patterns, or with "?", all presets are listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || (len(args) == 1 && args[0] == "?") {
				args = []string{"*"}
			}
			c, err := opts.collection()
			if err != nil {
				return err
			}
			groups, err := collect(cmd, c, args, skip)
			if err != nil {
				return err
			}
			printGroups(cmd.OutOrStdout(), groups, opts.verbosity)
			return nil
		},
	}
	addSkipFlag(cmd.Flags(), &skip)
	return cmd
}

// collect runs c.Collect and, when a pattern matches nothing, prints the
// error followed by presets with similar names on stderr.
func collect(cmd *cobra.Command, c *preset.Collection, patterns, skip []string) ([]preset.Group, error) {
	groups, err := c.Collect(patterns, skip)
	var notFound *preset.NoPresetFoundError
	if errors.As(err, &notFound) {
		if alternatives := c.Alternatives(notFound.Pattern); len(alternatives) > 0 {
			cmd.PrintErrln(cmd.ErrPrefix(), err.Error())
			cmd.SilenceErrors = true
			w := cmd.ErrOrStderr()
			fmt.Fprintln(w, "Looking for any of these?")
			for _, name := range alternatives {
				fmt.Fprintf(w, " %s\n", name)
			}
		}
	}
	return groups, err
}

// printGroups lists preset names. Verbose output groups them by source;
// more verbose output adds where each file was read from.
func printGroups(w io.Writer, groups []preset.Group, verbosity int) {
	for _, g := range groups {
		if verbosity > 0 {
			fmt.Fprintf(w, "%s:\n", g.Source)
		}
		for _, f := range g.Files {
			switch {
			case verbosity >= 2:
				fmt.Fprintf(w, "  %-23s  %s\n", f.Name, f.Path)
			case verbosity == 1:
				fmt.Fprintf(w, " %s\n", f.Name)
			default:
				fmt.Fprintln(w, f.Name)
			}
		}
	}
}

func newCatCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cat NAME",
		Short: "Print a preset setup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.collection()
			if err != nil {
				return err
			}
			content, err := c.Cat(args[0], opts.verbosity > 0)
			if errors.Is(err, preset.ErrNoPresetFound) {
				return fmt.Errorf("preset '%s' not found", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), content)
			return nil
		},
	}
}
