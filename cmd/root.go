// Package cmd implements the flexpreset command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/sardine-ai/flexpreset/preset"
	"github.com/sardine-ai/flexpreset/presets"
	"github.com/sardine-ai/flexpreset/source"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// BuiltinSource names the repository of the presets shipped with the binary.
const BuiltinSource = "builtin"

// options holds the persistent flags.
type options struct {
	verbosity  int
	presetDirs []string
	noBuiltin  bool
}

// NewRootCmd returns the flexpreset command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "flexpreset",
		Short: "Resolve and serve plot preset setup files",
		Long: `flexpreset expands hierarchical TOML preset files into flat plot setups.
Presets are looked up in the directories given with --preset-dir, in order,
and then in the builtin presets.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			switch {
			case opts.verbosity >= 2:
				logrus.SetLevel(logrus.TraceLevel)
			case opts.verbosity == 1:
				logrus.SetLevel(logrus.DebugLevel)
			default:
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&opts.verbosity, "verbose", "v", "increase verbosity (repeatable)")
	flags.StringArrayVar(&opts.presetDirs, "preset-dir", nil, "additional preset directory, searched before the builtin presets (repeatable)")
	flags.BoolVar(&opts.noBuiltin, "no-builtin", false, "do not use the builtin presets")

	rootCmd.AddCommand(
		newListCmd(opts),
		newCatCmd(opts),
		newSetupsCmd(opts),
		newOutfilesCmd(opts),
		newMapAxesCmd(opts),
		newServeCmd(),
		newFormatCmd(),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// collection refreshes the configured preset repositories.
func (o *options) collection() (*preset.Collection, error) {
	var repos []source.Repository
	for _, dir := range o.presetDirs {
		repos = append(repos, &source.FileRepository{Name: dir, Path: dir})
	}
	if !o.noBuiltin {
		repos = append(repos, &source.EmbedRepository{Name: BuiltinSource, FS: presets.FS})
	}
	if len(repos) == 0 {
		return nil, fmt.Errorf("no preset sources: pass --preset-dir or drop --no-builtin")
	}
	for _, repo := range repos {
		if err := repo.Refresh(); err != nil {
			return nil, fmt.Errorf("reading presets from %s: %w", repo.GetName(), err)
		}
		logrus.WithFields(logrus.Fields{"source": repo.GetName(), "presets": len(repo.List())}).Debug("loaded presets")
	}
	return preset.NewCollection(repos...), nil
}
