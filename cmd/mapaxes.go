package cmd

import (
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/sardine-ai/flexpreset/mapaxes"
	"github.com/sardine-ai/flexpreset/preset"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newMapAxesCmd(opts *options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "map-axes NAME",
		Short: "Print the map axes configuration of a preset",
		Long: `Print the [map_axes] table of a preset completed with the defaults.
Presets without the table get the default configuration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.collection()
			if err != nil {
				return err
			}
			file, err := c.Get(args[0])
			if errors.Is(err, preset.ErrNoPresetFound) {
				return fmt.Errorf("preset '%s' not found", args[0])
			}
			if err != nil {
				return err
			}
			cfg, err := mapaxes.Decode(file.Raw)
			if err != nil {
				return fmt.Errorf("preset '%s': %w", file.Name, err)
			}

			w := cmd.OutOrStdout()
			switch format {
			case FormatYAML:
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(cfg); err != nil {
					return err
				}
				return enc.Close()
			case FormatTOML:
				return toml.NewEncoder(w).Encode(cfg)
			}
			return fmt.Errorf("unknown format %q: use yaml or toml", format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", FormatYAML, "output format: yaml or toml")
	return cmd
}
