package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/sardine-ai/flexpreset/model"
	"github.com/sardine-ai/flexpreset/preset"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats of the setups command.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// resolve collects the presets matching patterns and resolves them into
// setups, in collection order.
func (o *options) resolve(cmd *cobra.Command, patterns, skip []string) ([]model.Setup, error) {
	c, err := o.collection()
	if err != nil {
		return nil, err
	}
	var setups []model.Setup
	seen := map[string]bool{}
	for _, pattern := range patterns {
		groups, err := collect(cmd, c, []string{pattern}, skip)
		if err != nil {
			return nil, err
		}
		for _, file := range preset.Files(groups) {
			if seen[file.Name] {
				continue
			}
			seen[file.Name] = true
			resolved, err := preset.LoadSetups(file)
			if err != nil {
				return nil, err
			}
			logrus.WithFields(logrus.Fields{"preset": file.Name, "source": file.Source}).Debugf("collected %d setups", len(resolved))
			setups = append(setups, resolved...)
		}
	}
	return setups, nil
}

func newSetupsCmd(opts *options) *cobra.Command {
	var (
		skip   []string
		format string
	)
	cmd := &cobra.Command{
		Use:   "setups PATTERN...",
		Short: "Print the resolved setups of presets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setups, err := opts.resolve(cmd, args, skip)
			if err != nil {
				return err
			}
			return writeSetups(cmd.OutOrStdout(), setups, format)
		},
	}
	addSkipFlag(cmd.Flags(), &skip)
	cmd.Flags().StringVarP(&format, "format", "f", FormatJSON, "output format: json, yaml or toml")
	return cmd
}

func writeSetups(w io.Writer, setups []model.Setup, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(setups)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(setups); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		tables := make([]map[string]interface{}, 0, len(setups))
		for _, s := range setups {
			tables = append(tables, map[string]interface{}{"name": s.Name, "params": map[string]interface{}(s.Params)})
		}
		return toml.NewEncoder(w).Encode(map[string]interface{}{"setup": tables})
	}
	return fmt.Errorf("unknown format %q: use json, yaml or toml", format)
}

func newOutfilesCmd(opts *options) *cobra.Command {
	var (
		skip     []string
		fields   []string
		timeStep string
	)
	cmd := &cobra.Command{
		Use:   "outfiles PATTERN...",
		Short: "Print the output file names of the resolved setups",
		Long: `Render the outfile templates of every setup of the matching presets.
Template fields not taken from the setup itself are passed with --field.
--time-step is formatted with the setup's outfile_time_format.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseFields(fields)
			if err != nil {
				return err
			}
			if timeStep != "" {
				t, err := time.Parse("2006-01-02T15:04", timeStep)
				if err != nil {
					return fmt.Errorf("invalid --time-step %q: %w", timeStep, err)
				}
				values["time_step"] = t
			}
			setups, err := opts.resolve(cmd, args, skip)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, s := range setups {
				outfiles, err := preset.RenderOutfiles(s, values)
				if err != nil {
					return err
				}
				for _, f := range outfiles {
					if opts.verbosity > 0 {
						fmt.Fprintf(w, "%s: %s\n", s.Name, f)
						continue
					}
					fmt.Fprintln(w, f)
				}
			}
			return nil
		},
	}
	addSkipFlag(cmd.Flags(), &skip)
	cmd.Flags().StringArrayVar(&fields, "field", nil, "template field as KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&timeStep, "time-step", "", "time step as YYYY-MM-DDTHH:MM")
	return cmd
}

// parseFields turns KEY=VALUE pairs into template fields. Integer and
// float values are converted so that numeric format specs apply; values
// with leading zeros such as station ids stay strings.
func parseFields(pairs []string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q: expected KEY=VALUE", pair)
		}
		if leadingZero(value) {
			out[key] = value
		} else if i, err := strconv.Atoi(value); err == nil {
			out[key] = i
		} else if f, err := strconv.ParseFloat(value, 64); err == nil {
			out[key] = f
		} else {
			out[key] = value
		}
	}
	return out, nil
}

// leadingZero reports whether the integer part of a number starts with a
// zero that is not its only digit, as in "001" or "-01.5".
func leadingZero(value string) bool {
	digits := strings.TrimLeft(value, "+-")
	return len(digits) > 1 && digits[0] == '0' && digits[1] >= '0' && digits[1] <= '9'
}
