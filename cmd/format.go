package cmd

import (
	"fmt"
	"strconv"

	"github.com/sardine-ai/flexpreset/format"
	"github.com/spf13/cobra"
)

func newFormatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format",
		Short: "Format numbers as they appear in plot labels",
	}
	cmd.AddCommand(newFormatFloatCmd(), newFormatLevelsCmd(), newFormatEnsCmd())
	return cmd
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, 0, len(args))
	for _, arg := range args {
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", arg)
		}
		out = append(out, f)
	}
	return out, nil
}

func newFormatFloatCmd() *cobra.Command {
	var opts format.FloatOptions
	cmd := &cobra.Command{
		Use:   "float VALUE...",
		Short: "Format numbers in fixed or exponential notation, whichever fits",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseFloats(args)
			if err != nil {
				return err
			}
			for _, v := range values {
				s, err := format.Float(v, opts)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.E0, "e0", "", `exponential format to compare, e.g. "{f:.2e}"`)
	cmd.Flags().StringVar(&opts.F0, "f0", "", `fixed format to compare, e.g. "{f:.2f}"`)
	cmd.Flags().StringVar(&opts.E1, "e1", "", "exponential format of the result (default e0)")
	cmd.Flags().StringVar(&opts.F1, "f1", "", "fixed format of the result (default f0 trimmed)")
	return cmd
}

func newFormatLevelsCmd() *cobra.Command {
	var opts format.LevelOptions
	cmd := &cobra.Command{
		Use:   "levels LEVEL...",
		Short: "Format legend labels for the ranges between levels",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			levels, err := parseFloats(args)
			if err != nil {
				return err
			}
			labels, err := format.LevelRanges(levels, opts)
			if err != nil {
				return err
			}
			for _, label := range labels {
				fmt.Fprintln(cmd.OutOrStdout(), label)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.Style, "style", format.StyleBase, "one of base, int, math, up, down, and, var")
	flags.StringVar(&opts.Extend, "extend", "none", "open ranges: none, min, max or both")
	flags.StringVar(&opts.Align, "align", "center", "left, right, center or edges")
	flags.StringVar(&opts.Include, "include", "lower", "closed bound: lower or upper")
	flags.BoolVar(&opts.RstripZeros, "rstrip-zeros", false, "strip trailing zeros")
	flags.StringVar(&opts.Var, "var", "v", `variable name of the "var" style`)
	return cmd
}

func newFormatEnsCmd() *cobra.Command {
	var members []int
	cmd := &cobra.Command{
		Use:   "ens PATH",
		Short: "Insert ensemble member ranges into an {ens_member} path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := format.EnsFilePath(args[0], members)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&members, "members", nil, "ensemble member ids, e.g. 0,1,2")
	return cmd
}
