// Package format renders numbers for plot labels: floats that switch
// between fixed and exponential notation, level range legends and
// condensed ensemble member ranges.
package format

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidFormat = errors.New("invalid format string")
	ErrInvalidStyle  = errors.New("unknown level range style")
	ErrInvalidOption = errors.New("invalid level range option")
	ErrOpenRange     = errors.New("range open at both ends")
	ErrNoPlaceholder = errors.New("no ens_member placeholder")
)

// rxFloatFormat matches the accepted float formats, e.g. "{f:.2f}" or
// "{f:10.3E}".
var rxFloatFormat = regexp.MustCompile(`^\{f:([0-9]*\.?[0-9]*[eEf])\}$`)

// FloatOptions selects the format strings used by Float. Empty fields take
// their defaults.
type FloatOptions struct {
	E0 string // Exponential format compared against F0; defaults to "{f:e}".
	F0 string // Fixed format compared against E0; defaults to "{f:f}".
	E1 string // Exponential format of the result; defaults to E0.
	F1 string // Fixed format of the result; defaults to F0 trimmed to the width of E0.
}

// floatFormat converts a "{f:...}" format to a fmt verb.
func floatFormat(s string) (string, error) {
	m := rxFloatFormat.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("%w: '%s'", ErrInvalidFormat, s)
	}
	return "%" + m[1], nil
}

func applyFloat(verb string, f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return fmt.Sprintf(verb, f)
}

// Float formats f in fixed-point notation if that fits in the width of its
// exponential rendering without losing integer digits or, for numbers
// below one, all significant digits. Otherwise it uses exponential
// notation.
func Float(f float64, opts FloatOptions) (string, error) {
	formats := map[string]string{}
	for _, s := range []string{opts.E0, opts.F0, opts.E1, opts.F1} {
		if s == "" {
			continue
		}
		verb, err := floatFormat(s)
		if err != nil {
			return "", err
		}
		formats[s] = verb
	}
	e0, f0 := "%e", "%f"
	if opts.E0 != "" {
		e0 = formats[opts.E0]
	}
	if opts.F0 != "" {
		f0 = formats[opts.F0]
	}

	fe0 := applyFloat(e0, f)
	ff0 := applyFloat(f0, f)
	ff0t := ff0
	if len(ff0t) > len(fe0) {
		ff0t = ff0t[:len(fe0)]
	}

	if fixedOK(f, ff0t) {
		if opts.F1 != "" {
			return applyFloat(formats[opts.F1], f), nil
		}
		return ff0t, nil
	}
	if opts.E1 != "" {
		return applyFloat(formats[opts.E1], f), nil
	}
	return fe0, nil
}

// fixedOK reports whether the trimmed fixed-point string still represents f
// acceptably.
func fixedOK(f float64, trimmed string) bool {
	if !math.IsInf(f, 1) && f >= 1 {
		digits := strconv.FormatFloat(math.Trunc(f), 'f', 0, 64)
		frac, ok := strings.CutPrefix(trimmed, digits+".")
		return ok && frac != "" && strings.Trim(frac, "0123456789") == ""
	}
	if f == 0 {
		return true
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(trimmed), 64)
	return err == nil && v != 0
}
