package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// Level range styles.
const (
	StyleBase = "base" // "< 10.0", "10.0-20.0", ">= 20.0"
	StyleInt  = "int"  // "< 10", "10-19", ">= 20"
	StyleMath = "math" // "(-inf, 10.0)", "[10.0, 20.0)", "[20.0, inf)"
	StyleUp   = "up"   // "< 10.0", ">= 10.0", ">= 20.0"
	StyleDown = "down" // "< 10.0", "< 20.0", ">= 20.0"
	StyleAnd  = "and"  // "< 10.0", ">= 10.0 & < 20.0", ">= 20.0"
	StyleVar  = "var"  // "10.0 > v", "10.0 <= v < 20.0", "v >= 20"
)

// Styles lists the level range styles.
var Styles = []string{StyleBase, StyleInt, StyleMath, StyleUp, StyleDown, StyleAnd, StyleVar}

// LaTeX operators as rendered in plot legends. Each displays as a single
// character.
const (
	texLT   = `$\tt <$`
	texLE   = `$\tt \leq$`
	texGT   = `$\tt >$`
	texGE   = `$\tt \geq$`
	texDash = `$\tt -$`
	texAnd  = `$\tt &$`
)

// LevelOptions configures LevelRanges. Empty fields take their defaults.
//
// Align "center" pushes both bounds towards the operator column: the lower
// bound is right-aligned, the upper one left-aligned. "edges" pushes them
// outwards. pyflexplot labels differ: its "center" pads like "edges" here
// and its "edges" like "left". The "math" style writes open bounds as
// "(-inf" and "inf)" where pyflexplot writes a bare "-inf" and "inf".
type LevelOptions struct {
	Style       string // One of Styles; defaults to "base".
	Extend      string // "none", "min", "max" or "both"; defaults to "none".
	Align       string // "left", "right", "center" or "edges"; defaults to "center".
	Include     string // "lower" or "upper"; defaults to "lower".
	Widths      *[3]int
	RstripZeros bool
	Var         string // Variable name of the "var" style; defaults to "v".
}

// component is one part of a formatted range. ntex counts the characters
// that are LaTeX markup and take up no display width.
type component struct {
	s    string
	ntex int
}

type components struct {
	left, center, right component
}

func plain(s string) component { return component{s: s} }

func tex(s string, ntex int) component { return component{s: s, ntex: ntex} }

// LevelFormatter formats the ranges between successive levels.
type LevelFormatter struct {
	opts   LevelOptions
	widths [3]int
	maxVal float64
	hasMax bool
}

var defaultWidths = map[string][3]int{
	StyleBase: {5, 3, 5},
	StyleInt:  {2, 3, 2},
	StyleMath: {6, 2, 6},
	StyleUp:   {0, 2, 5},
	StyleDown: {0, 2, 5},
	StyleAnd:  {8, 3, 8},
	StyleVar:  {5, 9, 5},
}

// NewLevelFormatter checks opts and fills in the defaults.
func NewLevelFormatter(opts LevelOptions) (*LevelFormatter, error) {
	if opts.Style == "" {
		opts.Style = StyleBase
	}
	if opts.Extend == "" {
		opts.Extend = "none"
	}
	if opts.Align == "" {
		opts.Align = "center"
	}
	if opts.Include == "" {
		opts.Include = "lower"
	}
	if opts.Var == "" {
		opts.Var = "v"
	}
	widths, ok := defaultWidths[opts.Style]
	if !ok {
		return nil, fmt.Errorf("%w '%s'; options: %s", ErrInvalidStyle, opts.Style, strings.Join(Styles, ", "))
	}
	if opts.Widths != nil {
		widths = *opts.Widths
	}
	if err := checkChoice("extend", opts.Extend, "none", "min", "max", "both"); err != nil {
		return nil, err
	}
	if err := checkChoice("align", opts.Align, "left", "right", "center", "edges"); err != nil {
		return nil, err
	}
	if err := checkChoice("include", opts.Include, "lower", "upper"); err != nil {
		return nil, err
	}
	if opts.Style == StyleInt && opts.RstripZeros {
		logrus.Warn("int level style: forcing rstrip_zeros off")
		opts.RstripZeros = false
	}
	return &LevelFormatter{opts: opts, widths: widths}, nil
}

func checkChoice(name, value string, choices ...string) error {
	for _, c := range choices {
		if c == value {
			return nil
		}
	}
	return fmt.Errorf("%w: %s '%s'; must be one of %s", ErrInvalidOption, name, value, strings.Join(choices, ","))
}

// LevelRanges formats the ranges between successive levels. Depending on
// opts.Extend, one fewer ("none"), as many ("min", "max") or one more
// ("both") labels than levels are returned.
func LevelRanges(levels []float64, opts LevelOptions) ([]string, error) {
	f, err := NewLevelFormatter(opts)
	if err != nil {
		return nil, err
	}
	return f.FormatMultiple(levels)
}

// FormatMultiple formats the ranges between successive levels.
func (f *LevelFormatter) FormatMultiple(levels []float64) ([]string, error) {
	if len(levels) == 0 {
		return nil, nil
	}
	f.maxVal, f.hasMax = levels[0], true
	for _, l := range levels[1:] {
		f.maxVal = math.Max(f.maxVal, l)
	}

	var labels []string
	add := func(lo, hi float64) error {
		s, err := f.Format(lo, hi)
		if err != nil {
			return err
		}
		labels = append(labels, s)
		return nil
	}
	if f.opts.Extend == "min" || f.opts.Extend == "both" {
		if err := add(math.Inf(-1), levels[0]); err != nil {
			return nil, err
		}
	}
	for i := 1; i < len(levels); i++ {
		if err := add(levels[i-1], levels[i]); err != nil {
			return nil, err
		}
	}
	if f.opts.Extend == "max" || f.opts.Extend == "both" {
		if err := add(levels[len(levels)-1], math.Inf(1)); err != nil {
			return nil, err
		}
	}
	return labels, nil
}

// Format formats the range between lo and hi. An infinite bound leaves the
// range open at that end.
func (f *LevelFormatter) Format(lo, hi float64) (string, error) {
	if !f.hasMax {
		f.maxVal, f.hasMax = math.Max(lo, hi), true
	}
	cs, err := f.components(lo, hi)
	if err != nil {
		return "", err
	}

	left, right := cs.left.s, cs.right.s
	if f.opts.RstripZeros {
		left, right = rstripZeros(left), rstripZeros(right)
	}

	var alignL, alignR byte
	switch f.opts.Align {
	case "left":
		alignL, alignR = '<', '<'
	case "right":
		alignL, alignR = '>', '>'
	case "center":
		alignL, alignR = '>', '<'
	case "edges":
		alignL, alignR = '<', '>'
	}

	wl, wc, wr := f.widths[0], f.widths[1], f.widths[2]
	return pad(left, alignL, wl+cs.left.ntex) +
		pad(cs.center.s, '^', wc+cs.center.ntex) +
		pad(right, alignR, wr+cs.right.ntex), nil
}

func (f *LevelFormatter) components(lo, hi float64) (components, error) {
	switch f.opts.Style {
	case StyleInt:
		if !math.IsInf(lo, 0) && !math.IsInf(hi, 0) {
			if f.opts.Include == "lower" {
				hi--
			} else {
				lo++
			}
			if lo == hi {
				return components{right: plain(f.level(hi))}, nil
			}
		}
	case StyleMath:
		cs := components{left: plain("(-inf"), center: plain(","), right: plain("inf)")}
		if !math.IsInf(lo, 0) {
			cs.left = plain("[" + f.level(lo))
		}
		if !math.IsInf(hi, 0) {
			cs.right = plain(f.level(hi) + ")")
		}
		return cs, nil
	}

	openLeft, openRight := math.IsInf(lo, 0), math.IsInf(hi, 0)
	switch {
	case openLeft && openRight:
		return components{}, ErrOpenRange
	case openLeft:
		return f.openLeft(hi), nil
	case openRight:
		return f.openRight(lo), nil
	}
	return f.closed(lo, hi), nil
}

// lowerOp and upperOp are the operators of the lower and upper bound.
func (f *LevelFormatter) lowerOp() string {
	if f.opts.Include == "lower" {
		return texGE
	}
	return texGT
}

func (f *LevelFormatter) upperOp() string {
	if f.opts.Include == "lower" {
		return texLT
	}
	return texLE
}

func (f *LevelFormatter) closed(lo, hi float64) components {
	switch f.opts.Style {
	case StyleUp:
		op := f.lowerOp()
		return components{center: tex(op, len(op)-1), right: plain(f.level(lo))}
	case StyleDown:
		op := f.upperOp()
		return components{center: tex(op, len(op)-1), right: plain(f.level(hi))}
	case StyleAnd:
		op0, op1 := f.lowerOp(), f.upperOp()+" "
		return components{
			left:   tex(op0+" "+f.level(lo), len(op0)-1),
			center: tex(texAnd, len(texAnd)-1),
			right:  tex(op1+f.level(hi), len(op1)-1),
		}
	case StyleVar:
		op0, op1 := texLE, texLT
		if f.opts.Include == "upper" {
			op0, op1 = texLT, texLE
		}
		return components{
			left:   plain(f.level(lo)),
			center: tex(op0+" "+f.opts.Var+" "+op1, len(op0)+len(op1)-2),
			right:  plain(f.level(hi)),
		}
	}
	return components{
		left:   plain(f.level(lo)),
		center: tex(texDash, len(texDash)-1),
		right:  plain(f.level(hi)),
	}
}

func (f *LevelFormatter) openLeft(hi float64) components {
	op := f.upperOp()
	switch f.opts.Style {
	case StyleAnd:
		return components{right: tex(op+" "+f.level(hi), len(op)-1)}
	case StyleVar:
		center := "  " + f.opts.Var + " " + op
		return components{center: tex(center, 1+len(op)-2), right: plain(f.level(hi))}
	}
	return components{center: tex(op, len(op)-1), right: plain(f.level(hi))}
}

func (f *LevelFormatter) openRight(lo float64) components {
	op := f.lowerOp()
	switch f.opts.Style {
	case StyleAnd:
		return components{left: tex(op+" "+f.level(lo), len(op)-1)}
	case StyleVar:
		op0 := texLE
		if f.opts.Include == "upper" {
			op0 = texLT
		}
		return components{left: plain(f.level(lo)), center: tex(op0+" "+f.opts.Var+" ", len(op0)-2)}
	}
	return components{center: tex(op, len(op)-1), right: plain(f.level(lo))}
}

func (f *LevelFormatter) level(l float64) string {
	if f.opts.Style != StyleInt {
		s, _ := Float(l, FloatOptions{E0: "{f:.0E}"})
		return s
	}
	if l != math.Trunc(l) {
		logrus.WithField("level", l).Warn("int level style: level is not an integer")
	}
	width := utf8.RuneCountInString(intString(f.maxVal))
	return pad(intString(l), '>', width)
}

func intString(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// pad pads s with spaces to width display characters. '^' centers s with
// any odd space going to the right.
func pad(s string, align byte, width int) string {
	n := width - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	switch align {
	case '>':
		return strings.Repeat(" ", n) + s
	case '^':
		return strings.Repeat(" ", n/2) + s + strings.Repeat(" ", n-n/2)
	}
	return s + strings.Repeat(" ", n)
}

// rstripZeros removes trailing zeros from the numbers in s, keeping at
// least one digit after a decimal point. Exponential numbers are left
// untouched.
func rstripZeros(s string) string {
	if strings.ContainsAny(s, "eE") {
		return s
	}
	for {
		var b strings.Builder
		for i := 0; i < len(s); i++ {
			if isStrippableZero(s, i) {
				continue
			}
			b.WriteByte(s[i])
		}
		if b.Len() == len(s) {
			return s
		}
		s = b.String()
	}
}

// isStrippableZero reports whether s[i] is a '0' that ends a word, does
// not follow a '.' and is not followed by one.
func isStrippableZero(s string, i int) bool {
	if s[i] != '0' {
		return false
	}
	if i > 0 && s[i-1] == '.' {
		return false
	}
	if i+1 < len(s) && (s[i+1] == '.' || isWordByte(s[i+1])) {
		return false
	}
	return true
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
