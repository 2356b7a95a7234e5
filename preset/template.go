package preset

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
	"github.com/sardine-ai/flexpreset/model"
)

// Placeholder is one {name} or {name:spec} field of an outfile template.
type Placeholder struct {
	Name string
	Spec string
}

var (
	rxFieldName  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	rxFormatSpec = regexp.MustCompile(`^(0)?([0-9]+)?(?:\.([0-9]+))?([dfeEs])?$`)
)

// segment is either a literal or a placeholder.
type segment struct {
	literal string
	field   *Placeholder
}

func parseTemplate(tmpl string) ([]segment, error) {
	var segments []segment
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			segments = append(segments, segment{literal: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(tmpl); i++ {
		switch ch := tmpl[i]; ch {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated '{' in %q", ErrInvalidTemplate, tmpl)
			}
			body := tmpl[i+1 : i+1+end]
			name, spec, _ := strings.Cut(body, ":")
			if !rxFieldName.MatchString(name) {
				return nil, fmt.Errorf("%w: bad field name %q in %q", ErrInvalidTemplate, name, tmpl)
			}
			if !rxFormatSpec.MatchString(spec) {
				return nil, fmt.Errorf("%w: %q in %q", ErrInvalidFormat, spec, tmpl)
			}
			flush()
			segments = append(segments, segment{field: &Placeholder{Name: name, Spec: spec}})
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, fmt.Errorf("%w: single '}' in %q", ErrInvalidTemplate, tmpl)
		default:
			lit.WriteByte(ch)
		}
	}
	flush()
	return segments, nil
}

// Placeholders returns the fields referenced by a template, in order.
func Placeholders(tmpl string) ([]Placeholder, error) {
	segments, err := parseTemplate(tmpl)
	if err != nil {
		return nil, err
	}
	var out []Placeholder
	for _, s := range segments {
		if s.field != nil {
			out = append(out, *s.field)
		}
	}
	return out, nil
}

// Render substitutes the placeholders of tmpl with values from fields.
// List values are joined with "+".
func Render(tmpl string, fields map[string]interface{}) (string, error) {
	segments, err := parseTemplate(tmpl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, s := range segments {
		if s.field == nil {
			b.WriteString(s.literal)
			continue
		}
		value, ok := fields[s.field.Name]
		if !ok {
			return "", fmt.Errorf("%w '%s' in %q", ErrMissingField, s.field.Name, tmpl)
		}
		formatted, err := formatValue(value, s.field.Spec)
		if err != nil {
			return "", fmt.Errorf("field '%s': %w", s.field.Name, err)
		}
		b.WriteString(formatted)
	}
	return b.String(), nil
}

// EscapeFormatKeys doubles all braces so that s renders literally.
func EscapeFormatKeys(s string) string {
	return strings.NewReplacer("{", "{{", "}", "}}").Replace(s)
}

func formatValue(value interface{}, spec string) (string, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		parts := make([]string, rv.Len())
		for i := range parts {
			s, err := formatValue(rv.Index(i).Interface(), spec)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, "+"), nil
	}

	m := rxFormatSpec.FindStringSubmatch(spec)
	zero, width, prec, verb := m[1], m[2], m[3], m[4]
	flags := ""
	if zero != "" {
		flags = "0"
	}
	precision := ""
	if prec != "" {
		precision = "." + prec
	}

	switch verb {
	case "d":
		i, ok := toInt(value)
		if !ok {
			return "", fmt.Errorf("%w: 'd' needs an integer, got %T", ErrInvalidFormat, value)
		}
		if prec != "" {
			return "", fmt.Errorf("%w: precision not allowed with 'd'", ErrInvalidFormat)
		}
		return fmt.Sprintf("%"+flags+width+"d", i), nil
	case "f", "e", "E":
		f, ok := toFloat(value)
		if !ok {
			return "", fmt.Errorf("%w: '%s' needs a number, got %T", ErrInvalidFormat, verb, value)
		}
		return fmt.Sprintf("%"+flags+width+precision+verb, f), nil
	case "s":
		s, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("%w: 's' needs a string, got %T", ErrInvalidFormat, value)
		}
		return fmt.Sprintf("%-"+width+precision+"s", s), nil
	}

	// No type: strings pad on the right, numbers on the left.
	switch v := value.(type) {
	case string:
		return fmt.Sprintf("%-"+width+precision+"s", v), nil
	case bool:
		if v {
			return fmt.Sprintf("%"+width+"s", "True"), nil
		}
		return fmt.Sprintf("%"+width+"s", "False"), nil
	case float64, float32:
		f, _ := toFloat(v)
		if precision == "" {
			return fmt.Sprintf("%"+width+"s", floatString(f)), nil
		}
		return fmt.Sprintf("%"+flags+width+precision+"f", f), nil
	default:
		if i, ok := toInt(v); ok {
			return fmt.Sprintf("%"+flags+width+"d", i), nil
		}
		return fmt.Sprintf("%"+width+"v", v), nil
	}
}

// floatString writes f the way Python's str does: the shortest digits that
// round-trip, fixed notation with at least one decimal for exponents in
// [-4, 16) and scientific notation otherwise.
func floatString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// RenderOutfiles renders every outfile template of a setup. Fields taken
// from the setup itself fill in whatever the caller leaves out. A
// time.Time time_step is formatted with the setup's outfile_time_format.
func RenderOutfiles(setup model.Setup, fields map[string]interface{}) ([]string, error) {
	normalized, err := Normalize(setup)
	if err != nil {
		return nil, err
	}
	params := normalized.Params
	outfiles, ok := params["outfile"].([]string)
	if !ok {
		return nil, fmt.Errorf("%w 'outfile': %s has no outfile", ErrInvalidParam, setupLabel(setup))
	}

	merged := map[string]interface{}{}
	for _, key := range []string{"plot_variable", "domain", "lang", "ens_variable", "species_id", "model"} {
		if v, ok := params[key]; ok {
			merged[key] = v
		}
	}
	for k, v := range fields {
		merged[k] = v
	}
	if t, ok := merged["time_step"].(time.Time); ok {
		layout, _ := params["outfile_time_format"].(string)
		if layout == "" {
			layout = "%Y%m%d%H%M"
		}
		merged["time_step"] = strftime.Format(layout, t)
	}

	out := make([]string, 0, len(outfiles))
	for _, tmpl := range outfiles {
		s, err := Render(tmpl, merged)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", setupLabel(setup), err)
		}
		out = append(out, s)
	}
	return out, nil
}
