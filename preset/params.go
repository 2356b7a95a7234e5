package preset

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sardine-ai/flexpreset/model"
)

// Kind is the value kind a setup parameter accepts.
type Kind int

const (
	KindString  Kind = iota // a string
	KindStrings             // a string or a list of strings
	KindBool                // a boolean
	KindInts                // an integer or a list of integers
	KindFloat               // a number
	KindFloats              // a number or a list of numbers
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindStrings:
		return "string or list of strings"
	case KindBool:
		return "boolean"
	case KindInts:
		return "integer or list of integers"
	case KindFloat:
		return "number"
	case KindFloats:
		return "number or list of numbers"
	}
	return "unknown"
}

// IsList reports whether values of this kind are normalized to lists.
func (k Kind) IsList() bool {
	return k == KindStrings || k == KindInts || k == KindFloats
}

// Known lists the recognized setup parameters.
var Known = map[string]Kind{
	"infile":              KindString,
	"model":               KindString,
	"lang":                KindString,
	"outfile":             KindStrings,
	"outfile_time_format": KindString,
	"combine_species":     KindBool,
	"plot_variable":       KindString,
	"level":               KindInts,
	"integrate":           KindBool,
	"time":                KindInts,
	"ens_member_id":       KindInts,
	"ens_variable":        KindString,
	"ens_param_thr":       KindFloat,
	"ens_param_pctl":      KindFloats,
	"color_style":         KindString,
	"plot_type":           KindString,
	"multipanel_param":    KindString,
	"domain":              KindString,
	"species_id":          KindInts,
}

// Languages accepted for the lang parameter.
var Languages = []string{"en", "de"}

// Validate checks every parameter of a setup against Known and the value
// rules. All problems are reported, joined.
func Validate(setup model.Setup) error {
	keys := make([]string, 0, len(setup.Params))
	for k := range setup.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		kind, ok := Known[key]
		if !ok {
			errs = append(errs, fmt.Errorf("%s: %w '%s'", setupLabel(setup), ErrUnknownParam, key))
			continue
		}
		if _, err := normalizeValue(kind, setup.Params[key]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w '%s': %v", setupLabel(setup), ErrInvalidParam, key, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	normalized, _ := Normalize(setup)
	for _, err := range checkValues(normalized.Params) {
		errs = append(errs, fmt.Errorf("%s: %w", setupLabel(setup), err))
	}
	return errors.Join(errs...)
}

// Normalize returns a copy of the setup in which list-capable parameters
// are always lists, integers are int and numbers are float64. Unknown
// parameters are kept unchanged.
func Normalize(setup model.Setup) (model.Setup, error) {
	out := model.Setup{Name: setup.Name, Params: make(model.Params, len(setup.Params))}
	for key, value := range setup.Params {
		kind, ok := Known[key]
		if !ok {
			out.Params[key] = value
			continue
		}
		v, err := normalizeValue(kind, value)
		if err != nil {
			return model.Setup{}, fmt.Errorf("%w '%s': %v", ErrInvalidParam, key, err)
		}
		out.Params[key] = v
	}
	return out, nil
}

func checkValues(params model.Params) []error {
	var errs []error
	if lang, ok := params["lang"].(string); ok && !contains(Languages, lang) {
		errs = append(errs, fmt.Errorf("%w 'lang': must be one of %v, got '%s'", ErrInvalidParam, Languages, lang))
	}
	if pctls, ok := params["ens_param_pctl"].([]float64); ok {
		for _, p := range pctls {
			if !(p >= 0 && p <= 100) {
				errs = append(errs, fmt.Errorf("%w 'ens_param_pctl': %v not in [0, 100]", ErrInvalidParam, p))
			}
		}
	}
	if ids, ok := params["ens_member_id"].([]int); ok {
		seen := map[int]bool{}
		for _, id := range ids {
			if id < 0 {
				errs = append(errs, fmt.Errorf("%w 'ens_member_id': negative id %d", ErrInvalidParam, id))
			}
			if seen[id] {
				errs = append(errs, fmt.Errorf("%w 'ens_member_id': duplicate id %d", ErrInvalidParam, id))
			}
			seen[id] = true
		}
	}
	if _, ok := params["multipanel_param"]; ok && params["plot_type"] != "multipanel" {
		errs = append(errs, fmt.Errorf("%w 'multipanel_param': requires plot_type 'multipanel', got '%v'", ErrInvalidParam, params["plot_type"]))
	}
	return errs
}

func normalizeValue(kind Kind, value interface{}) (interface{}, error) {
	switch kind {
	case KindString:
		if s, ok := value.(string); ok {
			return s, nil
		}
	case KindBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case KindFloat:
		if f, ok := toFloat(value); ok {
			return f, nil
		}
	case KindStrings:
		return normalizeList(value, func(v interface{}) (string, bool) {
			s, ok := v.(string)
			return s, ok
		}, kind)
	case KindInts:
		return normalizeList(value, toInt, kind)
	case KindFloats:
		return normalizeList(value, toFloat, kind)
	}
	return nil, fmt.Errorf("expected %s, got %T", kind, value)
}

func normalizeList[T any](value interface{}, conv func(interface{}) (T, bool), kind Kind) ([]T, error) {
	if items, ok := value.([]interface{}); ok {
		out := make([]T, 0, len(items))
		for _, item := range items {
			v, ok := conv(item)
			if !ok {
				return nil, fmt.Errorf("expected %s, got list containing %T", kind, item)
			}
			out = append(out, v)
		}
		return out, nil
	}
	if items, ok := value.([]T); ok {
		return items, nil
	}
	v, ok := conv(value)
	if !ok {
		return nil, fmt.Errorf("expected %s, got %T", kind, value)
	}
	return []T{v}, nil
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if i, ok := toInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func setupLabel(setup model.Setup) string {
	if setup.Name == "" {
		return "setup <root>"
	}
	return "setup " + setup.Name
}
