package normalize

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/sourceplane/liteparam/internal/model"
)

// Entry is one raw, declaration-ordered variable as read from a sweep file or flag
type Entry struct {
	Name  string
	Value any // a single value or a sequence of values
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NormalizeSpec transforms raw entries into canonical parameter spec form.
// Numbers become float64, sequences become []any, single values become scalars.
func NormalizeSpec(entries []Entry) (*model.ParameterSpec, error) {
	spec := &model.ParameterSpec{Variables: make([]model.Variable, 0, len(entries))}

	for _, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if !identifier.MatchString(name) {
			return nil, fmt.Errorf("%w: variable name %q is not an identifier", model.ErrInvalidSpec, entry.Name)
		}

		variable := model.Variable{Name: name}
		if seq, ok := asSequence(entry.Value); ok {
			variable.Values = make([]any, 0, len(seq))
			for _, raw := range seq {
				value, err := normalizeValue(raw)
				if err != nil {
					return nil, fmt.Errorf("%w: variable %s: %v", model.ErrInvalidSpec, name, err)
				}
				variable.Values = append(variable.Values, value)
			}
		} else {
			value, err := normalizeValue(entry.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: variable %s: %v", model.ErrInvalidSpec, name, err)
			}
			variable.Values = []any{value}
			variable.Scalar = true
		}

		spec.Variables = append(spec.Variables, variable)
	}

	return spec, nil
}

// ParseAssignment parses a flag of the form name=v1,v2,... into an entry.
// A single value yields a scalar entry.
func ParseAssignment(s string) (Entry, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok {
		return Entry{}, fmt.Errorf("%w: expected name=value, got %q", model.ErrInvalidSpec, s)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Entry{Name: name, Value: []any{}}, nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) == 1 {
		return Entry{Name: name, Value: ParseValue(parts[0])}, nil
	}
	values := make([]any, 0, len(parts))
	for _, p := range parts {
		values = append(values, ParseValue(p))
	}
	return Entry{Name: name, Value: values}, nil
}

// ParseValue converts a flag string to int, float, bool, or string, in that order
func ParseValue(s string) any {
	s = strings.TrimSpace(s)

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	// nan and inf stay text, JSON has no form for them
	if f, err := strconv.ParseFloat(s, 64); err == nil && model.IsFinite(f) {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return b
	}
	return s
}

func asSequence(v any) ([]any, bool) {
	if seq, ok := v.([]any); ok {
		return seq, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	seq := make([]any, rv.Len())
	for i := range seq {
		seq[i] = rv.Index(i).Interface()
	}
	return seq, true
}

func normalizeValue(v any) (any, error) {
	if n, ok := model.Number(v); ok {
		if f, isFloat := n.(float64); isFloat && !model.IsFinite(f) {
			return nil, fmt.Errorf("non-finite value %v", f)
		}
		return n, nil
	}
	switch val := v.(type) {
	case string, bool:
		return val, nil
	case nil:
		return nil, fmt.Errorf("null value")
	default:
		return nil, fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}
