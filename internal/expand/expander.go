package expand

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sourceplane/liteparam/internal/model"
)

// MaxCases bounds the size of a single expansion
const MaxCases = 1 << 20

// Expander turns a parameter spec into the Cartesian product of cases
type Expander struct {
	spec model.ParameterSpec
}

// NewExpander creates a new expander
func NewExpander(spec model.ParameterSpec) *Expander {
	return &Expander{spec: spec}
}

// Expand is shorthand for NewExpander(spec).Expand()
func Expand(spec model.ParameterSpec) ([]model.Case, error) {
	return NewExpander(spec).Expand()
}

// Expand produces cases in odometer order: the last declared variable varies fastest.
// A spec without variables yields exactly one empty case.
func (e *Expander) Expand() ([]model.Case, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}

	vars := e.spec.Variables
	order := e.spec.Names()

	total := 1
	for _, v := range vars {
		total *= len(v.Values)
		if total > MaxCases {
			return nil, fmt.Errorf("%w: grid exceeds %d cases", model.ErrInvalidSpec, MaxCases)
		}
	}

	cases := make([]model.Case, 0, total)
	positions := make([]int, len(vars))
	for i := 0; i < total; i++ {
		rest := i
		for j := len(vars) - 1; j >= 0; j-- {
			n := len(vars[j].Values)
			positions[j] = rest % n
			rest /= n
		}

		values := make(map[string]any, len(vars))
		for j, v := range vars {
			values[v.Name] = v.Values[positions[j]]
		}

		cases = append(cases, model.Case{
			Index:  i,
			Values: values,
			Order:  order,
			Key:    KeyOf(values),
		})
	}

	return cases, nil
}

// validate rejects grids that would expand to ambiguous or empty cases
func (e *Expander) validate() error {
	names := make(map[string]bool, len(e.spec.Variables))

	for _, v := range e.spec.Variables {
		if v.Name == "" {
			return fmt.Errorf("%w: variable without a name", model.ErrInvalidSpec)
		}
		if names[v.Name] {
			return fmt.Errorf("%w: variable %s declared twice", model.ErrInvalidSpec, v.Name)
		}
		names[v.Name] = true

		if len(v.Values) == 0 {
			return fmt.Errorf("%w: variable %s has an empty value sequence", model.ErrInvalidSpec, v.Name)
		}
		if v.Scalar && len(v.Values) != 1 {
			return fmt.Errorf("%w: scalar variable %s holds %d values", model.ErrInvalidSpec, v.Name, len(v.Values))
		}

		seen := make(map[string]bool, len(v.Values))
		for _, value := range v.Values {
			if !model.IsScalarValue(value) {
				return fmt.Errorf("%w: variable %s has unsupported value %v (%T)", model.ErrInvalidSpec, v.Name, value, value)
			}
			canon := model.CanonicalValue(value)
			if seen[canon] {
				return fmt.Errorf("%w: variable %s repeats value %s", model.ErrInvalidSpec, v.Name, model.DisplayValue(value))
			}
			seen[canon] = true
		}
	}

	return nil
}

// KeyOf derives the canonical case key: name=value pairs sorted by name
func KeyOf(values map[string]any) model.CaseKey {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, model.CanonicalValue(name)+"="+model.CanonicalValue(values[name]))
	}
	return model.CaseKey(strings.Join(parts, ","))
}

// Describe renders a case in declaration order, e.g. "h=0.1, mass=2"
func Describe(c *model.Case) string {
	if len(c.Order) == 0 {
		return "(no variables)"
	}
	parts := make([]string, 0, len(c.Order))
	for _, name := range c.Order {
		parts = append(parts, fmt.Sprintf("%s=%s", name, model.DisplayValue(c.Values[name])))
	}
	return strings.Join(parts, ", ")
}
