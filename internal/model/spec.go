package model

// Variable is one swept (or fixed) input of a parametric study
type Variable struct {
	Name   string `yaml:"name" json:"name"`
	Values []any  `yaml:"values" json:"values"`
	Scalar bool   `yaml:"scalar,omitempty" json:"scalar,omitempty"` // held fixed across all cases
}

// ParameterSpec is the declared parameter grid. Declaration order is significant:
// the last variable varies fastest during expansion.
type ParameterSpec struct {
	Variables []Variable `yaml:"variables" json:"variables"`
}

// Names returns the variable names in declaration order
func (s ParameterSpec) Names() []string {
	names := make([]string, 0, len(s.Variables))
	for _, v := range s.Variables {
		names = append(names, v.Name)
	}
	return names
}

// Lookup returns the variable with the given name
func (s ParameterSpec) Lookup(name string) (Variable, bool) {
	for _, v := range s.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// CaseKey is the canonical, declaration-order independent identity of a case
type CaseKey string

// Case is one point of the parameter grid
type Case struct {
	Index  int            `json:"index"` // fixed result slot assigned at expansion
	Values map[string]any `json:"values"`
	Order  []string       `json:"order"` // variable names in declaration order
	Key    CaseKey        `json:"key"`
}
