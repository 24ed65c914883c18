package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/sourceplane/liteparam/internal/normalize"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	"gopkg.in/yaml.v3"
)

// LoadSweep loads the raw, declaration-ordered variables of a sweep file.
// YAML and JSON files hold a top-level mapping of variable -> value or list of values;
// HCL files hold one attribute per variable.
func LoadSweep(path string) ([]normalize.Entry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return loadHCLSweep(path)
	default:
		return loadYAMLSweep(path)
	}
}

func loadYAMLSweep(path string) ([]normalize.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sweep file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse sweep file %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return []normalize.Entry{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("sweep file %s must contain a mapping of variables", path)
	}

	// Walk the mapping node pairwise so declaration order survives
	entries := make([]normalize.Entry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]

		var value any
		if err := valueNode.Decode(&value); err != nil {
			return nil, fmt.Errorf("failed to decode variable %s in %s: %w", keyNode.Value, path, err)
		}
		entries = append(entries, normalize.Entry{Name: keyNode.Value, Value: value})
	}

	return entries, nil
}

func loadHCLSweep(path string) ([]normalize.Entry, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	// Attributes come back as a map; source position restores declaration order
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Slice(names, func(a, b int) bool {
		return attrs[names[a]].Range.Start.Byte < attrs[names[b]].Range.Start.Byte
	})

	entries := make([]normalize.Entry, 0, len(names))
	for _, name := range names {
		val, diags := attrs[name].Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate %s in %s: %w", name, path, diags)
		}
		native, err := ctyToNative(val)
		if err != nil {
			return nil, fmt.Errorf("in attribute '%s': %w", name, err)
		}
		entries = append(entries, normalize.Entry{Name: name, Value: native})
	}

	return entries, nil
}

// ctyToNative recursively converts a cty.Value to its most natural Go counterpart.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		var i int64
		if err := gocty.FromCtyValue(v, &i); err == nil {
			return i, nil
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert cty.Number to float64: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			slice = append(slice, native)
		}
		return slice, nil

	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
