package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/*.schema.yaml
var schemaFS embed.FS

// Validator handles JSON schema validation of configuration records
type Validator struct {
	modelSchema      *jsonschema.Schema
	calculatorSchema *jsonschema.Schema
	projectSchema    *jsonschema.Schema
}

// NewValidator compiles the embedded schemas
func NewValidator() (*Validator, error) {
	v := &Validator{}

	var err error
	if v.modelSchema, err = loadSchema("model"); err != nil {
		return nil, fmt.Errorf("failed to load model schema: %w", err)
	}
	if v.calculatorSchema, err = loadSchema("calculator"); err != nil {
		return nil, fmt.Errorf("failed to load calculator schema: %w", err)
	}
	if v.projectSchema, err = loadSchema("project"); err != nil {
		return nil, fmt.Errorf("failed to load project schema: %w", err)
	}

	return v, nil
}

// ValidateModel validates a model adapter configuration document
func (v *Validator) ValidateModel(data interface{}) error {
	return validate(v.modelSchema, data)
}

// ValidateCalculator validates a calculator alias document
func (v *Validator) ValidateCalculator(data interface{}) error {
	return validate(v.calculatorSchema, data)
}

// ValidateProject validates a project configuration document
func (v *Validator) ValidateProject(data interface{}) error {
	return validate(v.projectSchema, data)
}

// validate round-trips data through JSON so YAML-decoded values (int, map[string]interface{})
// reach the validator in the shape it expects
func validate(schema *jsonschema.Schema, data interface{}) error {
	if schema == nil {
		return fmt.Errorf("schema not loaded")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return schema.Validate(doc)
}

// loadSchema compiles an embedded YAML schema
func loadSchema(name string) (*jsonschema.Schema, error) {
	data, err := schemaFS.ReadFile(fmt.Sprintf("schemas/%s.schema.yaml", name))
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	// Parse YAML to interface{} (supports both YAML and JSON)
	var schemaData interface{}
	if err := yaml.Unmarshal(data, &schemaData); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	jsonData, err := json.Marshal(schemaData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	schemaURI := fmt.Sprintf("liteparam://%s/schema.json", name)
	compiler := jsonschema.NewCompiler()
	compiler.LoadURL = func(url string) (io.ReadCloser, error) {
		if url == schemaURI {
			return io.NopCloser(strings.NewReader(string(jsonData))), nil
		}
		return nil, fmt.Errorf("external schema reference not supported: %s", url)
	}

	return compiler.Compile(schemaURI)
}
