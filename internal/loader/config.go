package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sourceplane/liteparam/internal/model"
	"github.com/sourceplane/liteparam/internal/schema"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir mirrors the .fz layout: models/, calculators/, config.yaml
	DefaultConfigDir = ".fz"

	modelsDir      = "models"
	calculatorsDir = "calculators"
	projectFile    = "config.yaml"

	defaultVarPrefix = "$"
	defaultDelim     = "{}"
)

var configExtensions = []string{".json", ".yaml", ".yml"}

// ErrNotFound is returned when no configuration record matches a name
var ErrNotFound = errors.New("configuration not found")

// Loader reads configuration records from a config directory
type Loader struct {
	ConfigDir string
	validator *schema.Validator
}

// NewLoader creates a loader rooted at configDir
func NewLoader(configDir string) (*Loader, error) {
	if configDir == "" {
		configDir = DefaultConfigDir
	}
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}
	return &Loader{ConfigDir: configDir, validator: validator}, nil
}

// LoadModelConfig loads a model adapter record by id (models/<id>.json|yaml) or by file path
func (l *Loader) LoadModelConfig(id string) (*model.ModelConfig, error) {
	path, err := l.resolve(modelsDir, id)
	if err != nil {
		return nil, err
	}

	var cfg model.ModelConfig
	if err := l.decode(path, l.validator.ValidateModel, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", id, err)
	}

	if cfg.VarPrefix == "" {
		cfg.VarPrefix = defaultVarPrefix
	}
	if cfg.Delim == "" {
		cfg.Delim = defaultDelim
	}
	return &cfg, nil
}

// LoadCalculatorConfig loads a calculator alias record (calculators/<name>.json|yaml)
func (l *Loader) LoadCalculatorConfig(name string) (*model.CalculatorConfig, error) {
	path, err := l.resolve(calculatorsDir, name)
	if err != nil {
		return nil, err
	}

	var cfg model.CalculatorConfig
	if err := l.decode(path, l.validator.ValidateCalculator, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load calculator %s: %w", name, err)
	}
	if cfg.Name == "" {
		cfg.Name = name
	}
	return &cfg, nil
}

// LoadProjectConfig loads config.yaml; a missing file yields an empty config
func (l *Loader) LoadProjectConfig() (*model.ProjectConfig, error) {
	path := filepath.Join(l.ConfigDir, projectFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return &model.ProjectConfig{}, nil
	}

	var cfg model.ProjectConfig
	if err := l.decode(path, l.validator.ValidateProject, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}
	return &cfg, nil
}

// ListModels returns the ids of all model records in the config directory
func (l *Loader) ListModels() ([]string, error) {
	return l.list(modelsDir)
}

// ListCalculators returns the names of all calculator records in the config directory
func (l *Loader) ListCalculators() ([]string, error) {
	return l.list(calculatorsDir)
}

// resolve finds the record file for name, accepting a direct path as well
func (l *Loader) resolve(kind, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty %s name", ErrNotFound, kind)
	}
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return name, nil
	}
	for _, ext := range configExtensions {
		path := filepath.Join(l.ConfigDir, kind, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no %s record %q in %s", ErrNotFound, strings.TrimSuffix(kind, "s"), name, filepath.Join(l.ConfigDir, kind))
}

func (l *Loader) list(kind string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.ConfigDir, kind))
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", kind, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		for _, known := range configExtensions {
			if ext == known {
				names = append(names, strings.TrimSuffix(entry.Name(), ext))
				break
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// decode reads a JSON or YAML record, validates its generic form, then decodes into out
func (l *Loader) decode(path string, validate func(interface{}) error, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var generic interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := validate(generic); err != nil {
		return fmt.Errorf("%s failed validation: %w", path, err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
