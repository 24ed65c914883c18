package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sourceplane/liteparam/internal/model"
	"gopkg.in/yaml.v3"
)

// Renderer serializes result tables
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON renders the table as JSON
func (r *Renderer) RenderJSON(table *model.ResultTable) ([]byte, error) {
	return json.MarshalIndent(table, "", "  ")
}

// RenderYAML renders the table as YAML
func (r *Renderer) RenderYAML(table *model.ResultTable) ([]byte, error) {
	return yaml.Marshal(table)
}

// WriteTable writes the table to a file (JSON or YAML based on extension)
func (r *Renderer) WriteTable(table *model.ResultTable, path string) error {
	var data []byte
	var err error

	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		data, err = r.RenderYAML(table)
	default:
		data, err = r.RenderJSON(table)
	}
	if err != nil {
		return fmt.Errorf("failed to render result table: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result table to %s: %w", path, err)
	}
	return nil
}
