// Package adapter holds the model adapter contract and the default
// prefix/delimiter template adapter.
package adapter

import (
	"context"

	"github.com/sourceplane/liteparam/internal/model"
)

// Adapter renders a case into a runnable model instance and parses raw outputs
// back into structured values. The engine never interprets the model syntax itself.
type Adapter interface {
	ID() string
	// Render writes the model instance for c into dir and returns the path of the
	// input handed to a calculator.
	Render(ctx context.Context, c *model.Case, dir string) (string, error)
	// Parse extracts the output variables from a finished case directory.
	Parse(ctx context.Context, dir string) (map[string]any, error)
}
