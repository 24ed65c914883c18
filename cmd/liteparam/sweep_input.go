package main

import (
	"fmt"

	"github.com/sourceplane/liteparam/internal/loader"
	"github.com/sourceplane/liteparam/internal/model"
	"github.com/sourceplane/liteparam/internal/normalize"
)

// loadSpec merges the sweep file and --var assignments; a --var replaces a
// file entry of the same name in place, new names are appended.
func loadSpec(sweepFile string, vars []string) (*model.ParameterSpec, error) {
	var entries []normalize.Entry
	if sweepFile != "" {
		loaded, err := loader.LoadSweep(sweepFile)
		if err != nil {
			return nil, err
		}
		entries = loaded
	}

	for _, assignment := range vars {
		entry, err := normalize.ParseAssignment(assignment)
		if err != nil {
			return nil, fmt.Errorf("invalid --var %q: %w", assignment, err)
		}
		replaced := false
		for i := range entries {
			if entries[i].Name == entry.Name {
				entries[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			entries = append(entries, entry)
		}
	}

	return normalize.NormalizeSpec(entries)
}
