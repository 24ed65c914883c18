package results

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sourceplane/liteparam/internal/model"
)

// Record is the persisted form of one case outcome
type Record struct {
	APIVersion string   `json:"apiVersion"`
	Kind       string   `json:"kind"`
	RunID      string   `json:"runId"`
	Order      []string `json:"order"`
	model.CaseOutcome
}

// Writer persists a run into a results directory
type Writer struct {
	Layout
	runID string
}

// NewWriter creates the results directory if needed
func NewWriter(root, runID string) (*Writer, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results directory %s: %w", root, err)
	}
	return &Writer{Layout: Layout{Root: root}, runID: runID}, nil
}

// PrepareCase empties and recreates the case directory before a live calculation
func (w *Writer) PrepareCase(c *model.Case) (string, error) {
	dir := w.CaseDir(c)
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("failed to clean case directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create case directory %s: %w", dir, err)
	}
	return dir, nil
}

// WriteOutcome writes case.json for a finalized outcome
func (w *Writer) WriteOutcome(c *model.Case, outcome model.CaseOutcome) error {
	dir := w.CaseDir(c)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create case directory %s: %w", dir, err)
	}

	record := Record{
		APIVersion:  APIVersion,
		Kind:        "CaseRecord",
		RunID:       w.runID,
		Order:       c.Order,
		CaseOutcome: outcome,
	}
	return writeJSON(filepath.Join(dir, CaseFile), record)
}

// WriteTable writes the full result table as results.json
func (w *Writer) WriteTable(table *model.ResultTable) error {
	return writeJSON(filepath.Join(w.Root, TableFile), table)
}

// WriteManifest writes run.json
func (w *Writer) WriteManifest(manifest *model.RunManifest) error {
	return writeJSON(filepath.Join(w.Root, RunFile), manifest)
}

// ReadRecords loads every case.json directly under root. It fails only when root
// itself cannot be read; unreadable records are returned as skipped errors.
func ReadRecords(root string) ([]Record, []error, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, err
	}

	records := make([]Record, 0, len(entries))
	var skipped []error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name(), CaseFile)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			skipped = append(skipped, fmt.Errorf("failed to read %s: %w", path, err))
			continue
		}

		var record Record
		if err := decodeJSON(data, &record); err != nil {
			skipped = append(skipped, fmt.Errorf("failed to parse %s: %w", path, err))
			continue
		}
		record.RestoreNumbers()
		records = append(records, record)
	}

	sort.SliceStable(records, func(a, b int) bool {
		return records[a].CaseIndex < records[b].CaseIndex
	})
	return records, skipped, nil
}

// ReadTable loads results.json from a results directory
func ReadTable(root string) (*model.ResultTable, error) {
	data, err := os.ReadFile(filepath.Join(root, TableFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read result table: %w", err)
	}
	var table model.ResultTable
	if err := decodeJSON(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse result table: %w", err)
	}
	for i := range table.Rows {
		table.Rows[i].RestoreNumbers()
	}
	return &table, nil
}

// ReadManifest loads run.json from a results directory
func ReadManifest(root string) (*model.RunManifest, error) {
	data, err := os.ReadFile(filepath.Join(root, RunFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read run manifest: %w", err)
	}
	var manifest model.RunManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse run manifest: %w", err)
	}
	return &manifest, nil
}

// decodeJSON keeps numbers as json.Number so large integers survive
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
