package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sourceplane/liteparam/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func names(entries []normalize.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestLoadSweepYAMLKeepsDeclarationOrder(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "sweep.yaml"), `
zeta: [1, 2]
alpha: 0.7
mid: [fast, slow]
`)
	entries, err := LoadSweep(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names(entries))
	assert.Equal(t, []any{1, 2}, entries[0].Value)
	assert.Equal(t, 0.7, entries[1].Value)
}

func TestLoadSweepJSON(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "sweep.json"), `{"convection": [0.1, 0.3, 0.5], "mass": 2}`)
	entries, err := LoadSweep(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"convection", "mass"}, names(entries))
	assert.Equal(t, []any{0.1, 0.3, 0.5}, entries[0].Value)
}

func TestLoadSweepHCL(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "sweep.hcl"), `
convection = [0.1, 0.3]
solver     = "dassl"
adaptive   = [true, false]
seed       = 12345678901234567
`)
	entries, err := LoadSweep(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"convection", "solver", "adaptive", "seed"}, names(entries))
	assert.Equal(t, []any{0.1, 0.3}, entries[0].Value)
	assert.Equal(t, "dassl", entries[1].Value)
	assert.Equal(t, []any{true, false}, entries[2].Value)
	assert.Equal(t, int64(12345678901234567), entries[3].Value)
}

func TestLoadSweepRejectsNonMapping(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "sweep.yaml"), "- 1\n- 2\n")
	_, err := LoadSweep(path)
	require.Error(t, err)
}

func TestLoadModelConfigAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "models", "Modelica.json"), `{"id": "Modelica", "output": {"res": "cat res.json"}}`)

	l, err := NewLoader(dir)
	require.NoError(t, err)

	cfg, err := l.LoadModelConfig("Modelica")
	require.NoError(t, err)
	assert.Equal(t, "Modelica", cfg.ID)
	assert.Equal(t, "$", cfg.VarPrefix)
	assert.Equal(t, "{}", cfg.Delim)
	assert.Equal(t, "cat res.json", cfg.Output["res"])

	models, err := l.ListModels()
	require.NoError(t, err)
	assert.Equal(t, []string{"Modelica"}, models)
}

func TestLoadModelConfigErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "models", "broken.yaml"), "id: broken\n")

	l, err := NewLoader(dir)
	require.NoError(t, err)

	_, err = l.LoadModelConfig("missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = l.LoadModelConfig("broken")
	require.Error(t, err)
}

func TestLoadCalculatorConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "calculators", "localhost.yaml"), "uri: sh://bash run.sh\ntimeout: 30s\nretries: 1\n")

	l, err := NewLoader(dir)
	require.NoError(t, err)

	cfg, err := l.LoadCalculatorConfig("localhost")
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Name)
	assert.Equal(t, "sh://bash run.sh", cfg.URI)
	assert.Equal(t, "30s", cfg.Timeout)
	assert.Equal(t, 1, cfg.Retries)
}

func TestLoadProjectConfig(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLoader(dir)
	require.NoError(t, err)

	cfg, err := l.LoadProjectConfig()
	require.NoError(t, err)
	assert.Zero(t, cfg.Workers)

	writeFile(t, filepath.Join(dir, "config.yaml"), "workers: 8\ncalculators: [localhost]\nlogFormat: json\n")
	cfg, err = l.LoadProjectConfig()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, []string{"localhost"}, cfg.Calculators)

	writeFile(t, filepath.Join(dir, "config.yaml"), "workers: 0\n")
	_, err = l.LoadProjectConfig()
	require.Error(t, err)
}
