package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sourceplane/liteparam/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modelConfig(output map[string]string) *model.ModelConfig {
	return &model.ModelConfig{ID: "Newton", VarPrefix: "$", Delim: "{}", Output: output}
}

func writeModel(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "NewtonCooling.mo")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTemplateRenderSubstitutesVariables(t *testing.T) {
	path := writeModel(t, "parameter Real h = ${h};\nparameter Real m = $mass; // $HOME stays\n")
	tmpl, err := NewTemplate(modelConfig(nil), path, []string{"h", "mass"})
	require.NoError(t, err)

	dir := t.TempDir()
	c := &model.Case{Values: map[string]any{"h": 0.1, "mass": 2.0}}
	input, err := tmpl.Render(context.Background(), c, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "NewtonCooling.mo"), input)

	data, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, "parameter Real h = 0.1;\nparameter Real m = 2; // $HOME stays\n", string(data))
}

func TestTemplateRenderFailsOnUnknownDelimitedVariable(t *testing.T) {
	path := writeModel(t, "x = ${missing}\n")
	tmpl, err := NewTemplate(modelConfig(nil), path, []string{"h"})
	require.NoError(t, err)

	_, err = tmpl.Render(context.Background(), &model.Case{Values: map[string]any{"h": 1.0}}, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown variable missing")
}

func TestTemplateRenderDirectoryModel(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.txt"), []byte("a=${a}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "inc.txt"), []byte("b=${a}"), 0o644))

	tmpl, err := NewTemplate(modelConfig(nil), root, []string{"a"})
	require.NoError(t, err)

	dir := t.TempDir()
	input, err := tmpl.Render(context.Background(), &model.Case{Values: map[string]any{"a": "x"}}, dir)
	require.NoError(t, err)
	assert.Equal(t, dir, input)

	data, err := os.ReadFile(filepath.Join(dir, "sub", "inc.txt"))
	require.NoError(t, err)
	assert.Equal(t, "b=x", string(data))
}

func TestTemplateParseDecodesOutputs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "res.json"), []byte(`{"time": [0, 1], "T": [90, 80]}`), 0o644))

	tmpl, err := NewTemplate(modelConfig(map[string]string{
		"res":   "cat res.json",
		"final": "echo 80.5",
		"note":  "echo converged",
		"bad":   "echo nan",
		"big":   "echo -inf",
	}), writeModel(t, ""), nil)
	require.NoError(t, err)

	out, err := tmpl.Parse(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"time": []any{0.0, 1.0}, "T": []any{90.0, 80.0}}, out["res"])
	assert.Equal(t, 80.5, out["final"])
	assert.Equal(t, "converged", out["note"])
	assert.Equal(t, "nan", out["bad"])
	assert.Equal(t, "-inf", out["big"])
}

func TestTemplateParseReportsFailures(t *testing.T) {
	tmpl, err := NewTemplate(modelConfig(map[string]string{"res": "cat nope.json"}), writeModel(t, ""), nil)
	require.NoError(t, err)
	_, err = tmpl.Parse(context.Background(), t.TempDir())
	require.Error(t, err)

	tmpl, err = NewTemplate(modelConfig(map[string]string{"res": "true"}), writeModel(t, ""), nil)
	require.NoError(t, err)
	_, err = tmpl.Parse(context.Background(), t.TempDir())
	require.ErrorContains(t, err, "no output")
}

func TestNewTemplateRequiresModel(t *testing.T) {
	_, err := NewTemplate(modelConfig(nil), filepath.Join(t.TempDir(), "absent.mo"), nil)
	require.Error(t, err)
}

func TestTemplateRenderKeepsLargeIntegersExact(t *testing.T) {
	path := writeModel(t, "seed = ${seed}\n")
	tmpl, err := NewTemplate(modelConfig(nil), path, []string{"seed"})
	require.NoError(t, err)

	dir := t.TempDir()
	input, err := tmpl.Render(context.Background(), &model.Case{Values: map[string]any{"seed": int64(12345678901234567)}}, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, "seed = 12345678901234567\n", string(data))
}

func TestTemplateRenderMultibyteDelimiters(t *testing.T) {
	cfg := modelConfig(nil)
	cfg.Delim = "«»"
	path := writeModel(t, "x=$«h» y=${h}\n")
	tmpl, err := NewTemplate(cfg, path, []string{"h"})
	require.NoError(t, err)

	dir := t.TempDir()
	input, err := tmpl.Render(context.Background(), &model.Case{Values: map[string]any{"h": 0.5}}, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, "x=0.5 y=${h}\n", string(data))
}

func TestNewTemplateRejectsBrokenModels(t *testing.T) {
	_, err := NewTemplate(modelConfig(nil), t.TempDir(), nil)
	require.ErrorContains(t, err, "is empty")

	_, err = NewTemplate(modelConfig(nil), writeModel(t, "x = ⟦oops\n"), nil)
	require.ErrorContains(t, err, "invalid model template")
}
