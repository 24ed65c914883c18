package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sourceplane/liteparam/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleTable() *model.ResultTable {
	return &model.ResultTable{
		RunID:     "run-1",
		Variables: []string{"h"},
		Rows: []model.CaseOutcome{
			{CaseIndex: 0, Key: "h=0.1", Status: model.StatusDone, Calculator: "cache://results",
				Values: map[string]any{"h": 0.1}, Output: map[string]any{"T": []any{300.0, 295.5, 291.2}}},
			{CaseIndex: 1, Key: "h=0.3", Status: model.StatusDone, Calculator: "localhost",
				Values: map[string]any{"h": 0.3}, Output: map[string]any{"T": []any{300.0, 280.1}}},
			{CaseIndex: 2, Key: "h=0.5", Status: model.StatusFailed,
				Values: map[string]any{"h": 0.5}, Error: "all sources exhausted: localhost: exit status 1"},
		},
	}
}

func isCache(name string) bool { return strings.HasPrefix(name, "cache://") }

func TestWriteTableByExtension(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer()

	jsonPath := filepath.Join(dir, "out", "results.json")
	require.NoError(t, r.WriteTable(sampleTable(), jsonPath))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status": "failed"`)

	yamlPath := filepath.Join(dir, "results.yaml")
	require.NoError(t, r.WriteTable(sampleTable(), yamlPath))
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)

	var decoded model.ResultTable
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	require.Len(t, decoded.Rows, 3)
	assert.Equal(t, model.StatusFailed, decoded.Rows[2].Status)
}

func TestViewerColumns(t *testing.T) {
	v := NewTableViewer(sampleTable())
	assert.Equal(t, []string{"h", "status", "calculator", "error", "T"}, v.Headers())

	rows := v.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"0.1", "done", "cache://results", "", "[300 … 291.2] (3)"}, rows[0])
	assert.Equal(t, "", rows[2][4])
	assert.True(t, strings.HasSuffix(rows[2][3], "…"))
}

func TestViewerView(t *testing.T) {
	out := NewTableViewer(sampleTable()).View()
	for _, want := range []string{"status", "calculator", "localhost", "failed"} {
		assert.Contains(t, out, want)
	}

	assert.Equal(t, "No cases in result table", NewTableViewer(&model.ResultTable{}).View())
}

func TestViewerSummary(t *testing.T) {
	summary := NewTableViewer(sampleTable()).Summary(isCache)
	assert.Contains(t, summary, "Cases: 3 (done 2, failed 1, pending 0)")
	assert.Contains(t, summary, "From cache: 1")
	assert.Contains(t, summary, "New calculations: 1")
}
