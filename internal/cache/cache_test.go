package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sourceplane/liteparam/internal/expand"
	"github.com/sourceplane/liteparam/internal/model"
	"github.com/sourceplane/liteparam/internal/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, dir string, status model.Status, values map[string]any, output map[string]any) {
	t.Helper()
	w, err := results.NewWriter(dir, "prior")
	require.NoError(t, err)
	c := &model.Case{Values: values, Order: []string{"h"}, Key: expand.KeyOf(values)}
	require.NoError(t, w.WriteOutcome(c, model.CaseOutcome{
		Key:        c.Key,
		Status:     status,
		Calculator: "localhost",
		Values:     values,
		Output:     output,
	}))
}

func caseFor(index int, values map[string]any) *model.Case {
	return &model.Case{Index: index, Values: values, Key: expand.KeyOf(values)}
}

func TestResolveHitCarriesProvenance(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, model.StatusDone, map[string]any{"h": 0.1}, map[string]any{"T": 42.0})

	src := New("cache://" + dir)
	outcome, err := src.Resolve(context.Background(), caseFor(3, map[string]any{"h": 0.1}))
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.Equal(t, model.StatusDone, outcome.Status)
	assert.Equal(t, "cache://"+dir, outcome.Calculator)
	assert.Equal(t, 3, outcome.CaseIndex)
	assert.Equal(t, 42.0, outcome.Output["T"])
}

func TestResolveMatchesEquivalentNumbers(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, model.StatusDone, map[string]any{"h": 1.0}, map[string]any{"T": 1.0})

	outcome, err := New("cache://"+dir).Resolve(context.Background(), caseFor(0, map[string]any{"h": 1}))
	require.NoError(t, err)
	assert.NotNil(t, outcome)
}

func TestResolveKeepsLargeIntegersApart(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, model.StatusDone, map[string]any{"h": int64(12345678901234567)}, map[string]any{"T": 1.0})
	seed(t, dir, model.StatusDone, map[string]any{"h": int64(12345678901234568)}, map[string]any{"T": 2.0})

	src := New("cache://" + dir)
	ctx := context.Background()
	outcome, err := src.Resolve(ctx, caseFor(0, map[string]any{"h": int64(12345678901234567)}))
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, 1.0, outcome.Output["T"])

	outcome, err = src.Resolve(ctx, caseFor(1, map[string]any{"h": int64(12345678901234568)}))
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, 2.0, outcome.Output["T"])
	assert.Equal(t, 2, src.Len())
}

func TestResolveMisses(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, model.StatusFailed, map[string]any{"h": 0.3}, nil)
	seed(t, dir, model.StatusDone, map[string]any{"h": 0.5}, nil)

	src := New("cache://" + dir)
	ctx := context.Background()

	outcome, err := src.Resolve(ctx, caseFor(0, map[string]any{"h": 0.3}))
	require.NoError(t, err)
	assert.Nil(t, outcome, "failed records are misses")

	outcome, err = src.Resolve(ctx, caseFor(0, map[string]any{"h": 0.7}))
	require.NoError(t, err)
	assert.Nil(t, outcome)

	assert.Equal(t, 1, src.Len())
}

func TestIdentityIgnoresDirectoryName(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, model.StatusDone, map[string]any{"h": 0.5}, map[string]any{"T": 5.0})
	require.NoError(t, os.Rename(filepath.Join(dir, "h=0.5"), filepath.Join(dir, "renamed")))

	outcome, err := New("cache://"+dir).Resolve(context.Background(), caseFor(0, map[string]any{"h": 0.5}))
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, 5.0, outcome.Output["T"])
}

func TestCorruptRecordIsSkipped(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, model.StatusDone, map[string]any{"h": 0.1}, nil)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bad"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad", results.CaseFile), []byte("not json"), 0o644))

	src := New("cache://" + dir)
	require.NoError(t, src.Warm(context.Background()))
	assert.Equal(t, 1, src.Len())
}

func TestUnreadableDirectory(t *testing.T) {
	src := New("cache://" + filepath.Join(t.TempDir(), "missing"))
	_, err := src.Resolve(context.Background(), caseFor(0, map[string]any{"h": 0.1}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrCacheUnavailable))
}

func TestCacheIsReadOnly(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, model.StatusDone, map[string]any{"h": 0.1}, nil)
	before, err := os.ReadDir(dir)
	require.NoError(t, err)

	src := New("cache://" + dir)
	_, err = src.Resolve(context.Background(), caseFor(0, map[string]any{"h": 0.1}))
	require.NoError(t, err)

	after, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after))
}
