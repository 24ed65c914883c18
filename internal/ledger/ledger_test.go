package ledger

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sourceplane/liteparam/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "state", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRunLifecycle(t *testing.T) {
	l := openLedger(t)
	ctx := context.Background()

	manifest := &model.RunManifest{RunID: "run-1", ModelFile: "Newton.mo", ModelID: "Newton", Cases: 2, StartedAt: "2024-05-01T10:00:00Z"}
	require.NoError(t, l.StartRun(ctx, manifest))

	runs, err := l.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "running", runs[0].Status)
	assert.Equal(t, "", runs[0].FinishedAt)

	var wg sync.WaitGroup
	for i, status := range []model.Status{model.StatusDone, model.StatusFailed} {
		wg.Add(1)
		go func(i int, status model.Status) {
			defer wg.Done()
			assert.NoError(t, l.RecordOutcome(ctx, "run-1", model.CaseOutcome{
				CaseIndex: i,
				Key:       model.CaseKey("h=" + string(rune('1'+i))),
				Status:    status,
				Values:    map[string]any{"h": float64(i + 1)},
				Output:    map[string]any{"T": []any{1.0, 2.0}},
			}))
		}(i, status)
	}
	wg.Wait()

	manifest.Status = map[model.Status]int{model.StatusDone: 1, model.StatusFailed: 1}
	manifest.CacheHits = 1
	manifest.FinishedAt = "2024-05-01T10:01:00Z"
	require.NoError(t, l.FinishRun(ctx, manifest))

	runs, err = l.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, Run{
		ID: "run-1", ModelFile: "Newton.mo", ModelID: "Newton", Status: "finished",
		Cases: 2, Done: 1, Failed: 1, CacheHits: 1,
		StartedAt: "2024-05-01T10:00:00Z", FinishedAt: "2024-05-01T10:01:00Z",
	}, runs[0])

	outcomes, err := l.Outcomes(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, model.StatusDone, outcomes[0].Status)
	assert.Equal(t, int64(1), outcomes[0].Values["h"])
	assert.Equal(t, []any{1.0, 2.0}, outcomes[0].Output["T"])
	assert.Equal(t, model.StatusFailed, outcomes[1].Status)
}

func TestListRunsNewestFirst(t *testing.T) {
	l := openLedger(t)
	ctx := context.Background()
	require.NoError(t, l.StartRun(ctx, &model.RunManifest{RunID: "old", StartedAt: "2024-01-01T00:00:00Z"}))
	require.NoError(t, l.StartRun(ctx, &model.RunManifest{RunID: "new", StartedAt: "2024-02-01T00:00:00Z"}))

	runs, err := l.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "new", runs[0].ID)
}

func TestListRunsBreaksStartTimeTies(t *testing.T) {
	l := openLedger(t)
	ctx := context.Background()
	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, l.StartRun(ctx, &model.RunManifest{RunID: id, StartedAt: "2024-03-01T12:00:00Z"}))
	}

	runs, err := l.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "third", runs[0].ID)
	assert.Equal(t, "first", runs[2].ID)

	latest, err := l.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "third", latest[0].ID)
}

func TestOutcomesKeepIntegerValuesExact(t *testing.T) {
	l := openLedger(t)
	ctx := context.Background()
	require.NoError(t, l.StartRun(ctx, &model.RunManifest{RunID: "seeded"}))
	require.NoError(t, l.RecordOutcome(ctx, "seeded", model.CaseOutcome{
		Key:    "seed=12345678901234567",
		Status: model.StatusDone,
		Values: map[string]any{"seed": int64(12345678901234567)},
	}))

	outcomes, err := l.Outcomes(ctx, "seeded")
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, int64(12345678901234567), outcomes[0].Values["seed"])
}
