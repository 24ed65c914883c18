// Package sweep is the caller-facing entry point: expand a parameter grid,
// resolve every case against the configured sources and return the table.
package sweep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sourceplane/liteparam/internal/adapter"
	"github.com/sourceplane/liteparam/internal/aggregate"
	"github.com/sourceplane/liteparam/internal/cache"
	"github.com/sourceplane/liteparam/internal/calculator"
	"github.com/sourceplane/liteparam/internal/ctxlog"
	"github.com/sourceplane/liteparam/internal/dispatch"
	"github.com/sourceplane/liteparam/internal/expand"
	"github.com/sourceplane/liteparam/internal/ledger"
	"github.com/sourceplane/liteparam/internal/loader"
	"github.com/sourceplane/liteparam/internal/model"
	"github.com/sourceplane/liteparam/internal/results"
)

// DefaultResultsDir is used when a request names no results directory
const DefaultResultsDir = "results"

// Request describes one parametric run
type Request struct {
	ModelFile   string
	Spec        model.ParameterSpec
	ModelID     string             // model record in the config directory
	Model       *model.ModelConfig // inline model record, takes precedence over ModelID
	Calculators []string           // sources in priority order
	ResultsDir  string
	ConfigDir   string
	Workers     int
	Timeout     time.Duration // bounds the whole run
	CaseTimeout time.Duration // default per-case bound for live calculators
	LedgerPath  string
}

// Run resolves every case of the request. Only configuration problems return an
// error; case-level failures are reported as row statuses.
func Run(ctx context.Context, req Request) (*model.ResultTable, error) {
	logger := ctxlog.FromContext(ctx)
	started := time.Now().UTC()

	if _, err := os.Stat(req.ModelFile); err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", req.ModelFile, err)
	}

	cases, err := expand.Expand(req.Spec)
	if err != nil {
		return nil, err
	}

	cfgLoader, err := loader.NewLoader(req.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config loader: %w", err)
	}
	modelCfg, err := modelConfig(cfgLoader, req)
	if err != nil {
		return nil, err
	}
	modelAdapter, err := adapter.NewTemplate(modelCfg, req.ModelFile, req.Spec.Names())
	if err != nil {
		return nil, err
	}

	resultsDir := req.ResultsDir
	if resultsDir == "" {
		resultsDir = DefaultResultsDir
	}
	runID := uuid.NewString()
	writer, err := results.NewWriter(resultsDir, runID)
	if err != nil {
		return nil, err
	}

	projectDir, err := filepath.Abs(".")
	if err != nil {
		projectDir = "."
	}
	resolver := &calculator.Resolver{
		Loader:     cfgLoader,
		Adapter:    modelAdapter,
		Workspace:  writer,
		ProjectDir: projectDir,
		Timeout:    req.CaseTimeout,
	}
	sources := resolver.Sources(req.Calculators)

	// caches are indexed before any case writes into the results directory,
	// so a cache may point at the directory being written
	for _, src := range sources {
		if w, ok := src.(calculator.Warmer); ok {
			if err := w.Warm(ctx); err != nil {
				logger.Warn("source unavailable", "source", src.Name(), "error", err)
			}
		}
	}

	manifest := &model.RunManifest{
		APIVersion:  results.APIVersion,
		Kind:        "RunManifest",
		RunID:       runID,
		ModelFile:   req.ModelFile,
		ModelID:     modelCfg.ID,
		Variables:   req.Spec.Names(),
		Calculators: req.Calculators,
		Cases:       len(cases),
		StartedAt:   started.Format(time.RFC3339),
	}

	history := openLedger(ctx, req.LedgerPath)
	if history != nil {
		if err := history.StartRun(ctx, manifest); err != nil {
			logger.Warn("ledger unavailable", "error", err)
			history.Close()
			history = nil
		} else {
			defer history.Close()
		}
	}

	runCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	logger.Info("starting run", "run", runID, "cases", len(cases), "calculators", strings.Join(req.Calculators, ","))

	observer := func(c *model.Case, outcome model.CaseOutcome) {
		if err := writer.WriteOutcome(c, outcome); err != nil {
			logger.Warn("failed to persist case", "case", string(c.Key), "error", err)
		}
		if history != nil {
			// recorded even after cancellation so the history matches case.json
			if err := history.RecordOutcome(context.WithoutCancel(ctx), runID, outcome); err != nil {
				logger.Warn("failed to record case", "case", string(c.Key), "error", err)
			}
		}
	}

	d := dispatch.New(dispatch.WithWorkers(req.Workers), dispatch.WithObserver(observer))
	outcomes := d.ResolveAll(runCtx, cases, sources)
	table := aggregate.Assemble(runID, cases, outcomes)

	summary := aggregate.Summarize(table, cache.IsLocation)
	manifest.Status = table.CountByStatus()
	manifest.CacheHits = summary.CacheHits
	manifest.FinishedAt = time.Now().UTC().Format(time.RFC3339)

	if err := writer.WriteTable(table); err != nil {
		logger.Error("failed to write result table", "error", err)
	}
	if err := writer.WriteManifest(manifest); err != nil {
		logger.Error("failed to write run manifest", "error", err)
	}
	if history != nil {
		if err := history.FinishRun(context.WithoutCancel(ctx), manifest); err != nil {
			logger.Warn("failed to finish ledger run", "error", err)
		}
	}

	logger.Info("run finished", "run", runID, "done", summary.Done, "failed", summary.Failed,
		"pending", summary.Pending, "cache_hits", summary.CacheHits)
	return table, nil
}

// modelConfig picks the inline record, the named record, or a bare default
func modelConfig(l *loader.Loader, req Request) (*model.ModelConfig, error) {
	if req.Model != nil {
		return req.Model, nil
	}
	if req.ModelID != "" {
		return l.LoadModelConfig(req.ModelID)
	}
	base := filepath.Base(req.ModelFile)
	return &model.ModelConfig{
		ID:        strings.TrimSuffix(base, filepath.Ext(base)),
		VarPrefix: "$",
		Delim:     "{}",
	}, nil
}

func openLedger(ctx context.Context, path string) *ledger.Ledger {
	if path == "" {
		return nil
	}
	l, err := ledger.Open(path)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("ledger unavailable", "path", path, "error", err)
		return nil
	}
	return l
}
