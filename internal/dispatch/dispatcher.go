// Package dispatch resolves every case against an ordered list of sources.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sourceplane/liteparam/internal/calculator"
	"github.com/sourceplane/liteparam/internal/ctxlog"
	"github.com/sourceplane/liteparam/internal/model"
)

// DefaultWorkers bounds how many cases resolve at once
const DefaultWorkers = 4

// Observer receives each outcome as soon as its case is finalized.
// It is called from worker goroutines and must be safe for concurrent use.
type Observer func(c *model.Case, outcome model.CaseOutcome)

// Dispatcher resolves cases in parallel; each case walks the sources in order.
type Dispatcher struct {
	workers  int
	observer Observer
	clock    func() time.Time
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithWorkers sets the number of cases resolved concurrently.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithObserver registers a callback for finalized outcomes.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		if o != nil {
			d.observer = o
		}
	}
}

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) Option {
	return func(d *Dispatcher) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// New creates a dispatcher
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		workers:  DefaultWorkers,
		observer: func(*model.Case, model.CaseOutcome) {},
		clock:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ResolveAll returns one outcome per case, at the same position as the case.
// A failing case never affects the others. On cancellation, cases that never
// started stay pending and in-flight cases fail with the context error.
func (d *Dispatcher) ResolveAll(ctx context.Context, cases []model.Case, sources []calculator.Source) []model.CaseOutcome {
	outcomes := make([]model.CaseOutcome, len(cases))
	for i := range cases {
		outcomes[i] = model.PendingOutcome(&cases[i])
	}

	g := new(errgroup.Group)
	g.SetLimit(d.workers)

	for i := range cases {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			c := &cases[i]
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i].Status = model.StatusRunning

			outcome := d.resolve(ctx, c, sources)
			outcomes[i] = outcome
			d.observer(c, outcome)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// resolve walks the source chain for one case; the first non-miss wins
func (d *Dispatcher) resolve(ctx context.Context, c *model.Case, sources []calculator.Source) model.CaseOutcome {
	logger := ctxlog.FromContext(ctx).With("case", string(c.Key))
	started := d.clock()

	if len(sources) == 0 {
		return d.failed(c, started, fmt.Errorf("%w: no calculators configured", model.ErrAllSourcesExhausted))
	}

	attempts := make([]string, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return d.failed(c, started, err)
		}

		outcome, err := src.Resolve(ctx, c)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return d.failed(c, started, ctx.Err())
			}
			logger.Debug("source failed", "source", src.Name(), "error", err)
			attempts = append(attempts, fmt.Sprintf("%s: %v", src.Name(), err))
		case outcome == nil:
			logger.Debug("source missed", "source", src.Name())
			attempts = append(attempts, fmt.Sprintf("%s: miss", src.Name()))
		case outcome.Status != model.StatusDone:
			attempts = append(attempts, fmt.Sprintf("%s: returned %s", src.Name(), outcome.Status))
		default:
			logger.Info("case resolved", "source", outcome.Calculator, "status", outcome.Status)
			return d.finalize(c, started, *outcome)
		}
	}

	err := fmt.Errorf("%w: %s", model.ErrAllSourcesExhausted, strings.Join(attempts, "; "))
	logger.Warn("case failed", "error", err)
	return d.failed(c, started, err)
}

func (d *Dispatcher) finalize(c *model.Case, started time.Time, outcome model.CaseOutcome) model.CaseOutcome {
	outcome.CaseIndex = c.Index
	outcome.Key = c.Key
	outcome.Values = c.Values
	if outcome.StartedAt == nil {
		outcome.StartedAt = &started
	}
	if outcome.FinishedAt == nil {
		finished := d.clock()
		outcome.FinishedAt = &finished
	}
	return outcome
}

func (d *Dispatcher) failed(c *model.Case, started time.Time, err error) model.CaseOutcome {
	finished := d.clock()
	return model.CaseOutcome{
		CaseIndex:  c.Index,
		Key:        c.Key,
		Status:     model.StatusFailed,
		Values:     c.Values,
		Error:      err.Error(),
		StartedAt:  &started,
		FinishedAt: &finished,
	}
}
