// Package calculator holds the source contract every backend implements and
// the live shell calculator.
package calculator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sourceplane/liteparam/internal/adapter"
	"github.com/sourceplane/liteparam/internal/cache"
	"github.com/sourceplane/liteparam/internal/loader"
	"github.com/sourceplane/liteparam/internal/model"
)

// Source resolves a single case. A nil outcome with a nil error is a miss.
// Implementations must be safe for concurrent use.
type Source interface {
	Name() string
	Resolve(ctx context.Context, c *model.Case) (*model.CaseOutcome, error)
}

// Warmer is implemented by sources that can preload their state before dispatch
type Warmer interface {
	Warm(ctx context.Context) error
}

// Resolver turns calculator locations into sources
type Resolver struct {
	Loader     *loader.Loader
	Adapter    adapter.Adapter
	Workspace  Workspace
	ProjectDir string
	Timeout    time.Duration // per-case default when the calculator sets none
}

// Sources resolves locations in priority order. Locations that cannot be resolved
// become sources that fail every case instead of failing the run.
func (r *Resolver) Sources(locations []string) []Source {
	sources := make([]Source, 0, len(locations))
	for _, location := range locations {
		sources = append(sources, r.source(location))
	}
	return sources
}

func (r *Resolver) source(location string) Source {
	location = strings.TrimSpace(location)
	switch {
	case cache.IsLocation(location):
		return cache.New(location)
	case strings.HasPrefix(location, ShellScheme):
		return r.shell(location, location, r.Timeout, 0)
	case strings.Contains(location, "://"):
		return Unreachable(location, fmt.Errorf("unsupported calculator scheme"))
	}

	if r.Loader == nil {
		return Unreachable(location, fmt.Errorf("no configuration directory to resolve alias"))
	}
	cfg, err := r.Loader.LoadCalculatorConfig(location)
	if err != nil {
		return Unreachable(location, err)
	}

	timeout := r.Timeout
	if cfg.Timeout != "" {
		timeout, err = time.ParseDuration(cfg.Timeout)
		if err != nil {
			return Unreachable(location, fmt.Errorf("invalid timeout %q: %w", cfg.Timeout, err))
		}
	}

	if cache.IsLocation(cfg.URI) {
		return cache.New(cfg.URI)
	}
	if !strings.HasPrefix(cfg.URI, ShellScheme) {
		return Unreachable(location, fmt.Errorf("unsupported calculator uri %q", cfg.URI))
	}
	return r.shell(location, cfg.URI, timeout, cfg.Retries)
}

func (r *Resolver) shell(name, uri string, timeout time.Duration, retries int) Source {
	if r.Adapter == nil || r.Workspace == nil {
		return Unreachable(name, fmt.Errorf("no model adapter configured"))
	}
	return &Shell{
		name:       name,
		command:    strings.TrimPrefix(uri, ShellScheme),
		timeout:    timeout,
		retries:    retries,
		adapter:    r.Adapter,
		workspace:  r.Workspace,
		projectDir: r.ProjectDir,
	}
}

type unreachable struct {
	name string
	err  error
}

// Unreachable returns a source that fails every case with ErrCalculatorUnreachable
func Unreachable(name string, cause error) Source {
	return &unreachable{name: name, err: cause}
}

func (u *unreachable) Name() string {
	return u.name
}

func (u *unreachable) Resolve(ctx context.Context, c *model.Case) (*model.CaseOutcome, error) {
	return nil, fmt.Errorf("%w: %s: %v", model.ErrCalculatorUnreachable, u.name, u.err)
}
