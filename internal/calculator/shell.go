package calculator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sourceplane/liteparam/internal/adapter"
	"github.com/sourceplane/liteparam/internal/ctxlog"
	"github.com/sourceplane/liteparam/internal/model"
)

const (
	// ShellScheme prefixes a live shell calculator location
	ShellScheme = "sh://"

	StdoutFile = "out.txt"
	StderrFile = "err.txt"

	// exit status of sh when the command cannot be found
	exitCommandNotFound = 127
)

// Workspace hands out a clean directory per case
type Workspace interface {
	PrepareCase(c *model.Case) (string, error)
}

// Shell runs `sh -c "<command> <input>"` inside each case directory
type Shell struct {
	name       string
	command    string
	timeout    time.Duration
	retries    int
	adapter    adapter.Adapter
	workspace  Workspace
	projectDir string
}

// NewShell creates a shell calculator for an sh://<command> location
func NewShell(name, location string, a adapter.Adapter, ws Workspace) *Shell {
	return &Shell{
		name:      name,
		command:   strings.TrimPrefix(location, ShellScheme),
		adapter:   a,
		workspace: ws,
	}
}

// WithTimeout bounds each execution
func (s *Shell) WithTimeout(d time.Duration) *Shell {
	s.timeout = d
	return s
}

// WithRetries re-runs failed executions up to n more times
func (s *Shell) WithRetries(n int) *Shell {
	s.retries = n
	return s
}

func (s *Shell) Name() string {
	return s.name
}

// Resolve renders, executes and parses one case. It never misses: the result is
// either a done outcome or an error.
func (s *Shell) Resolve(ctx context.Context, c *model.Case) (*model.CaseOutcome, error) {
	logger := ctxlog.FromContext(ctx).With("case", string(c.Key), "source", s.name)

	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			logger.Info("retrying case", "attempt", attempt+1, "error", lastErr)
		}
		outcome, err := s.execute(ctx, c)
		if err == nil {
			return outcome, nil
		}
		lastErr = err
		if ctx.Err() != nil || errors.Is(err, model.ErrCalculatorUnreachable) {
			break
		}
	}
	return nil, lastErr
}

func (s *Shell) execute(ctx context.Context, c *model.Case) (*model.CaseOutcome, error) {
	started := time.Now().UTC()

	dir, err := s.workspace.PrepareCase(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrCalculatorExecutionFailed, err)
	}
	input, err := s.adapter.Render(ctx, c, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: render: %v", model.ErrCalculatorExecutionFailed, err)
	}
	if rel, err := filepath.Rel(dir, input); err == nil {
		input = rel
	}

	if err := s.run(ctx, dir, input); err != nil {
		return nil, err
	}

	output, err := s.adapter.Parse(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: parse: %v", model.ErrCalculatorExecutionFailed, err)
	}

	finished := time.Now().UTC()
	return &model.CaseOutcome{
		CaseIndex:  c.Index,
		Key:        c.Key,
		Status:     model.StatusDone,
		Calculator: s.name,
		Values:     c.Values,
		Output:     output,
		StartedAt:  &started,
		FinishedAt: &finished,
	}, nil
}

func (s *Shell) run(ctx context.Context, dir, input string) error {
	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	stdout, err := os.Create(filepath.Join(dir, StdoutFile))
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrCalculatorExecutionFailed, err)
	}
	defer stdout.Close()
	stderr, err := os.Create(filepath.Join(dir, StderrFile))
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrCalculatorExecutionFailed, err)
	}
	defer stderr.Close()

	absDir, err := filepath.Abs(dir)
	if err != nil {
		absDir = dir
	}

	cmd := exec.CommandContext(runCtx, "sh", "-c", s.command+" "+shellQuote(input))
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = append(os.Environ(),
		"LITEPARAM_PROJECT_DIR="+s.projectDir,
		"LITEPARAM_CASE_DIR="+absDir,
	)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrCalculatorUnreachable, s.name, err)
	}
	err = cmd.Wait()
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if runCtx.Err() != nil {
		return fmt.Errorf("%w: timed out after %s", model.ErrCalculatorExecutionFailed, s.timeout)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == exitCommandNotFound {
		return fmt.Errorf("%w: %s: command not found", model.ErrCalculatorUnreachable, s.name)
	}
	return fmt.Errorf("%w: %s: %v", model.ErrCalculatorExecutionFailed, s.name, err)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
