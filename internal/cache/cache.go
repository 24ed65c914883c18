// Package cache serves prior results directories as a calculator source.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sourceplane/liteparam/internal/ctxlog"
	"github.com/sourceplane/liteparam/internal/expand"
	"github.com/sourceplane/liteparam/internal/model"
	"github.com/sourceplane/liteparam/internal/results"
)

// Scheme prefixes a cache location
const Scheme = "cache://"

// IsLocation reports whether location names a cache source
func IsLocation(location string) bool {
	return strings.HasPrefix(location, Scheme)
}

// Source resolves cases from the case records of a results directory.
// The index is built once and is read-only afterwards.
type Source struct {
	location string
	dir      string

	once  sync.Once
	index map[model.CaseKey]model.CaseOutcome
	err   error
}

// New creates a cache source for a cache://<dir> location
func New(location string) *Source {
	return &Source{
		location: location,
		dir:      strings.TrimPrefix(location, Scheme),
	}
}

// Name returns the location string, used as row provenance on hits
func (s *Source) Name() string {
	return s.location
}

// Dir returns the results directory backing the cache
func (s *Source) Dir() string {
	return s.dir
}

// Warm builds the index now instead of on the first query
func (s *Source) Warm(ctx context.Context) error {
	s.once.Do(func() { s.load(ctx) })
	return s.err
}

// Len returns the number of cached done cases
func (s *Source) Len() int {
	return len(s.index)
}

// Resolve returns a hit for a done record with the same key, a miss otherwise
func (s *Source) Resolve(ctx context.Context, c *model.Case) (*model.CaseOutcome, error) {
	if err := s.Warm(ctx); err != nil {
		return nil, err
	}

	cached, ok := s.index[c.Key]
	if !ok {
		return nil, nil
	}

	outcome := cached
	outcome.CaseIndex = c.Index
	outcome.Key = c.Key
	outcome.Values = c.Values
	outcome.Calculator = s.location
	outcome.Error = ""
	return &outcome, nil
}

func (s *Source) load(ctx context.Context) {
	logger := ctxlog.FromContext(ctx).With("source", s.location)

	if s.dir == "" {
		s.err = fmt.Errorf("%w: %s: empty directory", model.ErrCacheUnavailable, s.location)
		return
	}

	records, skipped, err := results.ReadRecords(s.dir)
	if err != nil {
		s.err = fmt.Errorf("%w: %s: %v", model.ErrCacheUnavailable, s.location, err)
		return
	}
	for _, skip := range skipped {
		logger.Warn("skipping unreadable case record", "error", skip)
	}

	s.index = make(map[model.CaseKey]model.CaseOutcome, len(records))
	for _, record := range records {
		if record.Status != model.StatusDone {
			continue
		}
		// identity comes from the stored values, never from position or directory name
		key := expand.KeyOf(record.Values)
		if _, exists := s.index[key]; exists {
			continue
		}
		s.index[key] = record.CaseOutcome
	}
	logger.Debug("cache loaded", "records", len(records), "done", len(s.index))
}
