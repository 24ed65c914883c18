// Package aggregate merges per-case outcomes into the ordered result table.
package aggregate

import (
	"github.com/sourceplane/liteparam/internal/model"
)

const (
	APIVersion = "liteparam.io/v1"
	Kind       = "ResultTable"

	notResolved = "not resolved"
)

// Assemble builds a table with exactly one row per case, at the case's
// expansion slot, whatever order the outcomes arrive in. Cases without an
// outcome get a pending row; extra outcomes for a slot are dropped.
func Assemble(runID string, cases []model.Case, outcomes []model.CaseOutcome) *model.ResultTable {
	rows := make([]model.CaseOutcome, len(cases))
	filled := make([]bool, len(cases))

	for _, outcome := range outcomes {
		slot := outcome.CaseIndex
		if slot < 0 || slot >= len(cases) || filled[slot] {
			continue
		}
		if outcome.Key != cases[slot].Key {
			continue
		}
		rows[slot] = outcome
		filled[slot] = true
	}

	for i := range cases {
		if filled[i] {
			continue
		}
		row := model.PendingOutcome(&cases[i])
		row.Error = notResolved
		rows[i] = row
	}

	var variables []string
	if len(cases) > 0 {
		variables = append(variables, cases[0].Order...)
	}

	return &model.ResultTable{
		APIVersion: APIVersion,
		Kind:       Kind,
		RunID:      runID,
		Variables:  variables,
		Rows:       rows,
	}
}

// Summary counts rows by status and by provenance
type Summary struct {
	Total     int
	Done      int
	Failed    int
	Pending   int
	CacheHits int
	Live      int
}

// Summarize tallies a table. isCache reports whether a provenance string names a cache.
func Summarize(table *model.ResultTable, isCache func(string) bool) Summary {
	s := Summary{Total: len(table.Rows)}
	for _, row := range table.Rows {
		switch row.Status {
		case model.StatusDone:
			s.Done++
			if isCache(row.Calculator) {
				s.CacheHits++
			} else {
				s.Live++
			}
		case model.StatusFailed:
			s.Failed++
		default:
			s.Pending++
		}
	}
	return s
}
