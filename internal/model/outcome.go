package model

import (
	"sort"
	"time"
)

// Status is the lifecycle state of a case outcome
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// CaseOutcome is the resolution result of a single case
type CaseOutcome struct {
	CaseIndex  int            `yaml:"index" json:"index"`
	Key        CaseKey        `yaml:"key" json:"key"`
	Status     Status         `yaml:"status" json:"status"`
	Calculator string         `yaml:"calculator,omitempty" json:"calculator,omitempty"` // provenance
	Values     map[string]any `yaml:"values" json:"values"`
	Output     map[string]any `yaml:"output,omitempty" json:"output,omitempty"`
	Error      string         `yaml:"error,omitempty" json:"error,omitempty"`
	StartedAt  *time.Time     `yaml:"startedAt,omitempty" json:"startedAt,omitempty"`
	FinishedAt *time.Time     `yaml:"finishedAt,omitempty" json:"finishedAt,omitempty"`
}

// RestoreNumbers converts the json.Number leaves left by a UseNumber decode.
// Parameter values keep integers exact; outputs are plain float64.
func (o *CaseOutcome) RestoreNumbers() {
	for name, v := range o.Values {
		o.Values[name] = RestoreNumbers(v, true)
	}
	for name, v := range o.Output {
		o.Output[name] = RestoreNumbers(v, false)
	}
}

// PendingOutcome returns the empty outcome a case starts with at dispatch time
func PendingOutcome(c *Case) CaseOutcome {
	return CaseOutcome{
		CaseIndex: c.Index,
		Key:       c.Key,
		Status:    StatusPending,
		Values:    c.Values,
	}
}

// Done reports whether the outcome carries a completed result
func (o CaseOutcome) Done() bool {
	return o.Status == StatusDone
}

// ResultTable is the ordered, status-annotated result of a run, one row per case
type ResultTable struct {
	APIVersion string        `yaml:"apiVersion" json:"apiVersion"`
	Kind       string        `yaml:"kind" json:"kind"`
	RunID      string        `yaml:"runId" json:"runId"`
	Variables  []string      `yaml:"variables" json:"variables"`
	Rows       []CaseOutcome `yaml:"rows" json:"rows"`
}

// CountByStatus tallies rows per status
func (t *ResultTable) CountByStatus() map[Status]int {
	counts := make(map[Status]int)
	for _, row := range t.Rows {
		counts[row.Status]++
	}
	return counts
}

// OutputNames returns the union of output variable names across rows, in first-seen order
func (t *ResultTable) OutputNames() []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, row := range t.Rows {
		for _, name := range sortedKeys(row.Output) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
