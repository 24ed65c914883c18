package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sourceplane/liteparam/internal/aggregate"
	"github.com/sourceplane/liteparam/internal/model"
)

const maxCellWidth = 32

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))

	statusColors = map[string]lipgloss.Color{
		string(model.StatusDone):    lipgloss.Color("#3FB950"),
		string(model.StatusFailed):  lipgloss.Color("#F85149"),
		string(model.StatusPending): lipgloss.Color("#AAAAAA"),
		string(model.StatusRunning): lipgloss.Color("#D29922"),
	}
)

// TableViewer renders a result table for the terminal
type TableViewer struct {
	table *model.ResultTable
}

// NewTableViewer creates a new table viewer
func NewTableViewer(t *model.ResultTable) *TableViewer {
	return &TableViewer{table: t}
}

// Headers returns the column names: variables, status, calculator, error, then outputs
func (v *TableViewer) Headers() []string {
	headers := append([]string{}, v.table.Variables...)
	headers = append(headers, "status", "calculator", "error")
	return append(headers, v.table.OutputNames()...)
}

// Rows returns the display cells of every row
func (v *TableViewer) Rows() [][]string {
	outputs := v.table.OutputNames()
	rows := make([][]string, 0, len(v.table.Rows))
	for _, row := range v.table.Rows {
		cells := make([]string, 0, len(v.table.Variables)+3+len(outputs))
		for _, name := range v.table.Variables {
			cells = append(cells, model.DisplayValue(row.Values[name]))
		}
		cells = append(cells, string(row.Status), row.Calculator, truncate(row.Error))
		for _, name := range outputs {
			value, ok := row.Output[name]
			if !ok {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, summarize(value))
		}
		rows = append(rows, cells)
	}
	return rows
}

// View returns the bordered table
func (v *TableViewer) View() string {
	if len(v.table.Rows) == 0 {
		return "No cases in result table"
	}

	statusCol := len(v.table.Variables)
	rows := v.Rows()

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(v.Headers()...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == statusCol && row >= 0 && row < len(rows) {
				if color, ok := statusColors[rows[row][col]]; ok {
					return cellStyle.Foreground(color)
				}
			}
			return cellStyle
		})
	return t.String()
}

// Summary reports how rows were resolved
func (v *TableViewer) Summary(isCache func(string) bool) string {
	s := aggregate.Summarize(v.table, isCache)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Cases: %d (done %d, failed %d, pending %d)\n", s.Total, s.Done, s.Failed, s.Pending))
	sb.WriteString(fmt.Sprintf("From cache: %d\n", s.CacheHits))
	sb.WriteString(fmt.Sprintf("New calculations: %d\n", s.Live))
	return sb.String()
}

// summarize renders an output payload in one cell
func summarize(value any) string {
	switch val := value.(type) {
	case []any:
		if len(val) == 0 {
			return "[]"
		}
		return fmt.Sprintf("[%s … %s] (%d)", summarize(val[0]), summarize(val[len(val)-1]), len(val))
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return truncate("{" + strings.Join(keys, ",") + "}")
	default:
		return truncate(model.DisplayValue(val))
	}
}

func truncate(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= maxCellWidth {
		return s
	}
	return string(runes[:maxCellWidth-1]) + "…"
}
