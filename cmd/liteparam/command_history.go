package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sourceplane/liteparam/internal/ledger"
	"github.com/sourceplane/liteparam/internal/model"
	"github.com/sourceplane/liteparam/internal/render"
)

var (
	historyLedger string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded runs, or the cases of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showHistory(cmd, args)
	},
}

func registerHistoryCommand(root *cobra.Command) {
	root.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyLedger, "ledger", "", "SQLite run history file (default: ledger from config.yaml)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list (0 = all)")
}

func showHistory(cmd *cobra.Command, args []string) error {
	path := historyLedger
	if path == "" && project.Ledger != "" {
		path = project.Ledger
		if !filepath.IsAbs(path) {
			path = filepath.Join(configDir, path)
		}
	}
	if path == "" {
		return fmt.Errorf("no ledger configured: pass --ledger or set ledger in config.yaml")
	}

	l, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer l.Close()

	if len(args) > 0 {
		outcomes, err := l.Outcomes(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(outcomes) == 0 {
			return fmt.Errorf("run not found: %s", args[0])
		}
		table := &model.ResultTable{RunID: args[0], Variables: variableNames(outcomes), Rows: outcomes}
		fmt.Println(render.NewTableViewer(table).View())
		return nil
	}

	runs, err := l.ListRuns(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	fmt.Printf("%-36s  %-20s  %-10s  %5s  %5s  %6s  %5s  %s\n", "RUN", "STARTED", "STATUS", "CASES", "DONE", "FAILED", "CACHE", "MODEL")
	for _, r := range runs {
		fmt.Printf("%-36s  %-20s  %-10s  %5d  %5d  %6d  %5d  %s\n",
			r.ID, r.StartedAt, r.Status, r.Cases, r.Done, r.Failed, r.CacheHits, r.ModelID)
	}
	return nil
}

// variableNames recovers a column order from stored values; the ledger keeps no declaration order
func variableNames(outcomes []model.CaseOutcome) []string {
	seen := make(map[string]bool)
	var names []string
	for _, o := range outcomes {
		for name := range o.Values {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
