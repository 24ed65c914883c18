package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sourceplane/liteparam/internal/cache"
	"github.com/sourceplane/liteparam/internal/dispatch"
	"github.com/sourceplane/liteparam/internal/render"
	"github.com/sourceplane/liteparam/internal/sweep"
)

const defaultCalculator = "localhost"

var (
	runModelFile   string
	runModelID     string
	runSweepFile   string
	runVars        []string
	runCalculators []string
	runResultsDir  string
	runWorkers     int
	runTimeout     time.Duration
	runCaseTimeout time.Duration
	runLedger      string
	runOutputFile  string
	runView        bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a parametric study",
	Long:  "Expand the sweep into cases, resolve each case against the calculators in priority order and write the result table.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStudy(cmd)
	},
}

func registerRunCommand(root *cobra.Command) {
	root.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runModelFile, "model", "m", "", "Model file or directory")
	runCmd.Flags().StringVar(&runModelID, "model-id", "", "Model record in <config-dir>/models (default: plain substitution, no outputs)")
	runCmd.Flags().StringVarP(&runSweepFile, "sweep", "s", "", "Sweep file (yaml/json/hcl)")
	runCmd.Flags().StringArrayVar(&runVars, "var", nil, "Variable assignment name=v1,v2 (repeatable)")
	runCmd.Flags().StringArrayVarP(&runCalculators, "calculator", "k", nil, "Calculator in priority order: cache://dir, sh://cmd or an alias (repeatable)")
	runCmd.Flags().StringVarP(&runResultsDir, "results", "r", "", "Results directory")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", dispatch.DefaultWorkers, "Cases resolved in parallel")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Bound for the whole run (0 = none)")
	runCmd.Flags().DurationVar(&runCaseTimeout, "case-timeout", 0, "Default bound per live case (0 = none)")
	runCmd.Flags().StringVar(&runLedger, "ledger", "", "SQLite run history file")
	runCmd.Flags().StringVarP(&runOutputFile, "output", "o", "", "Also write the result table here (json/yaml)")
	runCmd.Flags().BoolVar(&runView, "view", true, "Print the result table")
	runCmd.MarkFlagRequired("model")
}

func runStudy(cmd *cobra.Command) error {
	fmt.Println("□ Loading sweep...")
	spec, err := loadSpec(runSweepFile, runVars)
	if err != nil {
		return fmt.Errorf("failed to load sweep: %w", err)
	}

	req := sweep.Request{
		ModelFile:   runModelFile,
		Spec:        *spec,
		ModelID:     runModelID,
		Calculators: runCalculators,
		ResultsDir:  runResultsDir,
		ConfigDir:   configDir,
		Workers:     runWorkers,
		Timeout:     runTimeout,
		CaseTimeout: runCaseTimeout,
		LedgerPath:  runLedger,
	}
	if err := applyProjectDefaults(cmd, &req); err != nil {
		return err
	}

	fmt.Printf("□ Resolving cases with %v...\n", req.Calculators)
	table, err := sweep.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	resultsDir := req.ResultsDir
	if resultsDir == "" {
		resultsDir = sweep.DefaultResultsDir
	}
	fmt.Printf("✓ Resolved %d cases\n", len(table.Rows))
	fmt.Printf("✓ Saved to: %s\n", resultsDir)

	if runOutputFile != "" {
		if err := render.NewRenderer().WriteTable(table, runOutputFile); err != nil {
			return err
		}
		fmt.Printf("✓ Table written to: %s\n", runOutputFile)
	}

	viewer := render.NewTableViewer(table)
	if runView {
		fmt.Println("\n" + viewer.View())
	}
	fmt.Print("\n" + viewer.Summary(cache.IsLocation))
	return nil
}

// applyProjectDefaults fills unset flags from config.yaml
func applyProjectDefaults(cmd *cobra.Command, req *sweep.Request) error {
	flags := cmd.Flags()

	if len(req.Calculators) == 0 {
		req.Calculators = project.Calculators
	}
	if len(req.Calculators) == 0 {
		req.Calculators = []string{defaultCalculator}
	}
	if req.ResultsDir == "" {
		req.ResultsDir = project.ResultsDir
	}
	if !flags.Changed("workers") && project.Workers > 0 {
		req.Workers = project.Workers
	}
	if !flags.Changed("case-timeout") && project.Timeout != "" {
		d, err := time.ParseDuration(project.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q in project config: %w", project.Timeout, err)
		}
		req.CaseTimeout = d
	}
	if req.LedgerPath == "" && project.Ledger != "" {
		req.LedgerPath = project.Ledger
		if !filepath.IsAbs(req.LedgerPath) {
			req.LedgerPath = filepath.Join(configDir, req.LedgerPath)
		}
	}
	return nil
}
