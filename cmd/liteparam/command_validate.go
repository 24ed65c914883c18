package main

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sourceplane/liteparam/internal/cache"
	"github.com/sourceplane/liteparam/internal/calculator"
	"github.com/sourceplane/liteparam/internal/expand"
	"github.com/sourceplane/liteparam/internal/loader"
)

var (
	validateSweepFile string
	validateVars      []string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config directory and an optional sweep",
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateConfig()
	},
}

func registerValidateCommand(root *cobra.Command) {
	root.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateSweepFile, "sweep", "s", "", "Sweep file (yaml/json/hcl)")
	validateCmd.Flags().StringArrayVar(&validateVars, "var", nil, "Variable assignment name=v1,v2 (repeatable)")
}

func validateConfig() error {
	l, err := loader.NewLoader(configDir)
	if err != nil {
		return err
	}
	var problems []error

	fmt.Printf("□ Validating %s...\n", configDir)
	if _, err := l.LoadProjectConfig(); err != nil {
		problems = append(problems, err)
	}

	models, err := l.ListModels()
	if err != nil {
		return err
	}
	for _, id := range models {
		cfg, err := l.LoadModelConfig(id)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		fmt.Printf("✓ Model %s (%d outputs)\n", cfg.ID, len(cfg.Output))
	}

	calculators, err := l.ListCalculators()
	if err != nil {
		return err
	}
	for _, name := range calculators {
		cfg, err := l.LoadCalculatorConfig(name)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		if err := checkCommand(cfg.URI); err != nil {
			problems = append(problems, fmt.Errorf("calculator %s: %w", name, err))
			continue
		}
		fmt.Printf("✓ Calculator %s → %s\n", name, cfg.URI)
	}

	if validateSweepFile != "" || len(validateVars) > 0 {
		spec, err := loadSpec(validateSweepFile, validateVars)
		if err != nil {
			problems = append(problems, err)
		} else if cases, err := expand.Expand(*spec); err != nil {
			problems = append(problems, err)
		} else {
			fmt.Printf("✓ Sweep expands to %d cases\n", len(cases))
		}
	}

	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Printf("✗ %v\n", p)
		}
		return errors.Join(problems...)
	}

	fmt.Println("✓ All validation passed")
	return nil
}

// checkCommand verifies that the program a shell calculator starts can be found.
// Programs referenced through environment variables are resolved at run time.
func checkCommand(uri string) error {
	if cache.IsLocation(uri) {
		return nil
	}
	fields := strings.Fields(strings.TrimPrefix(uri, calculator.ShellScheme))
	if len(fields) == 0 {
		return fmt.Errorf("empty command")
	}
	program := fields[0]
	if strings.Contains(program, "$") {
		return nil
	}
	if _, err := exec.LookPath(program); err != nil {
		return fmt.Errorf("program %s not found: %w", program, err)
	}
	return nil
}
