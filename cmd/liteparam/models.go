package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sourceplane/liteparam/internal/loader"
	"github.com/sourceplane/liteparam/internal/model"
)

var longFormat bool

var modelsCmd = &cobra.Command{
	Use:     "models [model-id]",
	Aliases: []string{"model"},
	Short:   "List model adapters and calculators",
	Long:    "List the model records and calculator aliases of the config directory. Use 'liteparam models <id>' for details.",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listModels(args)
	},
}

func registerModelsCommand(root *cobra.Command) {
	root.AddCommand(modelsCmd)

	modelsCmd.Flags().BoolVarP(&longFormat, "long", "l", false, "Show full details")
}

// ModelInfo holds what the listing shows about one model record
type ModelInfo struct {
	ID          string
	VarPrefix   string
	Delim       string
	Outputs     map[string]string
	Calculators []*model.CalculatorConfig
}

func listModels(args []string) error {
	l, err := loader.NewLoader(configDir)
	if err != nil {
		return err
	}
	calculators, err := loadCalculators(l)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		cfg, err := l.LoadModelConfig(args[0])
		if err != nil {
			return err
		}
		PrintLongFormat(modelInfo(cfg, calculators))
		return nil
	}

	ids, err := l.ListModels()
	if err != nil {
		return err
	}
	fmt.Println("Available Models:")
	for _, id := range ids {
		cfg, err := l.LoadModelConfig(id)
		if err != nil {
			fmt.Printf("  %-20s  (invalid: %v)\n", id, err)
			continue
		}
		info := modelInfo(cfg, calculators)
		if longFormat {
			PrintLongFormat(info)
		} else {
			PrintShortFormat(info)
		}
	}

	fmt.Println("\nAvailable Calculators:")
	for _, calc := range calculators {
		fmt.Printf("  %-20s  %s\n", calc.Name, calc.URI)
	}

	if !longFormat {
		fmt.Println("\nRun 'liteparam models <id>' for detailed information")
	}
	return nil
}

func loadCalculators(l *loader.Loader) ([]*model.CalculatorConfig, error) {
	names, err := l.ListCalculators()
	if err != nil {
		return nil, err
	}
	calculators := make([]*model.CalculatorConfig, 0, len(names))
	for _, name := range names {
		cfg, err := l.LoadCalculatorConfig(name)
		if err != nil {
			cfg = &model.CalculatorConfig{Name: name, URI: fmt.Sprintf("(invalid: %v)", err)}
		}
		calculators = append(calculators, cfg)
	}
	return calculators, nil
}

func modelInfo(cfg *model.ModelConfig, calculators []*model.CalculatorConfig) *ModelInfo {
	return &ModelInfo{
		ID:          cfg.ID,
		VarPrefix:   cfg.VarPrefix,
		Delim:       cfg.Delim,
		Outputs:     cfg.Output,
		Calculators: calculators,
	}
}

// PrintShortFormat prints model info in short format
func PrintShortFormat(info *ModelInfo) {
	fmt.Printf("  %-20s  %s%s  %d outputs\n", info.ID, info.VarPrefix, info.Delim, len(info.Outputs))
}

// PrintLongFormat prints model info in long format
func PrintLongFormat(info *ModelInfo) {
	fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("Model: %s\n", info.ID)
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	placeholder := info.VarPrefix + "name"
	if len(info.Delim) == 2 {
		placeholder = info.VarPrefix + info.Delim[:1] + "name" + info.Delim[1:]
	}
	fmt.Printf("Placeholders:\n")
	fmt.Printf("  Prefix:    %s\n", info.VarPrefix)
	fmt.Printf("  Delimiter: %s\n", info.Delim)
	fmt.Printf("  Example:   %s\n\n", placeholder)

	if len(info.Outputs) > 0 {
		fmt.Printf("Outputs:\n")

		// Sort outputs for consistent output
		names := make([]string, 0, len(info.Outputs))
		for name := range info.Outputs {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			fmt.Printf("  • %-20s - %s\n", name, info.Outputs[name])
		}
		fmt.Printf("\n")
	}

	if len(info.Calculators) > 0 {
		fmt.Printf("Calculators:\n")
		for i, calc := range info.Calculators {
			fmt.Printf("  %d. %s\n", i+1, calc.Name)
			fmt.Printf("     URI: %s\n", calc.URI)
			if calc.Timeout != "" {
				fmt.Printf("     Timeout: %s\n", calc.Timeout)
			}
			if calc.Retries > 0 {
				fmt.Printf("     Retries: %d\n", calc.Retries)
			}
		}
		fmt.Printf("\n")
	}

	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")
}
