package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sourceplane/liteparam/internal/cache"
	"github.com/sourceplane/liteparam/internal/render"
	"github.com/sourceplane/liteparam/internal/results"
	"github.com/sourceplane/liteparam/internal/sweep"
)

var showFormat string

var showCmd = &cobra.Command{
	Use:   "show [results-dir]",
	Short: "Print the result table of a results directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := sweep.DefaultResultsDir
		if project.ResultsDir != "" {
			dir = project.ResultsDir
		}
		if len(args) > 0 {
			dir = args[0]
		}
		return showResults(dir)
	},
}

func registerShowCommand(root *cobra.Command) {
	root.AddCommand(showCmd)

	showCmd.Flags().StringVarP(&showFormat, "format", "f", "table", "Output format (table/json/yaml)")
}

func showResults(dir string) error {
	table, err := results.ReadTable(dir)
	if err != nil {
		return err
	}

	renderer := render.NewRenderer()
	switch showFormat {
	case "json":
		data, err := renderer.RenderJSON(table)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := renderer.RenderYAML(table)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
	default:
		viewer := render.NewTableViewer(table)
		fmt.Printf("Run %s\n\n", table.RunID)
		fmt.Println(viewer.View())
		fmt.Print("\n" + viewer.Summary(cache.IsLocation))
	}
	return nil
}
