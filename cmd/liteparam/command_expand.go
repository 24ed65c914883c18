package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sourceplane/liteparam/internal/expand"
)

var (
	expandSweepFile string
	expandVars      []string
)

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Print the cases of a sweep without running them",
	RunE: func(cmd *cobra.Command, args []string) error {
		return expandSweep()
	},
}

func registerExpandCommand(root *cobra.Command) {
	root.AddCommand(expandCmd)

	expandCmd.Flags().StringVarP(&expandSweepFile, "sweep", "s", "", "Sweep file (yaml/json/hcl)")
	expandCmd.Flags().StringArrayVar(&expandVars, "var", nil, "Variable assignment name=v1,v2 (repeatable)")
}

func expandSweep() error {
	spec, err := loadSpec(expandSweepFile, expandVars)
	if err != nil {
		return fmt.Errorf("failed to load sweep: %w", err)
	}
	cases, err := expand.Expand(*spec)
	if err != nil {
		return err
	}

	for i := range cases {
		c := &cases[i]
		fmt.Printf("%4d  %-40s  %s\n", c.Index, expand.Describe(c), c.Key)
	}
	fmt.Printf("\n✓ %d cases\n", len(cases))
	return nil
}
