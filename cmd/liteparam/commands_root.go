package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sourceplane/liteparam/internal/ctxlog"
	"github.com/sourceplane/liteparam/internal/loader"
	"github.com/sourceplane/liteparam/internal/model"
)

var (
	configDir string
	logLevel  string
	logFormat string

	// project holds config.yaml defaults; flags override them
	project = &model.ProjectConfig{}
)

var rootCmd = &cobra.Command{
	Use:          "liteparam",
	Short:        "Parametric case engine: sweep → cases → results",
	Long:         "liteparam expands a parameter grid into cases, reuses cached results where it can and runs the rest on live calculators",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := loader.NewLoader(configDir)
		if err != nil {
			return err
		}
		cfg, err := l.LoadProjectConfig()
		if err != nil {
			return err
		}
		project = cfg

		level, format := logLevel, logFormat
		if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
			level = cfg.LogLevel
		}
		if !cmd.Flags().Changed("log-format") && cfg.LogFormat != "" {
			format = cfg.LogFormat
		}
		logger := ctxlog.New(level, format, os.Stderr)
		cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", loader.DefaultConfigDir, "Config directory holding models/, calculators/ and config.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug/info/warn/error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text/json)")

	registerRunCommand(rootCmd)
	registerExpandCommand(rootCmd)
	registerValidateCommand(rootCmd)
	registerShowCommand(rootCmd)
	registerHistoryCommand(rootCmd)
	registerModelsCommand(rootCmd)
}
