package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/config"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "pathway-rag",
	Short: "Adaptive decomposition and synthesis question answering service",
	Long: `pathway-rag answers financial questions by gating them for compliance,
probing the internal document index, decomposing the question into independent
subtasks, analyzing each subtask against its own evidence and synthesizing one
answer. Questions the internal index cannot answer fall back to a cascade of
web search sources.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return logger.Init(logger.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var loaded *config.Config

// loadConfig reads --config once and applies --log-level on top.
func loadConfig() (*config.Config, error) {
	if loaded != nil {
		return loaded, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	loaded = cfg
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(versionCmd)
}
