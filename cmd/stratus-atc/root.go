package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stratus-atc/internal/config"
)

var (
	configPath string
	schemaPath string
)

var rootCmd = &cobra.Command{
	Use:   "stratus-atc",
	Short: "Flight sim ATC assistant",
	Long:  "Stratus ATC reads simulator telemetry and runs an LLM-backed air traffic controller over a local Ollama instance.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath, schemaPath)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/stratus.yaml", "Path to session configuration YAML")
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "schemas/stratus.cue", "Path to CUE schema file")
	rootCmd.AddCommand(flyCmd)
	rootCmd.AddCommand(sayCmd)
	rootCmd.AddCommand(warmupCmd)
	rootCmd.AddCommand(replayCmd)
}
