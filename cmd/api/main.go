package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/wifi-survey/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "wifi-survey",
	Short: "WiFi site-survey ingestion service",
	Long: `wifi-survey stores WiFi site-survey scans per environment.

Examples:
  wifi-survey serve --config config.yaml      # run the HTTP API (default)
  wifi-survey migrate                         # create the database schema
  wifi-survey import --env 1 --user 1 scan.csv`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	defaultPath := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultPath, "Path to the YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
}

// loadConfig reads the config file; a missing default file falls back to
// defaults plus environment overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
