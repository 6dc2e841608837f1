// Package main provides the entry point for the application tracker CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/jonathan/application-tracker/internal/config"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configPath  string
	databaseURL string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "tracker",
		Short:         "Job application tracker",
		Long:          "Tracks job applications through their hiring workflow and reports on the application funnel.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to JSON config file")
	root.PersistentFlags().StringVar(&flags.databaseURL, "db-url", "", "Database URL (overrides DATABASE_URL env var)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Print detailed debug information")

	root.AddCommand(
		newServeCmd(flags),
		newMigrateCmd(flags),
		newListCmd(flags),
		newFunnelCmd(flags),
		newTransitionsCmd(),
	)
	return root
}

// resolveConfig merges the config file, environment and flags, flags winning
func (f *globalFlags) resolveConfig() (config.Config, error) {
	file := &config.Config{}
	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return config.Config{}, err
		}
		file = loaded
	}

	cfg := file.MergeWithDefaults(config.Defaults())
	if f.databaseURL != "" {
		cfg.DatabaseURL = f.databaseURL
	}
	if f.verbose {
		cfg.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// requireDatabaseURL resolves the config and fails when no database is configured
func (f *globalFlags) requireDatabaseURL() (config.Config, error) {
	cfg, err := f.resolveConfig()
	if err != nil {
		return cfg, err
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("database URL is required (set DATABASE_URL, database_url in --config, or --db-url)")
	}
	return cfg, nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
