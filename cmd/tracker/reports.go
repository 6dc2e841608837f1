package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/jonathan/application-tracker/internal/db"
	"github.com/jonathan/application-tracker/internal/funnel"
	"github.com/jonathan/application-tracker/internal/observability"
	"github.com/jonathan/application-tracker/internal/types"
	"github.com/jonathan/application-tracker/internal/workflow"
	"github.com/spf13/cobra"
)

func newListCmd(flags *globalFlags) *cobra.Command {
	var openOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications with their current status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			apps, err := loadApplications(cmd, flags)
			if err != nil {
				return err
			}

			summaries := make([]types.ApplicationSummary, 0, len(apps))
			for _, app := range apps {
				if openOnly && app.Closed() {
					continue
				}
				summaries = append(summaries, app.Summary())
			}

			observability.NewPrinter(cmd.OutOrStdout()).PrintApplications(summaries)
			return nil
		},
	}
	cmd.Flags().BoolVar(&openOnly, "open", false, "Only show applications without a terminal status")
	return cmd
}

func newFunnelCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "funnel",
		Short: "Print the application funnel report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			apps, err := loadApplications(cmd, flags)
			if err != nil {
				return err
			}

			edges := funnel.Generate(apps)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(edges)
			}

			observability.NewPrinter(cmd.OutOrStdout()).PrintFunnel(edges, len(apps))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print edges as JSON")
	return cmd
}

func newTransitionsCmd() *cobra.Command {
	var raw []string

	cmd := &cobra.Command{
		Use:   "transitions",
		Short: "Show which statuses may follow a set of recorded statuses",
		Example: `  tracker transitions
  tracker transitions --status Applied --status Screen
  tracker transitions --status applied,interview`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			current := make([]workflow.Status, 0, len(raw))
			for _, s := range raw {
				st, err := workflow.ParseStatus(s)
				if err != nil {
					return err
				}
				current = append(current, st)
			}

			observability.NewPrinter(cmd.OutOrStdout()).
				PrintTransitions(current, workflow.AvailableTransitions(current))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&raw, "status", "s", nil, "Recorded status (repeatable or comma-separated)")
	return cmd
}

func loadApplications(cmd *cobra.Command, flags *globalFlags) ([]types.Application, error) {
	cfg, err := flags.requireDatabaseURL()
	if err != nil {
		return nil, err
	}

	database, err := db.Connect(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	apps, err := database.ListApplications(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to load applications: %w", err)
	}
	if cfg.Verbose {
		log.Printf("[tracker] loaded %d applications", len(apps))
	}
	return apps, nil
}
