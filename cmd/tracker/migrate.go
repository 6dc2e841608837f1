package main

import (
	"fmt"

	"github.com/jonathan/application-tracker/internal/db"
	"github.com/spf13/cobra"
)

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.requireDatabaseURL()
			if err != nil {
				return err
			}

			database, err := db.Connect(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close()

			applied, err := database.Migrate(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "Database is up to date")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintf(out, "Applied migration %05d\n", v)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the state of every migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.requireDatabaseURL()
			if err != nil {
				return err
			}

			database, err := db.Connect(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close()

			statuses, err := database.MigrationStatuses(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range statuses {
				fmt.Fprintf(cmd.OutOrStdout(), "%05d  %-10s %s\n", s.Version, s.State, s.Path)
			}
			return nil
		},
	})
	return cmd
}
