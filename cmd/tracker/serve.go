package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/application-tracker/internal/db"
	"github.com/jonathan/application-tracker/internal/server"
	"github.com/jonathan/application-tracker/internal/server/ratelimit"
	"github.com/spf13/cobra"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var (
		port    int
		migrate bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long:  `Start an HTTP server that exposes REST endpoints for managing applications and reading the funnel report.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.requireDatabaseURL()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			if migrate {
				if err := runMigrations(cmd.Context(), cfg.DatabaseURL); err != nil {
					return err
				}
			}

			srv, err := server.New(server.Config{
				Port:        cfg.Port,
				DatabaseURL: cfg.DatabaseURL,
				CORSOrigin:  cfg.CORSOrigin,
				RateLimit:   ratelimit.LoadConfig(),
			})
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			return srv.Start()
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before starting")
	return cmd
}

func runMigrations(ctx context.Context, databaseURL string) error {
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	applied, err := database.Migrate(ctx)
	if err != nil {
		return err
	}
	log.Printf("[migrate] applied %d migration(s)", len(applied))
	return nil
}
