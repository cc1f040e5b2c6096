package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/database"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/database/migrations"
)

func migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logr, err := bootstrap()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			db, err := database.NewPostgres(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close() //nolint:errcheck

			if err := migrations.Up(db.DB); err != nil {
				return err
			}
			logr.Info("database migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logr, err := bootstrap()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			db, err := database.NewPostgres(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close() //nolint:errcheck

			status, err := migrations.CheckStatus(db.DB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "current=%d latest=%d dirty=%t up_to_date=%t\n",
				status.Current, status.Latest, status.Dirty, status.UpToDate())
			return nil
		},
	})

	return cmd
}
