package main

import (
	"github.com/spf13/cobra"

	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/app"
	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/db"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database if missing and sync the schema, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger, closer, err := app.NewLogger(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			conn, err := app.Migrate(cmd.Context(), cfg, logger)
			if err != nil {
				logger.Error("migration failed", "error", err.Error())
				return err
			}
			logger.Info("migration complete", "database", cfg.Database.Name)
			return db.Close(conn)
		},
	}
}
