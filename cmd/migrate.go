package cmd

import (
	"example.com/backstage/bookings/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Connect(cfg.Database, log)
		if err != nil {
			return err
		}
		defer db.Close()

		log.Info("Running database migrations...")
		if err := database.AutoMigrate(db); err != nil {
			return err
		}

		log.Info("Database migrations completed successfully")
		return nil
	},
}
