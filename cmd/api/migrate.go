package main

import (
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/wifi-survey/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log := newLogger(cfg)
		if cfg.Database.Driver == config.DriverMemory {
			log.Info("memory store needs no migration")
			return nil
		}

		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := migrate(cmd.Context(), cfg, db); err != nil {
			return err
		}
		log.Info("schema applied", "driver", cfg.Database.Driver, "database", cfg.Database.Name)
		return nil
	},
}
