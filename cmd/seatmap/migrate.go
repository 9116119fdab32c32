package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/seatmap/internal/config"
	"github.com/gosuda/seatmap/internal/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if err = postgres.Migrate(cmd.Context(), cfg.Database.DSN()); err != nil {
			return err
		}

		log.Info().Str("db", cfg.Database.DBName).Msg("database migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
