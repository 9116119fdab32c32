package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/seatmap/internal/chart"
	"github.com/gosuda/seatmap/internal/config"
	redisstore "github.com/gosuda/seatmap/internal/store/redis"
)

var (
	purgeDepartment string
	purgeItems      bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the chart cache",
}

// cachePurgeCmd drops cached pages after out-of-band database edits. The
// cache is never authoritative, so purging only costs repository reads.
var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cached chart list pages (and optionally items)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		pubsub, err := redisstore.New(cmd.Context(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer pubsub.Close()

		cache := redisstore.NewCache(pubsub.Client())

		total := 0
		for _, pattern := range chart.PurgePatterns(purgeDepartment, purgeItems) {
			n, delErr := cache.DeletePattern(cmd.Context(), pattern)
			if delErr != nil {
				return delErr
			}
			log.Debug().Str("pattern", pattern).Int("deleted", n).Msg("cache purge")
			total += n
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "purged %d keys\n", total)
		return err
	},
}

func init() {
	cachePurgeCmd.Flags().StringVar(&purgeDepartment, "department", "", "limit the purge to one department's list pages")
	cachePurgeCmd.Flags().BoolVar(&purgeItems, "items", false, "also purge cached charts")
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
