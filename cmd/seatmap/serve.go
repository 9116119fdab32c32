package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/seatmap/internal/chart"
	"github.com/gosuda/seatmap/internal/config"
	"github.com/gosuda/seatmap/internal/server"
	"github.com/gosuda/seatmap/internal/store/postgres"
	redisstore "github.com/gosuda/seatmap/internal/store/redis"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	if cfg.Database.AutoMigrate {
		if err = postgres.Migrate(ctx, cfg.Database.DSN()); err != nil {
			return err
		}
		log.Info().Msg("database migrations applied")
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Connect to Redis. The cache shares the pub/sub connection.
	pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	charts := chart.NewService(
		store.Charts(),
		store.ChartVersions(),
		redisstore.NewCache(pubsub.Client()),
		pubsub,
		chart.Options{
			ItemTTL:             cfg.Chart.ItemTTL,
			ListTTL:             cfg.Chart.ListTTL,
			SnapshotOnSeatPatch: cfg.Chart.SnapshotOnSeatPatch,
			MaxVersions:         cfg.Chart.MaxVersions,
		},
	)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(ctx, cfg, server.Deps{
		Charts: charts,
		Feed:   pubsub,
		Health: map[string]server.Pinger{
			"postgres": store,
			"redis":    pubsub,
		},
	})

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
