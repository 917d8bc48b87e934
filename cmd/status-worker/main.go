package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/clinic-scheduling/internal/booking"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/observability"
	"github.com/hackgods/clinic-scheduling/internal/validation"
)

// status-worker moves scheduled visits whose start has passed to missed.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	observability.InitLogger("status-worker", cfg.Env, cfg.LogLevel)
	log.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("status-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, 2)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	repo := clinic.NewPgRepository(pgPool)
	// the sweep only changes status, so no calendar lock is taken
	svc := booking.NewService(repo, validation.New(repo, repo), nil)

	ctx := log.Logger.WithContext(rootCtx)

	// Run once at startup
	runOnce(ctx, svc)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping status worker")
			return
		case <-ticker.C:
			runOnce(ctx, svc)
		}
	}
}

func runOnce(ctx context.Context, svc *booking.Service) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	logger := zerolog.Ctx(ctx)
	start := time.Now()
	n, err := svc.MarkMissedVisits(runCtx)
	if err != nil {
		logger.Error().Err(err).Msg("status sweep error")
		return
	}
	logger.Info().Int("marked_missed", n).Dur("took", time.Since(start)).Msg("status sweep complete")
}
