package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hanejj/MealCheck/internal/account"
	"github.com/hanejj/MealCheck/internal/config"
	"github.com/hanejj/MealCheck/internal/httpapi"
	"github.com/hanejj/MealCheck/internal/ledger"
	"github.com/hanejj/MealCheck/internal/queue"
	"github.com/hanejj/MealCheck/internal/schedule"
	"github.com/hanejj/MealCheck/internal/stats"
	"github.com/hanejj/MealCheck/internal/store"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()
	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("api server failed")
	}
}

func run(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	rdb := store.NewRedis(cfg.RedisAddr)
	cache := stats.NewCache(rdb.Client, cfg.CacheTTL)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(rdb.Client, "mealcheck:audit")
	}

	accountRepo := account.NewPostgresRepo(db.Client)
	accounts := account.NewService(accountRepo, cache)

	scheduleRepo := schedule.NewPostgresRepo(db.Client)
	schedules := schedule.NewService(scheduleRepo, cfg.Location(), cache)

	claims := ledger.NewService(
		ledger.NewPostgresRepo(db.Client),
		scheduleRepo,
		ledger.NewAuditRepo(db.Client),
		q,
		cache,
	)

	statsSvc := stats.NewService(stats.NewPostgresRepo(db.Client), cache)

	api := httpapi.New(cfg, accounts, schedules, claims, statsSvc)
	r := api.Router(db, rdb)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("tz", cfg.ServiceTZ).Msg("starting api server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
	return nil
}
