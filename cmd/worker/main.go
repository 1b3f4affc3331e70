package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hanejj/MealCheck/internal/config"
	"github.com/hanejj/MealCheck/internal/ledger"
	"github.com/hanejj/MealCheck/internal/metrics"
	"github.com/hanejj/MealCheck/internal/queue"
	"github.com/hanejj/MealCheck/internal/store"
)

// The worker drains claim toggle events published by the API and persists
// them as the audit trail. The claim itself is already committed before an
// event is published, so replaying or dropping a message never changes a
// count.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	rdb := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(rdb.Client, "mealcheck:audit")
	}

	auditRepo := ledger.NewAuditRepo(db.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("queue consume init failed")
	}

	log.Info().Msg("audit worker started")
	for msg := range messages {
		if msg.Type != "claim.audit" {
			continue
		}
		var evt ledger.AuditEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Warn().Err(err).Msg("malformed audit event")
			continue
		}
		rec, err := auditRepo.Insert(ctx, evt)
		if err != nil {
			log.Warn().Err(err).Int64("schedule", evt.ScheduleID).Int64("account", evt.AccountID).Msg("audit insert failed")
			continue
		}
		metrics.AuditWrites.Inc()
		log.Debug().Str("id", rec.ID.String()).Str("action", rec.Action).Msg("audit recorded")
	}

	log.Info().Msg("audit worker stopped")
}
