package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/hanejj/MealCheck/internal/config"
	"github.com/hanejj/MealCheck/internal/store"
)

// Bootstraps the admin account from ADMIN_HANDLE/ADMIN_PASSWORD. Safe to
// re-run: an existing admin gets its password and flags reset.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()
	ctx := context.Background()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("hash password failed")
	}

	_, err = db.Client.ExecContext(ctx, `
		INSERT INTO accounts (handle, name, password, role, approval, active)
		VALUES ($1, 'Administrator', $2, 'ADMIN', 'APPROVED', TRUE)
		ON CONFLICT (handle) DO UPDATE SET
			password = EXCLUDED.password,
			role = 'ADMIN',
			approval = 'APPROVED',
			active = TRUE,
			version = accounts.version + 1,
			updated_at = NOW()
	`, cfg.AdminHandle, string(hash))
	if err != nil {
		log.Fatal().Err(err).Msg("seed admin failed")
	}

	log.Info().Str("handle", cfg.AdminHandle).Msg("admin account ready")
}
