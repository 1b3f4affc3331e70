package store

import "context"

// The ledger's sole concurrency control is the primary key on
// meal_claims (schedule_id, account_id): check is an atomic
// insert-if-absent, uncheck a plain delete. No application-level locking.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id          BIGSERIAL PRIMARY KEY,
		handle      VARCHAR(50) NOT NULL UNIQUE,
		name        VARCHAR(100) NOT NULL,
		password    TEXT NOT NULL,
		department  VARCHAR(50),
		role        VARCHAR(20) NOT NULL DEFAULT 'MEMBER',
		approval    VARCHAR(20) NOT NULL DEFAULT 'PENDING',
		active      BOOLEAN NOT NULL DEFAULT FALSE,
		version     BIGINT NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS meal_schedules (
		id          BIGSERIAL PRIMARY KEY,
		meal_date   DATE NOT NULL,
		meal_type   VARCHAR(20) NOT NULL,
		description TEXT,
		created_by  BIGINT REFERENCES accounts(id) ON DELETE SET NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_meal_schedules_date ON meal_schedules (meal_date)`,
	`CREATE TABLE IF NOT EXISTS meal_claims (
		schedule_id BIGINT NOT NULL REFERENCES meal_schedules(id) ON DELETE CASCADE,
		account_id  BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		note        TEXT,
		checked_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (schedule_id, account_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_meal_claims_account ON meal_claims (account_id)`,
	`CREATE TABLE IF NOT EXISTS claim_audit (
		id          UUID PRIMARY KEY,
		schedule_id BIGINT NOT NULL,
		account_id  BIGINT NOT NULL,
		action      VARCHAR(20) NOT NULL,
		note        TEXT,
		occurred_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_claim_audit_occurred ON claim_audit (occurred_at)`,
}

// Migrate applies the schema. Statements are idempotent so startup can run
// this unconditionally.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
