package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hanejj/MealCheck/internal/apperr"
)

// PostgresRepo persists claims in Postgres.
type PostgresRepo struct {
	db *sql.DB
}

// NewPostgresRepo creates a repo.
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// Insert creates the claim if absent. The conflict target is the primary
// key, so two racing inserts for the same pair resolve to exactly one row;
// the loser observes created=false and nothing else changes.
func (r *PostgresRepo) Insert(ctx context.Context, scheduleID, accountID int64, note *string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO meal_claims (schedule_id, account_id, note)
		VALUES ($1, $2, $3)
		ON CONFLICT (schedule_id, account_id) DO NOTHING
	`, scheduleID, accountID, note)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return false, apperr.New(apperr.NotFound, "schedule or account not found")
		}
		return false, apperr.Wrap(apperr.Storage, "insert claim", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Wrap(apperr.Storage, "insert claim", err)
	}
	return n > 0, nil
}

// Remove deletes the claim if present; removed=false means it was already
// gone, which callers treat as idempotent success.
func (r *PostgresRepo) Remove(ctx context.Context, scheduleID, accountID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM meal_claims WHERE schedule_id = $1 AND account_id = $2`,
		scheduleID, accountID)
	if err != nil {
		return false, apperr.Wrap(apperr.Storage, "remove claim", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Wrap(apperr.Storage, "remove claim", err)
	}
	return n > 0, nil
}

// Get returns the claim for one pair, or nil when absent.
func (r *PostgresRepo) Get(ctx context.Context, scheduleID, accountID int64) (*Claim, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT c.schedule_id, c.account_id, a.name, a.department, c.note, c.checked_at
		FROM meal_claims c
		JOIN accounts a ON a.id = c.account_id
		WHERE c.schedule_id = $1 AND c.account_id = $2
	`, scheduleID, accountID)
	var c Claim
	if err := row.Scan(&c.ScheduleID, &c.AccountID, &c.AccountName, &c.AccountDepartment, &c.Note, &c.CheckedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.Storage, "get claim", err)
	}
	return &c, nil
}

// ListBySchedule returns all claims for one schedule with claimant info.
func (r *PostgresRepo) ListBySchedule(ctx context.Context, scheduleID int64) ([]Claim, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.schedule_id, c.account_id, a.name, a.department, c.note, c.checked_at
		FROM meal_claims c
		JOIN accounts a ON a.id = c.account_id
		WHERE c.schedule_id = $1
		ORDER BY c.checked_at, c.account_id
	`, scheduleID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "list claims", err)
	}
	defer rows.Close()
	var out []Claim
	for rows.Next() {
		var c Claim
		if err := rows.Scan(&c.ScheduleID, &c.AccountID, &c.AccountName, &c.AccountDepartment, &c.Note, &c.CheckedAt); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "scan claim", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Storage, "list claims", err)
	}
	return out, nil
}

// ListNonClaimants subtracts claimants from the eligible population in one
// statement, so both sides come from a single snapshot and no account can
// show up in both the checked and not-checked lists.
func (r *PostgresRepo) ListNonClaimants(ctx context.Context, scheduleID int64) ([]Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.department
		FROM accounts a
		WHERE a.approval = 'APPROVED' AND a.active
		  AND NOT EXISTS (
			SELECT 1 FROM meal_claims c
			WHERE c.schedule_id = $1 AND c.account_id = a.id
		  )
		ORDER BY a.id
	`, scheduleID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "list non-claimants", err)
	}
	defer rows.Close()
	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.AccountID, &m.Name, &m.Department); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "scan non-claimant", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Storage, "list non-claimants", err)
	}
	return out, nil
}

const historyCols = `
	s.id, s.meal_date, s.meal_type, s.description,
	a.id, a.name, a.department,
	(c.account_id IS NOT NULL), c.note, c.checked_at`

func scanHistory(rows *sql.Rows) (HistoryEntry, error) {
	var e HistoryEntry
	var mealDate time.Time
	err := rows.Scan(&e.ScheduleID, &mealDate, &e.MealType, &e.Description,
		&e.AccountID, &e.AccountName, &e.AccountDepartment,
		&e.Checked, &e.Note, &e.CheckedAt)
	if err != nil {
		return e, err
	}
	e.MealDate = mealDate.Format("2006-01-02")
	return e, nil
}

// HistoryForAccount returns the caller's claims over an inclusive range of
// schedule dates. Empty bounds are unbounded.
func (r *PostgresRepo) HistoryForAccount(ctx context.Context, accountID int64, from, to string) ([]HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT`+historyCols+`
		FROM meal_claims c
		JOIN meal_schedules s ON s.id = c.schedule_id
		JOIN accounts a ON a.id = c.account_id
		WHERE c.account_id = $1
		  AND ($2 = '' OR s.meal_date >= $2::date)
		  AND ($3 = '' OR s.meal_date <= $3::date)
		ORDER BY s.meal_date, s.meal_type, s.id
	`, accountID, from, to)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "account history", err)
	}
	defer rows.Close()
	var out []HistoryEntry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.Storage, "scan history", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Storage, "account history", err)
	}
	return out, nil
}

// HistoryAll crosses schedules in range with the eligible population and
// left-joins claims, synthesizing checked=false entries for members with
// no claim row. One statement keeps the view consistent.
func (r *PostgresRepo) HistoryAll(ctx context.Context, from, to string) ([]HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT`+historyCols+`
		FROM meal_schedules s
		CROSS JOIN accounts a
		LEFT JOIN meal_claims c ON c.schedule_id = s.id AND c.account_id = a.id
		WHERE a.approval = 'APPROVED' AND a.active
		  AND ($1 = '' OR s.meal_date >= $1::date)
		  AND ($2 = '' OR s.meal_date <= $2::date)
		ORDER BY s.meal_date, s.meal_type, s.id, a.id
	`, from, to)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "all history", err)
	}
	defer rows.Close()
	var out []HistoryEntry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.Storage, "scan history", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Storage, "all history", err)
	}
	return out, nil
}
