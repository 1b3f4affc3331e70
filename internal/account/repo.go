package account

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hanejj/MealCheck/internal/apperr"
)

const accountCols = `id, handle, name, password, department, role, approval, active, version, created_at, updated_at`

// PostgresRepo persists accounts in Postgres.
type PostgresRepo struct {
	db *sql.DB
}

// NewPostgresRepo creates a repo.
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func scanAccount(row interface{ Scan(...any) error }) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Handle, &a.Name, &a.PasswordHash, &a.Department,
		&a.Role, &a.Approval, &a.Active, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new account and assigns its id. A handle collision is
// surfaced as Conflict via the unique constraint, never by a pre-read.
func (r *PostgresRepo) Create(ctx context.Context, a *Account) error {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO accounts (handle, name, password, department, role, approval, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, version, created_at, updated_at
	`, a.Handle, a.Name, a.PasswordHash, a.Department, a.Role, a.Approval, a.Active)
	if err := row.Scan(&a.ID, &a.Version, &a.CreatedAt, &a.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.New(apperr.Conflict, "handle already in use")
		}
		return apperr.Wrap(apperr.Storage, "create account", err)
	}
	return nil
}

// GetByID returns the account or NotFound.
func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (*Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "account not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "get account", err)
	}
	return a, nil
}

// GetByHandle returns the account for an exact, case-sensitive handle match.
func (r *PostgresRepo) GetByHandle(ctx context.Context, handle string) (*Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE handle = $1`, handle))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "account not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "get account", err)
	}
	return a, nil
}

func (r *PostgresRepo) list(ctx context.Context, where string, args ...any) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountCols+` FROM accounts `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "list accounts", err)
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.Storage, "scan account", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Storage, "list accounts", err)
	}
	return out, nil
}

// ListByApproval returns accounts in the given approval state.
func (r *PostgresRepo) ListByApproval(ctx context.Context, approval Approval) ([]Account, error) {
	return r.list(ctx, `WHERE approval = $1`, approval)
}

// ListActive returns approved, active accounts (the eligible population).
func (r *PostgresRepo) ListActive(ctx context.Context) ([]Account, error) {
	return r.list(ctx, `WHERE approval = $1 AND active`, ApprovalApproved)
}

// Update writes profile fields with an optimistic version check. A stale
// version surfaces as Conflict so the caller re-reads and retries.
func (r *PostgresRepo) Update(ctx context.Context, a *Account) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET name = $3, department = $4, active = $5, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
	`, a.ID, a.Version, a.Name, a.Department, a.Active)
	if err != nil {
		return apperr.Wrap(apperr.Storage, "update account", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Wrap(apperr.Storage, "update account", err)
	}
	if n == 0 {
		return apperr.New(apperr.Conflict, "account changed concurrently")
	}
	a.Version++
	return nil
}

// Decide transitions approval PENDING -> to. Returns false when the account
// exists but is no longer pending.
func (r *PostgresRepo) Decide(ctx context.Context, id int64, to Approval, activate bool) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET approval = $2, active = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND approval = $4
	`, id, to, activate, ApprovalPending)
	if err != nil {
		return false, apperr.Wrap(apperr.Storage, "decide account", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Wrap(apperr.Storage, "decide account", err)
	}
	return n > 0, nil
}

// SetActive toggles the active flag.
func (r *PostgresRepo) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET active = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1
	`, id, active)
	if err != nil {
		return apperr.Wrap(apperr.Storage, "set active", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "account not found")
	}
	return nil
}

// SetPassword stores a new hash.
func (r *PostgresRepo) SetPassword(ctx context.Context, id int64, hash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET password = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1
	`, id, hash)
	if err != nil {
		return apperr.Wrap(apperr.Storage, "set password", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "account not found")
	}
	return nil
}

// Delete hard-removes an account; claim rows cascade at the schema level.
func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return apperr.Wrap(apperr.Storage, "delete account", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "account not found")
	}
	return nil
}
