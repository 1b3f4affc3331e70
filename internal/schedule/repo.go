package schedule

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hanejj/MealCheck/internal/apperr"
)

// PostgresRepo persists meal schedules in Postgres.
type PostgresRepo struct {
	db *sql.DB
}

// NewPostgresRepo creates a repo.
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const scheduleCols = `id, meal_date, meal_type, description, created_by, created_at`

func scanSchedule(row interface{ Scan(...any) error }) (*Schedule, error) {
	var s Schedule
	var mealDate time.Time
	if err := row.Scan(&s.ID, &mealDate, &s.MealType, &s.Description, &s.CreatedBy, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.MealDate = mealDate.Format(DateLayout)
	return &s, nil
}

// Create inserts a schedule and assigns its id.
func (r *PostgresRepo) Create(ctx context.Context, s *Schedule) error {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO meal_schedules (meal_date, meal_type, description, created_by)
		VALUES ($1::date, $2, $3, $4)
		RETURNING id, created_at
	`, s.MealDate, s.MealType, s.Description, s.CreatedBy)
	if err := row.Scan(&s.ID, &s.CreatedAt); err != nil {
		return apperr.Wrap(apperr.Storage, "create schedule", err)
	}
	return nil
}

// Get returns one schedule or NotFound.
func (r *PostgresRepo) Get(ctx context.Context, id int64) (*Schedule, error) {
	s, err := scanSchedule(r.db.QueryRowContext(ctx,
		`SELECT `+scheduleCols+` FROM meal_schedules WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "schedule not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "get schedule", err)
	}
	return s, nil
}

func (r *PostgresRepo) list(ctx context.Context, where string, args ...any) ([]Schedule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+scheduleCols+` FROM meal_schedules `+where, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "list schedules", err)
	}
	defer rows.Close()
	var out []Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.Storage, "scan schedule", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Storage, "list schedules", err)
	}
	return out, nil
}

// ListByDate returns all schedules on one calendar date.
func (r *PostgresRepo) ListByDate(ctx context.Context, date string) ([]Schedule, error) {
	return r.list(ctx, `WHERE meal_date = $1::date ORDER BY meal_type, id`, date)
}

// ListFrom returns schedules on or after the given date, soonest first.
func (r *PostgresRepo) ListFrom(ctx context.Context, date string) ([]Schedule, error) {
	return r.list(ctx, `WHERE meal_date >= $1::date ORDER BY meal_date, meal_type, id`, date)
}

// Delete removes a schedule. Claim rows go with it via the cascading
// foreign key, so no dangling claims can survive.
func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM meal_schedules WHERE id = $1`, id)
	if err != nil {
		return apperr.Wrap(apperr.Storage, "delete schedule", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "schedule not found")
	}
	return nil
}
