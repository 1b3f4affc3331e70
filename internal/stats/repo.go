package stats

import (
	"context"
	"database/sql"

	"github.com/hanejj/MealCheck/internal/apperr"
)

// PostgresRepo computes aggregates in Postgres.
type PostgresRepo struct {
	db *sql.DB
}

// NewPostgresRepo creates a repo.
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// Summary computes both counts in one statement so they share one MVCC
// snapshot; checkedCount can never exceed totalParticipants.
func (r *PostgresRepo) Summary(ctx context.Context, scheduleID int64) (ScheduleSummary, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM meal_schedules WHERE id = $1),
			(SELECT COUNT(*) FROM accounts
			 WHERE approval = 'APPROVED' AND active),
			(SELECT COUNT(*) FROM meal_claims c
			 JOIN accounts a ON a.id = c.account_id
			 WHERE c.schedule_id = $1 AND a.approval = 'APPROVED' AND a.active)
	`, scheduleID)
	var exists int64
	s := ScheduleSummary{ScheduleID: scheduleID}
	if err := row.Scan(&exists, &s.TotalParticipants, &s.CheckedCount); err != nil {
		return ScheduleSummary{}, apperr.Wrap(apperr.Storage, "schedule summary", err)
	}
	if exists == 0 {
		return ScheduleSummary{}, apperr.New(apperr.NotFound, "schedule not found")
	}
	return s, nil
}

// Statistics reads population counts and the department grouping inside a
// repeatable-read transaction: two queries, one snapshot. Any failure
// surfaces as STORAGE rather than mismatched numbers.
func (r *PostgresRepo) Statistics(ctx context.Context) (UserStatistics, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return UserStatistics{}, apperr.Wrap(apperr.Storage, "user statistics", err)
	}
	defer tx.Rollback()

	var st UserStatistics
	row := tx.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE approval = 'APPROVED'),
			COUNT(*) FILTER (WHERE approval = 'APPROVED' AND active),
			COUNT(*) FILTER (WHERE approval = 'APPROVED' AND NOT active),
			COUNT(*) FILTER (WHERE approval = 'PENDING'),
			COUNT(*) FILTER (WHERE approval = 'APPROVED' AND role = 'ADMIN'),
			COUNT(*) FILTER (WHERE approval = 'APPROVED' AND role = 'MEMBER')
		FROM accounts
	`)
	if err := row.Scan(&st.Approved, &st.Active, &st.Inactive, &st.Pending, &st.Admins, &st.Members); err != nil {
		return UserStatistics{}, apperr.Wrap(apperr.Storage, "user statistics", err)
	}
	st.Total = st.Approved

	rows, err := tx.QueryContext(ctx, `
		SELECT COALESCE(NULLIF(department, ''), $1), COUNT(*)
		FROM accounts
		WHERE approval = 'APPROVED' AND active
		GROUP BY 1
	`, UnspecifiedDepartment)
	if err != nil {
		return UserStatistics{}, apperr.Wrap(apperr.Storage, "department grouping", err)
	}
	defer rows.Close()
	st.ByDepartment = make(map[string]int64)
	for rows.Next() {
		var dept string
		var n int64
		if err := rows.Scan(&dept, &n); err != nil {
			return UserStatistics{}, apperr.Wrap(apperr.Storage, "department grouping", err)
		}
		st.ByDepartment[dept] = n
	}
	if err := rows.Err(); err != nil {
		return UserStatistics{}, apperr.Wrap(apperr.Storage, "department grouping", err)
	}
	if err := tx.Commit(); err != nil {
		return UserStatistics{}, apperr.Wrap(apperr.Storage, "user statistics", err)
	}
	return st, nil
}
