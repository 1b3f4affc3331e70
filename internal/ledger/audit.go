package ledger

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/hanejj/MealCheck/internal/apperr"
)

// AuditRepo persists the toggle history written by the worker. Audit rows
// deliberately keep no foreign keys: they must outlive deleted accounts
// and schedules.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo creates a repo.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Insert writes one audit record.
func (r *AuditRepo) Insert(ctx context.Context, evt AuditEvent) (AuditRecord, error) {
	rec := AuditRecord{
		ID:         uuid.New(),
		ScheduleID: evt.ScheduleID,
		AccountID:  evt.AccountID,
		Action:     evt.Action,
		Note:       evt.Note,
		OccurredAt: evt.OccurredAt,
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO claim_audit (id, schedule_id, account_id, action, note, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.ID, rec.ScheduleID, rec.AccountID, rec.Action, rec.Note, rec.OccurredAt)
	if err != nil {
		return AuditRecord{}, apperr.Wrap(apperr.Storage, "insert audit", err)
	}
	return rec, nil
}

// List returns recent audit records, newest first.
func (r *AuditRepo) List(ctx context.Context, limit, offset int) ([]AuditRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, schedule_id, account_id, action, note, occurred_at
		FROM claim_audit
		ORDER BY occurred_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "list audit", err)
	}
	defer rows.Close()
	var out []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		if err := rows.Scan(&rec.ID, &rec.ScheduleID, &rec.AccountID, &rec.Action, &rec.Note, &rec.OccurredAt); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "scan audit", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Storage, "list audit", err)
	}
	return out, nil
}
