// Package ledger owns the claim relation between accounts and scheduled
// meals. Existence of a row IS the claim; unchecking deletes the row. The
// primary key on (schedule_id, account_id) is the only concurrency control
// the toggle operations need.
package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/hanejj/MealCheck/internal/schedule"
)

// Claim is one checked meal for one account.
type Claim struct {
	ScheduleID        int64     `json:"schedule_id"`
	AccountID         int64     `json:"account_id"`
	AccountName       string    `json:"account_name"`
	AccountDepartment *string   `json:"account_department,omitempty"`
	Note              *string   `json:"note,omitempty"`
	CheckedAt         time.Time `json:"checked_at"`
}

// Member identifies an eligible account with no claim on a schedule.
type Member struct {
	AccountID  int64   `json:"account_id"`
	Name       string  `json:"name"`
	Department *string `json:"department,omitempty"`
}

// HistoryEntry is one (schedule, account) cell of the history view.
// Checked=false rows are synthesized for eligible accounts with no claim.
type HistoryEntry struct {
	ScheduleID        int64             `json:"schedule_id"`
	MealDate          string            `json:"meal_date"`
	MealType          schedule.MealType `json:"meal_type"`
	Description       *string           `json:"description,omitempty"`
	AccountID         int64             `json:"account_id"`
	AccountName       string            `json:"account_name"`
	AccountDepartment *string           `json:"account_department,omitempty"`
	Checked           bool              `json:"checked"`
	Note              *string           `json:"note,omitempty"`
	CheckedAt         *time.Time        `json:"checked_at,omitempty"`
}

// Audit actions.
const (
	ActionChecked   = "checked"
	ActionUnchecked = "unchecked"
)

// AuditEvent is the queue payload published on every applied toggle.
type AuditEvent struct {
	ScheduleID int64     `json:"schedule_id"`
	AccountID  int64     `json:"account_id"`
	Action     string    `json:"action"`
	Note       *string   `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AuditRecord is a persisted toggle event.
type AuditRecord struct {
	ID         uuid.UUID `json:"id"`
	ScheduleID int64     `json:"schedule_id"`
	AccountID  int64     `json:"account_id"`
	Action     string    `json:"action"`
	Note       *string   `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
