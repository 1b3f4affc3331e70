package ledger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hanejj/MealCheck/internal/apperr"
	"github.com/hanejj/MealCheck/internal/metrics"
	"github.com/hanejj/MealCheck/internal/queue"
	"github.com/hanejj/MealCheck/internal/schedule"
)

const maxNoteLength = 255

// Repo is the persistence surface for claims.
type Repo interface {
	Insert(ctx context.Context, scheduleID, accountID int64, note *string) (bool, error)
	Remove(ctx context.Context, scheduleID, accountID int64) (bool, error)
	Get(ctx context.Context, scheduleID, accountID int64) (*Claim, error)
	ListBySchedule(ctx context.Context, scheduleID int64) ([]Claim, error)
	ListNonClaimants(ctx context.Context, scheduleID int64) ([]Member, error)
	HistoryForAccount(ctx context.Context, accountID int64, from, to string) ([]HistoryEntry, error)
	HistoryAll(ctx context.Context, from, to string) ([]HistoryEntry, error)
}

// ScheduleGetter resolves schedule existence for claim operations.
type ScheduleGetter interface {
	Get(ctx context.Context, id int64) (*schedule.Schedule, error)
}

// Auditor lists persisted toggle history.
type Auditor interface {
	List(ctx context.Context, limit, offset int) ([]AuditRecord, error)
}

// Invalidator is notified after every applied toggle.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Service applies claim toggles with idempotent, exactly-once semantics
// and publishes an audit event for every change that actually applied.
type Service struct {
	repo      Repo
	schedules ScheduleGetter
	audit     Auditor
	q         queue.Queue
	inval     Invalidator
}

// NewService creates a service. q, audit and inval may be nil.
func NewService(repo Repo, schedules ScheduleGetter, audit Auditor, q queue.Queue, inval Invalidator) *Service {
	return &Service{repo: repo, schedules: schedules, audit: audit, q: q, inval: inval}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.inval != nil {
		s.inval.Invalidate(ctx)
	}
}

func (s *Service) publishAudit(ctx context.Context, evt AuditEvent) {
	if s.q == nil {
		return
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := s.q.Publish(ctx, queue.Message{Type: "claim.audit", Body: body}); err != nil {
		// Audit is best-effort; the claim itself already committed.
		log.Warn().Err(err).Int64("schedule", evt.ScheduleID).Int64("account", evt.AccountID).Msg("audit publish failed")
	}
}

// Check claims the meal for the account. A repeat check is a no-op success:
// created=false, the existing claim is returned, and counts are untouched.
func (s *Service) Check(ctx context.Context, scheduleID, accountID int64, note *string) (*Claim, bool, error) {
	if note != nil && len(*note) > maxNoteLength {
		return nil, false, apperr.Newf(apperr.Validation, "note must be at most %d characters", maxNoteLength)
	}
	if _, err := s.schedules.Get(ctx, scheduleID); err != nil {
		return nil, false, err
	}
	created, err := s.repo.Insert(ctx, scheduleID, accountID, note)
	if err != nil {
		return nil, false, err
	}
	outcome := metrics.OutcomeNoop
	if created {
		outcome = metrics.OutcomeApplied
		s.invalidate(ctx)
		s.publishAudit(ctx, AuditEvent{
			ScheduleID: scheduleID,
			AccountID:  accountID,
			Action:     ActionChecked,
			Note:       note,
			OccurredAt: time.Now().UTC(),
		})
	}
	metrics.ClaimToggles.WithLabelValues(ActionChecked, outcome).Inc()

	claim, err := s.repo.Get(ctx, scheduleID, accountID)
	if err != nil {
		return nil, created, err
	}
	if claim == nil {
		// Raced with an uncheck after our insert resolved; arrival order
		// at the store decides, so report the pair as unclaimed.
		return nil, false, nil
	}
	return claim, created, nil
}

// Uncheck removes the claim. Removing an absent claim is a no-op success,
// symmetric with Check.
func (s *Service) Uncheck(ctx context.Context, scheduleID, accountID int64) (bool, error) {
	if _, err := s.schedules.Get(ctx, scheduleID); err != nil {
		return false, err
	}
	removed, err := s.repo.Remove(ctx, scheduleID, accountID)
	if err != nil {
		return false, err
	}
	outcome := metrics.OutcomeNoop
	if removed {
		outcome = metrics.OutcomeApplied
		s.invalidate(ctx)
		s.publishAudit(ctx, AuditEvent{
			ScheduleID: scheduleID,
			AccountID:  accountID,
			Action:     ActionUnchecked,
			OccurredAt: time.Now().UTC(),
		})
	}
	metrics.ClaimToggles.WithLabelValues(ActionUnchecked, outcome).Inc()
	return removed, nil
}

// Claims returns all claims for a schedule.
func (s *Service) Claims(ctx context.Context, scheduleID int64) ([]Claim, error) {
	if _, err := s.schedules.Get(ctx, scheduleID); err != nil {
		return nil, err
	}
	return s.repo.ListBySchedule(ctx, scheduleID)
}

// NonClaimants returns eligible accounts without a claim on the schedule.
func (s *Service) NonClaimants(ctx context.Context, scheduleID int64) ([]Member, error) {
	if _, err := s.schedules.Get(ctx, scheduleID); err != nil {
		return nil, err
	}
	return s.repo.ListNonClaimants(ctx, scheduleID)
}

func validateRange(from, to string) (string, string, error) {
	var err error
	if from != "" {
		if from, err = schedule.ParseDate(from); err != nil {
			return "", "", err
		}
	}
	if to != "" {
		if to, err = schedule.ParseDate(to); err != nil {
			return "", "", err
		}
	}
	if from != "" && to != "" && from > to {
		return "", "", apperr.New(apperr.Validation, "start date is after end date")
	}
	return from, to, nil
}

// AccountHistory returns one account's claims over an inclusive date range.
func (s *Service) AccountHistory(ctx context.Context, accountID int64, from, to string) ([]HistoryEntry, error) {
	from, to, err := validateRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.repo.HistoryForAccount(ctx, accountID, from, to)
}

// AllHistory returns the full participation grid over a date range.
func (s *Service) AllHistory(ctx context.Context, from, to string) ([]HistoryEntry, error) {
	from, to, err := validateRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.repo.HistoryAll(ctx, from, to)
}

// AuditTrail returns persisted toggle events, newest first.
func (s *Service) AuditTrail(ctx context.Context, limit, offset int) ([]AuditRecord, error) {
	if s.audit == nil {
		return nil, nil
	}
	return s.audit.List(ctx, limit, offset)
}
