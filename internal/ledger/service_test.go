package ledger

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanejj/MealCheck/internal/apperr"
	"github.com/hanejj/MealCheck/internal/queue"
	"github.com/hanejj/MealCheck/internal/schedule"
)

type claimKey struct {
	scheduleID int64
	accountID  int64
}

// stubRepo mimics the store's semantics: the row's existence is the claim,
// insert-if-absent and delete-if-present are atomic.
type stubRepo struct {
	mu     sync.Mutex
	claims map[claimKey]*Claim
}

func newStubRepo() *stubRepo {
	return &stubRepo{claims: make(map[claimKey]*Claim)}
}

func (r *stubRepo) Insert(_ context.Context, scheduleID, accountID int64, note *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := claimKey{scheduleID, accountID}
	if _, ok := r.claims[k]; ok {
		return false, nil
	}
	r.claims[k] = &Claim{
		ScheduleID: scheduleID,
		AccountID:  accountID,
		Note:       note,
		CheckedAt:  time.Now(),
	}
	return true, nil
}

func (r *stubRepo) Remove(_ context.Context, scheduleID, accountID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := claimKey{scheduleID, accountID}
	if _, ok := r.claims[k]; !ok {
		return false, nil
	}
	delete(r.claims, k)
	return true, nil
}

func (r *stubRepo) Get(_ context.Context, scheduleID, accountID int64) (*Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.claims[claimKey{scheduleID, accountID}]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *stubRepo) ListBySchedule(_ context.Context, scheduleID int64) ([]Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Claim
	for k, c := range r.claims {
		if k.scheduleID == scheduleID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubRepo) ListNonClaimants(_ context.Context, _ int64) ([]Member, error) {
	return nil, nil
}

func (r *stubRepo) HistoryForAccount(_ context.Context, _ int64, _, _ string) ([]HistoryEntry, error) {
	return nil, nil
}

func (r *stubRepo) HistoryAll(_ context.Context, _, _ string) ([]HistoryEntry, error) {
	return nil, nil
}

type stubSchedules struct {
	known map[int64]bool
}

func (s *stubSchedules) Get(_ context.Context, id int64) (*schedule.Schedule, error) {
	if !s.known[id] {
		return nil, apperr.New(apperr.NotFound, "schedule not found")
	}
	return &schedule.Schedule{ID: id, MealDate: "2026-09-01", MealType: schedule.Lunch}, nil
}

func newService(repo Repo, q queue.Queue) *Service {
	return NewService(repo, &stubSchedules{known: map[int64]bool{1: true}}, nil, q, nil)
}

func TestCheckThenRecheckIsIdempotent(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo, nil)
	ctx := context.Background()

	claim, created, err := svc.Check(ctx, 1, 7, nil)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.True(t, created)

	again, created, err := svc.Check(ctx, 1, 7, nil)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.False(t, created)
	assert.Equal(t, claim.CheckedAt, again.CheckedAt, "repeat check keeps the original claim")

	claims, err := svc.Claims(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, claims, 1)
}

func TestUncheckIsIdempotent(t *testing.T) {
	svc := newService(newStubRepo(), nil)
	ctx := context.Background()

	_, created, err := svc.Check(ctx, 1, 7, nil)
	require.NoError(t, err)
	require.True(t, created)

	removed, err := svc.Uncheck(ctx, 1, 7)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.Uncheck(ctx, 1, 7)
	require.NoError(t, err)
	assert.False(t, removed, "absent claim is a no-op success")

	claims, err := svc.Claims(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestCheckUnknownSchedule(t *testing.T) {
	svc := newService(newStubRepo(), nil)
	_, _, err := svc.Check(context.Background(), 99, 7, nil)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = svc.Uncheck(context.Background(), 99, 7)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestCheckNoteTooLong(t *testing.T) {
	svc := newService(newStubRepo(), nil)
	note := strings.Repeat("x", maxNoteLength+1)
	_, _, err := svc.Check(context.Background(), 1, 7, &note)
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestConcurrentChecksApplyExactlyOnce(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo, nil)
	ctx := context.Background()

	const workers = 32
	var wg sync.WaitGroup
	createdCount := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := svc.Check(ctx, 1, 7, nil)
			assert.NoError(t, err)
			createdCount <- created
		}()
	}
	wg.Wait()
	close(createdCount)

	var applied int
	for created := range createdCount {
		if created {
			applied++
		}
	}
	assert.Equal(t, 1, applied, "exactly one racer observes the transition")

	claims, err := svc.Claims(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, claims, 1)
}

func TestAppliedTogglesPublishAudit(t *testing.T) {
	q := queue.NewInMemory(8)
	svc := newService(newStubRepo(), q)
	ctx := context.Background()

	_, created, err := svc.Check(ctx, 1, 7, nil)
	require.NoError(t, err)
	require.True(t, created)

	// A repeat check changes nothing and must not produce an event.
	_, _, err = svc.Check(ctx, 1, 7, nil)
	require.NoError(t, err)

	removed, err := svc.Uncheck(ctx, 1, 7)
	require.NoError(t, err)
	require.True(t, removed)

	consumeCtx, cancel := context.WithCancel(ctx)
	messages, err := q.Consume(consumeCtx)
	require.NoError(t, err)

	var actions []string
	for len(actions) < 2 {
		select {
		case msg := <-messages:
			require.Equal(t, "claim.audit", msg.Type)
			actions = append(actions, string(msg.Body))
		case <-time.After(time.Second):
			t.Fatal("audit events not published")
		}
	}
	cancel()

	assert.Contains(t, actions[0], `"action":"checked"`)
	assert.Contains(t, actions[1], `"action":"unchecked"`)

	select {
	case msg, open := <-messages:
		if open {
			t.Fatalf("unexpected extra audit event: %s", msg.Body)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHistoryRangeValidation(t *testing.T) {
	svc := newService(newStubRepo(), nil)
	ctx := context.Background()

	_, err := svc.AccountHistory(ctx, 7, "2026-09-02", "2026-09-01")
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = svc.AllHistory(ctx, "not-a-date", "")
	assert.True(t, apperr.Is(err, apperr.Validation))

	// Open-ended and empty bounds are fine.
	_, err = svc.AccountHistory(ctx, 7, "", "")
	assert.NoError(t, err)
	_, err = svc.AllHistory(ctx, "2026-09-01", "")
	assert.NoError(t, err)
}
