package stats

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanejj/MealCheck/internal/apperr"
)

type stubRepo struct {
	summary      ScheduleSummary
	stats        UserStatistics
	err          error
	summaryCalls int
	statsCalls   int
	onSummary    func()
}

func (r *stubRepo) Summary(_ context.Context, scheduleID int64) (ScheduleSummary, error) {
	r.summaryCalls++
	if r.onSummary != nil {
		r.onSummary()
	}
	if r.err != nil {
		return ScheduleSummary{}, r.err
	}
	s := r.summary
	s.ScheduleID = scheduleID
	return s, nil
}

func (r *stubRepo) Statistics(context.Context) (UserStatistics, error) {
	r.statsCalls++
	if r.err != nil {
		return UserStatistics{}, r.err
	}
	return r.stats, nil
}

func TestSummaryWithoutCache(t *testing.T) {
	repo := &stubRepo{summary: ScheduleSummary{CheckedCount: 3, TotalParticipants: 10}}
	svc := NewService(repo, nil)

	got, err := svc.Summary(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, ScheduleSummary{ScheduleID: 5, CheckedCount: 3, TotalParticipants: 10}, got)
	assert.Equal(t, 1, repo.summaryCalls)
}

func TestSummaryPropagatesErrors(t *testing.T) {
	repo := &stubRepo{err: apperr.New(apperr.NotFound, "schedule not found")}
	svc := NewService(repo, nil)

	_, err := svc.Summary(context.Background(), 5)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestStatisticsWithoutCache(t *testing.T) {
	repo := &stubRepo{stats: UserStatistics{
		Total:    4,
		Active:   3,
		Inactive: 1,
		Approved: 4,
		Pending:  2,
		Admins:   1,
		Members:  3,
		ByDepartment: map[string]int64{
			"kitchen":             2,
			UnspecifiedDepartment: 1,
		},
	}}
	svc := NewService(repo, nil)

	got, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, repo.stats, got)
	assert.Equal(t, int64(1), got.ByDepartment[UnspecifiedDepartment])
}

// stubCache keys entries by an explicit version counter, mirroring the
// redis cache's invalidation scheme.
type stubCache struct {
	version   int
	summaries map[string]ScheduleSummary
	stats     map[string]UserStatistics
}

func newStubCache() *stubCache {
	return &stubCache{summaries: make(map[string]ScheduleSummary), stats: make(map[string]UserStatistics)}
}

func (c *stubCache) SummaryKey(_ context.Context, scheduleID int64) string {
	return fmt.Sprintf("v%d:summary:%d", c.version, scheduleID)
}

func (c *stubCache) GetSummary(_ context.Context, key string) (ScheduleSummary, bool) {
	s, ok := c.summaries[key]
	return s, ok
}

func (c *stubCache) SetSummary(_ context.Context, key string, s ScheduleSummary) {
	c.summaries[key] = s
}

func (c *stubCache) StatisticsKey(context.Context) string {
	return fmt.Sprintf("v%d:users", c.version)
}

func (c *stubCache) GetStatistics(_ context.Context, key string) (UserStatistics, bool) {
	st, ok := c.stats[key]
	return st, ok
}

func (c *stubCache) SetStatistics(_ context.Context, key string, st UserStatistics) {
	c.stats[key] = st
}

func TestSummaryCacheHit(t *testing.T) {
	repo := &stubRepo{summary: ScheduleSummary{CheckedCount: 3, TotalParticipants: 10}}
	svc := NewService(repo, newStubCache())
	ctx := context.Background()

	first, err := svc.Summary(ctx, 5)
	require.NoError(t, err)
	second, err := svc.Summary(ctx, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.summaryCalls, "second read served from cache")
}

func TestSummaryInvalidationDuringReadOrphansWrite(t *testing.T) {
	cache := newStubCache()
	repo := &stubRepo{summary: ScheduleSummary{CheckedCount: 3, TotalParticipants: 10}}
	// An invalidation lands while the aggregate is being computed. The
	// write must stay under the key pinned before the read, never under
	// the bumped version.
	repo.onSummary = func() { cache.version++ }
	svc := NewService(repo, cache)
	ctx := context.Background()

	_, err := svc.Summary(ctx, 5)
	require.NoError(t, err)

	staleKey := "v0:summary:5"
	_, stored := cache.summaries[staleKey]
	assert.True(t, stored, "write lands under the pre-bump key")
	assert.Len(t, cache.summaries, 1)

	// The next read resolves the bumped version, misses, and recomputes.
	repo.onSummary = nil
	_, err = svc.Summary(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.summaryCalls)
}

func TestStatisticsPropagatesErrors(t *testing.T) {
	repo := &stubRepo{err: apperr.New(apperr.Storage, "connection lost")}
	svc := NewService(repo, nil)

	_, err := svc.Statistics(context.Background())
	assert.True(t, apperr.Is(err, apperr.Storage))
}
