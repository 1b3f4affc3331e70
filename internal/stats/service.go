package stats

import "context"

// Repo computes aggregates from consistent snapshots.
type Repo interface {
	Summary(ctx context.Context, scheduleID int64) (ScheduleSummary, error)
	Statistics(ctx context.Context) (UserStatistics, error)
}

// SnapshotCache is the versioned cache the service consults. Keys are
// resolved up front and carried through the lookup and the store, so a
// mutation racing the store read cannot publish its pre-mutation counts
// under the post-mutation version.
type SnapshotCache interface {
	SummaryKey(ctx context.Context, scheduleID int64) string
	GetSummary(ctx context.Context, key string) (ScheduleSummary, bool)
	SetSummary(ctx context.Context, key string, s ScheduleSummary)
	StatisticsKey(ctx context.Context) string
	GetStatistics(ctx context.Context, key string) (UserStatistics, bool)
	SetStatistics(ctx context.Context, key string, st UserStatistics)
}

// Service serves aggregates, consulting the cache first.
type Service struct {
	repo  Repo
	cache SnapshotCache
}

// NewService creates a service. cache may be nil.
func NewService(repo Repo, cache SnapshotCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Summary returns {checkedCount, totalParticipants} for a schedule.
func (s *Service) Summary(ctx context.Context, scheduleID int64) (ScheduleSummary, error) {
	var key string
	if s.cache != nil {
		// Pin the versioned key before the store read; an invalidation
		// that lands mid-read orphans the write below.
		key = s.cache.SummaryKey(ctx, scheduleID)
		if sum, ok := s.cache.GetSummary(ctx, key); ok {
			return sum, nil
		}
	}
	sum, err := s.repo.Summary(ctx, scheduleID)
	if err != nil {
		return ScheduleSummary{}, err
	}
	if s.cache != nil {
		s.cache.SetSummary(ctx, key, sum)
	}
	return sum, nil
}

// Statistics returns population counts and the department grouping.
func (s *Service) Statistics(ctx context.Context) (UserStatistics, error) {
	var key string
	if s.cache != nil {
		key = s.cache.StatisticsKey(ctx)
		if st, ok := s.cache.GetStatistics(ctx, key); ok {
			return st, nil
		}
	}
	st, err := s.repo.Statistics(ctx)
	if err != nil {
		return UserStatistics{}, err
	}
	if s.cache != nil {
		s.cache.SetStatistics(ctx, key, st)
	}
	return st, nil
}
