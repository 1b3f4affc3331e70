package schedule

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hanejj/MealCheck/internal/apperr"
)

// Repo is the persistence surface for schedules.
type Repo interface {
	Create(ctx context.Context, s *Schedule) error
	Get(ctx context.Context, id int64) (*Schedule, error)
	ListByDate(ctx context.Context, date string) ([]Schedule, error)
	ListFrom(ctx context.Context, date string) ([]Schedule, error)
	Delete(ctx context.Context, id int64) error
}

// Invalidator is notified after schedule mutations.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Service validates and applies schedule operations.
type Service struct {
	repo  Repo
	loc   *time.Location
	inval Invalidator
}

// NewService creates a service anchored to the fixed service timezone.
func NewService(repo Repo, loc *time.Location, inval Invalidator) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc, inval: inval}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.inval != nil {
		s.inval.Invalidate(ctx)
	}
}

// Create adds a claimable meal event. Duplicate (date, type) pairs are
// allowed; each schedule is claimed independently.
func (s *Service) Create(ctx context.Context, date string, mealType MealType, description *string, createdBy int64) (*Schedule, error) {
	normalized, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	if !mealType.Valid() {
		return nil, apperr.Newf(apperr.Validation, "invalid meal type %q", mealType)
	}
	sched := &Schedule{
		MealDate:    normalized,
		MealType:    mealType,
		Description: description,
		CreatedBy:   &createdBy,
	}
	if err := s.repo.Create(ctx, sched); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	log.Info().Int64("id", sched.ID).Str("date", sched.MealDate).Str("type", string(sched.MealType)).Msg("schedule created")
	return sched, nil
}

// Get returns one schedule.
func (s *Service) Get(ctx context.Context, id int64) (*Schedule, error) {
	return s.repo.Get(ctx, id)
}

// ListByDate returns schedules for a calendar date.
func (s *Service) ListByDate(ctx context.Context, date string) ([]Schedule, error) {
	normalized, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByDate(ctx, normalized)
}

// ListUpcoming returns schedules from today onward in the service
// timezone, soonest first.
func (s *Service) ListUpcoming(ctx context.Context) ([]Schedule, error) {
	return s.repo.ListFrom(ctx, Today(s.loc))
}

// Delete removes a schedule and cascades away all its claims.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	log.Info().Int64("id", id).Msg("schedule deleted")
	return nil
}
