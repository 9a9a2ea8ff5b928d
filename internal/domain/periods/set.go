package periods

import (
	"context"
	"time"

	"rentme-pricing/internal/domain/shared/events"
)

// Set is the listing's period calendar. Version increments on every applied
// plan and guards against concurrent editors.
type Set struct {
	ListingID string
	Periods   []Period
	Version   int64
	events.EventRecorder
}

// Repository persists period sets. Apply must write the whole plan atomically
// and fail with ErrConcurrentUpdate when the stored version differs from
// expectedVersion. It returns the new version.
type Repository interface {
	Load(ctx context.Context, listingID string) (*Set, error)
	Apply(ctx context.Context, listingID string, expectedVersion int64, plan Plan) (int64, error)
}

func NewSet(listingID string, version int64, periods []Period) *Set {
	return &Set{ListingID: listingID, Periods: Sorted(periods), Version: version}
}

// Upsert plans incoming against the current periods, applies it in memory
// and records the change.
func (s *Set) Upsert(incoming Period, newID func() string, now time.Time) (Plan, error) {
	if err := incoming.Validate(); err != nil {
		return Plan{}, err
	}
	plan := Reconcile(incoming, s.Periods, newID)
	s.Periods = plan.Apply(s.Periods)
	s.Record(PeriodsReconciledEvent{
		ListingID: s.ListingID,
		Added:     len(plan.Add),
		Updated:   len(plan.Update),
		Deleted:   len(plan.Delete),
		PeriodID:  plan.Add[len(plan.Add)-1].ID,
		At:        now.UTC(),
	})
	return plan, nil
}

// Remove deletes a single period.
func (s *Set) Remove(id string, now time.Time) (Plan, error) {
	if _, ok := s.find(id); !ok {
		return Plan{}, ErrPeriodNotFound
	}
	plan := Plan{Delete: []string{id}}
	s.Periods = plan.Apply(s.Periods)
	s.Record(PeriodDeletedEvent{ListingID: s.ListingID, PeriodID: id, At: now.UTC()})
	return plan, nil
}

// Committed records the version the store assigned after Apply.
func (s *Set) Committed(version int64) {
	s.Version = version
}

func (s *Set) find(id string) (Period, bool) {
	for _, p := range s.Periods {
		if p.ID == id {
			return p, true
		}
	}
	return Period{}, false
}
