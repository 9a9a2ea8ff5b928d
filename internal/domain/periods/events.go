package periods

import "time"

type PeriodsReconciledEvent struct {
	ListingID string
	PeriodID  string
	Added     int
	Updated   int
	Deleted   int
	At        time.Time
}

func (e PeriodsReconciledEvent) EventName() string     { return "pricing.periods.reconciled" }
func (e PeriodsReconciledEvent) AggregateID() string   { return e.ListingID }
func (e PeriodsReconciledEvent) OccurredAt() time.Time { return e.At }

type PeriodDeletedEvent struct {
	ListingID string
	PeriodID  string
	At        time.Time
}

func (e PeriodDeletedEvent) EventName() string     { return "pricing.periods.deleted" }
func (e PeriodDeletedEvent) AggregateID() string   { return e.ListingID }
func (e PeriodDeletedEvent) OccurredAt() time.Time { return e.At }
