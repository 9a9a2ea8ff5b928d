package pricing

import (
	"rentme-pricing/internal/domain/shared/daterange"
	"rentme-pricing/internal/domain/shared/money"
)

// NightlyRate is the effective price of one night. Rule and RuleID are empty
// when the base price applies. Overridden marks a price pinned by an Override,
// in which case Rule holds the override label.
type NightlyRate struct {
	Date       daterange.Date
	Price      int64
	Rule       string
	RuleID     string
	Overridden bool
}

// ResolveNightlyRate picks the winning active rule covering date.
//
// Highest priority wins. Equal priorities go to the rule with the latest
// start date, then to the smallest rule id, so the result never depends on
// rule order.
// Rule.MinNights is not consulted: every night of a stay prices the same way
// the calendar prices that day.
func ResolveNightlyRate(date daterange.Date, pc Context) NightlyRate {
	var best *Rule
	for i := range pc.Rules {
		rule := &pc.Rules[i]
		if !rule.Active || !rule.Covers(date) {
			continue
		}
		if best == nil || outranks(rule, best) {
			best = rule
		}
	}
	if best == nil {
		return NightlyRate{Date: date, Price: pc.BasePrice}
	}
	return NightlyRate{
		Date:   date,
		Price:  money.RoundHalfAwayFromZero(money.ApplyMultiplier(pc.BasePrice, best.Multiplier)),
		Rule:   best.Name,
		RuleID: best.ID,
	}
}

func outranks(a, b *Rule) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.After(b.StartDate)
	}
	return a.ID < b.ID
}
