package listings

import "time"

type PricingRulesReplacedEvent struct {
	ListingID ListingID
	RuleIDs   []string
	At        time.Time
}

func (e PricingRulesReplacedEvent) EventName() string     { return "pricing.rules.replaced" }
func (e PricingRulesReplacedEvent) AggregateID() string   { return string(e.ListingID) }
func (e PricingRulesReplacedEvent) OccurredAt() time.Time { return e.At }
