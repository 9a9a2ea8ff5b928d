package pricing

import (
	"errors"
	"strings"

	"rentme-pricing/internal/domain/shared/daterange"
)

var (
	ErrRuleIDRequired     = errors.New("pricing: rule id is required")
	ErrRuleNameRequired   = errors.New("pricing: rule name is required")
	ErrRuleMultiplier     = errors.New("pricing: rule multiplier must be positive")
	ErrRuleMinNights      = errors.New("pricing: rule min nights must be non-negative")
	ErrDuplicateRuleID    = errors.New("pricing: duplicate rule id")
	ErrNegativeBasePrice  = errors.New("pricing: base price must be non-negative")
	ErrNegativeCleaning   = errors.New("pricing: cleaning fee must be non-negative")
	ErrUnknownModel       = errors.New("pricing: unknown pricing model")
	ErrStayTooShort       = errors.New("pricing: stay is shorter than the listing minimum")
	ErrGuestsLimit        = errors.New("pricing: guests exceed listing capacity")
	ErrGuestsRequired     = errors.New("pricing: at least one guest is required")
	ErrCheckOutRequired   = errors.New("pricing: check-out date is required for nightly pricing")
	ErrCheckOutBeforeStay = errors.New("pricing: check-out must be after check-in")
)

// Model selects how the base price turns into a stay total.
type Model string

const (
	ModelPerNight  Model = "per_night"
	ModelPerPerson Model = "per_person"
	ModelFixed     Model = "fixed"
)

// Normalize maps the empty model to per_night.
func (m Model) Normalize() Model {
	switch Model(strings.ToLower(strings.TrimSpace(string(m)))) {
	case "", ModelPerNight:
		return ModelPerNight
	case ModelPerPerson:
		return ModelPerPerson
	case ModelFixed:
		return ModelFixed
	default:
		return m
	}
}

func (m Model) Valid() bool {
	switch m.Normalize() {
	case ModelPerNight, ModelPerPerson, ModelFixed:
		return true
	}
	return false
}

// Rule overrides the base nightly price with a multiplier over an inclusive
// range of calendar days. Multiplier 100 means 1.0x. MinNights is stored for
// the storefront; resolution ignores it.
type Rule struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	StartDate  daterange.Date `json:"start_date"`
	EndDate    daterange.Date `json:"end_date"`
	Multiplier int64          `json:"multiplier"`
	MinNights  int            `json:"min_nights,omitempty"`
	Priority   int            `json:"priority"`
	Active     bool           `json:"active"`
}

func (r Rule) Span() daterange.Span {
	return daterange.Span{Start: r.StartDate, End: r.EndDate}
}

func (r Rule) Covers(d daterange.Date) bool {
	return r.Span().Contains(d)
}

func (r Rule) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrRuleIDRequired
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrRuleNameRequired
	}
	if err := r.Span().Validate(); err != nil {
		return err
	}
	if r.Multiplier <= 0 {
		return ErrRuleMultiplier
	}
	if r.MinNights < 0 {
		return ErrRuleMinNights
	}
	return nil
}

// ValidateRules checks every rule and rejects duplicate ids.
func ValidateRules(rules []Rule) error {
	seen := make(map[string]struct{}, len(rules))
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return err
		}
		if _, dup := seen[rule.ID]; dup {
			return ErrDuplicateRuleID
		}
		seen[rule.ID] = struct{}{}
	}
	return nil
}

// Context is the per-listing pricing configuration. Amounts are minor units.
type Context struct {
	Model       Model  `json:"model"`
	BasePrice   int64  `json:"base_price"`
	CleaningFee int64  `json:"cleaning_fee"`
	Currency    string `json:"currency"`
	MaxGuests   int    `json:"max_guests"`
	MinNights   int    `json:"min_nights"`
	Rules       []Rule `json:"rules"`
}

func (c Context) Validate() error {
	if !c.Model.Valid() {
		return ErrUnknownModel
	}
	if c.BasePrice < 0 {
		return ErrNegativeBasePrice
	}
	if c.CleaningFee < 0 {
		return ErrNegativeCleaning
	}
	return ValidateRules(c.Rules)
}

// Breakdown itemizes a stay price. BaseTotal + CleaningFee + ServiceFee == Total.
type Breakdown struct {
	Nights       int      `json:"nights"`
	BaseTotal    int64    `json:"base_total"`
	CleaningFee  int64    `json:"cleaning_fee"`
	ServiceFee   int64    `json:"service_fee"`
	Total        int64    `json:"total"`
	AppliedRules []string `json:"applied_rules"`
	Currency     string   `json:"currency"`
}

// Balanced reports whether the components add up to the total.
func (b Breakdown) Balanced() bool {
	return b.BaseTotal+b.CleaningFee+b.ServiceFee == b.Total
}

func (b Breakdown) Copy() Breakdown {
	clone := b
	clone.AppliedRules = append([]string(nil), b.AppliedRules...)
	return clone
}

// Stay is a pricing request. A zero CheckOut means the guest has not picked
// an end date yet.
type Stay struct {
	CheckIn  daterange.Date
	CheckOut daterange.Date
	Guests   int
}

func (s Stay) Nights() int {
	if s.CheckIn.IsZero() || s.CheckOut.IsZero() {
		return 0
	}
	return s.CheckIn.DaysUntil(s.CheckOut)
}

// ValidateStay applies listing-level booking constraints. It is separate
// from CalculateBreakdown, which prices any stay it is given.
func ValidateStay(pc Context, stay Stay) error {
	if stay.Guests < 1 {
		return ErrGuestsRequired
	}
	if pc.MaxGuests > 0 && stay.Guests > pc.MaxGuests {
		return ErrGuestsLimit
	}
	if pc.Model.Normalize() != ModelPerNight {
		return nil
	}
	if stay.CheckOut.IsZero() {
		return ErrCheckOutRequired
	}
	nights := stay.Nights()
	if nights <= 0 {
		return ErrCheckOutBeforeStay
	}
	if pc.MinNights > 0 && nights < pc.MinNights {
		return ErrStayTooShort
	}
	return nil
}
