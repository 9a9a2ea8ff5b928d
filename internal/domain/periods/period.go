package periods

import (
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"rentme-pricing/internal/domain/shared/daterange"
	"rentme-pricing/internal/domain/shared/money"
)

var (
	ErrPriceOrPercentage = errors.New("periods: exactly one of price or percentage must be set")
	ErrNegativePrice     = errors.New("periods: price must be non-negative")
	ErrPercentageRange   = errors.New("periods: percentage adjustment must be greater than -100")
	ErrPeriodNotFound    = errors.New("periods: period not found")
	ErrConcurrentUpdate  = errors.New("periods: period set was modified concurrently")
)

var minusHundred = decimal.NewFromInt(-100)

// Period is a calendar override. It either pins an absolute nightly price or
// adjusts the base price by a percentage. Dates are inclusive.
type Period struct {
	ID         string           `json:"id"`
	StartDate  daterange.Date   `json:"start_date"`
	EndDate    daterange.Date   `json:"end_date"`
	Price      *int64           `json:"price,omitempty"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
	Label      string           `json:"label,omitempty"`
}

func (p Period) Span() daterange.Span {
	return daterange.Span{Start: p.StartDate, End: p.EndDate}
}

// Validate checks the period shape. An empty ID is allowed; Reconcile assigns one.
func (p Period) Validate() error {
	if err := p.Span().Validate(); err != nil {
		return err
	}
	if (p.Price == nil) == (p.Percentage == nil) {
		return ErrPriceOrPercentage
	}
	if p.Price != nil && *p.Price < 0 {
		return ErrNegativePrice
	}
	if p.Percentage != nil && !p.Percentage.GreaterThan(minusHundred) {
		return ErrPercentageRange
	}
	return nil
}

// NightlyPrice is the price of one night covered by the period.
func (p Period) NightlyPrice(base int64) int64 {
	if p.Price != nil {
		return *p.Price
	}
	if p.Percentage != nil {
		return money.RoundHalfAwayFromZero(money.Scale(base, *p.Percentage))
	}
	return base
}

// Clone deep-copies the value pointers.
func (p Period) Clone() Period {
	out := p
	if p.Price != nil {
		price := *p.Price
		out.Price = &price
	}
	if p.Percentage != nil {
		pct := *p.Percentage
		out.Percentage = &pct
	}
	return out
}

func (p Period) withRange(start, end daterange.Date) Period {
	out := p.Clone()
	out.StartDate = start
	out.EndDate = end
	return out
}

// Fixed builds a period pinned to an absolute price.
func Fixed(id string, start, end daterange.Date, price int64, label string) Period {
	return Period{ID: id, StartDate: start, EndDate: end, Price: &price, Label: strings.TrimSpace(label)}
}

// Adjusted builds a period that scales the base price by pct percent.
func Adjusted(id string, start, end daterange.Date, pct decimal.Decimal, label string) Period {
	return Period{ID: id, StartDate: start, EndDate: end, Percentage: &pct, Label: strings.TrimSpace(label)}
}

// At returns the period covering d, if any. The set is assumed non-overlapping.
func At(set []Period, d daterange.Date) (Period, bool) {
	for _, p := range set {
		if p.Span().Contains(d) {
			return p, true
		}
	}
	return Period{}, false
}

// Overlapping reports whether any two periods share a day.
func Overlapping(set []Period) bool {
	sorted := Sorted(set)
	for i := 1; i < len(sorted); i++ {
		if !sorted[i].StartDate.After(sorted[i-1].EndDate) {
			return true
		}
	}
	return false
}

// Sorted returns a copy ordered by start date, then id.
func Sorted(set []Period) []Period {
	out := make([]Period, len(set))
	copy(out, set)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Calendar adapts a non-overlapping period set to pricing.Override.
type Calendar []Period

func (c Calendar) Override(d daterange.Date, base int64) (int64, string, bool) {
	p, ok := At(c, d)
	if !ok {
		return 0, "", false
	}
	label := p.Label
	if label == "" {
		label = "period " + p.ID
	}
	return p.NightlyPrice(base), label, true
}
