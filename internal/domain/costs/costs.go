package costs

import (
	"errors"
	"fmt"
	"strings"

	"rentme-pricing/internal/domain/shared/money"
)

var (
	ErrLabelRequired  = errors.New("costs: label is required")
	ErrNegativeAmount = errors.New("costs: amount must be non-negative")
	ErrUnknownUnit    = errors.New("costs: unknown unit")
	ErrMaxNights      = errors.New("costs: max nights must be positive when set")
)

// Unit says what a cost definition is multiplied by.
type Unit string

const (
	PerStay          Unit = "stay"
	PerNight         Unit = "night"
	PerGuest         Unit = "guest"
	PerNightPerGuest Unit = "night_per_guest"
	PerBooking       Unit = "booking"
	PerParticipant   Unit = "participant"
)

func (u Unit) Valid() bool {
	switch u {
	case PerStay, PerNight, PerGuest, PerNightPerGuest, PerBooking, PerParticipant:
		return true
	}
	return false
}

// Flat reports whether the unit charges the amount once regardless of stay shape.
func (u Unit) Flat() bool {
	return u == PerStay || u == PerBooking
}

func (u Unit) label() string {
	switch u {
	case PerNight:
		return "per night"
	case PerGuest:
		return "per guest"
	case PerNightPerGuest:
		return "per night per guest"
	case PerParticipant:
		return "per participant"
	default:
		return "per " + string(u)
	}
}

// Category tells the revenue split where a charged line belongs.
type Category string

const (
	CategoryAdditional Category = "additional"
	CategoryCityTax    Category = "city_tax"
	CategoryExtra      Category = "extra"
)

// Definition is a fee attached to a listing. Amount is in minor units.
// MaxNights caps the nights counted for night_per_guest costs; zero means no cap.
type Definition struct {
	Code      string   `json:"code,omitempty" bson:"code,omitempty"`
	Label     string   `json:"label" bson:"label"`
	Amount    int64    `json:"amount" bson:"amount"`
	Per       Unit     `json:"per" bson:"per"`
	MaxNights int      `json:"max_nights,omitempty" bson:"max_nights,omitempty"`
	Category  Category `json:"category,omitempty" bson:"category,omitempty"`
}

func (d Definition) Validate() error {
	if strings.TrimSpace(d.Label) == "" {
		return ErrLabelRequired
	}
	if d.Amount < 0 {
		return ErrNegativeAmount
	}
	if !d.Per.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, d.Per)
	}
	if d.MaxNights < 0 {
		return ErrMaxNights
	}
	return nil
}

// Params are the stay attributes a cost may depend on.
type Params struct {
	Nights       int
	Guests       int
	Participants int
}

// Line is one evaluated cost.
type Line struct {
	Code        string   `json:"code,omitempty"`
	Label       string   `json:"label"`
	AmountCents int64    `json:"amount_cents"`
	Detail      string   `json:"detail,omitempty"`
	Category    Category `json:"category,omitempty"`
}

// Evaluate charges every definition against p, preserving input order.
// Unknown units charge nothing.
func Evaluate(defs []Definition, p Params) []Line {
	lines := make([]Line, 0, len(defs))
	for _, def := range defs {
		lines = append(lines, Line{
			Code:        def.Code,
			Label:       def.Label,
			AmountCents: charge(def, p),
			Category:    def.category(),
		})
	}
	return lines
}

// Preview renders definitions before the stay is known. Flat costs show their
// full amount; everything else is zero with a per-unit rate in Detail.
func Preview(defs []Definition, currency string) []Line {
	lines := make([]Line, 0, len(defs))
	for _, def := range defs {
		line := Line{Code: def.Code, Label: def.Label, Category: def.category()}
		if def.Per.Flat() {
			line.AmountCents = def.Amount
		} else {
			line.Detail = money.FormatMinor(def.Amount, currency) + " " + def.Per.label()
			if def.Per == PerNightPerGuest && def.MaxNights > 0 {
				line.Detail += fmt.Sprintf(", max %d nights", def.MaxNights)
			}
		}
		lines = append(lines, line)
	}
	return lines
}

// Total sums line amounts.
func Total(lines []Line) int64 {
	var total int64
	for _, line := range lines {
		total += line.AmountCents
	}
	return total
}

// TotalOf sums the lines of one category.
func TotalOf(lines []Line, category Category) int64 {
	var total int64
	for _, line := range lines {
		if line.Category == category {
			total += line.AmountCents
		}
	}
	return total
}

func charge(def Definition, p Params) int64 {
	switch def.Per {
	case PerStay, PerBooking:
		return def.Amount
	case PerNight:
		return def.Amount * int64(p.Nights)
	case PerGuest:
		return def.Amount * int64(p.Guests)
	case PerParticipant:
		count := p.Participants
		if count == 0 {
			count = p.Guests
		}
		return def.Amount * int64(count)
	case PerNightPerGuest:
		nights := p.Nights
		if def.MaxNights > 0 && nights > def.MaxNights {
			nights = def.MaxNights
		}
		return def.Amount * int64(nights) * int64(p.Guests)
	default:
		return 0
	}
}

func (d Definition) category() Category {
	if d.Category == "" {
		return CategoryAdditional
	}
	return d.Category
}
