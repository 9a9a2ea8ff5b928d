package daterange

import (
	"errors"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
	ErrInvertedSpan = errors.New("daterange: end date must not be before start date")
)

// DateRange represents a stay as the half-open interval [CheckIn, CheckOut).
// Each day in the range is one night.
type DateRange struct {
	CheckIn  Date
	CheckOut Date
}

func New(checkIn, checkOut Date) (DateRange, error) {
	dr := DateRange{CheckIn: checkIn, CheckOut: checkOut}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	if dr.CheckIn.IsZero() || dr.CheckOut.IsZero() {
		return 0
	}
	return dr.CheckIn.DaysUntil(dr.CheckOut)
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) ContainsDate(d Date) bool {
	return !d.Before(dr.CheckIn) && d.Before(dr.CheckOut)
}

// Span is an inclusive [Start, End] run of calendar days, used by calendar
// overrides and pricing rules.
type Span struct {
	Start Date
	End   Date
}

func (s Span) Validate() error {
	if s.Start.IsZero() || s.End.IsZero() {
		return ErrInvertedSpan
	}
	if s.End.Before(s.Start) {
		return ErrInvertedSpan
	}
	return nil
}

func (s Span) Contains(d Date) bool {
	return !d.Before(s.Start) && !d.After(s.End)
}

func (s Span) Overlaps(other Span) bool {
	return !other.End.Before(s.Start) && !other.Start.After(s.End)
}

// Covers reports whether s includes every day of other.
func (s Span) Covers(other Span) bool {
	return !s.Start.After(other.Start) && !s.End.Before(other.End)
}

// Days is the number of calendar days in the span, both ends included.
func (s Span) Days() int {
	return s.Start.DaysUntil(s.End) + 1
}
