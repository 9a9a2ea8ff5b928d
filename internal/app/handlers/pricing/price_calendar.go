package pricing

import (
	"context"
	"strings"

	"rentme-pricing/internal/app/dto"
	"rentme-pricing/internal/app/handlers/support"
	"rentme-pricing/internal/app/queries"
	"rentme-pricing/internal/app/uow"
	domainlistings "rentme-pricing/internal/domain/listings"
	domainperiods "rentme-pricing/internal/domain/periods"
	domainpricing "rentme-pricing/internal/domain/pricing"
	"rentme-pricing/internal/domain/shared/daterange"
)

const priceCalendarKey = "pricing.calendar"

// MaxCalendarDays bounds a single calendar request.
const MaxCalendarDays = 366

type GetPriceCalendarQuery struct {
	ListingID string
	From      daterange.Date
	To        daterange.Date
}

func (q GetPriceCalendarQuery) Key() string { return priceCalendarKey }

func (q GetPriceCalendarQuery) Validate() error {
	if strings.TrimSpace(q.ListingID) == "" {
		return support.Invalid("listing id is required")
	}
	span := daterange.Span{Start: q.From, End: q.To}
	if err := span.Validate(); err != nil {
		return support.Invalid("from/to: %v", err)
	}
	if span.Days() > MaxCalendarDays {
		return support.Invalid("calendar is limited to %d days", MaxCalendarDays)
	}
	return nil
}

// GetPriceCalendarHandler shows the nightly price of each day in an inclusive
// range, as a one-night stay starting that day would be charged.
type GetPriceCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetPriceCalendarHandler) Handle(ctx context.Context, q GetPriceCalendarQuery) (dto.PriceCalendar, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PriceCalendar{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.PriceCalendar{}, err
	}
	set, err := unit.Periods().Load(execCtx, q.ListingID)
	if err != nil {
		return dto.PriceCalendar{}, err
	}

	stay := domainpricing.Stay{CheckIn: q.From, CheckOut: q.To.AddDays(1), Guests: 1}
	calendar := domainperiods.Calendar(set.Periods)
	rates := make([]domainpricing.NightlyRate, 0, stay.Nights())
	for d := q.From; !d.After(q.To); d = d.AddDays(1) {
		night := domainpricing.Stay{CheckIn: d, CheckOut: d.AddDays(1), Guests: 1}
		rates = append(rates, domainpricing.NightlyPricesWith(night, listing.Pricing, calendar)...)
	}

	return dto.PriceCalendar{
		ListingID: string(listing.ID),
		Currency:  listing.Pricing.Currency,
		From:      q.From,
		To:        q.To,
		Days:      dto.MapNightlyPrices(rates),
	}, nil
}

var _ queries.Handler[GetPriceCalendarQuery, dto.PriceCalendar] = (*GetPriceCalendarHandler)(nil)
