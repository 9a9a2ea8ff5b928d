package periods

import (
	"context"
	"strings"

	"rentme-pricing/internal/app/dto"
	"rentme-pricing/internal/app/handlers/support"
	"rentme-pricing/internal/app/queries"
	"rentme-pricing/internal/app/uow"
	domainlistings "rentme-pricing/internal/domain/listings"
)

const listPeriodsKey = "pricing.periods.list"

type ListPricingPeriodsQuery struct {
	ListingID string
}

func (q ListPricingPeriodsQuery) Key() string { return listPeriodsKey }

func (q ListPricingPeriodsQuery) Validate() error {
	if strings.TrimSpace(q.ListingID) == "" {
		return support.Invalid("listing id is required")
	}
	return nil
}

type ListPricingPeriodsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListPricingPeriodsHandler) Handle(ctx context.Context, q ListPricingPeriodsQuery) (dto.PeriodList, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PeriodList{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	if _, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID)); err != nil {
		return dto.PeriodList{}, err
	}
	set, err := unit.Periods().Load(execCtx, q.ListingID)
	if err != nil {
		return dto.PeriodList{}, err
	}
	return dto.PeriodList{ListingID: q.ListingID, Version: set.Version, Periods: set.Periods}, nil
}

var _ queries.Handler[ListPricingPeriodsQuery, dto.PeriodList] = (*ListPricingPeriodsHandler)(nil)
