package memory

import (
	"context"
	"errors"

	"rentme-pricing/internal/app/uow"
	domainlistings "rentme-pricing/internal/domain/listings"
	domainperiods "rentme-pricing/internal/domain/periods"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ListingsRepo domainlistings.ListingRepository
	PeriodsRepo  domainperiods.Repository
}

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight boundary. Writes are visible immediately; the
// repositories' version checks are the only isolation.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsRepo == nil || f.PeriodsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{listings: f.ListingsRepo, periods: f.PeriodsRepo}, nil
}

type Unit struct {
	listings domainlistings.ListingRepository
	periods  domainperiods.Repository
}

func (u *Unit) Listings() domainlistings.ListingRepository { return u.listings }

func (u *Unit) Periods() domainperiods.Repository { return u.periods }

func (u *Unit) Commit(ctx context.Context) error { return nil }

func (u *Unit) Rollback(ctx context.Context) error { return nil }
