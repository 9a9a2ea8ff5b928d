package uow

import (
	"context"

	domainlistings "rentme-pricing/internal/domain/listings"
	domainperiods "rentme-pricing/internal/domain/periods"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Listings() domainlistings.ListingRepository
	Periods() domainperiods.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}
