package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentme-pricing/internal/app/middleware"
	appoutbox "rentme-pricing/internal/app/outbox"
	"rentme-pricing/internal/app/uow"
	domainlistings "rentme-pricing/internal/domain/listings"
	domainperiods "rentme-pricing/internal/domain/periods"
	domainpricing "rentme-pricing/internal/domain/pricing"
	"rentme-pricing/internal/domain/settlement"
	"rentme-pricing/internal/domain/shared/daterange"
	infraoutbox "rentme-pricing/internal/infra/outbox"
)

func newListing(t *testing.T) *domainlistings.Listing {
	t.Helper()
	l, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:       "listing-1",
		BrokerID: "broker-1",
		Pricing: domainpricing.Context{
			Model:     domainpricing.ModelPerNight,
			BasePrice: 10000,
			Currency:  "EUR",
			MaxGuests: 4,
		},
	})
	require.NoError(t, err)
	return l
}

func TestListingRepositoryVersioning(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()

	_, err := repo.ByID(ctx, "listing-1")
	assert.ErrorIs(t, err, domainlistings.ErrNotFound)

	l := newListing(t)
	require.NoError(t, repo.Save(ctx, l))
	assert.Equal(t, int64(1), l.Version)

	first, err := repo.ByID(ctx, "listing-1")
	require.NoError(t, err)
	second, err := repo.ByID(ctx, "listing-1")
	require.NoError(t, err)

	first.Title = "edited"
	require.NoError(t, repo.Save(ctx, first))
	assert.ErrorIs(t, repo.Save(ctx, second), domainlistings.ErrVersionConflict)

	stored, err := repo.ByID(ctx, "listing-1")
	require.NoError(t, err)
	assert.Equal(t, "edited", stored.Title)
	assert.Equal(t, int64(2), stored.Version)
	assert.Equal(t, []domainlistings.ListingID{"listing-1"}, repo.IDs())
}

func TestPeriodRepositoryApply(t *testing.T) {
	ctx := context.Background()
	repo := NewPeriodRepository()
	jan := func(d int) daterange.Date { return daterange.NewDate(2025, time.January, d) }

	set, err := repo.Load(ctx, "listing-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), set.Version)
	assert.Empty(t, set.Periods)

	plan := domainperiods.Plan{Add: []domainperiods.Period{domainperiods.Fixed("p1", jan(1), jan(31), 9000, "")}}
	version, err := repo.Apply(ctx, "listing-1", 0, plan)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	_, err = repo.Apply(ctx, "listing-1", 0, plan)
	assert.ErrorIs(t, err, domainperiods.ErrConcurrentUpdate)

	set, err = repo.Load(ctx, "listing-1")
	require.NoError(t, err)
	require.Len(t, set.Periods, 1)
	*set.Periods[0].Price = 1
	again, err := repo.Load(ctx, "listing-1")
	require.NoError(t, err)
	assert.Equal(t, int64(9000), *again.Periods[0].Price)
}

func TestSettingsStore(t *testing.T) {
	ctx := context.Background()
	store := NewSettingsStore()
	_, err := store.Get(ctx, "broker-1")
	assert.ErrorIs(t, err, settlement.ErrSettingsNotFound)

	err = store.Put(ctx, settlement.BrokerSettings{BrokerID: "broker-1", PlatformFeePercent: decimal.NewFromInt(120)})
	assert.ErrorIs(t, err, settlement.ErrPercentOutOfRange)

	require.NoError(t, store.Put(ctx, settlement.BrokerSettings{BrokerID: "broker-1", PlatformFeePercent: decimal.NewFromInt(15)}))
	got, err := store.Get(ctx, "broker-1")
	require.NoError(t, err)
	assert.Equal(t, "15", got.PlatformFeePercent.String())
}

func TestIdempotencyStoreExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewIdempotencyStore(time.Hour)
	store.Now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "k", Payload: []byte("{}")}))
	rec, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("{}"), rec.Payload)

	now = now.Add(time.Hour)
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOutboxClaimLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	box := NewOutbox()
	box.Now = func() time.Time { return now }

	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "e1", Name: "pricing.periods.deleted"}))
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "e2", Name: "pricing.periods.deleted"}))
	require.NoError(t, box.Flush(ctx))

	doc, err := box.Claim(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "e1", doc.ID)
	require.NoError(t, box.MarkFailed(ctx, "e1", now.Add(time.Minute), "boom"))

	doc, err = box.Claim(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "e2", doc.ID)
	require.NoError(t, box.MarkSent(ctx, "e2"))

	doc, err = box.Claim(ctx, "w1")
	require.NoError(t, err)
	assert.Nil(t, doc, "e1 not due yet")

	now = now.Add(time.Minute)
	doc, err = box.Claim(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "e1", doc.ID)
	assert.Equal(t, 1, doc.Attempts)

	entries := box.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, infraoutbox.StateClaimed, entries[0].State)
	assert.Equal(t, "boom", entries[0].LastError)
	assert.Equal(t, infraoutbox.StateSent, entries[1].State)
}

func TestFactoryBegin(t *testing.T) {
	_, err := Factory{}.Begin(context.Background(), uow.TxOptions{})
	assert.ErrorIs(t, err, ErrFactoryMisconfigured)

	unit, err := Factory{ListingsRepo: NewListingRepository(), PeriodsRepo: NewPeriodRepository()}.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	assert.NotNil(t, unit.Listings())
	assert.NotNil(t, unit.Periods())
	assert.NoError(t, unit.Commit(context.Background()))
}
