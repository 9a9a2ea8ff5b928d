package periods

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"rentme-pricing/internal/app/commands"
	"rentme-pricing/internal/app/dto"
	"rentme-pricing/internal/app/handlers/support"
	"rentme-pricing/internal/app/outbox"
	domainperiods "rentme-pricing/internal/domain/periods"
)

const deletePeriodKey = "pricing.periods.delete"

type DeletePricingPeriodCommand struct {
	ListingID       string
	PeriodID        string
	ExpectedVersion *int64
}

func (c DeletePricingPeriodCommand) Key() string { return deletePeriodKey }

func (c DeletePricingPeriodCommand) Validate() error {
	if strings.TrimSpace(c.ListingID) == "" || strings.TrimSpace(c.PeriodID) == "" {
		return support.Invalid("listing id and period id are required")
	}
	return nil
}

type DeletePricingPeriodHandler struct {
	Logger  *slog.Logger
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Now     func() time.Time
}

func (h *DeletePricingPeriodHandler) Handle(ctx context.Context, cmd DeletePricingPeriodCommand) (*dto.PeriodList, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	set, err := unit.Periods().Load(ctx, cmd.ListingID)
	if err != nil {
		return nil, err
	}
	if cmd.ExpectedVersion != nil && *cmd.ExpectedVersion != set.Version {
		return nil, domainperiods.ErrConcurrentUpdate
	}
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	plan, err := set.Remove(cmd.PeriodID, now)
	if err != nil {
		return nil, err
	}
	version, err := unit.Periods().Apply(ctx, cmd.ListingID, set.Version, plan)
	if err != nil {
		return nil, err
	}
	set.Committed(version)
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, set.Drain()); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("pricing period deleted", "listing_id", cmd.ListingID, "period_id", cmd.PeriodID)
	}
	return &dto.PeriodList{ListingID: cmd.ListingID, Version: version, Periods: set.Periods}, nil
}

var _ commands.Handler[DeletePricingPeriodCommand, *dto.PeriodList] = (*DeletePricingPeriodHandler)(nil)
