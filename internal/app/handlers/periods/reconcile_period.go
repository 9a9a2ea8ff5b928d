package periods

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentme-pricing/internal/app/commands"
	"rentme-pricing/internal/app/dto"
	"rentme-pricing/internal/app/handlers/support"
	"rentme-pricing/internal/app/middleware"
	"rentme-pricing/internal/app/outbox"
	domainlistings "rentme-pricing/internal/domain/listings"
	domainperiods "rentme-pricing/internal/domain/periods"
)

const reconcilePeriodKey = "pricing.periods.reconcile"

// ReconcilePricingPeriodCommand inserts or edits a calendar period. With
// DryRun the plan is computed against the stored set and nothing is written.
type ReconcilePricingPeriodCommand struct {
	ListingID       string
	Period          domainperiods.Period
	DryRun          bool
	ExpectedVersion *int64
	IdempotencyKeyV string
}

func (c ReconcilePricingPeriodCommand) Key() string { return reconcilePeriodKey }

// IdempotencyKey is scoped to the listing so a client key reused on another
// listing never replays the first listing's plan.
func (c ReconcilePricingPeriodCommand) IdempotencyKey() string {
	if c.DryRun || c.IdempotencyKeyV == "" {
		return ""
	}
	return c.ListingID + ":" + c.IdempotencyKeyV
}

// ReadOnly runs dry runs in a read-only unit that is never committed.
func (c ReconcilePricingPeriodCommand) ReadOnly() bool { return c.DryRun }

func (c ReconcilePricingPeriodCommand) ResultPrototype() any { return &dto.PeriodPlan{} }

func (c ReconcilePricingPeriodCommand) Validate() error {
	if strings.TrimSpace(c.ListingID) == "" {
		return support.Invalid("listing id is required")
	}
	return support.InvalidErr(c.Period.Validate())
}

type ReconcilePricingPeriodHandler struct {
	Logger  *slog.Logger
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	NewID   func() string
	Now     func() time.Time
}

func (h *ReconcilePricingPeriodHandler) Handle(ctx context.Context, cmd ReconcilePricingPeriodCommand) (*dto.PeriodPlan, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID)); err != nil {
		return nil, err
	}
	set, err := unit.Periods().Load(ctx, cmd.ListingID)
	if err != nil {
		return nil, err
	}
	if cmd.ExpectedVersion != nil && *cmd.ExpectedVersion != set.Version {
		return nil, domainperiods.ErrConcurrentUpdate
	}

	plan, err := set.Upsert(cmd.Period, h.newID, h.now())
	if err != nil {
		return nil, support.InvalidErr(err)
	}
	result := &dto.PeriodPlan{ListingID: cmd.ListingID, DryRun: cmd.DryRun, Plan: plan, Periods: set.Periods}
	if cmd.DryRun {
		result.Version = set.Version
		return result, nil
	}

	version, err := unit.Periods().Apply(ctx, cmd.ListingID, set.Version, plan)
	if err != nil {
		return nil, err
	}
	set.Committed(version)
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, set.Drain()); err != nil {
		return nil, err
	}
	result.Version = version

	if h.Logger != nil {
		h.Logger.Info("pricing period reconciled",
			"listing_id", cmd.ListingID,
			"added", len(plan.Add),
			"updated", len(plan.Update),
			"deleted", len(plan.Delete),
			"version", version,
		)
	}
	return result, nil
}

func (h *ReconcilePricingPeriodHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

func (h *ReconcilePricingPeriodHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

var _ commands.Handler[ReconcilePricingPeriodCommand, *dto.PeriodPlan] = (*ReconcilePricingPeriodHandler)(nil)
var _ middleware.IdempotentCommand = ReconcilePricingPeriodCommand{}
