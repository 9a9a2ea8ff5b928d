package bootstrap

import (
	"log/slog"
	"time"

	"rentme-pricing/internal/app/commands"
	"rentme-pricing/internal/app/dto"
	periodsapp "rentme-pricing/internal/app/handlers/periods"
	pricingapp "rentme-pricing/internal/app/handlers/pricing"
	"rentme-pricing/internal/app/middleware"
	"rentme-pricing/internal/app/outbox"
	"rentme-pricing/internal/app/policies"
	"rentme-pricing/internal/app/queries"
	"rentme-pricing/internal/app/uow"
)

// Deps are the ports the pricing handlers run against.
type Deps struct {
	Logger      *slog.Logger
	UoWFactory  uow.UoWFactory
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	Idempotency middleware.IdempotencyStore
	Settings    policies.BrokerSettingsPort
	// Observer is optional.
	Observer middleware.Observer
	NewID    func() string
	Now      func() time.Time
}

type Buses struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// NewBuses registers every pricing handler and wraps both buses in the
// middleware chain: metrics, validation, idempotency, transaction, outbox.
func NewBuses(d Deps) Buses {
	if d.Encoder == nil {
		d.Encoder = outbox.JSONEventEncoder{}
	}

	commandBus := commands.NewInMemoryBus()
	commands.Register[periodsapp.ReconcilePricingPeriodCommand, *dto.PeriodPlan](commandBus, &periodsapp.ReconcilePricingPeriodHandler{
		Logger: d.Logger, Outbox: d.Outbox, Encoder: d.Encoder, NewID: d.NewID, Now: d.Now,
	})
	commands.Register[periodsapp.DeletePricingPeriodCommand, *dto.PeriodList](commandBus, &periodsapp.DeletePricingPeriodHandler{
		Logger: d.Logger, Outbox: d.Outbox, Encoder: d.Encoder, Now: d.Now,
	})
	commands.Register[pricingapp.SetPricingRulesCommand, *dto.PricingRules](commandBus, &pricingapp.SetPricingRulesHandler{
		Logger: d.Logger, Outbox: d.Outbox, Encoder: d.Encoder, Now: d.Now,
	})

	queryBus := queries.NewInMemoryBus()
	queries.Register[pricingapp.QuoteStayQuery, dto.Quote](queryBus, &pricingapp.QuoteStayHandler{
		Logger: d.Logger, UoWFactory: d.UoWFactory, Settings: d.Settings,
	})
	queries.Register[pricingapp.PreviewCostsQuery, dto.CostPreview](queryBus, &pricingapp.PreviewCostsHandler{UoWFactory: d.UoWFactory})
	queries.Register[pricingapp.GetPriceCalendarQuery, dto.PriceCalendar](queryBus, &pricingapp.GetPriceCalendarHandler{UoWFactory: d.UoWFactory})
	queries.Register[pricingapp.CalculatePayoutQuery, dto.Payout](queryBus, &pricingapp.CalculatePayoutHandler{Settings: d.Settings})
	queries.Register[periodsapp.ListPricingPeriodsQuery, dto.PeriodList](queryBus, &periodsapp.ListPricingPeriodsHandler{UoWFactory: d.UoWFactory})

	var cmdMW []middleware.CommandMiddleware
	var queryMW []middleware.QueryMiddleware
	if d.Observer != nil {
		cmdMW = append(cmdMW, middleware.CommandMetrics(d.Observer))
		queryMW = append(queryMW, middleware.QueryMetrics(d.Observer))
	}
	cmdMW = append(cmdMW, middleware.Validation(middleware.SelfValidator{}))
	if d.Idempotency != nil {
		cmdMW = append(cmdMW, middleware.Idempotency(d.Idempotency, nil))
	}
	cmdMW = append(cmdMW, middleware.Transaction(d.UoWFactory))
	if d.Outbox != nil {
		cmdMW = append(cmdMW, middleware.OutboxFlush(d.Outbox))
	}
	queryMW = append(queryMW, middleware.QueryValidation(middleware.SelfValidator{}))

	return Buses{
		Commands: middleware.ChainCommands(commandBus, cmdMW...),
		Queries:  middleware.ChainQueries(queryBus, queryMW...),
	}
}
