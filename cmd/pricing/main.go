package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"rentme-pricing/internal/app/bootstrap"
	"rentme-pricing/internal/app/middleware"
	appoutbox "rentme-pricing/internal/app/outbox"
	"rentme-pricing/internal/app/policies"
	"rentme-pricing/internal/app/uow"
	"rentme-pricing/internal/domain/costs"
	domainlistings "rentme-pricing/internal/domain/listings"
	domainpricing "rentme-pricing/internal/domain/pricing"
	"rentme-pricing/internal/domain/settlement"
	"rentme-pricing/internal/infra/broker/kafka"
	rediscache "rentme-pricing/internal/infra/cache/redis"
	"rentme-pricing/internal/infra/config"
	mongostore "rentme-pricing/internal/infra/db/mongo"
	ginserver "rentme-pricing/internal/infra/http/gin"
	"rentme-pricing/internal/infra/obs"
	infraoutbox "rentme-pricing/internal/infra/outbox"
	"rentme-pricing/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger("prod").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("pricing service failed", "error", err)
		os.Exit(1)
	}
	logger.Info("pricing service stopped")
}

// storage is everything a storage mode contributes to the buses and workers.
type storage struct {
	uow         uow.UoWFactory
	outbox      appoutbox.Outbox
	source      infraoutbox.Source
	idempotency middleware.IdempotencyStore
	settings    settlement.SettingsStore
	listings    domainlistings.ListingRepository
	brokers     *memory.SettingsStore
	checks      map[string]obs.Check
	close       func(context.Context) error
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	st, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			logger.Warn("storage close failed", "error", err)
		}
	}()

	fixturesPath := cfg.ListingsFixtures
	if fixturesPath == "" {
		fixturesPath = defaultListingFixturesPath()
	}
	if err := loadFixtures(ctx, fixturesPath, st, logger); err != nil {
		logger.Warn("listing fixtures load failed", "error", err, "path", fixturesPath)
	}

	var metrics *obs.Metrics
	if cfg.MetricsEnabled {
		metrics = obs.NewMetrics()
	}

	var settings policies.BrokerSettingsPort = settlement.Defaults{
		Store:              st.settings,
		PlatformFeePercent: cfg.DefaultPlatformFeePercent,
		WithholdingPercent: cfg.DefaultWithholdingPercent,
	}
	var invalidator policies.SettingsInvalidator
	if cfg.RedisAddr != "" {
		client := rediscache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer client.Close()
		cache := &rediscache.SettingsCache{Client: client, Next: settings, TTL: cfg.FeeCacheTTL, Logger: logger}
		settings = cache
		invalidator = cache
		st.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	deps := bootstrap.Deps{
		Logger:      logger,
		UoWFactory:  st.uow,
		Outbox:      st.outbox,
		Idempotency: st.idempotency,
		Settings:    settings,
		NewID:       uuid.NewString,
	}
	if metrics != nil {
		deps.Observer = metrics
	}
	buses := bootstrap.NewBuses(deps)

	handlers := ginserver.Handlers{
		Pricing: ginserver.PricingHandler{Queries: buses.Queries, Commands: buses.Commands},
		Periods: ginserver.PeriodsHandler{Queries: buses.Queries, Commands: buses.Commands},
	}
	if metrics != nil {
		handlers.Metrics = metrics.Handler()
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger, Metrics: metrics},
		obs.HealthHandlers{Checks: st.checks, Timeout: 2 * time.Second}, handlers)

	group, gctx := errgroup.WithContext(ctx)

	if cfg.KafkaEnabled() {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer producer.Close()

		worker := &infraoutbox.Worker{
			Source:      st.source,
			Producer:    producer,
			Logger:      logger,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
		if metrics != nil {
			worker.Observe = metrics.ObserveOutbox
		}
		group.Go(func() error { return worker.Run(gctx) })

		if invalidator != nil {
			handler := &kafka.SettingsHandler{Invalidator: invalidator, Logger: logger}
			consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, handler, logger)
			if err != nil {
				return fmt.Errorf("kafka consumer: %w", err)
			}
			defer consumer.Close()
			group.Go(func() error { return consumer.Run(gctx, []string{cfg.KafkaSettingsTopic}) })
		}
	} else {
		logger.Info("kafka disabled, outbox entries stay unpublished")
	}

	group.Go(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openStorage(ctx context.Context, cfg config.Config) (*storage, error) {
	switch cfg.StorageMode {
	case config.StorageMongo:
		return openMongo(ctx, cfg)
	default:
		listings := memory.NewListingRepository()
		brokers := memory.NewSettingsStore()
		box := memory.NewOutbox()
		return &storage{
			uow:         memory.Factory{ListingsRepo: listings, PeriodsRepo: memory.NewPeriodRepository()},
			outbox:      box,
			source:      box,
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			settings:    brokers,
			listings:    listings,
			brokers:     brokers,
			checks:      map[string]obs.Check{},
			close:       func(context.Context) error { return nil },
		}, nil
	}
}

func openMongo(ctx context.Context, cfg config.Config) (*storage, error) {
	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	periods, err := mongostore.NewPeriodRepository(ctx, client.DB)
	if err != nil {
		return nil, fmt.Errorf("mongo periods: %w", err)
	}
	box, err := infraoutbox.NewStore(ctx, client.DB)
	if err != nil {
		return nil, fmt.Errorf("mongo outbox: %w", err)
	}
	idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return nil, fmt.Errorf("mongo idempotency: %w", err)
	}
	listings := mongostore.NewListingRepository(client.DB)
	return &storage{
		uow:         mongostore.Factory{DB: client.DB, ListingsRepo: listings, PeriodsRepo: periods},
		outbox:      box,
		source:      box,
		idempotency: idem,
		settings:    mongostore.NewSettingsStore(client.DB),
		listings:    listings,
		checks:      map[string]obs.Check{"mongo": client.Ping},
		close:       client.Close,
	}, nil
}

type fixtureFile struct {
	Listings []listingFixture `json:"listings"`
	Brokers  []brokerFixture  `json:"brokers"`
}

type listingFixture struct {
	ID              string                `json:"id"`
	BrokerID        string                `json:"broker_id"`
	Title           string                `json:"title"`
	Pricing         domainpricing.Context `json:"pricing"`
	AdditionalCosts []costs.Definition    `json:"additional_costs"`
	Extras          []costs.Definition    `json:"extras"`
}

type brokerFixture struct {
	BrokerID           string `json:"broker_id"`
	PlatformFeePercent string `json:"platform_fee_percent"`
	WithholdingPercent string `json:"withholding_percent"`
}

func loadFixtures(ctx context.Context, path string, st *storage, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("listing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("listing fixtures file empty", "path", path)
		return nil
	}

	var file fixtureFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	for _, fx := range file.Listings {
		listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
			ID:              domainlistings.ListingID(fx.ID),
			BrokerID:        fx.BrokerID,
			Title:           fx.Title,
			Pricing:         fx.Pricing,
			AdditionalCosts: fx.AdditionalCosts,
			Extras:          fx.Extras,
			Now:             now,
		})
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := st.listings.Save(ctx, listing); err != nil {
			if errors.Is(err, domainlistings.ErrVersionConflict) {
				logger.Debug("fixture listing already stored", "listing_id", fx.ID)
				continue
			}
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		logger.Info("listing fixture imported", "listing_id", listing.ID)
	}

	// Broker settings are owned by the backoffice; only the in-memory store
	// accepts them from fixtures.
	if st.brokers == nil {
		return nil
	}
	for _, fx := range file.Brokers {
		settings, err := brokerSettings(fx)
		if err == nil {
			err = st.brokers.Put(ctx, settings)
		}
		if err != nil {
			logger.Error("broker fixture invalid", "broker_id", fx.BrokerID, "error", err)
		}
	}
	return nil
}

func brokerSettings(fx brokerFixture) (settlement.BrokerSettings, error) {
	fee, err := decimal.NewFromString(fx.PlatformFeePercent)
	if err != nil {
		return settlement.BrokerSettings{}, fmt.Errorf("platform_fee_percent: %w", err)
	}
	withholding, err := decimal.NewFromString(fx.WithholdingPercent)
	if err != nil {
		return settlement.BrokerSettings{}, fmt.Errorf("withholding_percent: %w", err)
	}
	return settlement.BrokerSettings{BrokerID: fx.BrokerID, PlatformFeePercent: fee, WithholdingPercent: withholding}, nil
}

func defaultListingFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "listings.json"),
		filepath.Join("..", "..", "data", "listings.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
