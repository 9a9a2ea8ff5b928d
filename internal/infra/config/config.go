package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// Config aggregates application configuration loaded from environment variables.
type Config struct {
	Env              string
	HTTPAddr         string
	StorageMode      string
	MongoURI         string
	MongoDB          string
	ListingsFixtures string

	KafkaBrokers       []string
	KafkaTopicPrefix   string
	KafkaSettingsTopic string
	KafkaGroupID       string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration

	IdempotencyTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	FeeCacheTTL   time.Duration

	DefaultPlatformFeePercent decimal.Decimal
	DefaultWithholdingPercent decimal.Decimal

	MetricsEnabled  bool
	ShutdownTimeout time.Duration
}

func Load() (Config, error) {
	cfg := Config{
		Env:                getEnv("APP_ENV", "dev"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		StorageMode:        strings.ToLower(getEnv("STORAGE_MODE", StorageMemory)),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDB:            getEnv("MONGO_DB", "pricing"),
		ListingsFixtures:   os.Getenv("LISTINGS_FIXTURES"),
		KafkaTopicPrefix:   getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaSettingsTopic: getEnv("KAFKA_SETTINGS_TOPIC", "settings.events.v1"),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "rentme-pricing"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var err error
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 168*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.FeeCacheTTL, err = parseDurationEnv("FEE_CACHE_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = parseDurationEnv("SHUTDOWN_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RetryBackoff, err = parseDurationListEnv("RETRY_BACKOFF", "1s,5s,30s"); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.MetricsEnabled, err = parseBoolEnv("METRICS_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.DefaultPlatformFeePercent, err = parsePercentEnv("DEFAULT_PLATFORM_FEE_PERCENT", "10"); err != nil {
		return Config{}, err
	}
	if cfg.DefaultWithholdingPercent, err = parsePercentEnv("DEFAULT_WITHHOLDING_PERCENT", "0"); err != nil {
		return Config{}, err
	}

	switch cfg.StorageMode {
	case StorageMemory:
	case StorageMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when STORAGE_MODE=mongo")
		}
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_MODE %q", cfg.StorageMode)
	}
	return cfg, nil
}

// KafkaEnabled reports whether the outbox worker and settings consumer run.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseDurationListEnv(key, def string) ([]time.Duration, error) {
	var out []time.Duration
	for _, raw := range strings.Split(getEnv(key, def), ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("invalid %s component %q: %w", key, raw, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}

func parsePercentEnv(key, def string) (decimal.Decimal, error) {
	pct, err := decimal.NewFromString(strings.TrimSpace(getEnv(key, def)))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s percentage: %w", key, err)
	}
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, fmt.Errorf("%s must be within 0..100", key)
	}
	return pct, nil
}
