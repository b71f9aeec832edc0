package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env      string
	HTTPAddr string
	MongoURI string
	MongoDB  string

	KafkaBrokers       []string
	KafkaTopicPrefix   string
	KafkaConsumerGroup string
	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration

	S3Endpoint       string
	S3PublicEndpoint string
	S3AccessKey      string
	S3SecretKey      string
	S3Bucket         string
	S3UseSSL         bool

	RedisAddr     string
	RedisPassword string
	LockTTL       time.Duration

	PaymentGateway      string
	RazorpayKeyID       string
	RazorpayKeySecret   string
	StripeSecretKey     string
	PaymentSigningKey   string
	GatewayTimeout      time.Duration
	Currency            string
	PlatformAccountID   string
	TrustClientPrice    bool
	CommissionPercent   int64
	DepositPercent      int64
	SettlementPercent   int64
	RefundManagerPct    int64
	JWTSecret           string
	ReconcileSchedule   string
	ReconcileBatchLimit int
}

// MemoryMode reports whether the service runs on in-process stores.
func (c Config) MemoryMode() bool {
	return c.MongoURI == ""
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:                getEnv("APP_ENV", "dev"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDB:            getEnv("MONGO_DB", "hotelbook"),
		KafkaTopicPrefix:   getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "hotelbook"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3PublicEndpoint:   getEnv("S3_PUBLIC_ENDPOINT", ""),
		S3AccessKey:        getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:        getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:           getEnv("S3_BUCKET", "hotelbook-guest-ids"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		PaymentGateway:     strings.ToLower(getEnv("PAYMENT_GATEWAY", "mock")),
		RazorpayKeyID:      os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:  os.Getenv("RAZORPAY_KEY_SECRET"),
		StripeSecretKey:    os.Getenv("STRIPE_SECRET_KEY"),
		PaymentSigningKey:  os.Getenv("PAYMENT_SIGNING_SECRET"),
		Currency:           strings.ToUpper(getEnv("CURRENCY", "INR")),
		PlatformAccountID:  getEnv("PLATFORM_ACCOUNT_ID", "platform"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		ReconcileSchedule:  getEnv("RECONCILE_SCHEDULE", "@every 5m"),
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
	if cfg.LockTTL, err = parseDurationEnv("LOCK_TTL", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.GatewayTimeout, err = parseDurationEnv("GATEWAY_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RetryBackoff, err = parseDurationList("RETRY_BACKOFF", "1s,5s,30s"); err != nil {
		return Config{}, err
	}
	if cfg.S3UseSSL, err = parseBoolEnv("S3_USE_SSL", false); err != nil {
		return Config{}, err
	}
	if cfg.TrustClientPrice, err = parseBoolEnv("TRUST_CLIENT_PRICE", false); err != nil {
		return Config{}, err
	}
	if cfg.CommissionPercent, err = parsePercentEnv("COMMISSION_PERCENT", 20); err != nil {
		return Config{}, err
	}
	if cfg.DepositPercent, err = parsePercentEnv("DEPOSIT_PERCENT", 20); err != nil {
		return Config{}, err
	}
	if cfg.SettlementPercent, err = parsePercentEnv("SETTLEMENT_MANAGER_PERCENT", 70); err != nil {
		return Config{}, err
	}
	if cfg.RefundManagerPct, err = parsePercentEnv("REFUND_MANAGER_PERCENT", 80); err != nil {
		return Config{}, err
	}
	limit, err := parsePercentEnv("RECONCILE_BATCH_LIMIT", 100)
	if err != nil {
		return Config{}, err
	}
	cfg.ReconcileBatchLimit = int(limit)
	if cfg.S3PublicEndpoint == "" {
		cfg.S3PublicEndpoint = cfg.S3Endpoint
	}

	if len(cfg.Currency) != 3 {
		return Config{}, fmt.Errorf("invalid CURRENCY %q", cfg.Currency)
	}
	if cfg.JWTSecret == "" && !isLocal(cfg.Env) {
		return Config{}, errors.New("JWT_SECRET is required outside dev")
	}
	return cfg, nil
}

func isLocal(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "local", "test":
		return true
	}
	return false
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

func parseDurationList(key, def string) ([]time.Duration, error) {
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

// parsePercentEnv reads a non-negative integer.
func parsePercentEnv(key string, def int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
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
