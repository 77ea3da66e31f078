package app

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	ProviderRazorpay = "razorpay"
	ProviderStripe   = "stripe"
	ProviderFake     = "fake"
)

type Config struct {
	Port             int
	Env              string
	Store            string
	Migrate          bool
	OtelCollectorUrl string
	DB               DBConfig
	Redis            RedisConfig
	Booking          BookingConfig
	Payment          PaymentConfig
	SMTP             SMTPConfig
	Events           EventsConfig
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleTime  time.Duration
}

type RedisConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

type BookingConfig struct {
	HoldTTL   time.Duration
	MaxSeats  int
	UnitPrice decimal.Decimal
	Currency  string
}

type PaymentConfig struct {
	Provider  string
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
	StripeKey string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
	OpsEmail string
}

type EventsConfig struct {
	RabbitMQURL       string
	MongoURI          string
	OutboxInterval    time.Duration
	ReconcileInterval time.Duration
}

// parseConfig reads flags from args. Every flag defaults to its environment
// variable, which may come from a .env file.
func parseConfig(fs *flag.FlagSet, args []string) (Config, bool, error) {
	_ = godotenv.Load()

	var (
		cfg       Config
		unitPrice string
	)

	fs.IntVar(&cfg.Port, "port", envInt("PORT", 3000), "server port")
	fs.StringVar(&cfg.Env, "env", envString("ENV", "dev"), "Environment (dev|staging|prod)")
	fs.StringVar(&cfg.Store, "store", envString("STORE", StorePostgres), "Storage backend (postgres|memory)")
	fs.BoolVar(&cfg.Migrate, "migrate", envBool("MIGRATE", false), "Apply database migrations on startup")
	fs.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", envString("OTEL_COLLECTOR_URL", ""), "OpenTelemetry collector endpoint")

	fs.StringVar(&cfg.DB.DSN, "db-dsn", envString("DB_DSN", ""), "PostgreSQL DSN")
	fs.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", envInt("DB_MAX_OPEN_CONNS", 25), "PostgreSQL max open connections")
	fs.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", envDuration("DB_MAX_IDLE_TIME", 15*time.Minute), "PostgreSQL max idle time for connections")

	fs.StringVar(&cfg.Redis.URL, "redis-url", envString("REDIS_URL", ""), "Redis URL")
	fs.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", envInt("REDIS_MAX_OPEN_CONNS", 25), "Redis max open connections")
	fs.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", envInt("REDIS_MAX_IDLE_CONNS", 10), "Redis max idle connections")
	fs.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", envDuration("REDIS_MAX_IDLE_TIME", 2*time.Minute), "Redis max idle time for connections")

	fs.DurationVar(&cfg.Booking.HoldTTL, "hold-ttl", envDuration("HOLD_TTL", 10*time.Minute), "How long quoted seats stay held")
	fs.IntVar(&cfg.Booking.MaxSeats, "max-seats", envInt("MAX_SEATS", 10), "Maximum seats per booking")
	fs.StringVar(&unitPrice, "unit-price", envString("UNIT_PRICE", "150"), "Price of one seat in major currency units")
	fs.StringVar(&cfg.Booking.Currency, "currency", envString("CURRENCY", "INR"), "ISO currency code")

	fs.StringVar(&cfg.Payment.Provider, "payment-provider", envString("PAYMENT_PROVIDER", ProviderRazorpay), "Payment provider (razorpay|stripe|fake)")
	fs.StringVar(&cfg.Payment.KeyID, "payment-key-id", envString("PAYMENT_KEY_ID", ""), "Payment provider key id")
	fs.StringVar(&cfg.Payment.KeySecret, "payment-key-secret", envString("PAYMENT_KEY_SECRET", ""), "Payment provider key secret, also used to verify signatures")
	fs.StringVar(&cfg.Payment.BaseURL, "payment-base-url", envString("PAYMENT_BASE_URL", ""), "Payment provider API base URL")
	fs.DurationVar(&cfg.Payment.Timeout, "payment-timeout", envDuration("PAYMENT_TIMEOUT", 10*time.Second), "Payment provider request timeout")
	fs.StringVar(&cfg.Payment.StripeKey, "stripe-key", envString("STRIPE_KEY", ""), "Stripe secret key")

	fs.StringVar(&cfg.SMTP.Host, "smtp-host", envString("SMTP_HOST", ""), "SMTP host")
	fs.IntVar(&cfg.SMTP.Port, "smtp-port", envInt("SMTP_PORT", 2525), "SMTP port")
	fs.StringVar(&cfg.SMTP.Username, "smtp-username", envString("SMTP_USERNAME", ""), "SMTP username")
	fs.StringVar(&cfg.SMTP.Password, "smtp-password", envString("SMTP_PASSWORD", ""), "SMTP password")
	fs.StringVar(&cfg.SMTP.Sender, "smtp-sender", envString("SMTP_SENDER", "Cinema Bookings <no-reply@example.com>"), "SMTP sender")
	fs.StringVar(&cfg.SMTP.OpsEmail, "ops-email", envString("OPS_EMAIL", ""), "Recipient of reconciliation notices")

	fs.StringVar(&cfg.Events.RabbitMQURL, "rabbitmq-url", envString("RABBITMQ_URL", ""), "RabbitMQ URL for the outbox relay")
	fs.StringVar(&cfg.Events.MongoURI, "mongo-uri", envString("MONGO_URI", ""), "MongoDB URI for the audit trail")
	fs.DurationVar(&cfg.Events.OutboxInterval, "outbox-interval", envDuration("OUTBOX_INTERVAL", 2*time.Second), "Outbox relay interval")
	fs.DurationVar(&cfg.Events.ReconcileInterval, "reconcile-interval", envDuration("RECONCILE_INTERVAL", time.Minute), "Ledger repair interval")

	displayVersion := fs.Bool("version", false, "Display version and exit")

	err := fs.Parse(args)
	if err != nil {
		return cfg, false, err
	}

	cfg.Booking.UnitPrice, err = decimal.NewFromString(unitPrice)
	if err != nil {
		return cfg, false, err
	}

	if cfg.Booking.HoldTTL < time.Millisecond {
		return cfg, false, fmt.Errorf("hold-ttl must be at least 1ms, got %s", cfg.Booking.HoldTTL)
	}

	return cfg, *displayVersion, nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}

	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}

	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}

	return fallback
}
