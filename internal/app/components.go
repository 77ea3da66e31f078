package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/audit"
	"github.com/metinatakli/cinema-seat-booking/internal/broadcast"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/hold"
	"github.com/metinatakli/cinema-seat-booking/internal/mailer"
	"github.com/metinatakli/cinema-seat-booking/internal/memstore"
	"github.com/metinatakli/cinema-seat-booking/internal/outbox"
	"github.com/metinatakli/cinema-seat-booking/internal/payment"
	"github.com/metinatakli/cinema-seat-booking/internal/rabbit"
	"github.com/metinatakli/cinema-seat-booking/internal/repository"
	"github.com/metinatakli/cinema-seat-booking/internal/reservation"
	"github.com/metinatakli/cinema-seat-booking/internal/worker"
	"github.com/redis/go-redis/v9"
)

const (
	broadcastQueueSize = 256
	outboxBatchSize    = 100
	ledgerRepairGrace  = 30 * time.Second
)

// components holds the stores and adapters selected by the configuration.
type components struct {
	inventory       domain.InventoryStore
	ledger          domain.BookingLedger
	users           domain.UserRepository
	holds           domain.HoldStore
	reconciliations domain.ReconciliationRepository
	outbox          domain.OutboxRepository
	audit           domain.AuditLogger

	hub         *broadcast.Hub
	broadcaster domain.Broadcaster
	bridge      *broadcast.RedisBridge
	publisher   *rabbit.Publisher

	closers []func()
}

func newComponents(ctx context.Context, cfg Config, logger *slog.Logger) (*components, error) {
	c := &components{
		hub:   broadcast.NewHub(logger, broadcast.DefaultBufferSize),
		audit: audit.NopAuditLogger{},
	}
	c.broadcaster = c.hub

	var err error

	switch cfg.Store {
	case StoreMemory:
		c.useMemory()
	case StorePostgres:
		err = c.usePostgres(cfg, logger)
	default:
		err = fmt.Errorf("unknown store %q", cfg.Store)
	}

	if err != nil {
		c.close()
		return nil, err
	}

	if cfg.Events.MongoURI != "" {
		client, err := audit.Connect(ctx, cfg.Events.MongoURI)
		if err != nil {
			c.close()
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}

		c.closers = append(c.closers, func() { _ = client.Disconnect(context.Background()) })
		c.audit = audit.NewMongoAuditLogger(client.Database(serviceName), logger)
	}

	if cfg.Events.RabbitMQURL != "" && c.outbox != nil {
		c.publisher, err = rabbit.Dial(cfg.Events.RabbitMQURL)
		if err != nil {
			c.close()
			return nil, err
		}

		c.closers = append(c.closers, func() { _ = c.publisher.Close() })
	}

	return c, nil
}

func (c *components) useMemory() {
	store := memstore.New()

	c.inventory = store.Inventory
	c.ledger = store.Ledger
	c.users = store.Users
	c.holds = store.Holds
	c.reconciliations = store.Reconciliations
}

func (c *components) usePostgres(cfg Config, logger *slog.Logger) error {
	if cfg.Migrate {
		err := RunMigrations(cfg.DB.DSN)
		if err != nil {
			return err
		}
	}

	db, err := NewDatabasePool(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	c.closers = append(c.closers, db.Close)

	redisClient, err := NewRedisClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.closers = append(c.closers, func() { _ = redisClient.Close() })

	c.withPostgres(db)
	c.withRedis(redisClient, logger)

	return nil
}

func (c *components) withPostgres(db *pgxpool.Pool) {
	c.inventory = repository.NewPostgresInventoryRepository(db)
	c.ledger = repository.NewPostgresLedgerRepository(db)
	c.users = repository.NewPostgresUserRepository(db)
	c.reconciliations = repository.NewPostgresReconciliationRepository(db)
	c.outbox = repository.NewPostgresOutboxRepository(db)
}

func (c *components) withRedis(client redis.UniversalClient, logger *slog.Logger) {
	c.holds = hold.NewRedisStore(client)
	c.bridge = broadcast.NewRedisBridge(client, c.hub, logger, broadcastQueueSize)
	c.broadcaster = c.bridge
}

func (c *components) coordinator(cfg Config, logger *slog.Logger) (*reservation.Coordinator, error) {
	gateway, err := newPaymentGateway(cfg.Payment)
	if err != nil {
		return nil, err
	}

	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender)

	return reservation.NewCoordinator(
		reservation.Config{
			HoldTTL:        cfg.Booking.HoldTTL,
			MaxSeats:       cfg.Booking.MaxSeats,
			UnitPrice:      cfg.Booking.UnitPrice,
			Currency:       cfg.Booking.Currency,
			PaymentTimeout: cfg.Payment.Timeout,
		},
		reservation.Deps{
			Inventory:       c.inventory,
			Ledger:          c.ledger,
			Users:           c.users,
			Holds:           c.holds,
			Gateway:         gateway,
			Verifier:        payment.NewHMACVerifier(cfg.Payment.KeySecret),
			Broadcaster:     c.broadcaster,
			Reconciliations: c.reconciliations,
			Notifier:        mailer.NewOpsNotifier(smtpMailer, cfg.SMTP.OpsEmail),
			Audit:           c.audit,
			Logger:          logger,
		},
	), nil
}

func (c *components) workers(cfg Config, logger *slog.Logger) []func(context.Context) error {
	reconciler := worker.NewLedgerReconciler(c.inventory, c.ledger, logger, cfg.Events.ReconcileInterval, ledgerRepairGrace)

	workers := []func(context.Context) error{reconciler.Run}

	if c.bridge != nil {
		workers = append(workers, c.bridge.Run)
	}

	if c.publisher != nil {
		relay := outbox.NewRelay(c.outbox, c.publisher, logger, cfg.Events.OutboxInterval, outboxBatchSize)
		workers = append(workers, relay.Run)
	}

	return workers
}

func (c *components) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func newPaymentGateway(cfg PaymentConfig) (domain.PaymentGateway, error) {
	switch cfg.Provider {
	case ProviderRazorpay:
		if cfg.KeyID == "" || cfg.KeySecret == "" {
			return nil, fmt.Errorf("razorpay requires -payment-key-id and -payment-key-secret")
		}

		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = payment.DefaultRazorpayURL
		}

		return payment.NewRazorpayGateway(baseURL, cfg.KeyID, cfg.KeySecret, cfg.Timeout), nil
	case ProviderStripe:
		if cfg.StripeKey == "" {
			return nil, fmt.Errorf("stripe requires -stripe-key")
		}

		return payment.NewStripeGateway(cfg.StripeKey, cfg.Timeout), nil
	case ProviderFake:
		return payment.NewFakeGateway(), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
}
