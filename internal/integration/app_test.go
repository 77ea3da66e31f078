package integration_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/app"
	"github.com/metinatakli/cinema-seat-booking/internal/audit"
	"github.com/metinatakli/cinema-seat-booking/internal/broadcast"
	"github.com/metinatakli/cinema-seat-booking/internal/hold"
	"github.com/metinatakli/cinema-seat-booking/internal/mailer"
	"github.com/metinatakli/cinema-seat-booking/internal/payment"
	"github.com/metinatakli/cinema-seat-booking/internal/repository"
	"github.com/metinatakli/cinema-seat-booking/internal/reservation"
	appvalidator "github.com/metinatakli/cinema-seat-booking/internal/validator"
	"github.com/redis/go-redis/v9"
)

type TestApp struct {
	App      *app.Application
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Mailer   *mailer.MockMailer
	Gateway  *payment.FakeGateway
	Verifier *payment.HMACVerifier
	Hub      *broadcast.Hub

	stopBridge context.CancelFunc
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	validator := appvalidator.NewValidator()
	mockMailer := mailer.NewMockMailer()

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	userRepo := repository.NewPostgresUserRepository(db)
	hub := broadcast.NewHub(logger, broadcast.DefaultBufferSize)
	bridge := broadcast.NewRedisBridge(redisClient, hub, logger, 64)

	gateway := payment.NewFakeGateway()
	verifier := payment.NewHMACVerifier(cfg.Payment.KeySecret)

	coordinator := reservation.NewCoordinator(
		reservation.Config{
			HoldTTL:        cfg.Booking.HoldTTL,
			MaxSeats:       cfg.Booking.MaxSeats,
			UnitPrice:      cfg.Booking.UnitPrice,
			Currency:       cfg.Booking.Currency,
			PaymentTimeout: cfg.Payment.Timeout,
		},
		reservation.Deps{
			Inventory:       repository.NewPostgresInventoryRepository(db),
			Ledger:          repository.NewPostgresLedgerRepository(db),
			Users:           userRepo,
			Holds:           hold.NewRedisStore(redisClient),
			Gateway:         gateway,
			Verifier:        verifier,
			Broadcaster:     bridge,
			Reconciliations: repository.NewPostgresReconciliationRepository(db),
			Notifier:        mailer.NewOpsNotifier(mockMailer, cfg.SMTP.OpsEmail),
			Audit:           audit.NopAuditLogger{},
			Logger:          logger,
		},
	)

	application, err := app.NewApp(cfg, logger, validator, coordinator, userRepo, hub)
	if err != nil {
		redisClient.Close()
		db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go bridge.Run(ctx)

	return &TestApp{
		App:        application,
		DB:         db,
		Redis:      redisClient,
		Mailer:     mockMailer,
		Gateway:    gateway,
		Verifier:   verifier,
		Hub:        hub,
		stopBridge: cancel,
	}, nil
}

func (a *TestApp) Close() {
	a.stopBridge()
	a.Redis.Close()
	a.DB.Close()
}
