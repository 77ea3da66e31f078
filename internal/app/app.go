package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/broadcast"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/reservation"
	appvalidator "github.com/metinatakli/cinema-seat-booking/internal/validator"
	"github.com/metinatakli/cinema-seat-booking/internal/vcs"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const serviceName = "cinema-seat-booking"

var (
	version = vcs.Version()
)

type Application struct {
	config      Config
	logger      *slog.Logger
	validator   *validator.Validate
	openapi     *openapi3.T
	coordinator *reservation.Coordinator
	userRepo    domain.UserRepository
	hub         *broadcast.Hub
}

func NewApp(
	cfg Config,
	logger *slog.Logger,
	validator *validator.Validate,
	coordinator *reservation.Coordinator,
	userRepo domain.UserRepository,
	hub *broadcast.Hub) (*Application, error) {

	doc, err := api.GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}

	return &Application{
		config:      cfg,
		logger:      logger,
		validator:   validator,
		openapi:     doc,
		coordinator: coordinator,
		userRepo:    userRepo,
		hub:         hub,
	}, nil
}

func Run() error {
	cfg, displayVersion, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}

	if displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	shutdownTelemetry, err := InitTelemetry(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	if cfg.OtelCollectorUrl != "" {
		logger = slog.New(NewMultiHandler(logger.Handler(), otelslog.NewHandler(serviceName)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := newComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.close()

	coordinator, err := c.coordinator(cfg, logger)
	if err != nil {
		return err
	}

	app, err := NewApp(cfg, logger, appvalidator.NewValidator(), coordinator, c.users, c.hub)
	if err != nil {
		return err
	}

	return app.serve(ctx, c.workers(cfg, logger)...)
}

func NewRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	err := redisotel.InstrumentTracing(rdb)
	if err != nil {
		rdb.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = rdb.Ping(ctx).Err()
	if err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

func NewDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// serve runs the HTTP server next to the background workers. A cancelled ctx
// stops all of them.
func (app *Application) serve(ctx context.Context, workers ...func(context.Context) error) error {
	srv := &http.Server{
		Addr:        fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:     app.Routes(),
		IdleTimeout: time.Minute,
		ReadTimeout: 5 * time.Second,
		// event streams stay open, so there is no write timeout
		ErrorLog: slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env, "store", app.config.Store)

		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		app.logger.Info("shutting down server", "addr", srv.Addr)

		app.hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			return err
		}

		app.logger.Info("stopped server", "addr", srv.Addr)

		return nil
	})

	for _, w := range workers {
		g.Go(func() error {
			return w(gctx)
		})
	}

	return g.Wait()
}
