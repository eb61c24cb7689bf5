// README: Entry point; loads config, wires services, starts HTTP server and the booking expiry monitor.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"safari/internal/config"
	httptransport "safari/internal/http"
	"safari/internal/infra"
	"safari/internal/modules/booking"
	"safari/internal/modules/pricing"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := infra.NewLogger(cfg.Env, cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()

	os.Exit(exitCode(logger, err))
}

// exitCode logs the shutdown outcome and returns the process exit status.
func exitCode(logger *zap.Logger, err error) int {
	defer func() { _ = logger.Sync() }()
	if err != nil {
		logger.Error("safari-api stopped", zap.Error(err))
		return 1
	}
	logger.Info("safari-api stopped")
	return 0
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	if err := infra.Migrate(ctx, dbPool); err != nil {
		return err
	}

	var configStore pricing.ConfigStore = pricing.NewStore(dbPool)
	if cfg.Redis.Addr != "" {
		rdb, err := infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			logger.Warn("redis unavailable, pricing cache disabled", zap.Error(err))
		} else {
			defer func() { _ = rdb.Close() }()
			configStore = pricing.NewCachedStore(configStore, rdb, cfg.Pricing.CacheTTL, logger.Named("pricing-cache"))
		}
	}

	engine := pricing.NewEngine(pricing.TicketRates{
		pricing.VisitorForeign: cfg.Pricing.TicketRateForeign,
		pricing.VisitorLocal:   cfg.Pricing.TicketRateLocal,
	})
	pricingSvc := pricing.NewService(configStore, engine, logger.Named("pricing"))

	if cfg.Pricing.SeedFile != "" {
		seedPricing(ctx, pricingSvc, cfg.Pricing.SeedFile, logger)
	}

	var publisher booking.Publisher = infra.LogPublisher{Log: logger}
	if cfg.AMQP.URL != "" {
		rabbit, err := infra.NewRabbitPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger.Named("rabbitmq"))
		if err != nil {
			logger.Warn("rabbitmq unavailable, booking events will only be logged", zap.Error(err))
		} else {
			defer func() { _ = rabbit.Close() }()
			publisher = rabbit
		}
	}

	bookingSvc := booking.NewService(booking.NewStore(dbPool), pricingSvc, publisher, logger.Named("booking"))
	go bookingSvc.RunExpiryMonitor(ctx, cfg.Booking.ExpiryInterval)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Pricing:     pricingSvc,
		Booking:     bookingSvc,
		Log:         logger.Named("http"),
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Ready:       readiness(dbPool),
	})
	server := httptransport.NewServer(cfg.HTTP.Addr, router, cfg.HTTP.ShutdownTimeout, logger)
	return server.Run(ctx)
}

// seedPricing stores the seed rate card when the database has none yet.
func seedPricing(ctx context.Context, svc *pricing.Service, path string, logger *zap.Logger) {
	seed, err := pricing.LoadConfigFile(path)
	if err != nil {
		logger.Warn("pricing seed skipped", zap.String("file", path), zap.Error(err))
		return
	}
	wrote, err := svc.Seed(ctx, seed)
	if err != nil {
		logger.Error("pricing seed failed", zap.Error(err))
		return
	}
	if wrote {
		logger.Info("pricing config seeded", zap.String("file", path))
	}
}

func readiness(db *pgxpool.Pool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return db.Ping(ctx)
	}
}
