package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"github.com/brpay/charge-service/internal/adapters/logging"
	"github.com/brpay/charge-service/internal/adapters/postgres"
	"github.com/brpay/charge-service/internal/adapters/redispub"
	"github.com/brpay/charge-service/internal/adapters/tupi"
	"github.com/brpay/charge-service/internal/config"
	"github.com/brpay/charge-service/internal/domain/ports"
	"github.com/brpay/charge-service/internal/handlers"
	chargesvc "github.com/brpay/charge-service/internal/services/charge"
	checkoutsvc "github.com/brpay/charge-service/internal/services/checkout"
	reconciliationsvc "github.com/brpay/charge-service/internal/services/reconciliation"
	settlementsvc "github.com/brpay/charge-service/internal/services/settlement"
	"github.com/brpay/charge-service/internal/workers"
	"github.com/brpay/charge-service/pkg/observability"
	"github.com/brpay/charge-service/pkg/resilience"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Logger.Environment, cfg.Logger.Level)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	poolCfg := postgres.DefaultConfig(cfg.Database.ConnectionString())
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		logger.Error("failed to connect to database", ports.Err(err))
		os.Exit(1)
	}
	defer pool.Close()
	executor := postgres.NewDBExecutor(pool)

	// Messaging
	publisher, err := redispub.NewPublisher(ctx, redispub.Config{
		Addr:          cfg.Redis.Addr,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		ChannelPrefix: cfg.Redis.ChannelPrefix,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to redis", ports.Err(err))
		os.Exit(1)
	}
	defer publisher.Close()

	// Payment provider
	provider := tupi.NewAdapter(
		tupi.Config{BaseURL: cfg.Provider.BaseURL, APIKey: cfg.Provider.APIKey},
		&http.Client{Timeout: time.Duration(cfg.Provider.Timeout) * time.Second},
		logger,
	)

	// Repositories
	chargeRepo := postgres.NewChargeRepository(executor)
	settlementRepo := postgres.NewSettlementRepository(executor)
	reconciliationRepo := postgres.NewReconciliationRepository(executor)
	checkoutConfigRepo := postgres.NewCheckoutConfigRepository(executor)
	checkoutSessionRepo := postgres.NewCheckoutSessionRepository(executor)

	// Services
	timeouts := resilience.DefaultTimeoutConfig()
	chargeService := chargesvc.NewService(chargeRepo, provider, publisher, logger, timeouts)
	settlementService := settlementsvc.NewService(settlementRepo, publisher, logger)
	reconciliationService := reconciliationsvc.NewService(reconciliationRepo, chargeRepo, publisher, logger)
	checkoutService := checkoutsvc.NewService(executor, chargeService, checkoutConfigRepo, checkoutSessionRepo, logger)

	// Background worker
	var worker *workers.SettlementWorker
	if cfg.Worker.Enabled {
		worker = workers.NewSettlementWorker(
			settlementService,
			logger,
			time.Duration(cfg.Worker.IntervalSecs)*time.Second,
			cfg.Worker.BatchSize,
		)
		worker.Start(ctx)
	}

	// HTTP server
	app := fiber.New(fiber.Config{
		AppName:      "charge-service",
		ReadTimeout:  timeouts.HTTPHandler,
		WriteTimeout: timeouts.HTTPHandler,
	})
	handlers.RegisterRoutes(
		app,
		handlers.NewChargeHandler(chargeService),
		handlers.NewCheckoutHandler(checkoutService),
		handlers.NewSettlementHandler(settlementService),
		handlers.NewReconciliationHandler(reconciliationService),
	)

	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort))
	logger.Info("metrics server started", ports.Int("port", cfg.Server.MetricsPort))

	go func() {
		addr := cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port)
		logger.Info("http server starting", ports.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			logger.Error("http server stopped", ports.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("http server shutdown failed", ports.Err(err))
	}
	if worker != nil {
		worker.Stop()
	}
	if err := observability.ShutdownMetricsServer(metricsServer); err != nil {
		logger.Error("metrics server shutdown failed", ports.Err(err))
	}

	logger.Info("shutdown complete")
}
