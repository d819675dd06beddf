package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wathaci-connect/internal/config"
	pg "wathaci-connect/internal/infra/db/postgres"
	"wathaci-connect/internal/infra/logging"
	"wathaci-connect/internal/infra/metrics"
	"wathaci-connect/internal/infra/payment"
	red "wathaci-connect/internal/infra/redis"
	"wathaci-connect/internal/infra/sched"
	"wathaci-connect/internal/infra/web"
	"wathaci-connect/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no sampling)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	publisher := red.NewPublisher(redisClient)
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	paymentRepo := pg.NewPaymentRepo(pool)
	subscriptionRepo := pg.NewSubscriptionRepo(pool)
	bookingRepo := pg.NewBookingRepo(pool)
	transactionRepo := pg.NewTransactionRepo(pool)
	notificationRepo := pg.NewNotificationRepo(pool)
	webhookLogRepo := pg.NewWebhookLogRepo(pool)

	// ---- Gateway adapter ----
	gateway, err := payment.NewLencoGateway(
		cfg.Gateway.BaseURL,
		cfg.Gateway.SecretKey,
		cfg.Gateway.CallbackURL,
		cfg.Gateway.Timeout,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("gateway setup failed")
	}

	// ---- Use cases ----
	txManager := pg.NewTxManager(pool)
	fanoutUC := usecase.NewFanoutUseCase(subscriptionRepo, bookingRepo, transactionRepo, notificationRepo, publisher, logger)
	paymentUC := usecase.NewPaymentUseCase(paymentRepo, gateway, fanoutUC, txManager, usecase.PaymentSettings{
		Currency:           cfg.Payment.Currency,
		MinAmount:          cfg.Payment.MinAmount,
		MinorUnitFactor:    cfg.Payment.MinorUnitFactor,
		MinorUnitThreshold: cfg.Payment.MinorUnitThreshold,
	}, logger)
	statsUC := usecase.NewStatsUseCase(paymentRepo)

	// ---- Background reconciler ----
	reconciler := sched.NewPaymentReconciler(
		paymentUC,
		paymentRepo,
		locker,
		cfg.Reconciler.Interval,
		cfg.Reconciler.StaleAfter,
		cfg.Reconciler.BatchSize,
		logger,
	)
	go reconciler.Start(ctx)

	// ---- HTTP server ----
	server := web.NewServer(cfg, paymentUC, statsUC, webhookLogRepo, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// ---- Shutdown ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	logger.Info().Msg("stopped")
}
