package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"advertiser-billing/internal/config"
	"advertiser-billing/internal/domain/ports/repository"
	pg "advertiser-billing/internal/infra/db/postgres"
	"advertiser-billing/internal/infra/logging"
	"advertiser-billing/internal/infra/metrics"
	"advertiser-billing/internal/infra/notify"
	red "advertiser-billing/internal/infra/redis"
	"advertiser-billing/internal/infra/sched"
	"advertiser-billing/internal/infra/web"
	"advertiser-billing/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Repositories ----
	advertiserRepo := pg.NewAdvertiserRepo(pool)
	packageRepo := pg.NewPackageRepo(pool)
	purchaseRepo := pg.NewPurchaseRepo(pool)
	billingRepo := pg.NewBillingRecordRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Redis (sweep locks + reminder watermark); postgres watermark
	// when redis is not configured ----
	var (
		locker    red.Locker
		reminders repository.ReminderLogRepository = pg.NewReminderLogRepo(pool)
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		locker = red.NewLocker(redisClient)
		reminders = red.NewReminderWatermark(redisClient, cfg.Redis.TTL)
	}

	// ---- Use cases ----
	recorder := usecase.NewBillingRecorder(billingRepo)
	ledgerUC := usecase.NewLedgerUseCase(advertiserRepo, packageRepo, purchaseRepo, recorder, tm,
		usecase.LedgerOptions{
			Epsilon:        cfg.Billing.EpsilonDecimal(),
			Policy:         usecase.ActivationPolicy(cfg.Billing.ActivationPolicy),
			PaymentDueDays: cfg.Billing.PaymentDueDays,
		}, logger)
	catalogUC := usecase.NewCatalogUseCase(packageRepo)
	reconUC := usecase.NewReconciliationUseCase(purchaseRepo, billingRepo,
		usecase.ReconciliationOptions{Epsilon: cfg.Billing.EpsilonDecimal()}, logger)
	notifier := notify.NewLogNotifier(logger)
	renewalUC := usecase.NewRenewalUseCase(ledgerUC, purchaseRepo, advertiserRepo, packageRepo,
		reminders, notifier, usecase.RenewalOptions{UrgentThresholdDays: cfg.Renewal.UrgentThresholdDays}, logger)

	// ---- Workers ----
	go func() {
		_ = sched.NewExpiryWorker(cfg.Scheduler.ExpiryInterval, ledgerUC, purchaseRepo, logger).Run(ctx)
	}()
	go func() {
		_ = sched.NewRenewalWorker(cfg.Scheduler.RenewalInterval, cfg.Renewal.WindowDays, renewalUC, locker, logger).Run(ctx)
	}()
	go func() {
		_ = sched.NewReconciliationWorker(cfg.Scheduler.ReconciliationInterval, reconUC, logger).Run(ctx)
	}()

	// ---- Admin/ops API ----
	server := web.NewServer(ledgerUC, catalogUC, renewalUC, reconUC, cfg.Admin.APIKey, logger)
	go func() {
		if err := server.Start(cfg.Admin.Port); err != nil {
			logger.Error().Err(err).Msg("admin API stopped")
		}
	}()

	logger.Info().Msg("advertiser billing service started")

	// ---- Graceful shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")
	cancel()
	_ = server.Shutdown(context.Background())
}
