package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"daycare/internal/amqp"
	"daycare/internal/attachment"
	"daycare/internal/cache"
	"daycare/internal/cli"
	"daycare/internal/core"
	apphttp "daycare/internal/http"
	applog "daycare/internal/log"
	"daycare/internal/services"
	"daycare/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(applog.ComponentApp)

	logger.Info("Starting daycare server", applog.FieldOperation, applog.OpStartup)

	store := cli.OpenStore(context.Background(), logger, cfg.DatabasePath)
	cli.EnsureUploadDir(logger, cfg.UploadDir)
	attachments := attachment.NewManager(cfg.UploadDir, logger)

	cacheManager := cache.NewManager(logger)
	summaryCache := cache.NewLRUCache[core.DashboardSummary](8, cfg.DashboardCacheTTL)
	cacheManager.Register(summaryCache)
	cacheManager.StartCleanup(time.Minute)

	deps := services.Deps{
		Store:        store,
		Attachments:  attachments,
		SummaryCache: summaryCache,
		Logger:       logger,
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := amqpClient.Connect(connectCtx); err != nil {
			logger.Warn("AMQP broker unreachable, ledger events will be retried on publish", applog.FieldError, err)
		}
		cancel()
		deps.Publisher = amqpClient
	} else {
		logger.Info("AMQP disabled - ledger events will not be published")
	}

	svc := services.New(deps)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               cfg.Addr(),
		MaxUploadBytes:     cfg.MaxUploadBytes,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Logger:             logger,
	}, svc, store)

	scheduler := worker.NewScheduler(logger)
	if cfg.SweepSchedule != "" {
		sweeper := attachment.NewSweeper(attachments, store, cfg.SweepGrace, cfg.SweepDryRun, logger)
		if err := scheduler.AddJob(cfg.SweepSchedule, worker.SweepJob{Sweeper: sweeper, Logger: logger}); err != nil {
			logger.Error("Failed to schedule attachment sweep", applog.FieldError, err)
			os.Exit(1)
		}
	} else {
		logger.Info("Attachment sweep disabled")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		scheduler.Stop(ctx)
		cacheManager.Stop()
		if amqpClient != nil {
			amqpClient.Close()
		}
		if err := store.Close(); err != nil {
			logger.Error("Failed to close database", applog.FieldError, err)
		}
	})
	scheduler.Start(ctx)

	logger.Info("Listening", "addr", cfg.Addr(), "db", cfg.DatabasePath, "uploads", cfg.UploadDir)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "addr", cfg.Addr())
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
